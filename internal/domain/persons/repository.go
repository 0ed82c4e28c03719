package persons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
)

const uniqueViolation = "23505"

// Person is a family member transactions can be attributed to
type Person struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      *string   `json:"icon,omitempty"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository handles person persistence
type Repository struct {
	db db.Querier
}

// NewRepository creates a person repository. q may be a pool or a
// transaction.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

const personColumns = `id, name, icon, color, created_at, updated_at`

func scanPerson(row pgx.Row) (*Person, error) {
	var p Person
	if err := row.Scan(&p.ID, &p.Name, &p.Icon, &p.Color, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all persons ordered by name
func (r *Repository) List(ctx context.Context) ([]Person, error) {
	rows, err := r.db.Query(ctx, `SELECT `+personColumns+` FROM persons ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	persons := make([]Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}
	return persons, nil
}

// GetByID retrieves a person by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Person, error) {
	p, err := scanPerson(r.db.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// Create inserts a new person
func (r *Repository) Create(ctx context.Context, p *Person) error {
	query := `
		INSERT INTO persons (id, name, icon, color)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Icon, p.Color).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

// Update overwrites name, icon and color
func (r *Repository) Update(ctx context.Context, p *Person) error {
	query := `
		UPDATE persons
		SET name = $2, icon = $3, color = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Icon, p.Color).Scan(&p.CreatedAt, &p.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrPersonNotFound
	case isUniqueViolation(err):
		return ErrDuplicateName
	case err != nil:
		return fmt.Errorf("failed to update person: %w", err)
	}
	return nil
}

// Delete removes a person. Their transactions keep existing unattributed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPersonNotFound
	}
	return nil
}

// FindOrCreate resolves a person by case-insensitive name, inserting it
// when missing. The bool reports whether a row was created.
func (r *Repository) FindOrCreate(ctx context.Context, name string) (*Person, bool, error) {
	query := `
		INSERT INTO persons (id, name)
		VALUES ($1, $2)
		ON CONFLICT ((lower(name))) DO UPDATE SET name = persons.name
		RETURNING ` + personColumns + `, (xmax = 0) AS inserted`

	var p Person
	var inserted bool
	err := r.db.QueryRow(ctx, query, uuid.New(), name).
		Scan(&p.ID, &p.Name, &p.Icon, &p.Color, &p.CreatedAt, &p.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert person: %w", err)
	}
	return &p, inserted, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
