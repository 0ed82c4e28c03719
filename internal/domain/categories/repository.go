package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
)

// Kind tells expense categories apart from income categories. The same
// name may exist once per kind.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// Category is a named bucket for expenses or incomes
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository handles category persistence
type Repository struct {
	db db.Querier
}

// NewRepository creates a category repository. q may be a pool or a
// transaction.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// List returns categories ordered by name, optionally filtered by kind.
func (r *Repository) List(ctx context.Context, kind Kind) ([]Category, error) {
	query := `
		SELECT id, name, kind, created_at
		FROM categories
		WHERE ($1 = '' OR kind = $1)
		ORDER BY name, kind`

	rows, err := r.db.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		var k string
		if err := rows.Scan(&c.ID, &c.Name, &k, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Kind = Kind(k)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// FindByName looks a category up by its normalized name and kind.
func (r *Repository) FindByName(ctx context.Context, name string, kind Kind) (*Category, error) {
	query := `
		SELECT id, name, kind, created_at
		FROM categories
		WHERE name = $1 AND kind = $2`

	var c Category
	var k string
	err := r.db.QueryRow(ctx, query, name, string(kind)).Scan(&c.ID, &c.Name, &k, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	c.Kind = Kind(k)
	return &c, nil
}

// FindOrCreate returns the category with the given normalized name and
// kind, inserting it when missing. The bool reports whether a row was
// created.
func (r *Repository) FindOrCreate(ctx context.Context, name string, kind Kind) (*Category, bool, error) {
	query := `
		INSERT INTO categories (id, name, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, kind) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, kind, created_at, (xmax = 0) AS inserted`

	var c Category
	var k string
	var inserted bool
	err := r.db.QueryRow(ctx, query, uuid.New(), name, string(kind)).
		Scan(&c.ID, &c.Name, &k, &c.CreatedAt, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert category: %w", err)
	}
	c.Kind = Kind(k)
	return &c, inserted, nil
}
