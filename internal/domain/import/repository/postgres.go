// Package repository persists imported records in PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/persons"
	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
)

var _ service.Repository = (*PostgresImportRepository)(nil)

// PostgresImportRepository implements service.Repository using PostgreSQL
type PostgresImportRepository struct {
	pool db.TxBeginner
}

// NewPostgresImportRepository creates a new PostgreSQL import repository
func NewPostgresImportRepository(pool db.TxBeginner) *PostgresImportRepository {
	return &PostgresImportRepository{pool: pool}
}

// RunInTx runs fn in a transaction, committing when fn succeeds.
func (r *PostgresImportRepository) RunInTx(ctx context.Context, fn func(service.Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newTxStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore implements service.Store on top of one transaction
type txStore struct {
	tx         pgx.Tx
	categories *categories.Repository
	persons    *persons.Repository
}

func newTxStore(tx pgx.Tx) *txStore {
	return &txStore{
		tx:         tx,
		categories: categories.NewRepository(tx),
		persons:    persons.NewRepository(tx),
	}
}

func (s *txStore) FindOrCreateCategory(ctx context.Context, name string, kind parser.Kind) (service.CategoryRef, error) {
	c, _, err := s.categories.FindOrCreate(ctx, name, categories.Kind(kind))
	if err != nil {
		return service.CategoryRef{}, err
	}
	return service.CategoryRef{ID: c.ID, Name: c.Name, Kind: parser.Kind(c.Kind)}, nil
}

func (s *txStore) FindOrCreatePerson(ctx context.Context, name string) (service.PersonRef, error) {
	p, _, err := s.persons.FindOrCreate(ctx, name)
	if err != nil {
		return service.PersonRef{}, err
	}
	return service.PersonRef{ID: p.ID, Name: p.Name}, nil
}

// CreateTransaction inserts an expense or an income row. Incomes store the
// concept as their source.
func (s *txStore) CreateTransaction(ctx context.Context, t service.NewTransaction) (service.RecordRef, error) {
	var table, conceptColumn string
	switch t.Kind {
	case parser.KindExpense:
		table, conceptColumn = "expenses", "concept"
	case parser.KindIncome:
		table, conceptColumn = "incomes", "source"
	default:
		return service.RecordRef{}, fmt.Errorf("unknown record kind %q", t.Kind)
	}

	query := `
		INSERT INTO ` + table + ` (id, category_id, person_id, ` + conceptColumn + `, note, amount, currency, date, source_sheet, source_row)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	var note *string
	if t.Note != "" {
		note = &t.Note
	}

	ref := service.RecordRef{}
	err := s.tx.QueryRow(ctx, query,
		uuid.New(),
		t.CategoryID,
		t.PersonID,
		t.Concept,
		note,
		t.Amount,
		t.Currency,
		t.Date,
		t.Sheet,
		t.Row,
	).Scan(&ref.ID, &ref.CreatedAt)
	if err != nil {
		return service.RecordRef{}, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return ref, nil
}
