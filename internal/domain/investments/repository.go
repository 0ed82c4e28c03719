package investments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
)

// Investment is one position: what was put in, what it is worth now and
// how many units are held.
type Investment struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	Invested       decimal.Decimal `json:"invested"`
	Value          decimal.Decimal `json:"value"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	Currency       string          `json:"currency"`
	Date           time.Time       `json:"date"`
	PersonID       *uuid.UUID      `json:"person_id,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Operation is a buy, sell or adjustment of an investment's units
type Operation struct {
	ID           uuid.UUID        `json:"id"`
	InvestmentID uuid.UUID        `json:"investment_id"`
	Type         OperationType    `json:"type"`
	Amount       decimal.Decimal  `json:"amount"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Note         *string          `json:"note,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// CurrencyTotal sums the investments held in one currency
type CurrencyTotal struct {
	Currency string
	Value    decimal.Decimal
	Invested decimal.Decimal
	Count    int
}

// Repository handles investment persistence
type Repository struct {
	pool db.Pool
}

func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

const investmentColumns = `id, type, name, invested, value, original_amount, current_amount,
	currency, date, person_id, notes, created_at, updated_at`

const operationColumns = `id, investment_id, type, amount, price, note, created_at`

func scanInvestment(row pgx.Row) (*Investment, error) {
	var inv Investment
	err := row.Scan(
		&inv.ID, &inv.Type, &inv.Name, &inv.Invested, &inv.Value,
		&inv.OriginalAmount, &inv.CurrentAmount,
		&inv.Currency, &inv.Date, &inv.PersonID, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanOperation(row pgx.Row) (*Operation, error) {
	var op Operation
	if err := row.Scan(&op.ID, &op.InvestmentID, &op.Type, &op.Amount, &op.Price, &op.Note, &op.CreatedAt); err != nil {
		return nil, err
	}
	return &op, nil
}

// List returns all investments, most recent first
func (r *Repository) List(ctx context.Context) ([]Investment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+investmentColumns+` FROM investments ORDER BY date DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	investments := make([]Investment, 0)
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investments: %w", err)
	}
	return investments, nil
}

// GetByID retrieves an investment by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Investment, error) {
	return getInvestment(ctx, r.pool, id, false)
}

// Create inserts a new investment
func (r *Repository) Create(ctx context.Context, inv *Investment) error {
	query := `
		INSERT INTO investments (id, type, name, invested, value, original_amount, current_amount,
			currency, date, person_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		inv.ID, inv.Type, inv.Name, inv.Invested, inv.Value, inv.OriginalAmount, inv.CurrentAmount,
		inv.Currency, inv.Date, inv.PersonID, inv.Notes,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// Update overwrites the descriptive fields. Held quantities only change
// through operations.
func (r *Repository) Update(ctx context.Context, inv *Investment) error {
	query := `
		UPDATE investments
		SET type = $2, name = $3, invested = $4, value = $5, currency = $6,
			date = $7, person_id = $8, notes = $9, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		inv.ID, inv.Type, inv.Name, inv.Invested, inv.Value, inv.Currency,
		inv.Date, inv.PersonID, inv.Notes,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvestmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	return nil
}

// Delete removes an investment together with its operations
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM investments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvestmentNotFound
	}
	return nil
}

// Totals sums value and invested amount per currency
func (r *Repository) Totals(ctx context.Context) ([]CurrencyTotal, error) {
	query := `
		SELECT currency, COALESCE(SUM(value), 0), COALESCE(SUM(invested), 0), COUNT(*)
		FROM investments
		GROUP BY currency
		ORDER BY currency`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to total investments: %w", err)
	}
	defer rows.Close()

	totals := make([]CurrencyTotal, 0)
	for rows.Next() {
		var t CurrencyTotal
		if err := rows.Scan(&t.Currency, &t.Value, &t.Invested, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan investment total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investment totals: %w", err)
	}
	return totals, nil
}

// ListOperations returns operations newest first, optionally limited to
// one investment.
func (r *Repository) ListOperations(ctx context.Context, investmentID *uuid.UUID) ([]Operation, error) {
	args := []any{}
	query := `SELECT ` + operationColumns + ` FROM investment_operations`
	if investmentID != nil {
		query += ` WHERE investment_id = $1`
		args = append(args, *investmentID)
	}
	query += ` ORDER BY created_at DESC, id`

	return queryOperations(ctx, r.pool, query, args...)
}

// GetOperation retrieves one operation
func (r *Repository) GetOperation(ctx context.Context, id uuid.UUID) (*Operation, error) {
	return getOperation(ctx, r.pool, id)
}

// RunInTx runs fn in a transaction, committing when fn succeeds.
func (r *Repository) RunInTx(ctx context.Context, fn func(HoldingsStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore implements HoldingsStore on top of one transaction
type txStore struct {
	tx pgx.Tx
}

func (s *txStore) LockInvestment(ctx context.Context, id uuid.UUID) (*Investment, error) {
	return getInvestment(ctx, s.tx, id, true)
}

func (s *txStore) GetOperation(ctx context.Context, id uuid.UUID) (*Operation, error) {
	return getOperation(ctx, s.tx, id)
}

// Operations returns the operations of an investment in the order they
// were recorded.
func (s *txStore) Operations(ctx context.Context, investmentID uuid.UUID) ([]Operation, error) {
	query := `SELECT ` + operationColumns + `
		FROM investment_operations
		WHERE investment_id = $1
		ORDER BY created_at, id`
	return queryOperations(ctx, s.tx, query, investmentID)
}

func (s *txStore) CreateOperation(ctx context.Context, op *Operation) error {
	query := `
		INSERT INTO investment_operations (id, investment_id, type, amount, price, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}

	err := s.tx.QueryRow(ctx, query, op.ID, op.InvestmentID, string(op.Type), op.Amount, op.Price, op.Note).
		Scan(&op.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

func (s *txStore) UpdateOperation(ctx context.Context, op *Operation) error {
	query := `
		UPDATE investment_operations
		SET type = $2, amount = $3, price = $4, note = $5
		WHERE id = $1`

	tag, err := s.tx.Exec(ctx, query, op.ID, string(op.Type), op.Amount, op.Price, op.Note)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func (s *txStore) DeleteOperation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM investment_operations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func (s *txStore) SetCurrentAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE investments SET current_amount = $2, updated_at = now() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("failed to update held amount: %w", err)
	}
	return nil
}

func getInvestment(ctx context.Context, q db.Querier, id uuid.UUID, lock bool) (*Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	inv, err := scanInvestment(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

func getOperation(ctx context.Context, q db.Querier, id uuid.UUID) (*Operation, error) {
	op, err := scanOperation(q.QueryRow(ctx, `SELECT `+operationColumns+` FROM investment_operations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

func queryOperations(ctx context.Context, q db.Querier, query string, args ...any) ([]Operation, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	ops := make([]Operation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}
	return ops, nil
}
