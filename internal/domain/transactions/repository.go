package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
)

// Transaction is an expense or income row with its category and person
// names resolved. Concept holds the income source for incomes.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Kind        categories.Kind `json:"kind"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Category    string          `json:"category"`
	PersonID    *uuid.UUID      `json:"person_id,omitempty"`
	Person      *string         `json:"person,omitempty"`
	Concept     string          `json:"concept"`
	Note        *string         `json:"note,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	SourceSheet *string         `json:"source_sheet,omitempty"`
	SourceRow   *int            `json:"source_row,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Filter narrows a listing. Zero values mean no restriction, except Kind
// which picks the table.
type Filter struct {
	Kind       categories.Kind
	CategoryID *uuid.UUID
	PersonID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Search     string
	Limit      int
	Offset     int
}

// Repository reads the imported ledgers
type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// table returns the ledger table and its free-text column for kind
func table(kind categories.Kind) (string, string, error) {
	switch kind {
	case categories.KindExpense:
		return "expenses", "concept", nil
	case categories.KindIncome:
		return "incomes", "source", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// where builds the filter conditions with their positional arguments
func where(f Filter, textColumn string) (string, []any) {
	var conds []string
	var args []any
	argIdx := 1

	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, argIdx))
		args = append(args, arg)
		argIdx++
	}

	if f.CategoryID != nil {
		add(`t.category_id = $%d`, *f.CategoryID)
	}
	if f.PersonID != nil {
		add(`t.person_id = $%d`, *f.PersonID)
	}
	if f.From != nil {
		add(`t.date >= $%d`, *f.From)
	}
	if f.To != nil {
		add(`t.date <= $%d`, *f.To)
	}
	if f.MinAmount != nil {
		add(`t.amount >= $%d`, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		add(`t.amount <= $%d`, *f.MaxAmount)
	}
	if f.Search != "" {
		add(`t.`+textColumn+` ILIKE $%d`, "%"+escapeLike(f.Search)+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

// List returns the rows matching f, newest first, and the number of rows
// matching before Limit and Offset are applied.
func (r *Repository) List(ctx context.Context, f Filter) ([]Transaction, int, error) {
	tbl, textColumn, err := table(f.Kind)
	if err != nil {
		return nil, 0, err
	}
	cond, args := where(f, textColumn)

	var total int
	countQuery := `SELECT COUNT(*) FROM ` + tbl + ` t` + cond
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", tbl, err)
	}

	query := `
		SELECT t.id, t.category_id, c.name, t.person_id, p.name, t.` + textColumn + `, t.note,
		       t.amount, t.currency, t.date, t.source_sheet, t.source_row, t.created_at
		FROM ` + tbl + ` t
		JOIN categories c ON c.id = t.category_id
		LEFT JOIN persons p ON p.id = t.person_id` + cond
	argIdx := len(args) + 1
	query += fmt.Sprintf(` ORDER BY t.date DESC, t.created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", tbl, err)
	}
	defer rows.Close()

	list := make([]Transaction, 0)
	for rows.Next() {
		tx := Transaction{Kind: f.Kind}
		if err := rows.Scan(
			&tx.ID, &tx.CategoryID, &tx.Category, &tx.PersonID, &tx.Person, &tx.Concept, &tx.Note,
			&tx.Amount, &tx.Currency, &tx.Date, &tx.SourceSheet, &tx.SourceRow, &tx.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s row: %w", tbl, err)
		}
		list = append(list, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate %s: %w", tbl, err)
	}
	return list, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
