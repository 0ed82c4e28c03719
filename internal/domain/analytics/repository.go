package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
)

// Table names the ledger table an aggregate runs over.
type Table string

const (
	Expenses Table = "expenses"
	Incomes  Table = "incomes"
)

// Total is a sum with the number of rows behind it
type Total struct {
	Amount decimal.Decimal
	Count  int
}

// CategoryTotal is the expense total of one category. Name is nil when the
// category row is missing.
type CategoryTotal struct {
	Name   *string
	Amount decimal.Decimal
	Count  int
}

// MonthTotal is the total of one calendar month, Month formatted YYYY-MM.
type MonthTotal struct {
	Month  string
	Amount decimal.Decimal
	Count  int
}

// Repository runs the aggregation queries behind the summary
type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

func (t Table) valid() bool {
	return t == Expenses || t == Incomes
}

// Total sums every row of table.
func (r *Repository) Total(ctx context.Context, table Table) (Total, error) {
	if !table.valid() {
		return Total{}, fmt.Errorf("unknown table %q", table)
	}

	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM ` + string(table)

	var t Total
	if err := r.db.QueryRow(ctx, query).Scan(&t.Amount, &t.Count); err != nil {
		return Total{}, fmt.Errorf("failed to total %s: %w", table, err)
	}
	return t, nil
}

// ExpensesByCategory groups expenses by category, largest first.
func (r *Repository) ExpensesByCategory(ctx context.Context) ([]CategoryTotal, error) {
	query := `
		SELECT c.name, COALESCE(SUM(e.amount), 0), COUNT(*)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		GROUP BY c.name
		ORDER BY 2 DESC, c.name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group expenses by category: %w", err)
	}
	defer rows.Close()

	totals := make([]CategoryTotal, 0)
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Amount, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}

// ByMonth groups table by UTC calendar month, newest first.
func (r *Repository) ByMonth(ctx context.Context, table Table) ([]MonthTotal, error) {
	if !table.valid() {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	query := `
		SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COALESCE(SUM(amount), 0), COUNT(*)
		FROM ` + string(table) + `
		GROUP BY month
		ORDER BY month DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group %s by month: %w", table, err)
	}
	defer rows.Close()

	months := make([]MonthTotal, 0)
	for rows.Next() {
		var m MonthTotal
		if err := rows.Scan(&m.Month, &m.Amount, &m.Count); err != nil {
			return nil, fmt.Errorf("failed to scan month total: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month totals: %w", err)
	}
	return months, nil
}
