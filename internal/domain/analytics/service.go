// Package analytics aggregates stored expenses and incomes into the
// household summary.
package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/pkg/money"
)

// Uncategorized labels expenses whose category cannot be resolved.
const Uncategorized = "Sin categoría"

// Store is the read side the summary needs. *Repository implements it.
type Store interface {
	Total(ctx context.Context, table Table) (Total, error)
	ExpensesByCategory(ctx context.Context) ([]CategoryTotal, error)
	ByMonth(ctx context.Context, table Table) ([]MonthTotal, error)
}

var _ Store = (*Repository)(nil)

type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
	// Display holds the same three values formatted in the summary currency.
	Display struct {
		Income   string `json:"income"`
		Expenses string `json:"expenses"`
		Balance  string `json:"balance"`
	} `json:"display"`
}

type CategoryShare struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
	Percent  decimal.Decimal `json:"percent"`
}

type Month struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type Monthly struct {
	Income   []Month `json:"income"`
	Expenses []Month `json:"expenses"`
}

// Summary is the household overview: totals, expense split by category and
// month by month figures for both kinds.
type Summary struct {
	Currency   string          `json:"currency"`
	Totals     Totals          `json:"totals"`
	ByCategory []CategoryShare `json:"by_category"`
	ByMonth    Monthly         `json:"by_month"`
}

// Service builds summaries
type Service struct {
	store    Store
	currency string
	logger   *slog.Logger
}

// NewService creates an analytics service. currency is used for display
// and rounding; stored amounts are summed as they are.
func NewService(store Store, currency string, logger *slog.Logger) *Service {
	return &Service{store: store, currency: currency, logger: logger}
}

// TotalExpenses returns the sum and count of all expenses.
func (s *Service) TotalExpenses(ctx context.Context) (Total, error) {
	return s.store.Total(ctx, Expenses)
}

// TotalIncome returns the sum and count of all incomes.
func (s *Service) TotalIncome(ctx context.Context) (Total, error) {
	return s.store.Total(ctx, Incomes)
}

// ExpensesByCategory returns each category's expense total and its share of
// all categorised expenses, in percent with two decimals.
func (s *Service) ExpensesByCategory(ctx context.Context) ([]CategoryShare, error) {
	rows, err := s.store.ExpensesByCategory(ctx)
	if err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Amount)
	}
	whole := money.NewFromDecimal(sum, s.currency)

	shares := make([]CategoryShare, 0, len(rows))
	for _, r := range rows {
		name := Uncategorized
		if r.Name != nil && *r.Name != "" {
			name = *r.Name
		}
		shares = append(shares, CategoryShare{
			Category: name,
			Total:    r.Amount,
			Count:    r.Count,
			Percent:  money.NewFromDecimal(r.Amount, s.currency).PercentageOf(whole),
		})
	}
	return shares, nil
}

// ExpensesByMonth returns monthly expense totals, newest month first.
func (s *Service) ExpensesByMonth(ctx context.Context) ([]Month, error) {
	return s.byMonth(ctx, Expenses)
}

// IncomeByMonth returns monthly income totals, newest month first.
func (s *Service) IncomeByMonth(ctx context.Context) ([]Month, error) {
	return s.byMonth(ctx, Incomes)
}

func (s *Service) byMonth(ctx context.Context, table Table) ([]Month, error) {
	rows, err := s.store.ByMonth(ctx, table)
	if err != nil {
		return nil, err
	}
	months := make([]Month, 0, len(rows))
	for _, r := range rows {
		months = append(months, Month{Month: r.Month, Total: r.Amount, Count: r.Count})
	}
	return months, nil
}

// Summary gathers every aggregate into one report.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	income, err := s.TotalIncome(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	expenses, err := s.TotalExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	byCategory, err := s.ExpensesByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	expensesByMonth, err := s.ExpensesByMonth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	incomeByMonth, err := s.IncomeByMonth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}

	summary := &Summary{
		Currency:   s.currency,
		ByCategory: byCategory,
		ByMonth:    Monthly{Income: incomeByMonth, Expenses: expensesByMonth},
	}
	summary.Totals.Income = income.Amount
	summary.Totals.Expenses = expenses.Amount
	summary.Totals.Balance = income.Amount.Sub(expenses.Amount)
	summary.Totals.Display.Income = money.NewFromDecimal(income.Amount, s.currency).Display()
	summary.Totals.Display.Expenses = money.NewFromDecimal(expenses.Amount, s.currency).Display()
	summary.Totals.Display.Balance = money.NewFromDecimal(summary.Totals.Balance, s.currency).Display()

	s.logger.Debug("summary built",
		slog.Int("incomes", income.Count),
		slog.Int("expenses", expenses.Count),
		slog.Int("categories", len(byCategory)),
	)
	return summary, nil
}
