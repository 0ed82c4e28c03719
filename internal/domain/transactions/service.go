// Package transactions lists imported expenses and incomes with filters on
// category, person, date and amount.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var (
	ErrInvalidKind   = errors.New("kind must be expense or income")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Store is the read surface the service needs
type Store interface {
	List(ctx context.Context, f Filter) ([]Transaction, int, error)
}

// Page is one slice of a listing
type Page struct {
	Items  []Transaction `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Service lists ledger rows
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List validates f and returns the matching page. Kind defaults to expense
// and Limit to DefaultLimit.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	f, err := normalize(f)
	if err != nil {
		return nil, err
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("listed transactions",
		slog.String("kind", string(f.Kind)),
		slog.Int("count", len(items)),
		slog.Int("total", total),
	)
	return &Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func normalize(f Filter) (Filter, error) {
	if f.Kind == "" {
		f.Kind = categories.KindExpense
	}
	if !f.Kind.Valid() {
		return f, fmt.Errorf("%w: %q", ErrInvalidKind, f.Kind)
	}

	switch {
	case f.From != nil && f.To != nil && f.From.After(*f.To):
		return f, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter,
			f.From.Format("2006-01-02"), f.To.Format("2006-01-02"))
	case f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount):
		return f, fmt.Errorf("%w: min amount %s is above max amount %s", ErrInvalidFilter, f.MinAmount, f.MaxAmount)
	case f.Limit < 0 || f.Offset < 0:
		return f, fmt.Errorf("%w: limit and offset cannot be negative", ErrInvalidFilter)
	}

	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}
