package transactions

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
)

type recordingStore struct {
	got   Filter
	calls int
}

func (s *recordingStore) List(ctx context.Context, f Filter) ([]Transaction, int, error) {
	s.got = f
	s.calls++
	return []Transaction{{Kind: f.Kind, Concept: "Pan"}}, 7, nil
}

func TestService_ListDefaults(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store, slog.New(slog.DiscardHandler))

	page, err := svc.List(context.Background(), Filter{Search: "  sueldo "})
	require.NoError(t, err)

	assert.Equal(t, categories.KindExpense, store.got.Kind)
	assert.Equal(t, DefaultLimit, store.got.Limit)
	assert.Equal(t, "sueldo", store.got.Search)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, DefaultLimit, page.Limit)
	require.Len(t, page.Items, 1)
}

func TestService_ListCapsLimit(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store, slog.New(slog.DiscardHandler))

	page, err := svc.List(context.Background(), Filter{Kind: categories.KindIncome, Limit: 10_000, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, store.got.Limit)
	assert.Equal(t, 40, page.Offset)
}

func TestService_ListRejectsBadFilters(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	low := decimal.RequireFromString("10")
	high := decimal.RequireFromString("100")

	tests := []struct {
		name   string
		filter Filter
		want   error
	}{
		{"unknown kind", Filter{Kind: "transfer"}, ErrInvalidKind},
		{"from after to", Filter{From: &feb, To: &jan}, ErrInvalidFilter},
		{"min above max", Filter{MinAmount: &high, MaxAmount: &low}, ErrInvalidFilter},
		{"negative limit", Filter{Limit: -1}, ErrInvalidFilter},
		{"negative offset", Filter{Offset: -5}, ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			_, err := NewService(store, slog.New(slog.DiscardHandler)).List(context.Background(), tt.filter)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, store.calls)
		})
	}
}

func TestService_ListAcceptsEqualBounds(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("1500")

	store := &recordingStore{}
	_, err := NewService(store, slog.New(slog.DiscardHandler)).List(context.Background(), Filter{
		From: &day, To: &day, MinAmount: &amount, MaxAmount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}
