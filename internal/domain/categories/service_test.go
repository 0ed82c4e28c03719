package categories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	rows []Category
}

func (m *memoryStore) List(ctx context.Context, kind Kind) ([]Category, error) {
	out := make([]Category, 0)
	for _, c := range m.rows {
		if kind == "" || c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) FindByName(ctx context.Context, name string, kind Kind) (*Category, error) {
	for _, c := range m.rows {
		if c.Name == name && c.Kind == kind {
			return &c, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (m *memoryStore) FindOrCreate(ctx context.Context, name string, kind Kind) (*Category, bool, error) {
	if c, err := m.FindByName(ctx, name, kind); err == nil {
		return c, false, nil
	}
	c := Category{ID: uuid.New(), Name: name, Kind: kind, CreatedAt: time.Now()}
	m.rows = append(m.rows, c)
	return &c, true, nil
}

func newTestService() (*Service, *memoryStore) {
	store := &memoryStore{}
	return NewService(store, slog.New(slog.DiscardHandler)), store
}

func TestService_FindOrCreateNormalizes(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "  Comida ", KindExpense)
	require.NoError(t, err)
	second, err := svc.FindOrCreate(ctx, "COMIDA", KindExpense)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "comida", first.Name)
	assert.Len(t, store.rows, 1)
}

func TestService_SameNameDifferentKind(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	expense, err := svc.FindOrCreate(ctx, "otros", KindExpense)
	require.NoError(t, err)
	income, err := svc.FindOrCreate(ctx, "otros", KindIncome)
	require.NoError(t, err)

	assert.NotEqual(t, expense.ID, income.ID)
	assert.Len(t, store.rows, 2)
}

func TestService_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.FindOrCreate(ctx, "   ", KindExpense)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.FindOrCreate(ctx, "comida", Kind("transfer"))
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = svc.List(ctx, Kind("transfer"))
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = svc.Get(ctx, "nope", KindIncome)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestService_ListFiltersByKind(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.FindOrCreate(ctx, "sueldo", KindIncome)
	_, _ = svc.FindOrCreate(ctx, "luz", KindExpense)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	incomes, err := svc.List(ctx, KindIncome)
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "sueldo", incomes[0].Name)
}
