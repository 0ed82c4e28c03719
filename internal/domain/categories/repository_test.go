package categories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categoryColumns = []string{"id", "name", "kind", "created_at"}

func TestRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, kind, created_at\s+FROM categories`).
		WithArgs("expense").
		WillReturnRows(pgxmock.NewRows(categoryColumns).
			AddRow(uuid.New(), "comida", "expense", now).
			AddRow(uuid.New(), "vivienda", "expense", now))

	repo := NewRepository(mock)
	got, err := repo.List(context.Background(), KindExpense)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "comida", got[0].Name)
	assert.Equal(t, KindExpense, got[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM categories\s+WHERE name = \$1 AND kind = \$2`).
		WithArgs("sueldo", "income").
		WillReturnRows(pgxmock.NewRows(categoryColumns).AddRow(id, "sueldo", "income", time.Now()))
	mock.ExpectQuery(`FROM categories\s+WHERE name = \$1 AND kind = \$2`).
		WithArgs("nada", "income").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)

	got, err := repo.FindByName(context.Background(), "sueldo", KindIncome)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = repo.FindByName(context.Background(), "nada", KindIncome)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindOrCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs(pgxmock.AnyArg(), "comida", "expense").
		WillReturnRows(pgxmock.NewRows(append(categoryColumns, "inserted")).
			AddRow(id, "comida", "expense", time.Now(), true))

	repo := NewRepository(mock)
	got, created, err := repo.FindOrCreate(context.Background(), "comida", KindExpense)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, id, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindOrCreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs(pgxmock.AnyArg(), "comida", "expense").
		WillReturnError(errors.New("connection reset"))

	repo := NewRepository(mock)
	_, _, err = repo.FindOrCreate(context.Background(), "comida", KindExpense)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert category")
}
