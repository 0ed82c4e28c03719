package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
)

func TestTransactionFlags_Filter(t *testing.T) {
	flags := transactionFlags{
		kind:   "INCOME",
		person: "6f1c2a4e-8a8b-4f5e-9d1e-0c6a1b2c3d4e",
		from:   "2024-01-01",
		to:     "2024-01-31",
		min:    "100",
		search: "sueldo",
		limit:  20,
	}

	f, err := flags.filter()
	require.NoError(t, err)
	assert.Equal(t, categories.KindIncome, f.Kind)
	require.NotNil(t, f.PersonID)
	assert.Equal(t, "6f1c2a4e-8a8b-4f5e-9d1e-0c6a1b2c3d4e", f.PersonID.String())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999000, time.UTC), *f.To)
	require.NotNil(t, f.MinAmount)
	assert.Equal(t, "100", f.MinAmount.String())
	assert.Nil(t, f.MaxAmount)
	assert.Equal(t, 20, f.Limit)
}

func TestTransactionFlags_FilterErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags transactionFlags
		want  string
	}{
		{"bad person", transactionFlags{person: "ana"}, "--person"},
		{"bad date", transactionFlags{from: "01/02/2024"}, "--from"},
		{"bad amount", transactionFlags{max: "mucho"}, "--max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.filter()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
