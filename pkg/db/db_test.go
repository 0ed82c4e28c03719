package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(migrationsFS, files[0])
	require.NoError(t, err)

	schema := string(data)
	assert.True(t, strings.HasPrefix(schema, "-- +goose Up"))
	for _, table := range []string{"categories", "persons", "expenses", "incomes"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema, "UNIQUE (name, kind)")
}

func TestMigrationsOrdered(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "migrations/00002_investments.sql", files[1])

	data, err := fs.ReadFile(migrationsFS, files[1])
	require.NoError(t, err)

	schema := string(data)
	for _, table := range []string{"investments", "investment_operations"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema, "-- +goose Down")
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(Config{DSN: "postgres://%zz"}, nil)
	assert.Error(t, err)
}
