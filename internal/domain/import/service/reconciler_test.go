package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/parser"
)

func record(kind parser.Kind, category, concept string, amount int64) parser.Record {
	return parser.Record{
		Kind:     kind,
		Category: category,
		Concept:  concept,
		Amount:   decimal.NewFromInt(amount),
		Date:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Currency: "ARS",
		Sheet:    "2024",
		Row:      3,
	}
}

func newTestReconciler(repo Repository) *Reconciler {
	return NewReconciler(repo, slog.New(slog.DiscardHandler), nil)
}

func TestReconciler_SavesAndCachesCategories(t *testing.T) {
	repo := newMemoryRepository()
	records := []parser.Record{
		record(parser.KindExpense, "supermercado", "Carrefour", 1500),
		record(parser.KindExpense, "supermercado", "Carrefour", 2000),
		record(parser.KindIncome, "supermercado", "Reintegro", 100),
		record(parser.KindExpense, "Supermercado ", "Día", 300),
	}

	result := newTestReconciler(repo).Save(context.Background(), records, nil, nil)

	assert.Equal(t, 4, result.SavedCount)
	assert.Equal(t, 4, result.Total)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "4 of 4 records saved", result.Message)

	// one lookup per (kind, name) pair
	assert.Equal(t, 2, repo.categoryCalls)
	assert.Len(t, repo.categories, 2)
	assert.Equal(t, result.Saved[0].CategoryID, result.Saved[3].CategoryID)
	assert.NotEqual(t, result.Saved[0].CategoryID, result.Saved[2].CategoryID)
	assert.Len(t, repo.transactions, 4)
}

func TestReconciler_ReanchorsDates(t *testing.T) {
	repo := newMemoryRepository()
	rec := record(parser.KindExpense, "luz", "Edenor", 10)
	rec.Date = time.Date(2024, 7, 23, 23, 59, 0, 0, time.FixedZone("ART", -3*3600))

	result := newTestReconciler(repo).Save(context.Background(), []parser.Record{rec}, nil, nil)
	require.Equal(t, 1, result.SavedCount)

	want := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, want, repo.transactions[0].Date)
	assert.Equal(t, want, result.Saved[0].Record.Date)
}

func TestReconciler_PersonsResolvedOncePerName(t *testing.T) {
	repo := newMemoryRepository()
	a := record(parser.KindExpense, "colegio", "Cuota", 10)
	a.Person = "Ana"
	b := record(parser.KindExpense, "colegio", "Uniforme", 20)
	b.Person = " ana "
	c := record(parser.KindExpense, "colegio", "Libros", 30)

	result := newTestReconciler(repo).Save(context.Background(), []parser.Record{a, b, c}, nil, nil)
	require.Equal(t, 3, result.SavedCount)

	assert.Equal(t, 1, repo.personCalls)
	require.NotNil(t, result.Saved[0].PersonID)
	assert.Equal(t, *result.Saved[0].PersonID, *result.Saved[1].PersonID)
	assert.Nil(t, result.Saved[2].PersonID)
}

func TestReconciler_FailureDoesNotAbortBatch(t *testing.T) {
	repo := newMemoryRepository()
	repo.failOn = "Roto"
	repo.failErr = errors.New("duplicate key value violates unique constraint\nDETAIL: Key (id)=(...) already exists.")

	records := []parser.Record{
		record(parser.KindExpense, "nueva", "Roto", 10),
		record(parser.KindExpense, "nueva", "Sano", 20),
	}

	result := newTestReconciler(repo).Save(context.Background(), records, nil, nil)

	assert.Equal(t, 1, result.SavedCount)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Errors, 1)

	issue := result.Errors[0]
	assert.Equal(t, parser.SeverityError, issue.Severity)
	assert.True(t, strings.HasPrefix(issue.Message, "record 1: "))
	assert.NotContains(t, issue.Message, "DETAIL")
	assert.Equal(t, "1 of 2 records saved (1 error)", result.Message)

	// the category created by the rolled back transaction was not cached
	assert.Equal(t, 2, repo.categoryCalls)
	assert.Equal(t, 1, repo.rollbacks)
	assert.Len(t, repo.categories, 1)
}

func TestReconciler_RejectsInvalidRecordsBeforeStore(t *testing.T) {
	repo := newMemoryRepository()
	records := []parser.Record{
		record(parser.KindExpense, "", "x", 10),
		record(parser.KindExpense, "a", " ", 10),
		record(parser.KindExpense, "a", "x", 0),
	}

	result := newTestReconciler(repo).Save(context.Background(), records, nil, nil)

	assert.Zero(t, result.SavedCount)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "record 1: missing category", result.Errors[0].Message)
	assert.Equal(t, "record 2: missing concept", result.Errors[1].Message)
	assert.Equal(t, "record 3: amount is zero", result.Errors[2].Message)
	assert.Zero(t, repo.commits+repo.rollbacks)
}

func TestReconciler_ChecksCurrency(t *testing.T) {
	repo := newMemoryRepository()
	blank := record(parser.KindExpense, "a", "x", 10)
	blank.Currency = ""
	unknown := record(parser.KindExpense, "a", "y", 10)
	unknown.Currency = "XYZ"
	lower := record(parser.KindExpense, "a", "z", 10)
	lower.Currency = " usd "

	result := newTestReconciler(repo).Save(context.Background(), []parser.Record{blank, unknown, lower}, nil, nil)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, `record 1: invalid currency ""`, result.Errors[0].Message)
	assert.Equal(t, `record 2: invalid currency "XYZ"`, result.Errors[1].Message)
	require.Equal(t, 1, result.SavedCount)
	assert.Equal(t, "USD", result.Saved[0].Record.Currency)
	assert.Equal(t, 1, repo.commits)
}

func TestReconciler_ParseIssuesComeFirst(t *testing.T) {
	repo := newMemoryRepository()
	repo.failOn = "Roto"

	parseErrs := []parser.Issue{{Severity: parser.SeverityError, Sheet: "s", Row: 4, Message: "missing category"}}
	parseWarns := []parser.Issue{
		{Severity: parser.SeverityWarning, Sheet: "s", Row: 5, Message: "invalid amount"},
		{Severity: parser.SeverityWarning, Sheet: "s", Row: 6, Message: "invalid date"},
	}

	result := newTestReconciler(repo).Save(context.Background(),
		[]parser.Record{record(parser.KindExpense, "a", "Roto", 1)}, parseErrs, parseWarns)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, "missing category", result.Errors[0].Message)
	assert.Contains(t, result.Errors[1].Message, "record 1")
	assert.Len(t, result.Warnings, 2)
	assert.Equal(t, "0 of 1 records saved (2 errors, 2 warnings)", result.Message)
}

func TestRedact(t *testing.T) {
	long := strings.Repeat("x", 500)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first line only", "boom\nstack trace", "boom"},
		{"trimmed", "  boom  ", "boom"},
		{"capped", long, strings.Repeat("x", 197) + "..."},
		{"exactly at cap", strings.Repeat("y", 200), strings.Repeat("y", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redact(tt.in))
		})
	}
}
