package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/family-finance-tracker/pkg/storage"
)

func newTestService(repo Repository, cfg Config) *UploadService {
	return NewUploadService(repo, cfg, slog.New(slog.DiscardHandler), nil)
}

// ledgerWorkbook builds a workbook with an empty first sheet and a ledger
// sheet named "Gastos 2023".
func ledgerWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Vacía"))
	const sheet = "Gastos 2023"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	rows := [][]any{
		{"Conceptos", "Enero", "Febrero", "Marzo"},
		{"Supermercado"},
		{"Carrefour", 1500, 0, 2000},
		{nil, nil, 300},
		{"Ingresos"},
		{"Sueldo", 90000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	for _, axis := range []string{"A1", "A2", "A5"} {
		require.NoError(t, f.SetCellStyle(sheet, axis, axis, bold))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImport_ColumnarCSV(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, DefaultConfig())

	data := []byte("date,amount,category,concept\n2024-03-15,100.50,Food,Lunch\n")
	result, err := svc.Import(context.Background(), "movimientos.csv", data)
	require.NoError(t, err)

	assert.Equal(t, StateSaved, result.State)
	assert.Equal(t, 1, result.SavedCount)
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, "movimientos", result.Sheets[0].Name)
	assert.Equal(t, sniffer.LayoutColumnar, result.Sheets[0].Layout)

	require.Len(t, repo.transactions, 1)
	tx := repo.transactions[0]
	assert.Equal(t, parser.KindExpense, tx.Kind)
	assert.Equal(t, "Lunch", tx.Concept)
	assert.Equal(t, "100.5", tx.Amount.String())
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), tx.Date)
	assert.Contains(t, repo.categories, categoryKey(parser.KindExpense, "food"))
}

func TestImport_LedgerWorkbook(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, DefaultConfig())

	result, err := svc.Import(context.Background(), "familia.xlsx", ledgerWorkbook(t), WithPerson("Ana"))
	require.NoError(t, err)

	require.Len(t, result.Sheets, 2)
	assert.True(t, result.Sheets[0].Empty)
	assert.Equal(t, sniffer.LayoutLedger, result.Sheets[1].Layout)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "sheet is empty", result.Warnings[0].Message)
	assert.Equal(t, "Vacía", result.Warnings[0].Sheet)

	// Carrefour Jan + Mar, continuation Feb, Sueldo Jan
	require.Equal(t, 4, result.SavedCount)
	saved := result.Saved
	assert.Equal(t, time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), saved[0].Record.Date)
	assert.Equal(t, "Carrefour", saved[2].Record.Concept)
	assert.Equal(t, time.February, saved[2].Record.Date.Month())
	assert.Equal(t, parser.KindIncome, saved[3].Record.Kind)
	assert.Equal(t, "ingresos", saved[3].Record.Category)

	assert.Len(t, repo.persons, 1)
	for _, s := range saved {
		require.NotNil(t, s.PersonID)
	}
}

func TestImport_ArchivesUpload(t *testing.T) {
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := newTestService(newMemoryRepository(), DefaultConfig()).WithArchive(archive)
	data := []byte("date,amount,category,concept\n2024-03-15,100.50,Food,Lunch\n")

	result, err := svc.Import(context.Background(), "movimientos.csv", data)
	require.NoError(t, err)
	require.NotNil(t, result.Archived)
	assert.Equal(t, result.UploadID, result.Archived.ID)

	stored, _, err := archive.Open(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// failed uploads are not archived
	_, err = svc.Import(context.Background(), "roto.csv", []byte("descripcion,valor\nalgo,1\n"))
	require.Error(t, err)
	files, err := archive.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestPreview_WarnsOnSheetsWithoutData(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Notas"))
	require.NoError(t, f.SetCellValue("Notas", "A1", "Recordar pagar el seguro"))
	_, err := f.NewSheet("Movimientos")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Movimientos", "A1", &[]any{"fecha", "monto", "categoria", "concepto"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	svc := newTestService(newMemoryRepository(), DefaultConfig())
	result, err := svc.Preview(context.Background(), "hogar.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	require.Len(t, result.Sheets, 2)
	require.Len(t, result.Warnings, 2)
	for i, name := range []string{"Notas", "Movimientos"} {
		assert.Equal(t, name, result.Sheets[i].Name)
		assert.Equal(t, name, result.Warnings[i].Sheet)
		assert.Equal(t, "sheet has no data rows", result.Warnings[i].Message)
	}
}

func TestPreview_DoesNotPersist(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, DefaultConfig())

	result, err := svc.Preview(context.Background(), "familia.xlsx", ledgerWorkbook(t), WithYear(2030))
	require.NoError(t, err)

	require.Len(t, result.Records, 4)
	assert.Equal(t, 2030, result.Records[0].Date.Year())
	assert.Zero(t, repo.commits)
	assert.Empty(t, repo.transactions)

	saved, err := svc.Confirm(context.Background(), result.Records, result.Errors, result.Warnings)
	require.NoError(t, err)
	assert.Equal(t, 4, saved.SavedCount)
	assert.Len(t, repo.transactions, 4)
}

func TestUpload_StructuralFailures(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		cfg  Config
		want error
	}{
		{"empty data", "a.csv", nil, DefaultConfig(), ErrEmptyFile},
		{"unsupported extension", "a.pdf", []byte("%PDF"), DefaultConfig(), ErrUnsupportedFile},
		{"no extension", "planilla", []byte("x"), DefaultConfig(), ErrUnsupportedFile},
		{"too large", "a.csv", []byte("date,amount\n2024-01-01,1\n"), Config{MaxFileBytes: 10}, ErrFileTooLarge},
		{"missing columns", "a.csv", []byte("descripcion,valor\nalgo,1\n"), DefaultConfig(), parser.ErrMissingColumns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepository()
			svc := newTestService(repo, tt.cfg)

			result, err := svc.Import(context.Background(), tt.file, tt.data)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, result)
			assert.Zero(t, repo.commits)
		})
	}
}

func TestUpload_CorruptWorkbook(t *testing.T) {
	svc := newTestService(newMemoryRepository(), DefaultConfig())
	_, err := svc.Preview(context.Background(), "a.xlsx", []byte("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.xlsx")
}

func TestUpload_TooManyRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,amount,category,concept\n")
	for i := 0; i < 11000; i++ {
		fmt.Fprintf(&b, "2024-01-01,%d,food,item %d\n", i+1, i)
	}

	repo := newMemoryRepository()
	svc := newTestService(repo, DefaultConfig())

	_, err := svc.Import(context.Background(), "grande.csv", []byte(b.String()))
	require.ErrorIs(t, err, ErrTooManyRows)
	assert.Contains(t, err.Error(), "grande")
	assert.Zero(t, repo.commits)
}

func TestUpload_LedgerYearFallsBackToClock(t *testing.T) {
	data := []byte("Conceptos;Enero;Febrero;Marzo\nVivienda;;;\nAlquiler;100;;\n")
	svc := newTestService(newMemoryRepository(), DefaultConfig())

	clock := func() time.Time { return time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC) }
	result, err := svc.Preview(context.Background(), "hoja.csv", data, WithClock(clock))
	require.NoError(t, err)

	// CSV cells carry no bold flag, so the ledger has no category rows and
	// yields nothing beyond the year warning.
	assert.Equal(t, sniffer.LayoutLedger, result.Sheets[0].Layout)
	assert.Empty(t, result.Records)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "2027")
}

func TestState_Transitions(t *testing.T) {
	up := newUpload(slog.New(slog.DiscardHandler))
	assert.Equal(t, StateReceived, up.state)

	assert.Error(t, up.advance(StateSaving))
	require.NoError(t, up.advance(StateParsing))
	require.NoError(t, up.advance(StateParseFailed))
	assert.True(t, up.state.Terminal())
	assert.Error(t, up.advance(StateParsed))

	assert.True(t, StateSaved.Terminal())
	assert.False(t, StateParsed.Terminal())
}
