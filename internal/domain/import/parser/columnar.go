package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/grid"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/normalizer"
	"github.com/FACorreiaa/family-finance-tracker/pkg/money"
)

// Header aliases per field, compared after normalizer.FoldText.
var columnAliases = map[string][]string{
	"amount":   {"amount", "monto", "importe"},
	"date":     {"date", "fecha"},
	"type":     {"type", "tipo"},
	"category": {"category", "categoria"},
	"concept":  {"concept", "concepto", "name", "nombre"},
	"note":     {"note", "nota", "notes", "notas", "description", "descripcion"},
	"currency": {"currency", "moneda"},
}

var incomeTypes = map[string]bool{
	"income":   true,
	"ingreso":  true,
	"ingresos": true,
}

// columnarRow is one data row keyed by folded header text. Blank cells are
// left out, so a missing key and a blank value look the same.
type columnarRow struct {
	number int
	raw    map[string]string
	cells  map[string]grid.Cell
}

func (r columnarRow) field(name string) (grid.Cell, string, bool) {
	for _, alias := range columnAliases[name] {
		if c, ok := r.cells[alias]; ok {
			return c, r.raw[alias], true
		}
	}
	return grid.EmptyCell(), "", false
}

// ParseColumnar parses a sheet whose first row holds column names and
// whose remaining rows each describe one transaction.
func ParseColumnar(sheet grid.Sheet, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	result := newResult()

	if sheet.Len() == 0 {
		return result, nil
	}

	header := make([]string, len(sheet.Row(0)))
	for c, cell := range sheet.Row(0) {
		header[c] = cell.String()
	}

	rows := make([]columnarRow, 0, sheet.Len()-1)
	for r := 1; r < sheet.Len(); r++ {
		row := columnarRow{number: r + 1, raw: map[string]string{}, cells: map[string]grid.Cell{}}
		for c, cell := range sheet.Row(r) {
			if cell.IsEmpty() || c >= len(header) || header[c] == "" {
				continue
			}
			key := normalizer.FoldText(header[c])
			if _, dup := row.cells[key]; dup {
				continue
			}
			row.cells[key] = cell
			row.raw[key] = header[c]
		}
		if len(row.cells) == 0 {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return result, nil
	}

	if err := requireColumns(rows[0]); err != nil {
		return nil, err
	}

	for _, row := range rows {
		result.TotalRows++
		record, issue := parseColumnarRow(sheet.Name, row, opts)
		if issue != nil {
			result.addIssue(*issue)
			result.SkippedRows++
			continue
		}
		result.Records = append(result.Records, *record)
	}

	return result, nil
}

func requireColumns(first columnarRow) error {
	var missing []string
	if _, _, ok := first.field("amount"); !ok {
		missing = append(missing, "amount/monto")
	}
	if _, _, ok := first.field("date"); !ok {
		missing = append(missing, "date/fecha")
	}
	if len(missing) == 0 {
		return nil
	}

	found := make([]string, 0, len(first.raw))
	for _, name := range first.raw {
		found = append(found, name)
	}
	sort.Strings(found)
	return fmt.Errorf("%w: missing %s; found columns: %s",
		ErrMissingColumns, strings.Join(missing, ", "), strings.Join(found, ", "))
}

func parseColumnarRow(sheet string, row columnarRow, opts Options) (*Record, *Issue) {
	issue := func(severity Severity, column, value, message string) *Issue {
		return &Issue{Severity: severity, Sheet: sheet, Row: row.number, Column: column, Value: value, Message: message}
	}

	kind := KindExpense
	if cell, _, ok := row.field("type"); ok && incomeTypes[normalizer.FoldText(cell.String())] {
		kind = KindIncome
	}

	amountCell, amountCol, ok := row.field("amount")
	if !ok {
		return nil, issue(SeverityWarning, "amount", "", "missing amount")
	}
	amount, ok := normalizer.CellAmount(amountCell)
	if !ok {
		return nil, issue(SeverityWarning, amountCol, amountCell.String(), "invalid amount")
	}
	if amount.IsZero() {
		return nil, issue(SeverityWarning, amountCol, amountCell.String(), "amount is zero")
	}

	dateCell, dateCol, ok := row.field("date")
	if !ok {
		return nil, issue(SeverityWarning, "date", "", "missing date")
	}
	date, ok := normalizer.CellDate(dateCell)
	if !ok {
		return nil, issue(SeverityWarning, dateCol, dateCell.String(), "invalid date")
	}

	categoryCell, _, _ := row.field("category")
	category := normalizer.CategoryName(categoryCell.String())
	if category == "" {
		return nil, issue(SeverityError, "category", "", "missing category")
	}

	conceptCell, _, _ := row.field("concept")
	concept := normalizer.CleanDescription(conceptCell.String())
	if concept == "" {
		return nil, issue(SeverityError, "concept", "", "missing concept")
	}

	currency := opts.DefaultCurrency
	if cell, col, ok := row.field("currency"); ok {
		code := strings.ToUpper(strings.TrimSpace(cell.String()))
		if !money.IsValidCurrency(code) {
			return nil, issue(SeverityWarning, col, cell.String(), "unknown currency code")
		}
		currency = code
	}

	noteCell, _, _ := row.field("note")

	return &Record{
		Kind:     kind,
		Category: category,
		Concept:  concept,
		Note:     normalizer.CleanDescription(noteCell.String()),
		Amount:   amount,
		Date:     normalizer.MonthAnchor(date),
		Currency: currency,
		Sheet:    sheet,
		Row:      row.number,
	}, nil
}
