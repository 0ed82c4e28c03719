package parser

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/grid"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/normalizer"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/sniffer"
)

const (
	minLedgerYear = 2000
	maxLedgerYear = 2100
)

type monthColumn struct {
	month time.Month
	col   int
}

// ledgerState is carried from one row to the next. It is a value: step
// returns a new state instead of mutating the old one.
type ledgerState struct {
	category string
	lastItem string
}

type ledgerParser struct {
	sheet    string
	year     int
	months   []monthColumn
	currency string
	person   string
}

// ParseLedger parses a ledger sheet: a "Conceptos" header row naming the
// months, bold category rows, and item rows holding one amount per month.
func ParseLedger(sheet grid.Sheet, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	result := newResult()

	header, ok := sniffer.FindLedgerHeader(sheet)
	if !ok {
		return nil, fmt.Errorf("%w in sheet %s", ErrNoLedgerHeader, sheet.Name)
	}

	columns := sniffer.MonthColumns(sheet.Row(header.Row))
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w in sheet %s", ErrNoMonthColumns, sheet.Name)
	}

	year, inferred := resolveYear(sheet, header.Row, opts)
	if !inferred {
		result.addIssue(Issue{
			Severity: SeverityWarning,
			Sheet:    sheet.Name,
			Row:      header.Row + 1,
			Message:  fmt.Sprintf("year not found, defaulting to %d", year),
		})
	}

	p := ledgerParser{
		sheet:    sheet.Name,
		year:     year,
		months:   sortedMonths(columns),
		currency: opts.LedgerCurrency,
		person:   strings.TrimSpace(opts.Person),
	}

	state := ledgerState{}
	for r := header.Row + 1; r < sheet.Len(); r++ {
		var (
			records []Record
			issues  []Issue
		)
		state, records, issues = p.step(state, r, sheet.Row(r))

		result.TotalRows++
		if len(records) == 0 {
			result.SkippedRows++
		}
		result.Records = append(result.Records, records...)
		for _, issue := range issues {
			result.addIssue(issue)
		}
	}

	return result, nil
}

// resolveYear picks the ledger year: hint first, then a year written just
// above the header, then the current year. The bool is false when the
// clock was used.
func resolveYear(sheet grid.Sheet, headerRow int, opts Options) (int, bool) {
	if opts.YearHint != 0 {
		return opts.YearHint, true
	}
	if above := sheet.Cell(headerRow-1, 0); above.Kind == grid.KindNumber {
		if above.Number.IsInteger() {
			year := int(above.Number.IntPart())
			if year >= minLedgerYear && year <= maxLedgerYear {
				return year, true
			}
		}
	}
	return opts.Now().Year(), false
}

func sortedMonths(columns map[time.Month]int) []monthColumn {
	months := make([]monthColumn, 0, len(columns))
	for month, col := range columns {
		months = append(months, monthColumn{month: month, col: col})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].month < months[j].month })
	return months
}

// step classifies one row and extracts its records.
func (p ledgerParser) step(state ledgerState, r int, row []grid.Cell) (ledgerState, []Record, []Issue) {
	rowNumber := r + 1
	first := cellAt(row, 0)
	name := strings.TrimSpace(first.String())

	hasData := false
	allBlank := true
	for _, m := range p.months {
		cell := cellAt(row, m.col)
		if cell.IsEmpty() {
			continue
		}
		amount, ok := normalizer.CellAmount(cell)
		if ok && amount.IsZero() {
			continue
		}
		allBlank = false
		if ok {
			hasData = true
		}
	}

	if name == "" && !hasData {
		return state, nil, nil
	}

	if name != "" && first.Bold && allBlank {
		return ledgerState{category: name}, nil, nil
	}

	item := name
	next := state
	if item == "" {
		item = state.lastItem
	} else {
		next.lastItem = item
	}

	if item == "" {
		return next, nil, []Issue{{
			Severity: SeverityWarning,
			Sheet:    p.sheet,
			Row:      rowNumber,
			Message:  "values without a concept name",
		}}
	}

	if state.category == "" {
		return next, nil, nil
	}

	concept := normalizer.StripParenthetical(item)
	if concept == "" {
		return next, nil, []Issue{{
			Severity: SeverityError,
			Sheet:    p.sheet,
			Row:      rowNumber,
			Column:   columnName(0),
			Value:    item,
			Message:  "concept is empty after removing notes",
		}}
	}

	kind := KindExpense
	category := normalizer.CategoryName(state.category)
	if strings.Contains(category, "ingreso") {
		kind = KindIncome
	}

	var (
		records []Record
		issues  []Issue
	)
	for _, m := range p.months {
		cell := cellAt(row, m.col)
		if cell.IsEmpty() {
			continue
		}
		amount, ok := normalizer.CellAmount(cell)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Sheet:    p.sheet,
				Row:      rowNumber,
				Column:   columnName(m.col),
				Value:    cell.String(),
				Message:  fmt.Sprintf("invalid amount for %s", strings.ToLower(m.month.String())),
			})
			continue
		}
		if amount.IsZero() {
			continue
		}
		records = append(records, Record{
			Kind:     kind,
			Category: category,
			Concept:  concept,
			Amount:   amount,
			Date:     normalizer.MonthDate(p.year, m.month),
			Currency: p.currency,
			Person:   p.person,
			Sheet:    p.sheet,
			Row:      rowNumber,
		})
	}

	return next, records, issues
}

func cellAt(row []grid.Cell, c int) grid.Cell {
	if c < 0 || c >= len(row) {
		return grid.EmptyCell()
	}
	return row[c]
}

// columnName converts a 0-based index to spreadsheet letters.
func columnName(c int) string {
	name, err := excelize.ColumnNumberToName(c + 1)
	if err != nil {
		return fmt.Sprintf("%d", c+1)
	}
	return name
}
