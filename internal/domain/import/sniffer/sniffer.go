// Package sniffer classifies uploaded sheets. A sheet is a ledger when it
// has a "Conceptos" header row followed by month columns; anything else is
// treated as a columnar table.
package sniffer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/grid"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/normalizer"
)

// Layout is the detected shape of a sheet.
type Layout string

const (
	LayoutColumnar Layout = "columnar"
	LayoutLedger   Layout = "ledger"
)

const (
	headerKeyword     = "conceptos"
	maxHeaderScanRows = 100
	monthScanWidth    = 20
	minMonthColumns   = 3
)

// HeaderMatch locates a ledger header row.
type HeaderMatch struct {
	Row    int // 0-based
	Bold   bool
	Months int
}

// FindLedgerHeader scans the first rows of a sheet for a ledger header: a
// row whose first cell contains "conceptos" (case and accent insensitive)
// with at least three month names among the next cells to its right.
// A bold candidate wins immediately; otherwise the first plain one is used.
func FindLedgerHeader(sheet grid.Sheet) (HeaderMatch, bool) {
	fallback := HeaderMatch{Row: -1}

	limit := min(sheet.Len(), maxHeaderScanRows)
	for r := 0; r < limit; r++ {
		first := sheet.Cell(r, 0)
		if first.Kind != grid.KindText || !strings.Contains(normalizer.FoldText(first.Text), headerKeyword) {
			continue
		}

		months := countMonths(sheet.Row(r))
		if months < minMonthColumns {
			continue
		}

		match := HeaderMatch{Row: r, Bold: first.Bold, Months: months}
		if match.Bold {
			return match, true
		}
		if fallback.Row < 0 {
			fallback = match
		}
	}

	if fallback.Row >= 0 {
		return fallback, true
	}
	return HeaderMatch{}, false
}

func countMonths(row []grid.Cell) int {
	count := 0
	for c := 1; c <= monthScanWidth && c < len(row); c++ {
		if row[c].Kind != grid.KindText {
			continue
		}
		if _, ok := normalizer.Month(row[c].Text); ok {
			count++
		}
	}
	return count
}

// Detect classifies a sheet. It never mutates the sheet.
func Detect(sheet grid.Sheet) Layout {
	if _, ok := FindLedgerHeader(sheet); ok {
		return LayoutLedger
	}
	return LayoutColumnar
}

// MonthColumns maps every month named in the header row to its column.
// When a month appears twice the leftmost column wins.
func MonthColumns(header []grid.Cell) map[time.Month]int {
	columns := make(map[time.Month]int)
	for c := 1; c < len(header); c++ {
		if header[c].Kind != grid.KindText {
			continue
		}
		month, ok := normalizer.Month(header[c].Text)
		if !ok {
			continue
		}
		if _, seen := columns[month]; !seen {
			columns[month] = c
		}
	}
	return columns
}

var sheetYear = regexp.MustCompile(`20\d\d`)

// YearFromSheetName extracts a year such as "2024" from a sheet name.
func YearFromSheetName(name string) (int, bool) {
	match := sheetYear.FindString(name)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}
