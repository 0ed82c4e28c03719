// Package parser converts resolved sheets into financial records. Two
// layouts are supported: columnar tables (one row per transaction) and
// ledger sheets (concepts down the side, months across the top).
package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingColumns = errors.New("required columns not found")
	ErrNoLedgerHeader = errors.New("ledger header row not found")
	ErrNoMonthColumns = errors.New("no month columns found in ledger header")
)

// Kind classifies a record as money out or money in.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Record is one extracted transaction. Amount is never zero and Date is
// always a month anchor (day 1, 12:00 UTC).
type Record struct {
	Kind     Kind            `json:"kind"`
	Category string          `json:"category"`
	Concept  string          `json:"concept"`
	Note     string          `json:"note,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Currency string          `json:"currency"`
	Person   string          `json:"person,omitempty"`
	Sheet    string          `json:"sheet"`
	Row      int             `json:"row"`
}

// Severity separates dropped-but-tolerable rows from rows missing a
// required business field.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue describes a problem with one row (or one cell) of a sheet.
type Issue struct {
	Severity Severity `json:"severity"`
	Sheet    string   `json:"sheet,omitempty"`
	Row      int      `json:"row,omitempty"`
	Column   string   `json:"column,omitempty"`
	Value    string   `json:"value,omitempty"`
	Message  string   `json:"message"`
}

func (e Issue) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("%s row %d, column %s: %s", e.Sheet, e.Row, e.Column, e.Message)
	case e.Row > 0:
		return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Sheet, e.Message)
	}
}

// Result holds what a parser extracted from a sheet.
type Result struct {
	Records     []Record `json:"records"`
	Errors      []Issue  `json:"errors"`
	Warnings    []Issue  `json:"warnings"`
	TotalRows   int      `json:"total_rows"`
	SkippedRows int      `json:"skipped_rows"`
}

func newResult() *Result {
	return &Result{
		Records:  make([]Record, 0),
		Errors:   make([]Issue, 0),
		Warnings: make([]Issue, 0),
	}
}

func (r *Result) addIssue(issue Issue) {
	if issue.Severity == SeverityError {
		r.Errors = append(r.Errors, issue)
		return
	}
	r.Warnings = append(r.Warnings, issue)
}

// Merge appends other's records and issues to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Records = append(r.Records, other.Records...)
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.TotalRows += other.TotalRows
	r.SkippedRows += other.SkippedRows
}

// Options tunes parsing.
type Options struct {
	// DefaultCurrency applies to columnar rows without a currency column.
	DefaultCurrency string
	// LedgerCurrency is the single currency of ledger sheets.
	LedgerCurrency string
	// YearHint pins the ledger year (e.g. taken from the sheet name). Zero
	// means infer it.
	YearHint int
	// Person, when set, is attached to every ledger record.
	Person string
	// Now supplies the fallback year. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns options with ARS currency and the wall clock.
func DefaultOptions() Options {
	return Options{
		DefaultCurrency: "ARS",
		LedgerCurrency:  "ARS",
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = d.DefaultCurrency
	}
	if o.LedgerCurrency == "" {
		o.LedgerCurrency = d.LedgerCurrency
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}
