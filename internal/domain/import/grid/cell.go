// Package grid holds the in-memory representation of an uploaded workbook.
// Every cell is resolved exactly once into a closed set of shapes (empty,
// text, number) so the parsers never deal with formulas, rich text or raw
// spreadsheet types.
package grid

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Kind is the resolved shape of a cell value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a tagged union over Kind. Only the payload matching Kind is
// meaningful: Text for KindText, Number for KindNumber. Raw keeps the
// source text of a number that was written as a string ("0800").
type Cell struct {
	Kind   Kind
	Text   string
	Number decimal.Decimal
	Raw    string
	Bold   bool
}

// Formula carries the computed result of a formula cell.
type Formula struct {
	Expr   string
	Result any
}

// RichText is a run-split text value.
type RichText []string

// EmptyCell returns a cell with no value.
func EmptyCell() Cell { return Cell{Kind: KindEmpty} }

// TextCell returns a text cell with surrounding whitespace removed.
func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return EmptyCell()
	}
	return Cell{Kind: KindText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(d decimal.Decimal) Cell { return Cell{Kind: KindNumber, Number: d} }

// WithBold returns a copy of c with the bold flag set to b.
func (c Cell) WithBold(b bool) Cell {
	c.Bold = b
	return c
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// IsZero reports whether the cell is a number equal to zero.
func (c Cell) IsZero() bool { return c.Kind == KindNumber && c.Number.IsZero() }

// String renders the cell value for display and issue reporting. Numbers
// read from text come back exactly as written.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		if c.Raw != "" {
			return c.Raw
		}
		return c.Number.String()
	default:
		return ""
	}
}

var (
	canonicalNumber    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	thousandsLookalike = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
)

// Normalize resolves a raw spreadsheet value into a Cell.
//
// Strings are only promoted to numbers when they are written in plain
// machine form ("1500", "-12.5"). Dot-grouped values such as "1.500" and
// exponents such as "1e5" stay text so the amount parser decides on them.
func Normalize(v any) Cell {
	switch val := v.(type) {
	case nil:
		return EmptyCell()
	case Cell:
		return val
	case Formula:
		return Normalize(val.Result)
	case *Formula:
		if val == nil {
			return EmptyCell()
		}
		return Normalize(val.Result)
	case RichText:
		return TextCell(strings.Join(val, ""))
	case []excelize.RichTextRun:
		var b strings.Builder
		for _, run := range val {
			b.WriteString(run.Text)
		}
		return TextCell(b.String())
	case decimal.Decimal:
		return NumberCell(val)
	case *decimal.Decimal:
		if val == nil {
			return EmptyCell()
		}
		return NumberCell(*val)
	case int:
		return NumberCell(decimal.NewFromInt(int64(val)))
	case int32:
		return NumberCell(decimal.NewFromInt32(val))
	case int64:
		return NumberCell(decimal.NewFromInt(val))
	case uint32:
		return NumberCell(decimal.NewFromInt(int64(val)))
	case float32:
		return normalizeFloat(float64(val))
	case float64:
		return normalizeFloat(val)
	case bool:
		if val {
			return TextCell("TRUE")
		}
		return TextCell("FALSE")
	case string:
		return normalizeString(val)
	case []byte:
		return normalizeString(string(val))
	default:
		return EmptyCell()
	}
}

func normalizeFloat(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return EmptyCell()
	}
	return NumberCell(decimal.NewFromFloat(f))
}

func normalizeString(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return EmptyCell()
	}
	if canonicalNumber.MatchString(s) && !thousandsLookalike.MatchString(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return Cell{Kind: KindNumber, Number: d, Raw: s}
		}
	}
	return TextCell(s)
}
