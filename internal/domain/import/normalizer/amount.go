// Package normalizer turns loosely formatted spreadsheet values (amounts,
// dates, category names, month headers) into canonical values.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/grid"
)

var currencySymbols = []string{"US$", "AR$", "$", "€", "£", "¥"}

var amountDigits = regexp.MustCompile(`^[0-9.,]*[0-9][0-9.,]*$`)

// ParseAmount extracts a decimal amount from a human formatted string.
//
// Accepted shapes include "1500", "$ 1.234,56", "1,234.56 €", "(250)",
// "-$100" and "$-100". When both separators appear the last one is the
// decimal separator; a single separator type that repeats is a thousands
// separator; a single occurrence is a decimal separator.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	for {
		switch {
		case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 1:
			negative = true
			s = s[1 : len(s)-1]
			continue
		case strings.HasPrefix(s, "-"):
			negative = true
			s = s[1:]
			continue
		case strings.HasPrefix(s, "+"):
			s = s[1:]
			continue
		}
		trimmed := trimCurrencySymbols(s)
		if trimmed == s {
			break
		}
		s = trimmed
	}

	if !amountDigits.MatchString(s) {
		return decimal.Zero, false
	}

	s, ok := canonicalSeparators(s)
	if !ok {
		return decimal.Zero, false
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// CellAmount reads an amount from a resolved cell.
func CellAmount(c grid.Cell) (decimal.Decimal, bool) {
	switch c.Kind {
	case grid.KindNumber:
		return c.Number, true
	case grid.KindText:
		return ParseAmount(c.Text)
	default:
		return decimal.Zero, false
	}
}

func trimCurrencySymbols(s string) string {
	for _, sym := range currencySymbols {
		s = strings.TrimPrefix(s, sym)
		s = strings.TrimSuffix(s, sym)
	}
	return s
}

// canonicalSeparators rewrites s so that '.' is the only separator and
// marks the decimal point.
func canonicalSeparators(s string) (string, bool) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		decimalSep, thousandsSep := ".", ","
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			decimalSep, thousandsSep = ",", "."
		}
		if strings.Count(s, decimalSep) > 1 {
			return "", false
		}
		s = strings.ReplaceAll(s, thousandsSep, "")
		return strings.Replace(s, decimalSep, ".", 1), true
	case dots > 1:
		return strings.ReplaceAll(s, ".", ""), true
	case commas > 1:
		return strings.ReplaceAll(s, ",", ""), true
	case commas == 1:
		return strings.Replace(s, ",", ".", 1), true
	default:
		return s, true
	}
}
