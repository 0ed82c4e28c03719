// Package money wraps go-money and shopspring/decimal for the amounts the
// tracker stores and reports. Amounts are kept in minor units so sums and
// conversions never drift.
package money

import (
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes used by the tracker (ISO-4217)
const (
	ARS = "ARS"
	USD = "USD"
	EUR = "EUR"
)

var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// IsValidCurrency reports whether code is a known ISO-4217 code.
func IsValidCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	return len(code) == 3 && money.GetCurrency(code) != nil
}

// New creates a Money value from minor units.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromDecimal rounds amount half away from zero to the currency's minor
// unit. Unknown codes fall back to two decimal places.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	fraction := 2
	if c := money.GetCurrency(currencyCode); c != nil {
		fraction = c.Fraction
	}
	cents := amount.Mul(decimal.New(1, int32(fraction))).Round(0).IntPart()
	return New(cents, currencyCode)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// Add returns m + other. Both values must share a currency.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, ErrCurrencyMismatch
	}
	return &Money{m: sum}, nil
}

// Subtract returns m - other. Both values must share a currency.
func (m *Money) Subtract(other *Money) (*Money, error) {
	if other == nil || other.m == nil {
		return m, nil
	}
	if m == nil || m.m == nil {
		return New(-other.Amount(), other.Currency()), nil
	}
	diff, err := m.m.Subtract(other.m)
	if err != nil {
		return nil, ErrCurrencyMismatch
	}
	return &Money{m: diff}, nil
}

// Display returns the amount formatted for people, e.g. "$1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.m.Display()
}

// String returns the amount as a plain decimal string, e.g. "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(m.fraction())
}

// ToDecimal converts to decimal.Decimal in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.fraction()))
}

func (m *Money) fraction() int32 {
	if m == nil || m.m == nil {
		return 2
	}
	return int32(m.m.Currency().Fraction)
}

// Convert converts to targetCurrency. rate is units of target per unit of m.
func (m *Money) Convert(targetCurrency string, rate decimal.Decimal) *Money {
	if m == nil || m.m == nil {
		return Zero(targetCurrency)
	}
	return NewFromDecimal(m.ToDecimal().Mul(rate), targetCurrency)
}

// DivideDecimal divides by divisor. A zero divisor yields zero.
func (m *Money) DivideDecimal(divisor decimal.Decimal) *Money {
	if m == nil || m.m == nil || divisor.IsZero() {
		return Zero(m.Currency())
	}
	return NewFromDecimal(m.ToDecimal().Div(divisor), m.Currency())
}

// PercentageOf returns what share of total m is, in percent rounded to two
// decimals. A zero total yields zero.
func (m *Money) PercentageOf(total *Money) decimal.Decimal {
	if m == nil || m.m == nil || total.IsZero() {
		return decimal.Zero
	}
	return m.ToDecimal().
		Div(total.ToDecimal()).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
