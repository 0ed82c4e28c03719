package money

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidCurrency(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ARS", true},
		{"usd", true},
		{" EUR ", true},
		{"XYZ", false},
		{"AR", false},
		{"", false},
		{"PESOS", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCurrency(tt.code))
		})
	}
}

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"precise decimal", "123.45", ARS, 12345},
		{"rounds half up", "0.005", USD, 1},
		{"negative rounds away from zero", "-10.125", USD, -1013},
		{"whole", "90000", ARS, 9000000},
		{"yen has no minor unit", "1500", "JPY", 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromDecimal(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestToDecimalRoundTrip(t *testing.T) {
	faker := gofakeit.New(11)
	for i := 0; i < 50; i++ {
		cents := int64(faker.Number(-1_000_000, 1_000_000))
		m := New(cents, ARS)
		back := NewFromDecimal(m.ToDecimal(), ARS)
		require.Equal(t, cents, back.Amount())
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "1234.50", New(123450, ARS).String())
	assert.Equal(t, "0.00", (*Money)(nil).String())
	assert.Equal(t, "-0.05", New(-5, USD).String())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "$1,234.56", New(123456, USD).Display())
	assert.Equal(t, "$1.234,56", New(123456, ARS).Display())
	assert.Equal(t, "0.00", (*Money)(nil).Display())
}

func TestAddSubtract(t *testing.T) {
	a := New(1000, ARS)
	b := New(250, ARS)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount())

	diff, err := b.Subtract(a)
	require.NoError(t, err)
	assert.Equal(t, int64(-750), diff.Amount())

	_, err = a.Add(New(1, USD))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = a.Subtract(New(1, USD))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	var none *Money
	got, err := none.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Amount())
}

func TestConvert(t *testing.T) {
	usd := NewFromDecimal(decimal.NewFromInt(10), USD)
	ars := usd.Convert(ARS, decimal.RequireFromString("1215.5"))
	assert.Equal(t, ARS, ars.Currency())
	assert.Equal(t, "12155.00", ars.String())

	back := ars.DivideDecimal(decimal.RequireFromString("1215.5"))
	assert.Equal(t, "10.00", back.String())

	assert.True(t, (*Money)(nil).Convert(ARS, decimal.NewFromInt(2)).IsZero())
	assert.True(t, usd.DivideDecimal(decimal.Zero).IsZero())
}

func TestPercentageOf(t *testing.T) {
	total := New(30000, ARS)

	tests := []struct {
		name string
		part *Money
		of   *Money
		want string
	}{
		{"third", New(10000, ARS), total, "33.33"},
		{"whole", total, total, "100"},
		{"half", New(15000, ARS), total, "50"},
		{"zero total", New(100, ARS), Zero(ARS), "0"},
		{"nil part", nil, total, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.part.PercentageOf(tt.of).String())
		})
	}
}
