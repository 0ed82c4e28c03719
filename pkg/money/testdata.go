package money

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator produces household finance values for tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGeneratorWithSeed creates a generator with a fixed seed so test
// runs are reproducible.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

var (
	expenseCategories = []string{"supermercado", "vivienda", "servicios", "transporte", "salud", "colegio", "ocio"}
	incomeCategories  = []string{"sueldo", "aguinaldo", "alquileres", "ventas"}
)

// Amount returns a positive amount with two decimals in [min, max).
func (g *TestDataGenerator) Amount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(min, max)).Round(2)
}

// Money returns Amount wrapped in the given currency.
func (g *TestDataGenerator) Money(min, max float64, currency string) *Money {
	return NewFromDecimal(g.Amount(min, max), currency)
}

func (g *TestDataGenerator) ExpenseCategory() string {
	return expenseCategories[g.faker.Number(0, len(expenseCategories)-1)]
}

func (g *TestDataGenerator) IncomeCategory() string {
	return incomeCategories[g.faker.Number(0, len(incomeCategories)-1)]
}

// Concept returns a merchant-like label.
func (g *TestDataGenerator) Concept() string {
	return g.faker.Company()
}

// Month returns a month anchor (day 1, 12:00 UTC) within year.
func (g *TestDataGenerator) Month(year int) time.Time {
	return time.Date(year, time.Month(g.faker.Number(1, 12)), 1, 12, 0, 0, 0, time.UTC)
}
