package hvut

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktrucktax/internal/validation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustTable(t *testing.T, version string) *Table {
	t.Helper()
	table, err := Lookup(version)
	require.NoError(t, err)
	return table
}

func TestAnnualTaxStandard(t *testing.T) {
	s := mustTable(t, "2025").Schedule(false)

	tests := []struct {
		weight int
		want   string
	}{
		{55000, "100"},
		{55001, "122"},
		{56000, "122"},
		{56001, "144"},
		{60000, "210"},
		{74001, "540"},
		{74999, "540"},
		{75000, "550"},
		{80000, "550"},
		{150000, "550"},
	}
	for _, tt := range tests {
		got, err := s.AnnualTax(tt.weight)
		require.NoError(t, err, "weight %d", tt.weight)
		assert.True(t, got.Equal(dec(tt.want)), "weight %d: got %s want %s", tt.weight, got, tt.want)
	}
}

func TestAnnualTaxLogging(t *testing.T) {
	s := mustTable(t, "2025").Schedule(true)

	got, err := s.AnnualTax(55000)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("75")))

	got, err = s.AnnualTax(60000)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("157.5")), "got %s", got)

	got, err = s.AnnualTax(90000)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("412.5")))
}

func TestAnnualTaxBelowThreshold(t *testing.T) {
	s := mustTable(t, "2025").Schedule(false)

	_, err := s.AnnualTax(54999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBelowTaxableWeight))

	var rateErr *RateError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "Bracket", rateErr.Op)
}

func TestAnnualTaxMonotonic(t *testing.T) {
	s := mustTable(t, "2025").Schedule(false)

	prev := decimal.Zero
	for w := MinTaxableWeight; w < FlatTaxWeight; w += 137 {
		tax, err := s.AnnualTax(w)
		require.NoError(t, err)
		require.True(t, tax.GreaterThanOrEqual(prev), "tax decreased at %d", w)
		prev = tax
	}
	for w := FlatTaxWeight; w < 200000; w += 4999 {
		tax, err := s.AnnualTax(w)
		require.NoError(t, err)
		require.True(t, tax.Equal(dec("550")), "weight %d", w)
	}
}

func TestProratedTaxNeverExceedsAnnual(t *testing.T) {
	table := mustTable(t, "2025")

	for _, logging := range []bool{false, true} {
		s := table.Schedule(logging)
		for w := MinTaxableWeight; w <= 90000; w += 2500 {
			annual, err := s.AnnualTax(w)
			require.NoError(t, err)
			for m := time.January; m <= time.December; m++ {
				month := NewMonth(m, 2025)
				prorated, err := s.ProratedTax(w, month)
				require.NoError(t, err)
				require.True(t, prorated.LessThanOrEqual(annual))
				if m == time.July {
					require.True(t, prorated.Equal(annual), "July must owe the full year")
				} else {
					require.True(t, prorated.LessThan(annual), "%s must owe less than the full year", month)
				}
			}
		}
	}
}

func TestProratedTaxValues(t *testing.T) {
	s := mustTable(t, "2025").Schedule(false)

	got, err := s.ProratedTax(55000, NewMonth(time.August, 2025))
	require.NoError(t, err)
	assert.Equal(t, "91.67", got.StringFixed(2))

	got, err = s.ProratedTax(80000, NewMonth(time.August, 2025))
	require.NoError(t, err)
	assert.Equal(t, "504.17", got.StringFixed(2))

	got, err = s.ProratedTax(80000, NewMonth(time.June, 2026))
	require.NoError(t, err)
	assert.Equal(t, "45.83", got.StringFixed(2))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("July 2025")
	require.NoError(t, err)
	assert.Equal(t, NewMonth(time.July, 2025), m)
	assert.Equal(t, "July 2025", m.String())

	m, err = ParseMonth("  september   2025 ")
	require.NoError(t, err)
	assert.Equal(t, NewMonth(time.September, 2025), m)

	for _, bad := range []string{"", "July", "Jul 2025", "July 25", "July 2025 extra", "2025 July", "07/2025", "July 20x5"} {
		_, err := ParseMonth(bad)
		require.Error(t, err, "input %q", bad)
		var ve *validation.ValidationError
		require.True(t, errors.As(err, &ve), "input %q", bad)
		assert.Equal(t, "month", ve.Field)
		assert.NotEmpty(t, ve.Message)
	}
}

func TestMonthArithmetic(t *testing.T) {
	assert.Equal(t, 12, NewMonth(time.July, 2025).MonthsRemaining())
	assert.Equal(t, 6, NewMonth(time.January, 2026).MonthsRemaining())
	assert.Equal(t, 1, NewMonth(time.June, 2026).MonthsRemaining())

	assert.Equal(t, 2025, NewMonth(time.July, 2025).TaxPeriod())
	assert.Equal(t, 2025, NewMonth(time.June, 2026).TaxPeriod())

	assert.Equal(t, NewMonth(time.February, 2026), NewMonth(time.November, 2025).AddMonths(3))
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), NewMonth(time.February, 2024).LastDay())
}

func TestDueDate(t *testing.T) {
	tests := []struct {
		month FirstUseMonth
		want  time.Time
	}{
		{NewMonth(time.July, 2025), time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)},
		{NewMonth(time.August, 2025), time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)},
		{NewMonth(time.September, 2025), time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC)},
		{NewMonth(time.December, 2025), time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{NewMonth(time.January, 2028), time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{NewMonth(time.June, 2026), time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DueDate(tt.month), tt.month.String())
	}
}

func TestCategories(t *testing.T) {
	assert.Equal(t, 0, CategoryA.Index())
	assert.Equal(t, 22, CategoryW.Index())

	cat, ok := CategoryFor(55000)
	require.True(t, ok)
	assert.Equal(t, CategoryA, cat)

	cat, _ = CategoryFor(60000)
	assert.Equal(t, Category('F'), cat)

	cat, _ = CategoryFor(74999)
	assert.Equal(t, CategoryU, cat)

	cat, _ = CategoryFor(75000)
	assert.Equal(t, CategoryV, cat)

	_, ok = CategoryFor(54000)
	assert.False(t, ok)

	// Every letter's representative weight maps back to the letter (W shares V's weight).
	for c := CategoryA; c < CategoryW; c++ {
		got, ok := CategoryFor(c.MinWeight())
		require.True(t, ok)
		assert.Equal(t, c, got, "category %s", c)
	}

	assert.Equal(t, "55,001 - 56,000 lbs", Category('B').Range())
	assert.Equal(t, "74,001 - 74,999 lbs", CategoryU.Range())
}

func TestParseWeight(t *testing.T) {
	w, err := ParseWeight("f")
	require.NoError(t, err)
	assert.Equal(t, Weight{Pounds: 59001, Category: 'F'}, w)

	w, err = ParseWeight("80,000")
	require.NoError(t, err)
	assert.Equal(t, Weight{Pounds: 80000, Category: CategoryV}, w)

	w, err = ParseWeight("50000")
	require.NoError(t, err)
	assert.False(t, w.Taxable())

	for _, bad := range []string{"", "X", "AB", "-5", "heavy"} {
		_, err := ParseWeight(bad)
		require.Error(t, err, bad)
		assert.True(t, validation.IsValidationError(err), bad)
	}
}

func TestCategoryLetterMatchesPoundsTax(t *testing.T) {
	table := mustTable(t, "2025")

	byLetter, err := table.AnnualTax(WeightOf('F'), false)
	require.NoError(t, err)
	byPounds, err := table.AnnualTax(WeightFromPounds(60000), false)
	require.NoError(t, err)
	assert.True(t, byLetter.Equal(byPounds))
	assert.True(t, byLetter.Equal(dec("210")))
}

func TestLookup(t *testing.T) {
	_, err := Lookup("1999")
	require.ErrorIs(t, err, ErrUnknownTaxPeriod)

	_, err = Lookup("current")
	require.ErrorIs(t, err, ErrUnknownTaxPeriod)

	table, err := ForMonth(NewMonth(time.March, 2026))
	require.NoError(t, err)
	assert.Equal(t, 2025, table.Period())
	assert.True(t, table.Covers(NewMonth(time.July, 2025)))
	assert.False(t, table.Covers(NewMonth(time.July, 2026)))

	assert.Contains(t, Periods(), 2025)
}

func TestLoadTablesRejectsGaps(t *testing.T) {
	bad := []byte(`
periods:
  - period: 2030
    standard:
      - {description: low, min_weight: 55000, max_weight: 70000, base_tax: "100", per_thousand_over: "22"}
      - {description: high, min_weight: 75000, flat_tax: "550"}
    logging:
      - {description: all, min_weight: 55000, flat_tax: "400"}
`)
	_, err := loadTables(bad)
	require.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Contains(t, err.Error(), "gap or overlap")

	missingRate := []byte(`
periods:
  - period: 2030
    standard:
      - {description: all, min_weight: 55000, base_tax: "100"}
    logging:
      - {description: all, min_weight: 55000, flat_tax: "400"}
`)
	_, err = loadTables(missingRate)
	require.ErrorIs(t, err, ErrInvalidSchedule)
}
