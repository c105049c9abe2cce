// Package money holds the currency conventions shared by the calculators:
// amounts are decimal.Decimal at full precision and are rounded to cents
// only when a result leaves an engine.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is the number of decimal places used for display and reporting.
const Cents = 2

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
)

// Round rounds an amount to cents using half-up (away from zero) rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Cents)
}

// Format renders an amount as a US dollar string, e.g. "$1,234.50".
func Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(Cents)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%s", sign, b.String(), frac)
}

// Parse reads a dollar amount, tolerating a leading "$", thousands separators and surrounding spaces.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for package-level constants; it panics on malformed input.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Percent converts a percentage such as 6.25 into a rate (0.0625).
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(Hundred)
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
