package hvut

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"quicktrucktax/internal/validation"
)

// TaxYearStart is the first month of the HVUT tax period (July through June).
const TaxYearStart = time.July

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

var twelve = decimal.NewFromInt(12)

// FirstUseMonth is a calendar month in which a vehicle was first used on
// public highways (or, for amendments, the month an event occurred).
type FirstUseMonth struct {
	Month time.Month
	Year  int
}

// NewMonth builds a FirstUseMonth from a calendar month and year.
func NewMonth(month time.Month, year int) FirstUseMonth {
	return FirstUseMonth{Month: month, Year: year}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) FirstUseMonth {
	return FirstUseMonth{Month: t.Month(), Year: t.Year()}
}

// ParseMonth parses the "<MonthName> <YYYY>" form, e.g. "July 2025".
// Month names must be spelled in full; letter case is ignored. Anything else
// is rejected with a ValidationError describing what was wrong.
func ParseMonth(s string) (FirstUseMonth, error) {
	return ParseMonthField("month", s)
}

// ParseMonthField is ParseMonth reporting failures against the named input field.
func ParseMonthField(field, s string) (FirstUseMonth, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return FirstUseMonth{}, validation.NewValidationError(field, s, `month is required, expected "<MonthName> <YYYY>" such as "July 2025"`)
	}
	if len(parts) != 2 {
		return FirstUseMonth{}, validation.NewValidationError(field, s, `expected "<MonthName> <YYYY>" such as "July 2025"`)
	}

	month, ok := monthNames[strings.ToLower(parts[0])]
	if !ok {
		return FirstUseMonth{}, validation.NewValidationError(field, s,
			fmt.Sprintf("%q is not a month name; spell the month in full, e.g. \"September\"", parts[0]))
	}

	if len(parts[1]) != 4 {
		return FirstUseMonth{}, validation.NewValidationError(field, s,
			fmt.Sprintf("year %q must have four digits", parts[1]))
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1000 {
		return FirstUseMonth{}, validation.NewValidationError(field, s,
			fmt.Sprintf("year %q must have four digits", parts[1]))
	}

	return FirstUseMonth{Month: month, Year: year}, nil
}

// String renders the month in the same form ParseMonth accepts.
func (m FirstUseMonth) String() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// IsZero reports whether m is the zero value.
func (m FirstUseMonth) IsZero() bool {
	return m.Month == 0 && m.Year == 0
}

// TaxPeriod returns the calendar year in which m's July-June tax period begins.
func (m FirstUseMonth) TaxPeriod() int {
	if m.Month >= TaxYearStart {
		return m.Year
	}
	return m.Year - 1
}

// MonthsRemaining counts the months from m through June inclusive: 12 for July, 1 for June.
func (m FirstUseMonth) MonthsRemaining() int {
	return 12 - (int(m.Month)-int(TaxYearStart)+12)%12
}

// ProrationFraction is the share of the annual tax owed for a first use in m.
func (m FirstUseMonth) ProrationFraction() decimal.Decimal {
	return decimal.NewFromInt(int64(m.MonthsRemaining())).Div(twelve)
}

// AddMonths returns the month n calendar months after m (n may be negative).
func (m FirstUseMonth) AddMonths(n int) FirstUseMonth {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

// LastDay returns the last calendar day of m at midnight UTC.
func (m FirstUseMonth) LastDay() time.Time {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)
}

// Before reports whether m is earlier than o.
func (m FirstUseMonth) Before(o FirstUseMonth) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// DueDate returns the Form 2290 due date for a first use in m: the last day
// of the following month, except that July and August first use are both due
// August 31 of that tax period.
func DueDate(m FirstUseMonth) time.Time {
	if m.Month == time.July || m.Month == time.August {
		return NewMonth(time.August, m.Year).LastDay()
	}
	return m.AddMonths(1).LastDay()
}
