// Package hvut implements the Form 2290 heavy vehicle use tax rate table:
// the weight-bracket schedule, the reduced logging schedule, proration by
// first-use month, and the filing due date.
//
// Schedules are embedded per July-June tax period and loaded once at process
// start. A Table is immutable; callers select the table for a filing's tax
// period with ForMonth so a filing always prices against its own period.
package hvut

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed schedules.yaml
var schedulesYAML []byte

var thousand = decimal.NewFromInt(1000)

// WeightBracket is one row of an HVUT schedule covering [MinWeight, MaxWeight).
// A nil MaxWeight means the bracket is unbounded above. A bracket either
// charges FlatTax or BaseTax plus PerThousandOver for each 1,000 lbs (or
// fraction) above MinWeight.
type WeightBracket struct {
	Description     string
	MinWeight       int
	MaxWeight       *int
	BaseTax         *decimal.Decimal
	PerThousandOver *decimal.Decimal
	FlatTax         *decimal.Decimal
}

// Contains reports whether weight falls within the bracket.
func (b WeightBracket) Contains(weight int) bool {
	if weight < b.MinWeight {
		return false
	}
	return b.MaxWeight == nil || weight < *b.MaxWeight
}

// Tax computes the annual tax for a weight inside the bracket.
func (b WeightBracket) Tax(weight int) decimal.Decimal {
	if b.FlatTax != nil {
		return *b.FlatTax
	}
	steps := (weight - b.MinWeight + 999) / 1000
	return b.BaseTax.Add(b.PerThousandOver.Mul(decimal.NewFromInt(int64(steps))))
}

// Schedule is an ordered, contiguous list of weight brackets.
type Schedule struct {
	name     string
	brackets []WeightBracket
}

// Name identifies the schedule, e.g. "2025 standard".
func (s *Schedule) Name() string {
	return s.name
}

// Brackets returns a copy of the schedule's brackets.
func (s *Schedule) Brackets() []WeightBracket {
	out := make([]WeightBracket, len(s.brackets))
	copy(out, s.brackets)
	return out
}

// Bracket returns the single bracket containing weight.
func (s *Schedule) Bracket(weight int) (WeightBracket, error) {
	const op = "Bracket"

	if weight < MinTaxableWeight {
		return WeightBracket{}, NewRateError(op, ErrBelowTaxableWeight, fmt.Sprintf("weight %d lbs", weight))
	}
	for _, b := range s.brackets {
		if b.Contains(weight) {
			return b, nil
		}
	}
	return WeightBracket{}, NewRateError(op, ErrNoBracket, fmt.Sprintf("weight %d lbs in schedule %s", weight, s.name))
}

// AnnualTax returns the full-year tax for a gross weight in pounds.
func (s *Schedule) AnnualTax(weight int) (decimal.Decimal, error) {
	b, err := s.Bracket(weight)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Tax(weight), nil
}

// ProratedTax returns the annual tax scaled to the months remaining in the
// tax period from first use through June. The result is not rounded.
func (s *Schedule) ProratedTax(weight int, firstUse FirstUseMonth) (decimal.Decimal, error) {
	annual, err := s.AnnualTax(weight)
	if err != nil {
		return decimal.Zero, err
	}
	if firstUse.MonthsRemaining() == 12 {
		return annual, nil
	}
	return annual.Mul(firstUse.ProrationFraction()), nil
}

// Table holds the standard and logging schedules of one tax period.
type Table struct {
	period   int
	standard *Schedule
	logging  *Schedule
}

// Period is the calendar year in which the table's tax period starts.
func (t *Table) Period() int {
	return t.period
}

// Version is the period formatted as the configuration key, e.g. "2025".
func (t *Table) Version() string {
	return strconv.Itoa(t.period)
}

// Covers reports whether m falls inside the table's July-June period.
func (t *Table) Covers(m FirstUseMonth) bool {
	return m.TaxPeriod() == t.period
}

// Schedule returns the logging schedule when logging is true, otherwise the standard one.
func (t *Table) Schedule(logging bool) *Schedule {
	if logging {
		return t.logging
	}
	return t.standard
}

// AnnualTax is Schedule(logging).AnnualTax for a normalized Weight.
func (t *Table) AnnualTax(w Weight, logging bool) (decimal.Decimal, error) {
	return t.Schedule(logging).AnnualTax(w.Pounds)
}

// ProratedTax is Schedule(logging).ProratedTax for a normalized Weight.
func (t *Table) ProratedTax(w Weight, firstUse FirstUseMonth, logging bool) (decimal.Decimal, error) {
	return t.Schedule(logging).ProratedTax(w.Pounds, firstUse)
}

type rawBracket struct {
	Description     string  `yaml:"description"`
	MinWeight       int     `yaml:"min_weight"`
	MaxWeight       *int    `yaml:"max_weight"`
	BaseTax         *string `yaml:"base_tax"`
	PerThousandOver *string `yaml:"per_thousand_over"`
	FlatTax         *string `yaml:"flat_tax"`
}

type rawPeriod struct {
	Period   int          `yaml:"period"`
	Standard []rawBracket `yaml:"standard"`
	Logging  []rawBracket `yaml:"logging"`
}

type rawSchedules struct {
	Periods []rawPeriod `yaml:"periods"`
}

var tables = mustLoadTables(schedulesYAML)

func mustLoadTables(data []byte) map[int]*Table {
	t, err := loadTables(data)
	if err != nil {
		panic(err)
	}
	return t
}

func loadTables(data []byte) (map[int]*Table, error) {
	const op = "loadTables"

	var raw rawSchedules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, NewRateError(op, ErrInvalidSchedule, err.Error())
	}

	out := make(map[int]*Table, len(raw.Periods))
	for _, p := range raw.Periods {
		if _, dup := out[p.Period]; dup {
			return nil, NewRateError(op, ErrInvalidSchedule, fmt.Sprintf("period %d defined twice", p.Period))
		}
		standard, err := buildSchedule(fmt.Sprintf("%d standard", p.Period), p.Standard)
		if err != nil {
			return nil, err
		}
		logging, err := buildSchedule(fmt.Sprintf("%d logging", p.Period), p.Logging)
		if err != nil {
			return nil, err
		}
		out[p.Period] = &Table{period: p.Period, standard: standard, logging: logging}
	}
	return out, nil
}

// buildSchedule converts raw rows and enforces that they tile [55,000, ∞)
// without gaps or overlaps, so exactly one bracket matches any taxable weight.
func buildSchedule(name string, rows []rawBracket) (*Schedule, error) {
	const op = "buildSchedule"

	if len(rows) == 0 {
		return nil, NewRateError(op, ErrInvalidSchedule, name+": no brackets")
	}

	brackets := make([]WeightBracket, 0, len(rows))
	for _, r := range rows {
		b := WeightBracket{Description: r.Description, MinWeight: r.MinWeight, MaxWeight: r.MaxWeight}
		var err error
		if b.FlatTax, err = parseOptional(r.FlatTax); err != nil {
			return nil, NewRateError(op, ErrInvalidSchedule, fmt.Sprintf("%s: %s: %v", name, r.Description, err))
		}
		if b.BaseTax, err = parseOptional(r.BaseTax); err != nil {
			return nil, NewRateError(op, ErrInvalidSchedule, fmt.Sprintf("%s: %s: %v", name, r.Description, err))
		}
		if b.PerThousandOver, err = parseOptional(r.PerThousandOver); err != nil {
			return nil, NewRateError(op, ErrInvalidSchedule, fmt.Sprintf("%s: %s: %v", name, r.Description, err))
		}
		if b.FlatTax == nil && (b.BaseTax == nil || b.PerThousandOver == nil) {
			return nil, NewRateError(op, ErrInvalidSchedule,
				fmt.Sprintf("%s: %s: needs flat_tax or base_tax with per_thousand_over", name, r.Description))
		}
		brackets = append(brackets, b)
	}

	sort.Slice(brackets, func(i, j int) bool { return brackets[i].MinWeight < brackets[j].MinWeight })

	if brackets[0].MinWeight != MinTaxableWeight {
		return nil, NewRateError(op, ErrInvalidSchedule,
			fmt.Sprintf("%s: first bracket starts at %d, want %d", name, brackets[0].MinWeight, MinTaxableWeight))
	}
	for i, b := range brackets {
		last := i == len(brackets)-1
		switch {
		case last && b.MaxWeight != nil:
			return nil, NewRateError(op, ErrInvalidSchedule, name+": last bracket must be unbounded")
		case !last && b.MaxWeight == nil:
			return nil, NewRateError(op, ErrInvalidSchedule, fmt.Sprintf("%s: %s is unbounded but not last", name, b.Description))
		case !last && *b.MaxWeight != brackets[i+1].MinWeight:
			return nil, NewRateError(op, ErrInvalidSchedule,
				fmt.Sprintf("%s: gap or overlap between %s and %s", name, b.Description, brackets[i+1].Description))
		case b.MaxWeight != nil && *b.MaxWeight <= b.MinWeight:
			return nil, NewRateError(op, ErrInvalidSchedule, fmt.Sprintf("%s: %s is empty", name, b.Description))
		}
	}

	return &Schedule{name: name, brackets: brackets}, nil
}

func parseOptional(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %s is negative", *s)
	}
	return &d, nil
}

// Lookup returns the table for a tax period version such as "2025".
func Lookup(version string) (*Table, error) {
	period, err := strconv.Atoi(version)
	if err != nil {
		return nil, NewRateError("Lookup", ErrUnknownTaxPeriod, fmt.Sprintf("version %q", version))
	}
	return ForPeriod(period)
}

// ForPeriod returns the table for the tax period starting in July of year.
func ForPeriod(year int) (*Table, error) {
	t, ok := tables[year]
	if !ok {
		return nil, NewRateError("ForPeriod", ErrUnknownTaxPeriod, fmt.Sprintf("tax period %d-%d", year, year+1))
	}
	return t, nil
}

// ForMonth returns the table for the tax period containing m.
func ForMonth(m FirstUseMonth) (*Table, error) {
	return ForPeriod(m.TaxPeriod())
}

// Periods lists the available tax periods in ascending order.
func Periods() []int {
	out := make([]int, 0, len(tables))
	for p := range tables {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
