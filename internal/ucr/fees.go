// Package ucr implements the Unified Carrier Registration fee table.
package ucr

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"quicktrucktax/internal/validation"
)

//go:embed fees.yaml
var feesYAML []byte

var (
	// ErrUnknownYear is returned when no fee table exists for a registration year.
	ErrUnknownYear = errors.New("no UCR fee table for registration year")

	// ErrNoBracket is returned when no bracket covers a power-unit count.
	ErrNoBracket = errors.New("no UCR bracket matches power unit count")

	// ErrInvalidTable is returned when an embedded fee table is malformed.
	ErrInvalidTable = errors.New("invalid UCR fee table")
)

// OperatorKind is the UCR registrant classification.
type OperatorKind string

const (
	Carrier          OperatorKind = "carrier"
	Broker           OperatorKind = "broker"
	FreightForwarder OperatorKind = "freight_forwarder"
	Leasing          OperatorKind = "leasing"
)

// ParseOperatorKind accepts carrier, broker, freight_forwarder or leasing.
func ParseOperatorKind(s string) (OperatorKind, error) {
	k := OperatorKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Carrier, Broker, FreightForwarder, Leasing:
		return k, nil
	}
	return "", validation.NewValidationError("operatorKind", s,
		"operator kind must be one of: carrier, broker, freight_forwarder, leasing")
}

// FlatRate reports whether the kind always pays the first-tier fee.
func (k OperatorKind) FlatRate() bool {
	switch k {
	case Broker, FreightForwarder, Leasing:
		return true
	}
	return false
}

// Bracket is one UCR fee tier covering [Min, Max] power units; a nil Max is unbounded.
type Bracket struct {
	Min   int
	Max   *int
	Label string
	Fee   decimal.Decimal
}

// Contains reports whether count falls in the bracket.
func (b Bracket) Contains(count int) bool {
	return count >= b.Min && (b.Max == nil || count <= *b.Max)
}

// Table is the immutable fee schedule for one registration year.
type Table struct {
	year     int
	brackets []Bracket
}

// Year is the registration year the table applies to.
func (t *Table) Year() int {
	return t.year
}

// Brackets returns a copy of the tiers in ascending order.
func (t *Table) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// Bracket returns the tier a registrant falls in. Brokers, freight forwarders
// and leasing companies are pinned to the first tier whatever their fleet size.
func (t *Table) Bracket(powerUnits int, kind OperatorKind) (Bracket, error) {
	if powerUnits < 0 {
		return Bracket{}, validation.NewValidationError("powerUnits", powerUnits, "power unit count cannot be negative")
	}
	if _, err := ParseOperatorKind(string(kind)); err != nil {
		return Bracket{}, err
	}
	if kind.FlatRate() {
		return t.brackets[0], nil
	}
	for _, b := range t.brackets {
		if b.Contains(powerUnits) {
			return b, nil
		}
	}
	return Bracket{}, fmt.Errorf("ucr %d: %w: %d", t.year, ErrNoBracket, powerUnits)
}

// Fee returns the annual UCR fee.
func (t *Table) Fee(powerUnits int, kind OperatorKind) (decimal.Decimal, error) {
	b, err := t.Bracket(powerUnits, kind)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Fee, nil
}

type rawBracket struct {
	Min   int    `yaml:"min"`
	Max   *int   `yaml:"max"`
	Label string `yaml:"label"`
	Fee   string `yaml:"fee"`
}

type rawYear struct {
	Year     int          `yaml:"year"`
	Brackets []rawBracket `yaml:"brackets"`
}

var tables = mustLoad(feesYAML)

func mustLoad(data []byte) map[int]*Table {
	t, err := load(data)
	if err != nil {
		panic(err)
	}
	return t
}

func load(data []byte) (map[int]*Table, error) {
	var raw struct {
		Years []rawYear `yaml:"years"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	out := make(map[int]*Table, len(raw.Years))
	for _, y := range raw.Years {
		if len(y.Brackets) == 0 {
			return nil, fmt.Errorf("%w: year %d has no brackets", ErrInvalidTable, y.Year)
		}
		brackets := make([]Bracket, 0, len(y.Brackets))
		for _, rb := range y.Brackets {
			fee, err := decimal.NewFromString(rb.Fee)
			if err != nil {
				return nil, fmt.Errorf("%w: year %d %s: %v", ErrInvalidTable, y.Year, rb.Label, err)
			}
			brackets = append(brackets, Bracket{Min: rb.Min, Max: rb.Max, Label: rb.Label, Fee: fee})
		}
		sort.Slice(brackets, func(i, j int) bool { return brackets[i].Min < brackets[j].Min })

		if brackets[0].Min != 0 {
			return nil, fmt.Errorf("%w: year %d must start at 0 power units", ErrInvalidTable, y.Year)
		}
		for i, b := range brackets {
			last := i == len(brackets)-1
			if last != (b.Max == nil) {
				return nil, fmt.Errorf("%w: year %d: only the last bracket may be unbounded", ErrInvalidTable, y.Year)
			}
			if !last && *b.Max+1 != brackets[i+1].Min {
				return nil, fmt.Errorf("%w: year %d: %s does not meet %s", ErrInvalidTable, y.Year, b.Label, brackets[i+1].Label)
			}
		}
		out[y.Year] = &Table{year: y.Year, brackets: brackets}
	}
	return out, nil
}

// Lookup returns the fee table for a registration year such as "2026".
func Lookup(version string) (*Table, error) {
	year, err := strconv.Atoi(strings.TrimSpace(version))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownYear, version)
	}
	t, ok := tables[year]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	return t, nil
}
