package ifta

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var ratesYAML []byte

var quarterPattern = regexp.MustCompile(`^(\d{4})Q([1-4])$`)

// Jurisdiction is an IFTA member state or province with its diesel rate per gallon.
type Jurisdiction struct {
	Code string
	Name string
	Rate decimal.Decimal
}

// RateTable is the immutable set of jurisdiction rates published for one quarter.
type RateTable struct {
	quarter string
	rates   map[string]Jurisdiction
}

// Quarter is the table's reporting quarter, e.g. "2025Q3".
func (t *RateTable) Quarter() string {
	return t.quarter
}

// Jurisdiction returns the rate entry for a two-letter code (case-insensitive).
func (t *RateTable) Jurisdiction(code string) (Jurisdiction, error) {
	j, ok := t.rates[NormalizeCode(code)]
	if !ok {
		return Jurisdiction{}, NewCalculationError("Jurisdiction", ErrUnknownJurisdiction,
			fmt.Sprintf("%q in %s", code, t.quarter))
	}
	return j, nil
}

// Jurisdictions lists every jurisdiction in the table ordered by code.
func (t *RateTable) Jurisdictions() []Jurisdiction {
	out := make([]Jurisdiction, 0, len(t.rates))
	for _, j := range t.rates {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Code < out[k].Code })
	return out
}

// NormalizeCode upper-cases and trims a jurisdiction code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type rawRate struct {
	Name string `yaml:"name"`
	Rate string `yaml:"rate"`
}

type rawQuarter struct {
	Quarter string             `yaml:"quarter"`
	Rates   map[string]rawRate `yaml:"rates"`
}

var tables = mustLoadRates(ratesYAML)

func mustLoadRates(data []byte) map[string]*RateTable {
	t, err := loadRates(data)
	if err != nil {
		panic(err)
	}
	return t
}

func loadRates(data []byte) (map[string]*RateTable, error) {
	var raw struct {
		Quarters []rawQuarter `yaml:"quarters"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRates, err)
	}

	out := make(map[string]*RateTable, len(raw.Quarters))
	for _, q := range raw.Quarters {
		if !quarterPattern.MatchString(q.Quarter) {
			return nil, fmt.Errorf("%w: quarter %q must look like 2025Q3", ErrInvalidRates, q.Quarter)
		}
		if _, dup := out[q.Quarter]; dup {
			return nil, fmt.Errorf("%w: quarter %s defined twice", ErrInvalidRates, q.Quarter)
		}
		rates := make(map[string]Jurisdiction, len(q.Rates))
		for code, r := range q.Rates {
			rate, err := decimal.NewFromString(r.Rate)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %s: %v", ErrInvalidRates, q.Quarter, code, err)
			}
			if rate.IsNegative() {
				return nil, fmt.Errorf("%w: %s %s: negative rate", ErrInvalidRates, q.Quarter, code)
			}
			code = NormalizeCode(code)
			rates[code] = Jurisdiction{Code: code, Name: r.Name, Rate: rate}
		}
		out[q.Quarter] = &RateTable{quarter: q.Quarter, rates: rates}
	}
	return out, nil
}

// Lookup returns the rate table for a quarter such as "2025Q3" (case-insensitive).
func Lookup(quarter string) (*RateTable, error) {
	key := strings.ToUpper(strings.TrimSpace(quarter))
	t, ok := tables[key]
	if !ok {
		return nil, NewCalculationError("Lookup", ErrUnknownQuarter, fmt.Sprintf("%q", quarter))
	}
	return t, nil
}

// Quarters lists the available quarters in ascending order.
func Quarters() []string {
	out := make([]string, 0, len(tables))
	for q := range tables {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Known reports whether any loaded quarter has a rate for the jurisdiction code.
func Known(code string) bool {
	code = NormalizeCode(code)
	for _, t := range tables {
		if _, ok := t.rates[code]; ok {
			return true
		}
	}
	return false
}
