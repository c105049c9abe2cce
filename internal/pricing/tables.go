package pricing

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
)

//go:embed coupons.yaml
var couponsYAML []byte

//go:embed salestax.yaml
var salesTaxYAML []byte

// CouponKind is how a coupon reduces the service fee.
type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFlat    CouponKind = "flat"
)

// Coupon is one promotional code.
type Coupon struct {
	Code        string
	Kind        CouponKind
	Amount      decimal.Decimal
	Active      bool
	Description string
}

// Discount returns the reduction a coupon gives on fee, never more than fee.
func (c Coupon) Discount(fee decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Kind {
	case CouponPercent:
		d = fee.Mul(money.Percent(c.Amount))
	case CouponFlat:
		d = c.Amount
	}
	if d.GreaterThan(fee) {
		return fee
	}
	return d
}

// CouponBook is an immutable versioned set of coupons.
type CouponBook struct {
	version string
	coupons map[string]Coupon
}

// Version identifies the book.
func (b *CouponBook) Version() string {
	return b.version
}

// Redeem returns the active coupon for code (case-insensitive). Unknown and
// inactive codes are ValidationErrors.
func (b *CouponBook) Redeem(code string) (Coupon, error) {
	c, ok := b.coupons[normalizeCode(code)]
	if !ok {
		return Coupon{}, validation.NewValidationError("couponCode", code, "coupon code is not valid")
	}
	if !c.Active {
		return Coupon{}, validation.NewValidationError("couponCode", code, "coupon code has expired")
	}
	return c, nil
}

// SalesTaxTable maps state codes to the sales tax percentage charged on service fees.
type SalesTaxTable struct {
	version string
	rates   map[string]decimal.Decimal
}

// Version identifies the table.
func (t *SalesTaxTable) Version() string {
	return t.version
}

// Rate returns the percentage for a two-letter state code. Unknown codes are ValidationErrors.
func (t *SalesTaxTable) Rate(state string) (decimal.Decimal, error) {
	r, ok := t.rates[normalizeCode(state)]
	if !ok {
		return decimal.Zero, validation.NewValidationError("state", state, "state must be a two-letter US state code")
	}
	return r, nil
}

// States lists the table's state codes in order.
func (t *SalesTaxTable) States() []string {
	out := make([]string, 0, len(t.rates))
	for s := range t.rates {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type rawCoupon struct {
	Code        string `yaml:"code"`
	Kind        string `yaml:"kind"`
	Amount      string `yaml:"amount"`
	Active      bool   `yaml:"active"`
	Description string `yaml:"description"`
}

var (
	couponBooks    = mustLoad(loadCouponBooks, couponsYAML)
	salesTaxTables = mustLoad(loadSalesTaxTables, salesTaxYAML)
)

func mustLoad[T any](load func([]byte) (map[string]T, error), data []byte) map[string]T {
	out, err := load(data)
	if err != nil {
		panic(err)
	}
	return out
}

func loadCouponBooks(data []byte) (map[string]*CouponBook, error) {
	var raw struct {
		Books []struct {
			Version string      `yaml:"version"`
			Coupons []rawCoupon `yaml:"coupons"`
		} `yaml:"books"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: coupons: %v", ErrInvalidTable, err)
	}

	out := make(map[string]*CouponBook, len(raw.Books))
	for _, b := range raw.Books {
		book := &CouponBook{version: b.Version, coupons: make(map[string]Coupon, len(b.Coupons))}
		for _, rc := range b.Coupons {
			amount, err := decimal.NewFromString(rc.Amount)
			if err != nil || !amount.IsPositive() {
				return nil, fmt.Errorf("%w: coupon %s in book %s: amount %q", ErrInvalidTable, rc.Code, b.Version, rc.Amount)
			}
			kind := CouponKind(rc.Kind)
			if kind != CouponPercent && kind != CouponFlat {
				return nil, fmt.Errorf("%w: coupon %s in book %s: kind %q", ErrInvalidTable, rc.Code, b.Version, rc.Kind)
			}
			if kind == CouponPercent && amount.GreaterThan(money.Hundred) {
				return nil, fmt.Errorf("%w: coupon %s in book %s: over 100%%", ErrInvalidTable, rc.Code, b.Version)
			}
			code := normalizeCode(rc.Code)
			if _, dup := book.coupons[code]; dup {
				return nil, fmt.Errorf("%w: coupon %s in book %s defined twice", ErrInvalidTable, code, b.Version)
			}
			book.coupons[code] = Coupon{Code: code, Kind: kind, Amount: amount, Active: rc.Active, Description: rc.Description}
		}
		out[b.Version] = book
	}
	return out, nil
}

func loadSalesTaxTables(data []byte) (map[string]*SalesTaxTable, error) {
	var raw struct {
		Tables []struct {
			Version string            `yaml:"version"`
			Rates   map[string]string `yaml:"rates"`
		} `yaml:"tables"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: sales tax: %v", ErrInvalidTable, err)
	}

	out := make(map[string]*SalesTaxTable, len(raw.Tables))
	for _, t := range raw.Tables {
		table := &SalesTaxTable{version: t.Version, rates: make(map[string]decimal.Decimal, len(t.Rates))}
		for state, s := range t.Rates {
			rate, err := decimal.NewFromString(s)
			if err != nil || rate.IsNegative() || rate.GreaterThan(money.Hundred) {
				return nil, fmt.Errorf("%w: sales tax %s %s: rate %q", ErrInvalidTable, t.Version, state, s)
			}
			table.rates[normalizeCode(state)] = rate
		}
		out[t.Version] = table
	}
	return out, nil
}

// LookupCouponBook returns the coupon book for a version such as "2025".
func LookupCouponBook(version string) (*CouponBook, error) {
	b, ok := couponBooks[strings.TrimSpace(version)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCouponBook, version)
	}
	return b, nil
}

// LookupSalesTaxTable returns the sales tax table for a version such as "2025".
func LookupSalesTaxTable(version string) (*SalesTaxTable, error) {
	t, ok := salesTaxTables[strings.TrimSpace(version)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSalesTaxTable, version)
	}
	return t, nil
}
