package receipt

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"quicktrucktax/internal/ifta"
	"quicktrucktax/internal/money"
)

// quantity captures a whole number of digits, optionally with thousands
// separators, and any number of decimal places.
const quantity = `((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)`

var (
	// "GALLONS: 120.500", "QTY 88.2", "VOLUME = 1,204.5"
	labelledGallons = regexp.MustCompile(`(?i)\b(?:gallons|gals?|qty|volume)\s*[:=]?\s*` + quantity + `(?:\D|$)`)
	// "101.3 GAL", "75 gallons", "120.4567 GAL"
	trailingGallons = regexp.MustCompile(`(?i)(?:^|[^\d,.])` + quantity + `\s*(?:gallons|gals?|gl)\b`)

	// "BARSTOW, CA 92311" or "LONDON ON N6A 1B2"
	statePostal = regexp.MustCompile(`\b([A-Z]{2})[ \t]+(?:\d{5}(?:-\d{4})?|[A-Z]\d[A-Z]\s?\d[A-Z]\d)\b`)
	stateComma  = regexp.MustCompile(`,\s*([A-Z]{2})\b`)

	totalLine = regexp.MustCompile(`(?im)^[ \t]*(?:grand[ \t]+)?(?:total(?:[ \t]+sale)?|amount[ \t]+due|sale[ \t]+total|fuel[ \t]+total)\b[^\d\n]*?(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})`)

	usDate  = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))\b`)
	isoDate = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

// ParsedReceipt holds the fields read from a receipt. Zero values mean the
// field was not found.
type ParsedReceipt struct {
	Vendor     string
	State      string
	Gallons    decimal.Decimal
	AmountPaid decimal.Decimal
	Date       time.Time
}

// Missing names the required fields that were not found.
func (p ParsedReceipt) Missing() []string {
	var missing []string
	if p.State == "" {
		missing = append(missing, "state")
	}
	if !p.Gallons.IsPositive() {
		missing = append(missing, "gallons")
	}
	return missing
}

// merge fills p's empty fields from other.
func (p ParsedReceipt) merge(other ParsedReceipt) ParsedReceipt {
	if p.Vendor == "" {
		p.Vendor = other.Vendor
	}
	if p.State == "" {
		p.State = other.State
	}
	if !p.Gallons.IsPositive() {
		p.Gallons = other.Gallons
	}
	if p.AmountPaid.IsZero() {
		p.AmountPaid = other.AmountPaid
	}
	if p.Date.IsZero() {
		p.Date = other.Date
	}
	return p
}

// ParseText reads a fuel receipt's printed text. The vendor is the first
// non-empty line, the jurisdiction comes from the address, and the total is
// the largest amount on a total line so that tax subtotals are skipped.
func ParseText(text string) ParsedReceipt {
	var p ParsedReceipt

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			p.Vendor = line
			break
		}
	}

	p.State = StateFromText(text)

	for _, re := range []*regexp.Regexp{labelledGallons, trailingGallons} {
		if m := re.FindStringSubmatch(text); m != nil {
			if g, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil && g.IsPositive() {
				p.Gallons = g
				break
			}
		}
	}

	for _, m := range totalLine.FindAllStringSubmatch(text, -1) {
		if amount, err := money.Parse(m[1]); err == nil && amount.GreaterThan(p.AmountPaid) {
			p.AmountPaid = amount
		}
	}

	p.Date = dateFromText(text)
	return p
}

// StateFromText returns the first IFTA jurisdiction code found in an address,
// or "" when none is present.
func StateFromText(text string) string {
	for _, re := range []*regexp.Regexp{statePostal, stateComma} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if ifta.Known(m[1]) {
				return m[1]
			}
		}
	}
	return ""
}

func dateFromText(text string) time.Time {
	if m := isoDate.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("2006-01-02", m[1]); err == nil {
			return d
		}
	}
	if m := usDate.FindStringSubmatch(text); m != nil {
		for _, layout := range []string{"1/2/2006", "1/2/06"} {
			if d, err := time.Parse(layout, m[1]); err == nil {
				return d
			}
		}
	}
	return time.Time{}
}

// parseQuantity reads a numeric quantity out of text such as "120.5 gal".
func parseQuantity(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		} else if b.Len() > 0 && r != ',' {
			break
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
