package hvut

import (
	"fmt"
	"strconv"
	"strings"

	"quicktrucktax/internal/validation"
)

const (
	// MinTaxableWeight is the lowest taxable gross weight (category A).
	MinTaxableWeight = 55000

	// FlatTaxWeight is the weight from which the flat maximum tax applies.
	FlatTaxWeight = 75000
)

// Category is a Form 2290 taxable gross weight category letter. A is the
// lightest; B through U are 1,000 lb steps; V is 75,000 lbs and over; W is
// the tax-suspended column, ordered heaviest and rated at the flat maximum.
type Category byte

const (
	CategoryA Category = 'A'
	CategoryU Category = 'U'
	CategoryV Category = 'V'
	CategoryW Category = 'W'
)

// ParseCategory parses a single category letter A-W (case-insensitive).
func ParseCategory(s string) (Category, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if len(trimmed) != 1 || trimmed[0] < byte(CategoryA) || trimmed[0] > byte(CategoryW) {
		return 0, validation.NewValidationError("weightCategory", s, "weight category must be a single letter from A to W")
	}
	return Category(trimmed[0]), nil
}

// Index is the category's position on the ordered A-W scale (A = 0, W = 22).
func (c Category) Index() int {
	return int(c) - int(CategoryA)
}

// Valid reports whether c is one of the 23 letters A-W.
func (c Category) Valid() bool {
	return c >= CategoryA && c <= CategoryW
}

// Heavier reports whether c sits strictly above o on the category scale.
func (c Category) Heavier(o Category) bool {
	return c.Index() > o.Index()
}

// Suspended reports whether c is the tax-suspended column.
func (c Category) Suspended() bool {
	return c == CategoryW
}

// MinWeight is the lightest gross weight in the category, used as the
// category's weight when a letter is the only thing known about a vehicle.
func (c Category) MinWeight() int {
	switch {
	case c == CategoryA:
		return MinTaxableWeight
	case c >= CategoryV:
		return FlatTaxWeight
	default:
		return MinTaxableWeight + (c.Index()-1)*1000 + 1
	}
}

// Range describes the category's weight span for display.
func (c Category) Range() string {
	switch {
	case c == CategoryA:
		return "55,000 lbs"
	case c == CategoryV:
		return "75,000 lbs and over"
	case c == CategoryW:
		return "tax-suspended vehicle"
	default:
		lo := c.MinWeight()
		hi := lo + 999
		if c == CategoryU {
			hi = FlatTaxWeight - 1
		}
		return fmt.Sprintf("%s - %s lbs", groupThousands(lo), groupThousands(hi))
	}
}

func (c Category) String() string {
	return string(rune(c))
}

// CategoryFor returns the category containing a gross weight in pounds.
// Weights below 55,000 lbs have no category.
func CategoryFor(pounds int) (Category, bool) {
	switch {
	case pounds < MinTaxableWeight:
		return 0, false
	case pounds == MinTaxableWeight:
		return CategoryA, true
	case pounds >= FlatTaxWeight:
		return CategoryV, true
	default:
		steps := (pounds - MinTaxableWeight + 999) / 1000
		return Category(byte(CategoryA) + byte(steps)), true
	}
}

// Weight is the normalized taxable gross weight of a vehicle: the pounds used
// for rate lookup and, when known, the category letter.
type Weight struct {
	Pounds   int
	Category Category
}

// ParseWeight accepts either a category letter (A-W) or a raw integer weight
// in pounds and normalizes both to a Weight.
func ParseWeight(s string) (Weight, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Weight{}, validation.NewValidationError("grossWeightCategory", s, "gross weight category is required")
	}

	if c := trimmed[0]; (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		cat, err := ParseCategory(trimmed)
		if err != nil {
			return Weight{}, validation.NewValidationError("grossWeightCategory", s,
				"gross weight must be a category letter from A to W or a weight in pounds")
		}
		return WeightOf(cat), nil
	}

	pounds, err := strconv.Atoi(strings.ReplaceAll(trimmed, ",", ""))
	if err != nil || pounds <= 0 {
		return Weight{}, validation.NewValidationError("grossWeightCategory", s,
			"gross weight must be a category letter from A to W or a positive whole number of pounds")
	}
	return WeightFromPounds(pounds), nil
}

// WeightOf returns the weight representing a category letter.
func WeightOf(c Category) Weight {
	return Weight{Pounds: c.MinWeight(), Category: c}
}

// WeightFromPounds returns the weight for a raw number of pounds.
func WeightFromPounds(pounds int) Weight {
	cat, _ := CategoryFor(pounds)
	return Weight{Pounds: pounds, Category: cat}
}

// Taxable reports whether the weight reaches the HVUT threshold.
func (w Weight) Taxable() bool {
	return w.Pounds >= MinTaxableWeight
}

func (w Weight) String() string {
	if w.Category.Valid() {
		return fmt.Sprintf("%s (%s lbs)", w.Category, groupThousands(w.Pounds))
	}
	return groupThousands(w.Pounds) + " lbs"
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
