// Package ifta computes a quarterly International Fuel Tax Agreement return:
// fleet fuel economy, the gallons each jurisdiction may tax, the tax already
// paid at the pump there, and the resulting balance due or credit.
package ifta

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
	"quicktrucktax/pkg/models"
)

// GallonPlaces is the precision used when gallons and MPG are reported.
const GallonPlaces = 3

// JurisdictionResult is the return line of one jurisdiction.
type JurisdictionResult struct {
	Jurisdiction   string          `json:"jurisdiction"`
	Name           string          `json:"name"`
	Miles          decimal.Decimal `json:"miles"`
	TaxableGallons decimal.Decimal `json:"taxableGallons"`
	TaxPaidGallons decimal.Decimal `json:"taxPaidGallons"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxOwed        decimal.Decimal `json:"taxOwed"`
	TaxPaidAtPump  decimal.Decimal `json:"taxPaidAtPump"`

	// NetTax is positive for a balance due and negative for a credit.
	NetTax decimal.Decimal `json:"netTax"`
}

// Result is a computed quarterly return. Values are kept at full precision
// until Rounded is called.
type Result struct {
	Quarter      string          `json:"quarter"`
	TotalMiles   decimal.Decimal `json:"totalMiles"`
	TotalGallons decimal.Decimal `json:"totalGallons"`
	AmountPaid   decimal.Decimal `json:"amountPaid"`
	MPG          decimal.Decimal `json:"mpg"`

	// MPGUndefined is set when no fuel was reported; no tax is computed then.
	MPGUndefined bool `json:"mpgUndefined"`

	TotalTaxOwed  decimal.Decimal `json:"totalTaxOwed"`
	TotalTaxPaid  decimal.Decimal `json:"totalTaxPaid"`
	TotalCredits  decimal.Decimal `json:"totalCredits"`
	TotalBalances decimal.Decimal `json:"totalBalances"`
	TotalTaxDue   decimal.Decimal `json:"totalTaxDue"`

	Jurisdictions []JurisdictionResult `json:"jurisdictionResults"`
}

// Rounded returns a copy with money rounded to cents and gallons and MPG to
// GallonPlaces. Totals are rounded from their full-precision sums.
func (r *Result) Rounded() *Result {
	out := *r
	out.TotalMiles = r.TotalMiles.Round(GallonPlaces)
	out.TotalGallons = r.TotalGallons.Round(GallonPlaces)
	out.AmountPaid = money.Round(r.AmountPaid)
	out.MPG = r.MPG.Round(2)
	out.TotalTaxOwed = money.Round(r.TotalTaxOwed)
	out.TotalTaxPaid = money.Round(r.TotalTaxPaid)
	out.TotalCredits = money.Round(r.TotalCredits)
	out.TotalBalances = money.Round(r.TotalBalances)
	out.TotalTaxDue = money.Round(r.TotalTaxDue)

	out.Jurisdictions = make([]JurisdictionResult, len(r.Jurisdictions))
	for i, j := range r.Jurisdictions {
		j.Miles = j.Miles.Round(GallonPlaces)
		j.TaxableGallons = j.TaxableGallons.Round(GallonPlaces)
		j.TaxPaidGallons = j.TaxPaidGallons.Round(GallonPlaces)
		j.TaxOwed = money.Round(j.TaxOwed)
		j.TaxPaidAtPump = money.Round(j.TaxPaidAtPump)
		j.NetTax = money.Round(j.NetTax)
		out.Jurisdictions[i] = j
	}
	return &out
}

// Calculator computes returns against one quarter's rate table. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	rates  *RateTable
	logger zerolog.Logger
}

// NewCalculator returns a calculator for the given rate table.
func NewCalculator(rates *RateTable) *Calculator {
	return &Calculator{
		rates:  rates,
		logger: logger.WithComponent("ifta"),
	}
}

// NewCalculatorForQuarter looks up the quarter's rate table and wraps it in a Calculator.
func NewCalculatorForQuarter(quarter string) (*Calculator, error) {
	rates, err := Lookup(quarter)
	if err != nil {
		return nil, err
	}
	return NewCalculator(rates), nil
}

// Rates returns the calculator's rate table.
func (c *Calculator) Rates() *RateTable {
	return c.rates
}

type tally struct {
	miles   decimal.Decimal
	gallons decimal.Decimal
}

// Calculate computes the return for a quarter's trips and fuel purchases.
//
// Every jurisdiction that appears in either input gets a line, including one
// with fuel but no miles, which shows only the pump credit. If no fuel was
// reported the result has MPGUndefined set and no jurisdiction lines.
func (c *Calculator) Calculate(trips []models.TripEntry, fuel []models.FuelPurchase) (*Result, error) {
	const op = "Calculate"

	if err := validateInputs(trips, fuel); err != nil {
		return nil, err
	}

	byCode := make(map[string]*tally)
	entry := func(code string) *tally {
		t, ok := byCode[code]
		if !ok {
			t = &tally{}
			byCode[code] = t
		}
		return t
	}

	result := &Result{Quarter: c.rates.Quarter()}
	for _, trip := range trips {
		t := entry(NormalizeCode(trip.State))
		t.miles = t.miles.Add(trip.Miles)
		result.TotalMiles = result.TotalMiles.Add(trip.Miles)
	}
	for _, p := range fuel {
		t := entry(NormalizeCode(p.State))
		t.gallons = t.gallons.Add(p.Gallons)
		result.TotalGallons = result.TotalGallons.Add(p.Gallons)
		result.AmountPaid = result.AmountPaid.Add(p.AmountPaid)
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if _, err := c.rates.Jurisdiction(code); err != nil {
			return nil, NewCalculationError(op, ErrUnknownJurisdiction, fmt.Sprintf("%s has no %s rate", code, c.rates.Quarter()))
		}
	}

	if result.TotalGallons.IsZero() {
		result.MPGUndefined = true
		c.logger.Debug().
			Str("quarter", result.Quarter).
			Str("miles", result.TotalMiles.String()).
			Msg("No fuel reported, MPG undefined")
		return result, nil
	}

	result.MPG = result.TotalMiles.Div(result.TotalGallons)

	for _, code := range codes {
		j, _ := c.rates.Jurisdiction(code)
		t := byCode[code]

		// miles / (totalMiles / totalGallons), kept exact.
		taxable := decimal.Zero
		if !result.TotalMiles.IsZero() {
			taxable = t.miles.Mul(result.TotalGallons).Div(result.TotalMiles)
		}

		line := JurisdictionResult{
			Jurisdiction:   code,
			Name:           j.Name,
			Miles:          t.miles,
			TaxableGallons: taxable,
			TaxPaidGallons: t.gallons,
			TaxRate:        j.Rate,
			TaxOwed:        taxable.Mul(j.Rate),
			TaxPaidAtPump:  t.gallons.Mul(j.Rate),
		}
		line.NetTax = line.TaxOwed.Sub(line.TaxPaidAtPump)

		result.TotalTaxOwed = result.TotalTaxOwed.Add(line.TaxOwed)
		result.TotalTaxPaid = result.TotalTaxPaid.Add(line.TaxPaidAtPump)
		result.TotalTaxDue = result.TotalTaxDue.Add(line.NetTax)
		if line.NetTax.IsNegative() {
			result.TotalCredits = result.TotalCredits.Add(line.NetTax.Neg())
		} else {
			result.TotalBalances = result.TotalBalances.Add(line.NetTax)
		}
		result.Jurisdictions = append(result.Jurisdictions, line)
	}

	c.logger.Debug().
		Str("quarter", result.Quarter).
		Int("jurisdictions", len(result.Jurisdictions)).
		Str("mpg", result.MPG.StringFixed(2)).
		Str("total_tax_due", result.TotalTaxDue.StringFixed(money.Cents)).
		Msg("IFTA return calculated")

	return result, nil
}

// returnInput carries the inputs through the models' struct tags.
type returnInput struct {
	Trips []models.TripEntry    `json:"trips" validate:"dive"`
	Fuel  []models.FuelPurchase `json:"fuel" validate:"dive"`
}

func validateInputs(trips []models.TripEntry, fuel []models.FuelPurchase) error {
	var errs validation.ValidationErrors
	for i, trip := range trips {
		if trip.Miles.IsNegative() {
			errs.Add(fmt.Sprintf("trips[%d].miles", i), trip.Miles.String(), "miles cannot be negative")
		}
	}
	for i, p := range fuel {
		field := fmt.Sprintf("fuel[%d]", i)
		if p.Gallons.IsNegative() {
			errs.Add(field+".gallons", p.Gallons.String(), "gallons cannot be negative")
		}
		if p.AmountPaid.IsNegative() {
			errs.Add(field+".amountPaid", p.AmountPaid.String(), "amount paid cannot be negative")
		}
	}
	if err := errs.Append(validation.Struct(returnInput{Trips: trips, Fuel: fuel})); err != nil {
		return err
	}
	return errs.Err()
}
