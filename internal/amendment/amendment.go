// Package amendment evaluates Form 2290 amendments: taxable gross weight
// increases, suspended vehicles that exceeded the mileage limit, and VIN
// corrections.
//
// Weight increases owe the difference between the prorated tax of the new and
// the old category from the month of the increase. Vehicles that exceed the
// mileage limit owe tax from their original first-used month, not from the
// month the limit was exceeded. VIN corrections carry no tax.
package amendment

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
)

// Kind discriminates the amendment variants.
type Kind string

const (
	KindVinCorrection   Kind = "vin_correction"
	KindWeightIncrease  Kind = "weight_increase"
	KindMileageExceeded Kind = "mileage_exceeded"
)

const (
	// StandardMileageLimit is the suspension limit for ordinary vehicles.
	StandardMileageLimit = 5000

	// AgriculturalMileageLimit is the suspension limit for agricultural vehicles.
	AgriculturalMileageLimit = 7500
)

// VinCorrectionRequest corrects the VIN reported on an accepted filing.
type VinCorrectionRequest struct {
	OriginalVIN      string `json:"originalVIN"`
	CorrectedVIN     string `json:"correctedVIN"`
	OriginalFilingID string `json:"originalFilingId,omitempty"`
}

// WeightIncreaseRequest reports a vehicle moving into a heavier category.
// Categories are letters A-W or weights in pounds; IncreaseMonth is "<MonthName> <YYYY>".
type WeightIncreaseRequest struct {
	VIN                    string `json:"vin,omitempty"`
	OriginalWeightCategory string `json:"originalWeightCategory"`
	NewWeightCategory      string `json:"newWeightCategory"`
	IncreaseMonth          string `json:"increaseMonth"`
	Logging                bool   `json:"logging,omitempty"`
}

// MileageExceededRequest reports a suspended vehicle that went over its mileage limit.
type MileageExceededRequest struct {
	VehicleID           string `json:"vehicleId,omitempty"`
	VIN                 string `json:"vin,omitempty"`
	IsAgricultural      bool   `json:"isAgricultural"`
	ActualMileageUsed   int    `json:"actualMileageUsed"`
	GrossWeightCategory string `json:"grossWeightCategory"`
	Logging             bool   `json:"logging,omitempty"`

	// FirstUsedMonth is the month the vehicle was first used in the tax period.
	FirstUsedMonth string `json:"firstUsedMonth"`

	// ExceededMonth is the month the limit was passed. Optional; when set it
	// determines the due date.
	ExceededMonth string `json:"exceededMonth,omitempty"`
}

// Request is a tagged amendment. Exactly the payload named by Kind must be set.
type Request struct {
	Kind            Kind                    `json:"kind"`
	VinCorrection   *VinCorrectionRequest   `json:"vinCorrection,omitempty"`
	WeightIncrease  *WeightIncreaseRequest  `json:"weightIncrease,omitempty"`
	MileageExceeded *MileageExceededRequest `json:"mileageExceeded,omitempty"`
}

// WeightIncreaseResult is the additional tax and due date of a weight increase.
type WeightIncreaseResult struct {
	OriginalCategory string          `json:"originalCategory"`
	NewCategory      string          `json:"newCategory"`
	IncreaseMonth    string          `json:"increaseMonth"`
	TaxPeriod        string          `json:"taxPeriod"`
	OriginalTax      decimal.Decimal `json:"originalProratedTax"`
	NewTax           decimal.Decimal `json:"newProratedTax"`
	AdditionalTaxDue decimal.Decimal `json:"additionalTaxDue"`
	DueDate          time.Time       `json:"dueDate"`
}

// MileageExceededResult is the tax owed once a suspended vehicle becomes taxable.
type MileageExceededResult struct {
	Category       string          `json:"category"`
	MileageLimit   int             `json:"mileageLimit"`
	FirstUsedMonth string          `json:"firstUsedMonth"`
	TaxPeriod      string          `json:"taxPeriod"`
	AnnualTax      decimal.Decimal `json:"annualTax"`
	TaxDue         decimal.Decimal `json:"taxDue"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
}

// Result is the outcome of Evaluate. Amounts are at full precision.
type Result struct {
	Kind             Kind                   `json:"kind"`
	AdditionalTaxDue decimal.Decimal        `json:"additionalTaxDue"`
	DueDate          *time.Time             `json:"dueDate,omitempty"`
	WeightIncrease   *WeightIncreaseResult  `json:"weightIncrease,omitempty"`
	MileageExceeded  *MileageExceededResult `json:"mileageExceeded,omitempty"`
}

// Rounded returns a copy with every amount rounded to cents.
func (r *Result) Rounded() *Result {
	out := *r
	out.AdditionalTaxDue = money.Round(r.AdditionalTaxDue)
	if r.WeightIncrease != nil {
		wi := *r.WeightIncrease
		wi.OriginalTax = money.Round(wi.OriginalTax)
		wi.NewTax = money.Round(wi.NewTax)
		wi.AdditionalTaxDue = money.Round(wi.AdditionalTaxDue)
		out.WeightIncrease = &wi
	}
	if r.MileageExceeded != nil {
		me := *r.MileageExceeded
		me.AnnualTax = money.Round(me.AnnualTax)
		me.TaxDue = money.Round(me.TaxDue)
		out.MileageExceeded = &me
	}
	return &out
}

// Engine evaluates amendments against the HVUT table of the tax period each
// amendment falls in. It is stateless and safe for concurrent use.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates an amendment engine.
func NewEngine() *Engine {
	return &Engine{logger: logger.WithComponent("amendment")}
}

// Evaluate dispatches on the request kind.
func (e *Engine) Evaluate(req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Kind {
	case KindVinCorrection:
		if err := ValidateVinCorrection(req.VinCorrection.OriginalVIN, req.VinCorrection.CorrectedVIN); err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind}, nil

	case KindWeightIncrease:
		wi, err := e.WeightIncrease(*req.WeightIncrease)
		if err != nil {
			return nil, err
		}
		due := wi.DueDate
		return &Result{Kind: req.Kind, AdditionalTaxDue: wi.AdditionalTaxDue, DueDate: &due, WeightIncrease: wi}, nil

	case KindMileageExceeded:
		me, err := e.MileageExceeded(*req.MileageExceeded)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind, AdditionalTaxDue: me.TaxDue, DueDate: me.DueDate, MileageExceeded: me}, nil
	}

	return nil, fmt.Errorf("amendment kind %q passed validation but has no handler", req.Kind)
}

// Validate checks that Kind is known and that exactly its payload is present.
func (r Request) Validate() error {
	payloads := []struct {
		kind Kind
		set  bool
	}{
		{KindVinCorrection, r.VinCorrection != nil},
		{KindWeightIncrease, r.WeightIncrease != nil},
		{KindMileageExceeded, r.MileageExceeded != nil},
	}

	switch r.Kind {
	case KindVinCorrection, KindWeightIncrease, KindMileageExceeded:
	default:
		return validation.NewValidationError("kind", string(r.Kind),
			"amendment kind must be one of: vin_correction, weight_increase, mileage_exceeded")
	}

	var errs validation.ValidationErrors
	for _, p := range payloads {
		switch {
		case p.kind == r.Kind && !p.set:
			errs.Add(payloadField(p.kind), nil, fmt.Sprintf("details are required for a %s amendment", p.kind))
		case p.kind != r.Kind && p.set:
			errs.Add(payloadField(p.kind), nil, fmt.Sprintf("must be empty for a %s amendment", r.Kind))
		}
	}
	return errs.Err()
}

func payloadField(k Kind) string {
	switch k {
	case KindVinCorrection:
		return "vinCorrection"
	case KindWeightIncrease:
		return "weightIncrease"
	default:
		return "mileageExceeded"
	}
}

// ParseKind accepts a kind name, tolerating dashes and case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch k {
	case KindVinCorrection, KindWeightIncrease, KindMileageExceeded:
		return k, nil
	}
	return "", validation.NewValidationError("kind", s,
		"amendment kind must be one of: vin_correction, weight_increase, mileage_exceeded")
}
