package amendment

import (
	"fmt"
	"time"

	"quicktrucktax/internal/hvut"
	"quicktrucktax/internal/validation"
)

// MileageLimit returns the suspension limit that applies to a vehicle.
func MileageLimit(isAgricultural bool) int {
	if isAgricultural {
		return AgriculturalMileageLimit
	}
	return StandardMileageLimit
}

// ValidateMileageExceeded fails unless actualMileage is strictly above the
// vehicle's limit: 5,000 miles, or 7,500 for agricultural vehicles.
func ValidateMileageExceeded(actualMileage int, isAgricultural bool) error {
	limit := MileageLimit(isAgricultural)
	if actualMileage <= limit {
		kind := "standard"
		if isAgricultural {
			kind = "agricultural"
		}
		return validation.NewValidationError("actualMileageUsed", actualMileage,
			fmt.Sprintf("mileage must exceed the %s limit of %d miles to end the suspension", kind, limit))
	}
	return nil
}

// MileageExceededDueDate is the last day of the month after the month the
// limit was exceeded.
func MileageExceededDueDate(exceeded hvut.FirstUseMonth) time.Time {
	return exceeded.AddMonths(1).LastDay()
}

// MileageExceeded returns the tax owed by a suspended vehicle that went over
// its limit. The tax runs from the vehicle's original first-used month in the
// tax period, not from the month the limit was exceeded.
func (e *Engine) MileageExceeded(req MileageExceededRequest) (*MileageExceededResult, error) {
	if err := ValidateMileageExceeded(req.ActualMileageUsed, req.IsAgricultural); err != nil {
		return nil, err
	}

	var errs validation.ValidationErrors
	weight, err := parseTaxableWeight("grossWeightCategory", req.GrossWeightCategory)
	errs.Append(err)
	firstUsed, err := hvut.ParseMonthField("firstUsedMonth", req.FirstUsedMonth)
	errs.Append(err)

	var exceeded *hvut.FirstUseMonth
	if req.ExceededMonth != "" {
		m, err := hvut.ParseMonthField("exceededMonth", req.ExceededMonth)
		if err != nil {
			errs.Append(err)
		} else {
			exceeded = &m
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if exceeded != nil {
		if exceeded.Before(firstUsed) {
			return nil, validation.NewValidationError("exceededMonth", req.ExceededMonth,
				fmt.Sprintf("the limit cannot be exceeded before the first-used month %s", firstUsed))
		}
		if exceeded.TaxPeriod() != firstUsed.TaxPeriod() {
			return nil, validation.NewValidationError("exceededMonth", req.ExceededMonth,
				fmt.Sprintf("must fall in the same July-June tax period as %s", firstUsed))
		}
	}

	table, err := hvut.ForMonth(firstUsed)
	if err != nil {
		return nil, err
	}
	annual, err := table.AnnualTax(weight, req.Logging)
	if err != nil {
		return nil, err
	}
	due, err := table.ProratedTax(weight, firstUsed, req.Logging)
	if err != nil {
		return nil, err
	}

	result := &MileageExceededResult{
		Category:       weight.Category.String(),
		MileageLimit:   MileageLimit(req.IsAgricultural),
		FirstUsedMonth: firstUsed.String(),
		TaxPeriod:      table.Version(),
		AnnualTax:      annual,
		TaxDue:         due,
	}
	if exceeded != nil {
		d := MileageExceededDueDate(*exceeded)
		result.DueDate = &d
	}

	e.logger.Debug().
		Str("vehicle_id", req.VehicleID).
		Int("mileage", req.ActualMileageUsed).
		Str("first_used", result.FirstUsedMonth).
		Str("tax_due", result.TaxDue.StringFixed(2)).
		Msg("Mileage exceeded evaluated")

	return result, nil
}
