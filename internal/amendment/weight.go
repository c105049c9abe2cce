package amendment

import (
	"errors"
	"fmt"
	"time"

	"quicktrucktax/internal/hvut"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
)

// WeightIncreaseDueDate is the last day of the second calendar month after
// the month the weight increased.
func WeightIncreaseDueDate(increase hvut.FirstUseMonth) time.Time {
	return increase.AddMonths(2).LastDay()
}

// WeightIncrease computes the additional tax owed when a vehicle moves into a
// heavier category: the prorated tax of the new category less that of the
// original, both from the increase month.
func (e *Engine) WeightIncrease(req WeightIncreaseRequest) (*WeightIncreaseResult, error) {
	var errs validation.ValidationErrors

	original, err := parseTaxableWeight("originalWeightCategory", req.OriginalWeightCategory)
	errs.Append(err)
	updated, err := parseTaxableWeight("newWeightCategory", req.NewWeightCategory)
	errs.Append(err)
	month, err := hvut.ParseMonthField("increaseMonth", req.IncreaseMonth)
	errs.Append(err)
	if len(errs) > 0 {
		return nil, errs
	}

	if !updated.Category.Heavier(original.Category) {
		return nil, validation.NewValidationError("newWeightCategory", req.NewWeightCategory,
			fmt.Sprintf("new weight category %s must be heavier than the original category %s",
				updated.Category, original.Category))
	}

	table, err := hvut.ForMonth(month)
	if err != nil {
		return nil, err
	}
	oldTax, err := table.ProratedTax(original, month, req.Logging)
	if err != nil {
		return nil, err
	}
	newTax, err := table.ProratedTax(updated, month, req.Logging)
	if err != nil {
		return nil, err
	}

	result := &WeightIncreaseResult{
		OriginalCategory: original.Category.String(),
		NewCategory:      updated.Category.String(),
		IncreaseMonth:    month.String(),
		TaxPeriod:        table.Version(),
		OriginalTax:      oldTax,
		NewTax:           newTax,
		AdditionalTaxDue: money.Max(newTax.Sub(oldTax), money.Zero),
		DueDate:          WeightIncreaseDueDate(month),
	}

	e.logger.Debug().
		Str("vin", req.VIN).
		Str("from", result.OriginalCategory).
		Str("to", result.NewCategory).
		Str("month", result.IncreaseMonth).
		Str("additional_tax", result.AdditionalTaxDue.StringFixed(2)).
		Msg("Weight increase evaluated")

	return result, nil
}

// parseTaxableWeight parses a category letter or pounds value that must land
// on the taxable A-W scale.
func parseTaxableWeight(field, s string) (hvut.Weight, error) {
	w, err := hvut.ParseWeight(s)
	if err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			return hvut.Weight{}, validation.NewValidationError(field, s, ve.Message)
		}
		return hvut.Weight{}, err
	}
	if !w.Taxable() || !w.Category.Valid() {
		return hvut.Weight{}, validation.NewValidationError(field, s,
			fmt.Sprintf("weight must be at least %d lbs (category A)", hvut.MinTaxableWeight))
	}
	return w, nil
}
