package amendment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktrucktax/internal/validation"
)

const (
	vinA = "1FUJGLDR12LM12345"
	vinB = "1FUJGLDR12LM54321"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeightIncrease(t *testing.T) {
	e := NewEngine()

	res, err := e.WeightIncrease(WeightIncreaseRequest{
		OriginalWeightCategory: "F",
		NewWeightCategory:      "H",
		IncreaseMonth:          "September 2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "175.00", res.OriginalTax.StringFixed(2))
	assert.Equal(t, "211.67", res.NewTax.StringFixed(2))
	assert.Equal(t, "36.67", res.AdditionalTaxDue.StringFixed(2))
	assert.Equal(t, date(2025, time.November, 30), res.DueDate)
	assert.Equal(t, "2025", res.TaxPeriod)
}

func TestWeightIncreaseAcceptsPounds(t *testing.T) {
	e := NewEngine()

	res, err := e.WeightIncrease(WeightIncreaseRequest{
		OriginalWeightCategory: "60,000",
		NewWeightCategory:      "80000",
		IncreaseMonth:          "July 2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "F", res.OriginalCategory)
	assert.Equal(t, "V", res.NewCategory)
	assert.Equal(t, "340.00", res.AdditionalTaxDue.StringFixed(2))
	assert.Equal(t, date(2025, time.September, 30), res.DueDate)
}

func TestWeightIncreaseRequiresHeavierCategory(t *testing.T) {
	e := NewEngine()

	for _, tt := range []struct{ from, to string }{{"F", "F"}, {"H", "F"}, {"60000", "59500"}} {
		_, err := e.WeightIncrease(WeightIncreaseRequest{
			OriginalWeightCategory: tt.from,
			NewWeightCategory:      tt.to,
			IncreaseMonth:          "July 2025",
		})
		require.Error(t, err, "%s -> %s", tt.from, tt.to)

		var ve *validation.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "newWeightCategory", ve.Field)
		assert.Contains(t, ve.Message, "must be heavier")
	}
}

func TestWeightIncreaseReportsEveryBadField(t *testing.T) {
	e := NewEngine()

	_, err := e.WeightIncrease(WeightIncreaseRequest{
		OriginalWeightCategory: "Z",
		NewWeightCategory:      "40000",
		IncreaseMonth:          "Sept 2025",
	})
	var errs validation.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 3)
	assert.Equal(t, "originalWeightCategory", errs[0].Field)
	assert.Equal(t, "newWeightCategory", errs[1].Field)
	assert.Contains(t, errs[1].Message, "55000")
	assert.Equal(t, "increaseMonth", errs[2].Field)
}

func TestValidateMileageExceeded(t *testing.T) {
	tests := []struct {
		miles        int
		agricultural bool
		ok           bool
	}{
		{5000, false, false},
		{5001, false, true},
		{7500, true, false},
		{7501, true, true},
		{6000, true, false},
		{0, false, false},
	}
	for _, tt := range tests {
		err := ValidateMileageExceeded(tt.miles, tt.agricultural)
		if tt.ok {
			assert.NoError(t, err, "%d agricultural=%v", tt.miles, tt.agricultural)
			continue
		}
		require.Error(t, err, "%d agricultural=%v", tt.miles, tt.agricultural)
		assert.True(t, validation.IsValidationError(err))
	}
}

func TestMileageExceededTaxesFromOriginalMonth(t *testing.T) {
	e := NewEngine()

	res, err := e.MileageExceeded(MileageExceededRequest{
		VehicleID:           "veh-1",
		ActualMileageUsed:   5200,
		GrossWeightCategory: "60000",
		FirstUsedMonth:      "September 2025",
		ExceededMonth:       "March 2026",
	})
	require.NoError(t, err)
	assert.Equal(t, "210.00", res.AnnualTax.StringFixed(2))
	assert.Equal(t, "175.00", res.TaxDue.StringFixed(2), "ten months from September, not four from March")
	require.NotNil(t, res.DueDate)
	assert.Equal(t, date(2026, time.April, 30), *res.DueDate)
	assert.Equal(t, StandardMileageLimit, res.MileageLimit)
}

func TestMileageExceededValidation(t *testing.T) {
	e := NewEngine()

	_, err := e.MileageExceeded(MileageExceededRequest{
		IsAgricultural:      true,
		ActualMileageUsed:   7000,
		GrossWeightCategory: "F",
		FirstUsedMonth:      "July 2025",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "7500")

	_, err = e.MileageExceeded(MileageExceededRequest{
		ActualMileageUsed:   6000,
		GrossWeightCategory: "F",
		FirstUsedMonth:      "October 2025",
		ExceededMonth:       "August 2025",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceededMonth")

	res, err := e.MileageExceeded(MileageExceededRequest{
		ActualMileageUsed:   6000,
		GrossWeightCategory: "F",
		FirstUsedMonth:      "July 2025",
	})
	require.NoError(t, err)
	assert.Nil(t, res.DueDate)
}

func TestValidateVinCorrection(t *testing.T) {
	require.NoError(t, ValidateVinCorrection(vinA, vinB))

	err := ValidateVinCorrection(vinA, " 1fujgldr12lm12345 ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VINs must be different")

	var errs validation.ValidationErrors
	require.ErrorAs(t, ValidateVinCorrection("SHORT", "1FUJGLDR12LQ12345"), &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "originalVIN", errs[0].Field)
	assert.Equal(t, "correctedVIN", errs[1].Field)
}

func TestEvaluate(t *testing.T) {
	e := NewEngine()

	res, err := e.Evaluate(Request{
		Kind:          KindVinCorrection,
		VinCorrection: &VinCorrectionRequest{OriginalVIN: vinA, CorrectedVIN: vinB},
	})
	require.NoError(t, err)
	assert.True(t, res.AdditionalTaxDue.IsZero())
	assert.Nil(t, res.DueDate)

	res, err = e.Evaluate(Request{
		Kind: KindWeightIncrease,
		WeightIncrease: &WeightIncreaseRequest{
			OriginalWeightCategory: "F", NewWeightCategory: "H", IncreaseMonth: "September 2025",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "36.67", res.Rounded().AdditionalTaxDue.String())
	require.NotNil(t, res.DueDate)

	res, err = e.Evaluate(Request{
		Kind: KindMileageExceeded,
		MileageExceeded: &MileageExceededRequest{
			ActualMileageUsed: 5001, GrossWeightCategory: "V", FirstUsedMonth: "July 2025",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "550", res.AdditionalTaxDue.String())
}

func TestEvaluateRejectsMismatchedPayload(t *testing.T) {
	e := NewEngine()

	_, err := e.Evaluate(Request{Kind: "plate_change"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vin_correction, weight_increase, mileage_exceeded")

	_, err = e.Evaluate(Request{
		Kind:           KindVinCorrection,
		WeightIncrease: &WeightIncreaseRequest{},
	})
	var errs validation.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "vinCorrection", errs[0].Field)
	assert.Equal(t, "weightIncrease", errs[1].Field)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Weight-Increase")
	require.NoError(t, err)
	assert.Equal(t, KindWeightIncrease, k)

	_, err = ParseKind("refund")
	require.Error(t, err)
}
