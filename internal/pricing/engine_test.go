package pricing

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktrucktax/internal/amendment"
	"quicktrucktax/internal/validation"
	"quicktrucktax/pkg/models"
)

const (
	vinA = "1FUJGLDR12LM12345"
	vinB = "1FUJGLDR12LM54321"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngineForVersions("2025", "2025")
	require.NoError(t, err)
	return e
}

func taxable(vin, weight string) models.Vehicle {
	return models.Vehicle{VIN: vin, GrossWeightCategory: weight, VehicleType: models.VehicleTaxable}
}

func fleet(n int, weight string) []models.Vehicle {
	out := make([]models.Vehicle, n)
	for i := range out {
		out[i] = taxable(vinA, weight)
	}
	return out
}

func TestServiceFeeTiers(t *testing.T) {
	tests := []struct {
		count   int
		fee     string
		savings string
	}{
		{1, "34.99", "0.00"},
		{2, "59.98", "10.00"},
		{9, "269.91", "45.00"},
		{10, "259.90", "90.00"},
		{24, "623.76", "216.00"},
		{25, "549.75", "325.00"},
	}
	for _, tt := range tests {
		fee, savings := ServiceFee(tt.count)
		assert.Equal(t, tt.fee, fee.StringFixed(2), "count %d", tt.count)
		assert.Equal(t, tt.savings, savings.StringFixed(2), "count %d", tt.count)
	}
}

func TestPriceSingleVehicleJuly(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles:       []models.Vehicle{taxable(vinA, "60000")},
		State:          "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "34.99", b.ServiceFee.StringFixed(2))
	assert.Equal(t, "210.00", b.TotalTax.StringFixed(2))
	assert.True(t, b.SalesTax.IsZero())
	assert.Equal(t, "34.99", b.GrandTotal.StringFixed(2))
	assert.True(t, b.BulkSavings.IsZero())
	assert.Nil(t, b.NetRefund)
	assert.Equal(t, "2025", b.TaxPeriod)

	require.Len(t, b.VehicleBreakdown, 1)
	assert.Equal(t, "F", b.VehicleBreakdown[0].Category)
}

func TestPriceTwelveVehicleFleet(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles:       fleet(12, "55000"),
		State:          "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "311.88", b.ServiceFee.StringFixed(2))
	assert.Equal(t, "108.00", b.BulkSavings.StringFixed(2))
	assert.Equal(t, "1200.00", b.TotalTax.StringFixed(2))
}

func TestPriceIsDeterministic(t *testing.T) {
	e := newEngine(t)
	req := Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "October 2025",
		Vehicles: []models.Vehicle{
			taxable(vinA, "C"),
			{VIN: vinB, GrossWeightCategory: "80000", VehicleType: models.VehicleTaxable, Logging: true},
			{VIN: vinB, GrossWeightCategory: "W", VehicleType: models.VehicleSuspended},
		},
		CouponCode: "welcome10",
		State:      "TX",
	}

	first, err := e.Price(req)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([][]byte, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := e.Price(req)
			if err != nil {
				return
			}
			got[i], _ = json.Marshal(b)
		}(i)
	}
	wg.Wait()

	for i := range got {
		assert.Equal(t, string(want), string(got[i]), "run %d", i)
	}
}

func TestPriceCouponsAndSalesTax(t *testing.T) {
	e := newEngine(t)
	base := Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles:       []models.Vehicle{taxable(vinA, "60000")},
		State:          "TX",
	}

	req := base
	req.CouponCode = "WELCOME10"
	b, err := e.Price(req)
	require.NoError(t, err)
	assert.Equal(t, "3.50", b.CouponDiscount.StringFixed(2))
	assert.Equal(t, "31.49", b.ServiceFee.StringFixed(2))
	assert.Equal(t, "1.97", b.SalesTax.StringFixed(2))
	assert.Equal(t, "33.46", b.GrandTotal.StringFixed(2))
	assert.Equal(t, "210.00", b.TotalTax.StringFixed(2), "coupons never touch the tax")

	req = base
	req.CouponCode = "FREEFILE"
	b, err = e.Price(req)
	require.NoError(t, err)
	assert.True(t, b.ServiceFee.IsZero())
	assert.True(t, b.SalesTax.IsZero())
	assert.Equal(t, "34.99", b.CouponDiscount.StringFixed(2))

	for code, msg := range map[string]string{"SUMMER24": "expired", "BOGUS": "not valid"} {
		req = base
		req.CouponCode = code
		_, err = e.Price(req)
		require.Error(t, err, code)
		var ve *validation.ValidationError
		require.True(t, errors.As(err, &ve), code)
		assert.Equal(t, "couponCode", ve.Field)
		assert.Contains(t, ve.Message, msg)
	}

	req = base
	req.State = "ZZ"
	_, err = e.Price(req)
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
}

func TestPriceCreditAndSuspendedVehicles(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "September 2025",
		Vehicles: []models.Vehicle{
			taxable(vinA, "60000"),
			{VIN: vinB, GrossWeightCategory: "60000", VehicleType: models.VehicleCredit, CreditDate: "2025-11-15"},
			{VIN: vinB, GrossWeightCategory: "W", VehicleType: models.VehicleSuspended},
		},
		State: "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "35.00", b.TotalTax.StringFixed(2))

	require.Len(t, b.VehicleBreakdown, 3)
	assert.Equal(t, "175.00", b.VehicleBreakdown[0].Amount.StringFixed(2))
	assert.Equal(t, "-140.00", b.VehicleBreakdown[1].Amount.StringFixed(2))
	assert.Equal(t, "November 2025", b.VehicleBreakdown[1].Month)
	assert.True(t, b.VehicleBreakdown[2].Amount.IsZero())
	assert.Equal(t, "W", b.VehicleBreakdown[2].Category)

	assert.Equal(t, "89.97", b.ServiceFee.StringFixed(2))
}

func TestPriceCreditsNeverMakeTaxNegative(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "June 2026",
		Vehicles: []models.Vehicle{
			taxable(vinA, "55000"),
			{VIN: vinB, GrossWeightCategory: "V", VehicleType: models.VehicleCredit, CreditDate: "2025-07-20"},
		},
		State: "OR",
	})
	require.NoError(t, err)
	assert.True(t, b.TotalTax.IsZero())
}

func TestPriceLoggingVehicle(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles:       []models.Vehicle{{VIN: vinA, GrossWeightCategory: "60000", VehicleType: models.VehicleTaxable, Logging: true}},
		State:          "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "157.50", b.TotalTax.StringFixed(2))
}

func TestPriceRefund(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType:     FilingRefund,
		FirstUsedMonth: "July 2025",
		Vehicles: []models.Vehicle{
			{VIN: vinA, GrossWeightCategory: "60000", VehicleType: models.VehicleCredit, CreditDate: "2025-10-01"},
			{VIN: vinB, GrossWeightCategory: "F", VehicleType: models.VehicleSuspended},
		},
		State: "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "367.50", b.TotalRefund.StringFixed(2))
	assert.True(t, b.TotalTax.IsZero())
	assert.Equal(t, "59.98", b.ServiceFee.StringFixed(2))
	require.NotNil(t, b.NetRefund)
	assert.Equal(t, "307.52", b.NetRefund.StringFixed(2))

	_, err = e.Price(Request{
		FilingType:     FilingRefund,
		FirstUsedMonth: "July 2025",
		Vehicles:       []models.Vehicle{taxable(vinA, "60000")},
		State:          "OR",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vehicles[0].vehicleType")
}

func TestPriceAmendments(t *testing.T) {
	e := newEngine(t)

	b, err := e.Price(Request{
		FilingType: FilingAmendment,
		Amendment: &amendment.Request{
			Kind:          amendment.KindVinCorrection,
			VinCorrection: &amendment.VinCorrectionRequest{OriginalVIN: vinA, CorrectedVIN: vinB},
		},
		State: "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", b.ServiceFee.StringFixed(2))
	assert.Equal(t, "10.00", b.GrandTotal.StringFixed(2))
	assert.True(t, b.TotalTax.IsZero())

	_, err = e.Price(Request{
		FilingType: FilingAmendment,
		Amendment: &amendment.Request{
			Kind:          amendment.KindVinCorrection,
			VinCorrection: &amendment.VinCorrectionRequest{OriginalVIN: vinA, CorrectedVIN: vinA},
		},
		State: "OR",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VINs must be different")

	b, err = e.Price(Request{
		FilingType: FilingAmendment,
		Amendment: &amendment.Request{
			Kind: amendment.KindWeightIncrease,
			WeightIncrease: &amendment.WeightIncreaseRequest{
				VIN: vinA, OriginalWeightCategory: "F", NewWeightCategory: "H", IncreaseMonth: "September 2025",
			},
		},
		State: "OR",
	})
	require.NoError(t, err)
	assert.Equal(t, "36.67", b.TotalTax.StringFixed(2))
	assert.Equal(t, "34.99", b.ServiceFee.StringFixed(2))

	_, err = e.Price(Request{FilingType: FilingAmendment, State: "OR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amendment")
}

func TestPriceValidation(t *testing.T) {
	e := newEngine(t)

	_, err := e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles: []models.Vehicle{
			{VIN: "1FUJGLDR12LO12345", GrossWeightCategory: "60000", VehicleType: models.VehicleTaxable},
			{VIN: vinB, GrossWeightCategory: "60000", VehicleType: models.VehicleCredit},
		},
		State: "OR",
	})
	var errs validation.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "vehicles[0].vin", errs[0].Field)
	assert.Equal(t, "vehicles[1].creditDate", errs[1].Field)

	_, err = e.Price(Request{
		FilingType:     FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles:       []models.Vehicle{taxable(vinA, "50000"), taxable(vinB, "heavy")},
		State:          "OR",
	})
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "55000")

	_, err = e.Price(Request{FilingType: "form1040", State: "OR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filingType")

	_, err = e.Price(Request{FilingType: FilingForm2290, FirstUsedMonth: "Jul 2025", Vehicles: fleet(1, "F"), State: "OR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firstUsedMonth")

	_, err = e.Price(Request{FilingType: FilingForm2290, FirstUsedMonth: "July 2025", State: "OR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one vehicle")
}

func TestCouponDiscount(t *testing.T) {
	book, err := LookupCouponBook("2025")
	require.NoError(t, err)

	c, err := book.Redeem(" save5 ")
	require.NoError(t, err)
	assert.Equal(t, "5.00", c.Discount(StandardFee).StringFixed(2))
	assert.Equal(t, "3.00", c.Discount(decimal.RequireFromString("3")).StringFixed(2), "flat coupons are capped at the fee")

	_, err = LookupCouponBook("1999")
	require.ErrorIs(t, err, ErrUnknownCouponBook)
	_, err = LookupSalesTaxTable("1999")
	require.ErrorIs(t, err, ErrUnknownSalesTaxTable)
}

func TestLoadCouponBooksRejectsBadKind(t *testing.T) {
	_, err := loadCouponBooks([]byte(`
books:
  - version: "x"
    coupons:
      - {code: A, kind: bogo, amount: "1", active: true}
`))
	require.ErrorIs(t, err, ErrInvalidTable)
}
