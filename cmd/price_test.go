package cmd

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktrucktax/internal/pricing"
	"quicktrucktax/pkg/models"
)

func TestFormatBreakdownRefund(t *testing.T) {
	net := decimal.RequireFromString("512.50")
	b := &models.PricingBreakdown{
		RequestID:      "req-1",
		FilingType:     "refund",
		TaxPeriod:      "2025",
		TotalRefund:    decimal.RequireFromString("550.00"),
		BaseServiceFee: decimal.RequireFromString("34.99"),
		ServiceFee:     decimal.RequireFromString("34.99"),
		SalesTaxRate:   decimal.RequireFromString("7.5"),
		SalesTax:       decimal.RequireFromString("2.51"),
		GrandTotal:     decimal.RequireFromString("37.50"),
		NetRefund:      &net,
		VehicleBreakdown: []models.VehicleLine{
			{VIN: "1XKAD49X0YJ123456", VehicleType: models.VehicleCredit, Category: "V", Amount: decimal.RequireFromString("-550")},
		},
	}

	out := formatBreakdown(b)
	assert.Contains(t, out, "Filing req-1 (refund), tax period 2025")
	assert.Contains(t, out, "1XKAD49X0YJ123456")
	assert.Contains(t, out, "-$550.00")
	assert.Contains(t, out, "Refund claimed:      $550.00")
	assert.Contains(t, out, "Net refund:          $512.50")
	assert.NotContains(t, out, "bulk savings")
	assert.NotContains(t, out, "coupon")
}

func TestPriceHelpExampleIsValid(t *testing.T) {
	var req pricing.Request
	require.NoError(t, json.Unmarshal([]byte(priceInputExample), &req))

	engine, err := pricing.NewEngineForVersions("2025", "2025")
	require.NoError(t, err)

	b, err := engine.Price(req)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", b.CouponCode)
	assert.Equal(t, "550.00", b.TotalTax.StringFixed(2))
	assert.Equal(t, "3.50", b.CouponDiscount.StringFixed(2))
}
