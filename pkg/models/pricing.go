package models

import "github.com/shopspring/decimal"

// VehicleLine is one vehicle's contribution to a pricing breakdown.
type VehicleLine struct {
	VIN         string          `json:"vin"`
	VehicleType VehicleType     `json:"vehicleType,omitempty"`
	Category    string          `json:"category,omitempty"`
	Logging     bool            `json:"logging,omitempty"`
	Month       string          `json:"month,omitempty"`
	AnnualTax   decimal.Decimal `json:"annualTax"`
	Prorated    decimal.Decimal `json:"proratedTax"`

	// Amount is the signed effect on the total: positive for taxable
	// vehicles, negative for credits, zero for suspended vehicles.
	Amount decimal.Decimal `json:"amount"`
}

// PricingBreakdown separates what a filer owes the IRS from what they owe
// the platform. Amounts are rounded to cents.
type PricingBreakdown struct {
	RequestID  string `json:"requestId,omitempty"`
	FilingType string `json:"filingType"`
	TaxPeriod  string `json:"taxPeriod,omitempty"`

	// Tax authority side.
	TotalTax    decimal.Decimal `json:"totalTax"`
	TotalRefund decimal.Decimal `json:"totalRefund"`

	// Platform side.
	BaseServiceFee decimal.Decimal `json:"baseServiceFee"`
	BulkSavings    decimal.Decimal `json:"bulkSavings"`
	CouponCode     string          `json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	ServiceFee     decimal.Decimal `json:"serviceFee"`
	SalesTaxRate   decimal.Decimal `json:"salesTaxRate"`
	SalesTax       decimal.Decimal `json:"salesTax"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`

	// NetRefund is set for refund filings only: the claim less platform charges.
	NetRefund *decimal.Decimal `json:"netRefund,omitempty"`

	VehicleBreakdown []VehicleLine `json:"vehicleBreakdown"`
}
