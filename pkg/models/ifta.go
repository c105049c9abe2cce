package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripEntry is the miles a fleet drove in one jurisdiction during the quarter.
type TripEntry struct {
	State string          `json:"state" validate:"required,state"`
	Miles decimal.Decimal `json:"miles"`
}

// FuelPurchase is one fuel receipt: where it was bought, how much and for what.
type FuelPurchase struct {
	State      string          `json:"state" validate:"required,state"`
	Gallons    decimal.Decimal `json:"gallons"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Date       time.Time       `json:"date,omitempty"`

	// Source records where the purchase came from: "manual", "sheet", "ocr" or "documentai".
	Source string `json:"source,omitempty"`
}

// FuelReceipt is a fuel purchase extracted from a scanned receipt.
type FuelReceipt struct {
	ID         string       `json:"id"`
	Purchase   FuelPurchase `json:"purchase"`
	Vendor     string       `json:"vendor,omitempty"`
	Confidence float32      `json:"confidence"`
	RawText    string       `json:"rawText,omitempty"`
}
