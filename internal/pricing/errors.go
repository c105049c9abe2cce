package pricing

import "errors"

var (
	// ErrUnknownCouponBook is returned when no coupon book exists for a version.
	ErrUnknownCouponBook = errors.New("no coupon book for version")

	// ErrUnknownSalesTaxTable is returned when no sales tax table exists for a version.
	ErrUnknownSalesTaxTable = errors.New("no sales tax table for version")

	// ErrInvalidTable is returned when embedded pricing data is malformed.
	ErrInvalidTable = errors.New("invalid pricing table")
)
