package models

// VehicleType is the tax treatment of a vehicle within a filing.
type VehicleType string

const (
	// VehicleTaxable owes prorated HVUT for the filing's first-used month.
	VehicleTaxable VehicleType = "taxable"

	// VehicleSuspended is under the mileage limit and owes no tax.
	VehicleSuspended VehicleType = "suspended"

	// VehicleCredit was sold, destroyed or stolen and reduces the tax due.
	VehicleCredit VehicleType = "credit"
)

// Vehicle is the tax-relevant view of a vehicle on a filing.
type Vehicle struct {
	ID  string `json:"id,omitempty"`
	VIN string `json:"vin" validate:"required,vin"`

	// GrossWeightCategory is a category letter A-W or a weight in pounds.
	GrossWeightCategory string `json:"grossWeightCategory" validate:"required"`

	VehicleType VehicleType `json:"vehicleType" validate:"required,oneof=taxable suspended credit"`
	Logging     bool        `json:"logging,omitempty"`

	// CreditDate is the date (YYYY-MM-DD) a credit vehicle left service.
	CreditDate string `json:"creditDate,omitempty" validate:"required_if=VehicleType credit"`
}
