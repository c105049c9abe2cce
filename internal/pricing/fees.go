package pricing

import (
	"github.com/shopspring/decimal"

	"quicktrucktax/internal/money"
)

var (
	// StandardFee is the per-vehicle service fee for a single-vehicle filing.
	StandardFee = money.MustParse("34.99")

	// VinCorrectionFee is charged for a VIN correction whatever the vehicle count.
	VinCorrectionFee = money.MustParse("10.00")
)

// FeeTier is a per-vehicle service fee that applies from MinVehicles upward.
type FeeTier struct {
	MinVehicles int
	PerVehicle  decimal.Decimal
}

// FeeTiers are ordered by ascending MinVehicles.
var FeeTiers = []FeeTier{
	{MinVehicles: 1, PerVehicle: StandardFee},
	{MinVehicles: 2, PerVehicle: money.MustParse("29.99")},
	{MinVehicles: 10, PerVehicle: money.MustParse("25.99")},
	{MinVehicles: 25, PerVehicle: money.MustParse("21.99")},
}

// TierFor returns the tier that applies to a filing with count vehicles.
// A count below one is priced as a single vehicle.
func TierFor(count int) FeeTier {
	tier := FeeTiers[0]
	for _, t := range FeeTiers {
		if count >= t.MinVehicles {
			tier = t
		}
	}
	return tier
}

// ServiceFee returns the tiered fee for count vehicles and the savings
// against paying the standard fee for each. Savings are zero for one vehicle.
func ServiceFee(count int) (fee, savings decimal.Decimal) {
	if count < 1 {
		count = 1
	}
	n := decimal.NewFromInt(int64(count))
	fee = TierFor(count).PerVehicle.Mul(n)
	if count > 1 {
		savings = StandardFee.Mul(n).Sub(fee)
	}
	return fee, savings
}
