package pricing_test

import (
	"fmt"

	"quicktrucktax/internal/money"
	"quicktrucktax/internal/pricing"
	"quicktrucktax/pkg/models"
)

// ExampleEngine_Price prices a two-truck Form 2290 filing. The tax owed to
// the IRS and the service fee owed to the platform are reported separately.
func ExampleEngine_Price() {
	engine, err := pricing.NewEngineForVersions("2025", "2025")
	if err != nil {
		fmt.Println(err)
		return
	}

	breakdown, err := engine.Price(pricing.Request{
		FilingType:     pricing.FilingForm2290,
		FirstUsedMonth: "July 2025",
		Vehicles: []models.Vehicle{
			{VIN: "1FUJGLDR12LM12345", GrossWeightCategory: "60000", VehicleType: models.VehicleTaxable},
			{VIN: "1FUJGLDR12LM54321", GrossWeightCategory: "V", VehicleType: models.VehicleTaxable},
		},
		State: "OR",
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("Tax due to IRS:", money.Format(breakdown.TotalTax))
	fmt.Println("Service fee:", money.Format(breakdown.ServiceFee))
	fmt.Println("Bulk savings:", money.Format(breakdown.BulkSavings))
	fmt.Println("Grand total:", money.Format(breakdown.GrandTotal))

	// Output:
	// Tax due to IRS: $760.00
	// Service fee: $59.98
	// Bulk savings: $10.00
	// Grand total: $59.98
}
