package ifta_test

import (
	"fmt"

	"github.com/shopspring/decimal"

	"quicktrucktax/internal/ifta"
	"quicktrucktax/pkg/models"
)

// ExampleCalculator_Calculate shows a quarter where fuel was bought in a
// state the truck has no miles in yet: Texas appears as a pure credit.
func ExampleCalculator_Calculate() {
	calc, err := ifta.NewCalculatorForQuarter("2025Q3")
	if err != nil {
		fmt.Println(err)
		return
	}

	trips := []models.TripEntry{{State: "CA", Miles: decimal.NewFromInt(1000)}}
	fuel := []models.FuelPurchase{
		{State: "CA", Gallons: decimal.NewFromInt(100), AmountPaid: decimal.NewFromInt(400)},
		{State: "TX", Gallons: decimal.NewFromInt(50), AmountPaid: decimal.NewFromInt(180)},
	}

	result, err := calc.Calculate(trips, fuel)
	if err != nil {
		fmt.Println(err)
		return
	}
	result = result.Rounded()

	fmt.Printf("MPG: %s\n", result.MPG.StringFixed(2))
	for _, j := range result.Jurisdictions {
		fmt.Printf("%s miles=%s net=%s\n", j.Jurisdiction, j.Miles, j.NetTax.StringFixed(2))
	}
	fmt.Printf("Total due: %s\n", result.TotalTaxDue.StringFixed(2))

	// Output:
	// MPG: 6.67
	// CA miles=1000 net=48.55
	// TX miles=0 net=-10.00
	// Total due: 38.55
}
