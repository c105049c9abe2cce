package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quicktrucktax/internal/config"
	"quicktrucktax/internal/logger"
)

var version = "1.0.0"

// appConfig is set by Execute. It is nil when configuration failed to load;
// commands then fall back to the built-in table versions.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "qtt",
	Short: "QuickTruckTax - heavy vehicle tax and fuel tax calculator",
	Long: `QuickTruckTax computes trucking compliance taxes and filing charges:

  hvut    Form 2290 heavy vehicle use tax and due dates
  ucr     Unified Carrier Registration fees
  ifta    Quarterly IFTA fuel tax returns and fuel receipt scanning
  amend   Form 2290 amendments (weight increase, mileage exceeded, VIN correction)
  price   Filing price breakdowns (tax, service fee, coupons, sales tax)
  validate VIN and EIN checks

Rate table versions and Google Cloud settings are read from the environment
(or a .env file in the working directory).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with the loaded configuration.
func Execute(cfg *config.Config) {
	appConfig = cfg
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// currentConfig returns the loaded configuration or the built-in defaults.
func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return &config.Config{
		HVUTTaxPeriod:       "2025",
		UCRYear:             "2026",
		IFTAQuarter:         "2025Q3",
		SalesTaxTable:       "2025",
		CouponBook:          "2025",
		GoogleCloudLocation: "us",
		TripSheet:           "Trips",
		FuelSheet:           "Fuel",
		IFTAReportSheet:     "IFTA_Report",
		PricingReportSheet:  "Pricing",
		ScanWorkers:         4,
	}
}
