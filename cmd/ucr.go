package cmd

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/ucr"
)

var ucrCmd = &cobra.Command{
	Use:   "ucr",
	Short: "Unified Carrier Registration fees",
}

var ucrFeeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Compute the annual UCR fee",
	Long: `Compute the Unified Carrier Registration fee for a registrant.

Motor carriers pay by fleet size. Brokers, freight forwarders and leasing
companies always pay the first-tier fee.`,
	Example: `  qtt ucr fee --units 3
  qtt ucr fee --units 40 --kind broker --year 2025`,
	RunE: runUCRFee,
}

// UCRFeeOutput is the JSON shape of ucr fee.
type UCRFeeOutput struct {
	Year       int             `json:"year"`
	Kind       string          `json:"kind"`
	PowerUnits int             `json:"powerUnits"`
	Bracket    string          `json:"bracket"`
	Fee        decimal.Decimal `json:"fee"`
}

func init() {
	rootCmd.AddCommand(ucrCmd)
	ucrCmd.AddCommand(ucrFeeCmd)

	ucrFeeCmd.Flags().IntP("units", "u", 0, "Number of power units (required)")
	ucrFeeCmd.Flags().StringP("kind", "k", string(ucr.Carrier), "carrier, broker, freight_forwarder or leasing")
	ucrFeeCmd.Flags().String("year", "", "Registration year (default: UCR_YEAR)")
	ucrFeeCmd.Flags().Bool("json", false, "Output as JSON")
	_ = ucrFeeCmd.MarkFlagRequired("units")
}

func runUCRFee(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ucr")

	units, _ := cmd.Flags().GetInt("units")
	kindStr, _ := cmd.Flags().GetString("kind")
	year, _ := cmd.Flags().GetString("year")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if year == "" {
		year = currentConfig().UCRYear
	}

	kind, err := ucr.ParseOperatorKind(kindStr)
	if err != nil {
		return handleValidationError(err, log)
	}

	table, err := ucr.Lookup(year)
	if err != nil {
		if errors.Is(err, ucr.ErrUnknownYear) {
			return fmt.Errorf("no UCR fees are loaded for registration year %s", year)
		}
		return err
	}

	bracket, err := table.Bracket(units, kind)
	if err != nil {
		return handleValidationError(err, log)
	}

	out := UCRFeeOutput{
		Year:       table.Year(),
		Kind:       string(kind),
		PowerUnits: units,
		Bracket:    bracket.Label,
		Fee:        bracket.Fee,
	}

	log.Info().
		Int("year", out.Year).
		Str("kind", out.Kind).
		Int("power_units", units).
		Str("fee", out.Fee.StringFixed(money.Cents)).
		Msg("UCR fee computed")

	if jsonOutput {
		return outputJSON(out, "", log)
	}

	fmt.Printf("UCR %d, %s, %d power units\n", out.Year, out.Kind, units)
	fmt.Printf("Bracket: %s\n", out.Bracket)
	fmt.Printf("Fee:     %s\n", money.Format(out.Fee))
	return nil
}
