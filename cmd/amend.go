package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quicktrucktax/internal/amendment"
	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
)

var amendCmd = &cobra.Command{
	Use:   "amend",
	Short: "Evaluate a Form 2290 amendment",
	Long: `Evaluate a Form 2290 amendment and show the additional tax and due date.

Use a subcommand for a single amendment, or --input with a JSON request:

  {"kind": "weight_increase",
   "weightIncrease": {"originalWeightCategory": "F", "newWeightCategory": "H",
                      "increaseMonth": "September 2025"}}`,
	Example: `  qtt amend --input amendment.json
  qtt amend weight --from F --to H --month "September 2025"
  qtt amend mileage --miles 5200 --weight F --first-used "July 2025" --exceeded "March 2026"
  qtt amend vin --original 1FUJGLDR12LM12345 --corrected 1FUJGLDR12LM12346`,
	RunE: runAmendInput,
}

var amendWeightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Taxable gross weight increased into a heavier category",
	RunE:  runAmendWeight,
}

var amendMileageCmd = &cobra.Command{
	Use:   "mileage",
	Short: "Suspended vehicle exceeded its mileage limit",
	RunE:  runAmendMileage,
}

var amendVINCmd = &cobra.Command{
	Use:   "vin",
	Short: "Correct a VIN reported on an accepted return",
	RunE:  runAmendVIN,
}

func init() {
	rootCmd.AddCommand(amendCmd)
	amendCmd.AddCommand(amendWeightCmd, amendMileageCmd, amendVINCmd)

	amendCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	amendCmd.Flags().StringP("input", "i", "", "Amendment request JSON file (- for stdin)")

	amendWeightCmd.Flags().String("vin", "", "Vehicle VIN")
	amendWeightCmd.Flags().String("from", "", "Original weight category or pounds (required)")
	amendWeightCmd.Flags().String("to", "", "New weight category or pounds (required)")
	amendWeightCmd.Flags().StringP("month", "m", "", `Month of the increase, e.g. "September 2025" (required)`)
	amendWeightCmd.Flags().Bool("logging", false, "Vehicle is used for logging")
	_ = amendWeightCmd.MarkFlagRequired("from")
	_ = amendWeightCmd.MarkFlagRequired("to")
	_ = amendWeightCmd.MarkFlagRequired("month")

	amendMileageCmd.Flags().String("vin", "", "Vehicle VIN")
	amendMileageCmd.Flags().Int("miles", 0, "Actual miles used in the tax period (required)")
	amendMileageCmd.Flags().String("weight", "", "Gross weight category or pounds (required)")
	amendMileageCmd.Flags().String("first-used", "", `Month first used in the tax period (required)`)
	amendMileageCmd.Flags().String("exceeded", "", "Month the limit was exceeded (sets the due date)")
	amendMileageCmd.Flags().Bool("agricultural", false, "Agricultural vehicle (7,500 mile limit)")
	amendMileageCmd.Flags().Bool("logging", false, "Vehicle is used for logging")
	_ = amendMileageCmd.MarkFlagRequired("miles")
	_ = amendMileageCmd.MarkFlagRequired("weight")
	_ = amendMileageCmd.MarkFlagRequired("first-used")

	amendVINCmd.Flags().String("original", "", "VIN as filed (required)")
	amendVINCmd.Flags().String("corrected", "", "Correct VIN (required)")
	amendVINCmd.Flags().String("filing-id", "", "Original filing or submission ID")
	_ = amendVINCmd.MarkFlagRequired("original")
	_ = amendVINCmd.MarkFlagRequired("corrected")
}

func runAmendInput(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	if inputPath == "" {
		return cmd.Help()
	}

	var req amendment.Request
	if err := readJSONInput(inputPath, &req); err != nil {
		return err
	}
	return evaluateAmendment(cmd, req)
}

func runAmendWeight(cmd *cobra.Command, args []string) error {
	vin, _ := cmd.Flags().GetString("vin")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	month, _ := cmd.Flags().GetString("month")
	logging, _ := cmd.Flags().GetBool("logging")

	return evaluateAmendment(cmd, amendment.Request{
		Kind: amendment.KindWeightIncrease,
		WeightIncrease: &amendment.WeightIncreaseRequest{
			VIN:                    vin,
			OriginalWeightCategory: from,
			NewWeightCategory:      to,
			IncreaseMonth:          month,
			Logging:                logging,
		},
	})
}

func runAmendMileage(cmd *cobra.Command, args []string) error {
	vin, _ := cmd.Flags().GetString("vin")
	miles, _ := cmd.Flags().GetInt("miles")
	weight, _ := cmd.Flags().GetString("weight")
	firstUsed, _ := cmd.Flags().GetString("first-used")
	exceeded, _ := cmd.Flags().GetString("exceeded")
	agricultural, _ := cmd.Flags().GetBool("agricultural")
	logging, _ := cmd.Flags().GetBool("logging")

	return evaluateAmendment(cmd, amendment.Request{
		Kind: amendment.KindMileageExceeded,
		MileageExceeded: &amendment.MileageExceededRequest{
			VIN:                 vin,
			IsAgricultural:      agricultural,
			ActualMileageUsed:   miles,
			GrossWeightCategory: weight,
			Logging:             logging,
			FirstUsedMonth:      firstUsed,
			ExceededMonth:       exceeded,
		},
	})
}

func runAmendVIN(cmd *cobra.Command, args []string) error {
	original, _ := cmd.Flags().GetString("original")
	corrected, _ := cmd.Flags().GetString("corrected")
	filingID, _ := cmd.Flags().GetString("filing-id")

	return evaluateAmendment(cmd, amendment.Request{
		Kind: amendment.KindVinCorrection,
		VinCorrection: &amendment.VinCorrectionRequest{
			OriginalVIN:      original,
			CorrectedVIN:     corrected,
			OriginalFilingID: filingID,
		},
	})
}

func evaluateAmendment(cmd *cobra.Command, req amendment.Request) error {
	log := logger.WithComponent("amend")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	result, err := amendment.NewEngine().Evaluate(req)
	if err != nil {
		return handleAmendmentError(err, log)
	}
	result = result.Rounded()

	log.Info().
		Str("kind", string(result.Kind)).
		Str("additional_tax_due", result.AdditionalTaxDue.StringFixed(money.Cents)).
		Msg("Amendment evaluated")

	if jsonOutput {
		return outputJSON(result, "", log)
	}
	printAmendment(result)
	return nil
}

func printAmendment(r *amendment.Result) {
	switch r.Kind {
	case amendment.KindVinCorrection:
		fmt.Println("VIN correction: no additional tax is due")
	case amendment.KindWeightIncrease:
		wi := r.WeightIncrease
		fmt.Printf("Weight increase %s -> %s in %s (tax period %s)\n", wi.OriginalCategory, wi.NewCategory, wi.IncreaseMonth, wi.TaxPeriod)
		fmt.Printf("Tax at original weight: %s\n", money.Format(wi.OriginalTax))
		fmt.Printf("Tax at new weight:      %s\n", money.Format(wi.NewTax))
		fmt.Printf("Additional tax due:     %s\n", money.Format(wi.AdditionalTaxDue))
	case amendment.KindMileageExceeded:
		me := r.MileageExceeded
		fmt.Printf("Mileage limit %d exceeded, category %s first used %s (tax period %s)\n", me.MileageLimit, me.Category, me.FirstUsedMonth, me.TaxPeriod)
		fmt.Printf("Annual tax:         %s\n", money.Format(me.AnnualTax))
		fmt.Printf("Additional tax due: %s\n", money.Format(me.TaxDue))
	}
	if r.DueDate != nil {
		fmt.Printf("Due date:               %s\n", r.DueDate.Format(dueDateLayout))
	}
}

// handleAmendmentError provides user-friendly messages for amendment failures
func handleAmendmentError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Amendment evaluation failed")
	return handleRateError(err, log)
}
