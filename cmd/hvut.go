package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"quicktrucktax/internal/hvut"
	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
)

const dueDateLayout = "January 2, 2006"

var hvutCmd = &cobra.Command{
	Use:   "hvut",
	Short: "Form 2290 heavy vehicle use tax",
}

var hvutTaxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Compute the prorated HVUT for one vehicle",
	Long: `Compute the heavy vehicle use tax owed for a vehicle first used in a given month.

The weight may be a category letter (A-W) or a taxable gross weight in pounds.
The tax period is derived from the month unless --period is given.`,
	Example: `  qtt hvut tax --weight 60000 --month "July 2025"
  qtt hvut tax --weight F --month "January 2026" --logging --json`,
	RunE: runHVUTTax,
}

var hvutDueCmd = &cobra.Command{
	Use:     "due",
	Short:   "Show the Form 2290 due date for a first-used month",
	Example: `  qtt hvut due --month "September 2025"`,
	RunE:    runHVUTDue,
}

var hvutCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List weight categories with their annual tax",
	RunE:  runHVUTCategories,
}

// HVUTTaxOutput is the JSON shape of hvut tax.
type HVUTTaxOutput struct {
	Weight      string          `json:"weight"`
	Category    string          `json:"category"`
	Logging     bool            `json:"logging"`
	Month       string          `json:"month"`
	TaxPeriod   string          `json:"taxPeriod"`
	AnnualTax   decimal.Decimal `json:"annualTax"`
	ProratedTax decimal.Decimal `json:"proratedTax"`
	DueDate     time.Time       `json:"dueDate"`
}

func init() {
	rootCmd.AddCommand(hvutCmd)
	hvutCmd.AddCommand(hvutTaxCmd, hvutDueCmd, hvutCategoriesCmd)

	hvutTaxCmd.Flags().StringP("weight", "w", "", "Category letter A-W or gross weight in pounds (required)")
	hvutTaxCmd.Flags().StringP("month", "m", "", `First-used month, e.g. "July 2025" (required)`)
	hvutTaxCmd.Flags().Bool("logging", false, "Use the reduced logging vehicle schedule")
	hvutTaxCmd.Flags().String("period", "", "Tax period version, e.g. 2025 (default: derived from month)")
	hvutTaxCmd.Flags().Bool("json", false, "Output as JSON")
	_ = hvutTaxCmd.MarkFlagRequired("weight")
	_ = hvutTaxCmd.MarkFlagRequired("month")

	hvutDueCmd.Flags().StringP("month", "m", "", `First-used month, e.g. "July 2025" (required)`)
	_ = hvutDueCmd.MarkFlagRequired("month")

	hvutCategoriesCmd.Flags().String("period", "", "Tax period version (default: HVUT_TAX_PERIOD)")
	hvutCategoriesCmd.Flags().Bool("logging", false, "Show the logging vehicle schedule")
}

func runHVUTTax(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("hvut")

	weightStr, _ := cmd.Flags().GetString("weight")
	monthStr, _ := cmd.Flags().GetString("month")
	logging, _ := cmd.Flags().GetBool("logging")
	period, _ := cmd.Flags().GetString("period")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	weight, err := hvut.ParseWeight(weightStr)
	if err != nil {
		return handleValidationError(err, log)
	}
	month, err := hvut.ParseMonthField("month", monthStr)
	if err != nil {
		return handleValidationError(err, log)
	}

	table, err := tableFor(month, period)
	if err != nil {
		return handleRateError(err, log)
	}

	annual, err := table.AnnualTax(weight, logging)
	if err != nil {
		return handleRateError(err, log)
	}
	prorated, err := table.ProratedTax(weight, month, logging)
	if err != nil {
		return handleRateError(err, log)
	}

	out := HVUTTaxOutput{
		Weight:      weight.String(),
		Category:    weight.Category.String(),
		Logging:     logging,
		Month:       month.String(),
		TaxPeriod:   fmt.Sprintf("July %d - June %d", table.Period(), table.Period()+1),
		AnnualTax:   money.Round(annual),
		ProratedTax: money.Round(prorated),
		DueDate:     hvut.DueDate(month),
	}

	log.Info().
		Str("weight", out.Weight).
		Str("month", out.Month).
		Str("prorated_tax", out.ProratedTax.StringFixed(money.Cents)).
		Msg("HVUT computed")

	if jsonOutput {
		return outputJSON(out, "", log)
	}

	fmt.Printf("Weight:        %s\n", out.Weight)
	if logging {
		fmt.Println("Schedule:      logging")
	}
	fmt.Printf("First used:    %s\n", out.Month)
	fmt.Printf("Tax period:    %s\n", out.TaxPeriod)
	fmt.Printf("Annual tax:    %s\n", money.Format(out.AnnualTax))
	fmt.Printf("Prorated tax:  %s\n", money.Format(out.ProratedTax))
	fmt.Printf("Due date:      %s\n", out.DueDate.Format(dueDateLayout))
	return nil
}

func runHVUTDue(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("hvut")

	monthStr, _ := cmd.Flags().GetString("month")
	month, err := hvut.ParseMonthField("month", monthStr)
	if err != nil {
		return handleValidationError(err, log)
	}

	fmt.Printf("%s first use is due %s\n", month, hvut.DueDate(month).Format(dueDateLayout))
	return nil
}

func runHVUTCategories(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("hvut")

	period, _ := cmd.Flags().GetString("period")
	logging, _ := cmd.Flags().GetBool("logging")
	if period == "" {
		period = currentConfig().HVUTTaxPeriod
	}

	table, err := hvut.Lookup(period)
	if err != nil {
		return handleRateError(err, log)
	}

	fmt.Printf("%s schedule, July %d - June %d\n\n", table.Schedule(logging).Name(), table.Period(), table.Period()+1)
	fmt.Printf("%-4s %-28s %12s\n", "Cat", "Taxable gross weight", "Annual tax")
	for c := hvut.CategoryA; c <= hvut.CategoryW; c++ {
		annual, err := table.AnnualTax(hvut.WeightOf(c), logging)
		if err != nil {
			return handleRateError(err, log)
		}
		fmt.Printf("%-4s %-28s %12s\n", c, c.Range(), money.Format(annual))
	}
	return nil
}

// tableFor returns the table for an explicit period, or the one covering month.
func tableFor(month hvut.FirstUseMonth, period string) (*hvut.Table, error) {
	if period == "" {
		return hvut.ForMonth(month)
	}
	table, err := hvut.Lookup(period)
	if err != nil {
		return nil, err
	}
	if !table.Covers(month) {
		return nil, fmt.Errorf("%s is outside the July %d - June %d tax period", month, table.Period(), table.Period()+1)
	}
	return table, nil
}

// handleRateError provides user-friendly messages for rate table failures
func handleRateError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Rate lookup failed")

	switch {
	case errors.Is(err, hvut.ErrBelowTaxableWeight):
		return fmt.Errorf("vehicles under 55,000 lbs do not owe HVUT")
	case errors.Is(err, hvut.ErrUnknownTaxPeriod):
		return fmt.Errorf("no HVUT rates are loaded for that tax period (available: %s)", periodList())
	case validation.IsValidationError(err):
		return handleValidationError(err, log)
	default:
		return err
	}
}

func periodList() string {
	var out []string
	for _, p := range hvut.Periods() {
		out = append(out, fmt.Sprint(p))
	}
	return strings.Join(out, ", ")
}
