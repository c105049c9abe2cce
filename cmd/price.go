package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/pricing"
	"quicktrucktax/pkg/models"
)

const priceInputExample = `{"filingType": "form2290", "firstUsedMonth": "July 2025", "state": "TX",
   "couponCode": "WELCOME10",
   "vehicles": [{"vin": "1XKAD49X0YJ123456", "grossWeightCategory": "V", "vehicleType": "taxable"}]}`

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a Form 2290, amendment or refund filing",
	Long: `Compute the full price breakdown of a filing: the tax owed to (or refunded by)
the IRS, the platform service fee with bulk savings and coupon discount, sales
tax on the service fee, and the grand total.

The filing is read as JSON:

  ` + priceInputExample,
	Example: `  qtt price --input filing.json
  qtt price --input filing.json --json --sheet-report
  cat filing.json | qtt price --input -`,
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringP("input", "i", "", "Filing JSON file, - for stdin (required)")
	priceCmd.Flags().String("coupon-book", "", "Coupon book version (default: COUPON_BOOK)")
	priceCmd.Flags().String("sales-tax-table", "", "Sales tax table version (default: SALES_TAX_TABLE)")
	priceCmd.Flags().Bool("sheet-report", false, "Append the breakdown to the pricing report sheet")
	priceCmd.Flags().Bool("json", false, "Output as JSON")
	priceCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	_ = priceCmd.MarkFlagRequired("input")
}

func runPrice(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()

	inputPath, _ := cmd.Flags().GetString("input")
	couponBook, _ := cmd.Flags().GetString("coupon-book")
	salesTaxTable, _ := cmd.Flags().GetString("sales-tax-table")
	sheetReport, _ := cmd.Flags().GetBool("sheet-report")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	if couponBook == "" {
		couponBook = cfg.CouponBook
	}
	if salesTaxTable == "" {
		salesTaxTable = cfg.SalesTaxTable
	}

	var req pricing.Request
	if err := readJSONInput(inputPath, &req); err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	log := logger.WithFiling("price", req.RequestID)

	engine, err := pricing.NewEngineForVersions(couponBook, salesTaxTable)
	if err != nil {
		return handlePricingError(err, log)
	}

	breakdown, err := engine.Price(req)
	if err != nil {
		return handlePricingError(err, log)
	}

	log.Info().
		Str("filing_type", breakdown.FilingType).
		Int("vehicles", len(breakdown.VehicleBreakdown)).
		Str("grand_total", breakdown.GrandTotal.StringFixed(money.Cents)).
		Msg("Filing priced")

	if sheetReport {
		ctx, cancel := createContextWithTimeout(60, log)
		defer cancel()

		svc, err := createSheetsService(ctx, log)
		if err != nil {
			return err
		}
		if err := svc.WritePricingReport(ctx, cfg.PricingReportSheet, breakdown); err != nil {
			return err
		}
	}

	if jsonOutput {
		return outputJSON(breakdown, outputPath, log)
	}
	return writeOutput([]byte(formatBreakdown(breakdown)), outputPath, log)
}

func formatBreakdown(b *models.PricingBreakdown) string {
	var s strings.Builder
	fmt.Fprintf(&s, "Filing %s (%s)", b.RequestID, b.FilingType)
	if b.TaxPeriod != "" {
		fmt.Fprintf(&s, ", tax period %s", b.TaxPeriod)
	}
	s.WriteString("\n\n")

	if len(b.VehicleBreakdown) > 0 {
		fmt.Fprintf(&s, "%-18s %-9s %-4s %12s %12s %12s\n", "VIN", "Type", "Cat", "Annual", "Prorated", "Amount")
		for _, v := range b.VehicleBreakdown {
			fmt.Fprintf(&s, "%-18s %-9s %-4s %12s %12s %12s\n",
				v.VIN, v.VehicleType, v.Category, money.Format(v.AnnualTax), money.Format(v.Prorated), money.Format(v.Amount))
		}
		s.WriteString("\n")
	}

	fmt.Fprintf(&s, "Tax due to IRS:      %s\n", money.Format(b.TotalTax))
	if b.NetRefund != nil {
		fmt.Fprintf(&s, "Refund claimed:      %s\n", money.Format(b.TotalRefund))
	}
	fmt.Fprintf(&s, "Service fee:         %s\n", money.Format(b.BaseServiceFee))
	if b.BulkSavings.IsPositive() {
		fmt.Fprintf(&s, "  bulk savings:      %s\n", money.Format(b.BulkSavings))
	}
	if b.CouponCode != "" {
		fmt.Fprintf(&s, "  coupon %-10s  -%s\n", b.CouponCode, money.Format(b.CouponDiscount))
	}
	fmt.Fprintf(&s, "Sales tax (%s%%):     %s\n", b.SalesTaxRate.String(), money.Format(b.SalesTax))
	fmt.Fprintf(&s, "Total charged:       %s\n", money.Format(b.GrandTotal))
	if b.NetRefund != nil {
		fmt.Fprintf(&s, "Net refund:          %s\n", money.Format(*b.NetRefund))
	}
	return s.String()
}

// handlePricingError provides user-friendly messages for pricing failures
func handlePricingError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Pricing failed")

	switch {
	case errors.Is(err, pricing.ErrUnknownCouponBook):
		return fmt.Errorf("no coupon book is loaded for that version: %w", err)
	case errors.Is(err, pricing.ErrUnknownSalesTaxTable):
		return fmt.Errorf("no sales tax table is loaded for that version: %w", err)
	default:
		return handleRateError(err, log)
	}
}
