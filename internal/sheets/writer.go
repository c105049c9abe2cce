package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quicktrucktax/internal/ifta"
	"quicktrucktax/internal/money"
	"quicktrucktax/pkg/models"
)

const reportTimeLayout = "2006-01-02 15:04:05"

var iftaReportHeaders = []string{
	"Quarter", "Jurisdiction", "Name", "Miles", "Taxable Gallons", "Tax-Paid Gallons",
	"Rate", "Tax Owed", "Tax Paid", "Net Tax", "Generated",
}

var pricingReportHeaders = []string{
	"Request ID", "Filing Type", "Tax Period", "Vehicles", "Total Tax", "Total Refund",
	"Base Fee", "Bulk Savings", "Coupon", "Coupon Discount", "Service Fee",
	"Sales Tax Rate", "Sales Tax", "Grand Total", "Net Refund", "Generated",
}

// WriteIFTAReport appends one row per jurisdiction plus a totals row.
func (s *Service) WriteIFTAReport(ctx context.Context, sheetName string, result *ifta.Result) error {
	const op = "WriteIFTAReport"

	rows := iftaReportRows(result.Rounded(), time.Now())
	if err := s.appendRows(ctx, sheetName, iftaReportHeaders, rows); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WritePricingReport appends a row for one priced filing.
func (s *Service) WritePricingReport(ctx context.Context, sheetName string, b *models.PricingBreakdown) error {
	const op = "WritePricingReport"

	rows := [][]interface{}{pricingReportRow(b, time.Now())}
	if err := s.appendRows(ctx, sheetName, pricingReportHeaders, rows); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func iftaReportRows(r *ifta.Result, generated time.Time) [][]interface{} {
	ts := generated.Format(reportTimeLayout)
	rows := make([][]interface{}, 0, len(r.Jurisdictions)+1)
	for _, j := range r.Jurisdictions {
		rows = append(rows, []interface{}{
			r.Quarter,
			j.Jurisdiction,
			j.Name,
			fixed(j.Miles, ifta.GallonPlaces),
			fixed(j.TaxableGallons, ifta.GallonPlaces),
			fixed(j.TaxPaidGallons, ifta.GallonPlaces),
			j.TaxRate.String(),
			fixed(j.TaxOwed, money.Cents),
			fixed(j.TaxPaidAtPump, money.Cents),
			fixed(j.NetTax, money.Cents),
			ts,
		})
	}
	return append(rows, []interface{}{
		r.Quarter,
		"TOTAL",
		fmt.Sprintf("MPG %s", fixed(r.MPG, 2)),
		fixed(r.TotalMiles, ifta.GallonPlaces),
		"",
		fixed(r.TotalGallons, ifta.GallonPlaces),
		"",
		fixed(r.TotalTaxOwed, money.Cents),
		fixed(r.TotalTaxPaid, money.Cents),
		fixed(r.TotalTaxDue, money.Cents),
		ts,
	})
}

func pricingReportRow(b *models.PricingBreakdown, generated time.Time) []interface{} {
	netRefund := ""
	if b.NetRefund != nil {
		netRefund = fixed(*b.NetRefund, money.Cents)
	}
	return []interface{}{
		b.RequestID,
		b.FilingType,
		b.TaxPeriod,
		len(b.VehicleBreakdown),
		fixed(b.TotalTax, money.Cents),
		fixed(b.TotalRefund, money.Cents),
		fixed(b.BaseServiceFee, money.Cents),
		fixed(b.BulkSavings, money.Cents),
		b.CouponCode,
		fixed(b.CouponDiscount, money.Cents),
		fixed(b.ServiceFee, money.Cents),
		b.SalesTaxRate.String(),
		fixed(b.SalesTax, money.Cents),
		fixed(b.GrandTotal, money.Cents),
		netRefund,
		generated.Format(reportTimeLayout),
	}
}

func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
