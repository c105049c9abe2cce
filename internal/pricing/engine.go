// Package pricing prices a filing: the tax owed to (or refunded by) the IRS
// for each vehicle, and separately the platform's tiered service fee after
// coupons and sales tax.
//
// The engine is a pure function of its request and the versioned tables it
// was built with; pricing the same request twice yields identical output.
package pricing

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quicktrucktax/internal/amendment"
	"quicktrucktax/internal/hvut"
	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
	"quicktrucktax/pkg/models"
)

// FilingType is the kind of return being priced.
type FilingType string

const (
	// FilingForm2290 is an original Form 2290 return.
	FilingForm2290 FilingType = "form2290"

	// FilingAmendment is an amended Form 2290 return.
	FilingAmendment FilingType = "amendment"

	// FilingRefund is a Form 8849 claim for tax paid on vehicles that were
	// sold, destroyed, stolen or stayed under the mileage limit.
	FilingRefund FilingType = "refund"
)

// CreditDateLayout is the format of Vehicle.CreditDate.
const CreditDateLayout = "2006-01-02"

// Request is everything that determines the price of a filing.
type Request struct {
	RequestID  string     `json:"requestId,omitempty"`
	FilingType FilingType `json:"filingType" validate:"required,oneof=form2290 amendment refund"`

	// FirstUsedMonth is "<MonthName> <YYYY>"; required for original and refund filings.
	FirstUsedMonth string `json:"firstUsedMonth,omitempty"`

	Vehicles   []models.Vehicle   `json:"vehicles" validate:"dive"`
	Amendment  *amendment.Request `json:"amendment,omitempty"`
	CouponCode string             `json:"couponCode,omitempty"`
	State      string             `json:"state" validate:"required,state"`
}

// Engine prices filings against one coupon book and one sales tax table.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	coupons    *CouponBook
	salesTax   *SalesTaxTable
	amendments *amendment.Engine
	logger     zerolog.Logger
}

// NewEngine creates a pricing engine.
func NewEngine(coupons *CouponBook, salesTax *SalesTaxTable, amendments *amendment.Engine) *Engine {
	return &Engine{
		coupons:    coupons,
		salesTax:   salesTax,
		amendments: amendments,
		logger:     logger.WithComponent("pricing"),
	}
}

// NewEngineForVersions looks up the coupon book and sales tax table by version.
func NewEngineForVersions(couponBook, salesTaxTable string) (*Engine, error) {
	coupons, err := LookupCouponBook(couponBook)
	if err != nil {
		return nil, err
	}
	salesTax, err := LookupSalesTaxTable(salesTaxTable)
	if err != nil {
		return nil, err
	}
	return NewEngine(coupons, salesTax, amendment.NewEngine()), nil
}

// taxSide is the tax-authority half of a breakdown at full precision.
type taxSide struct {
	period     string
	totalTax   decimal.Decimal
	refund     decimal.Decimal
	lines      []models.VehicleLine
	vinOnly    bool
	feeVehicle int
}

// Price computes the breakdown for a filing. Input problems are returned as
// validation errors naming the offending field.
func (e *Engine) Price(req Request) (*models.PricingBreakdown, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	salesRate, err := e.salesTax.Rate(req.State)
	if err != nil {
		return nil, err
	}
	var coupon *Coupon
	if req.CouponCode != "" {
		c, err := e.coupons.Redeem(req.CouponCode)
		if err != nil {
			return nil, err
		}
		coupon = &c
	}

	var tax *taxSide
	switch req.FilingType {
	case FilingForm2290:
		tax, err = e.priceOriginal(req)
	case FilingAmendment:
		tax, err = e.priceAmendment(req)
	case FilingRefund:
		tax, err = e.priceRefund(req)
	default:
		err = validation.NewValidationError("filingType", string(req.FilingType),
			"filing type must be one of: form2290, amendment, refund")
	}
	if err != nil {
		return nil, err
	}

	// Platform side.
	var baseFee, savings decimal.Decimal
	if tax.vinOnly {
		baseFee = VinCorrectionFee
	} else {
		baseFee, savings = ServiceFee(tax.feeVehicle)
	}
	discount := decimal.Zero
	couponCode := ""
	if coupon != nil {
		discount = coupon.Discount(baseFee)
		couponCode = coupon.Code
	}
	serviceFee := money.Max(baseFee.Sub(discount), money.Zero)
	salesTax := serviceFee.Mul(money.Percent(salesRate))
	grandTotal := serviceFee.Add(salesTax)

	out := &models.PricingBreakdown{
		RequestID:        req.RequestID,
		FilingType:       string(req.FilingType),
		TaxPeriod:        tax.period,
		TotalTax:         money.Round(tax.totalTax),
		TotalRefund:      money.Round(tax.refund),
		BaseServiceFee:   money.Round(baseFee),
		BulkSavings:      money.Round(savings),
		CouponCode:       couponCode,
		CouponDiscount:   money.Round(discount),
		ServiceFee:       money.Round(serviceFee),
		SalesTaxRate:     salesRate,
		SalesTax:         money.Round(salesTax),
		GrandTotal:       money.Round(grandTotal),
		VehicleBreakdown: roundLines(tax.lines),
	}
	if req.FilingType == FilingRefund {
		net := money.Round(tax.refund.Sub(grandTotal))
		out.NetRefund = &net
	}

	e.logger.Debug().
		Str("request_id", req.RequestID).
		Str("filing_type", out.FilingType).
		Int("vehicles", len(req.Vehicles)).
		Str("total_tax", out.TotalTax.StringFixed(money.Cents)).
		Str("service_fee", out.ServiceFee.StringFixed(money.Cents)).
		Str("grand_total", out.GrandTotal.StringFixed(money.Cents)).
		Msg("Filing priced")

	return out, nil
}

func (e *Engine) priceOriginal(req Request) (*taxSide, error) {
	month, table, err := filingMonth(req)
	if err != nil {
		return nil, err
	}
	if len(req.Vehicles) == 0 {
		return nil, validation.NewValidationError("vehicles", nil, "at least one vehicle is required")
	}

	side := &taxSide{period: table.Version(), feeVehicle: len(req.Vehicles)}
	var errs validation.ValidationErrors
	for i, v := range req.Vehicles {
		field := fmt.Sprintf("vehicles[%d]", i)
		line, err := e.vehicleLine(field, v, month, table, false)
		if err := errs.Append(err); err != nil {
			return nil, err
		}
		if line == nil {
			continue
		}

		switch v.VehicleType {
		case models.VehicleTaxable:
			line.Amount = line.Prorated
		case models.VehicleCredit:
			line.Amount = line.Prorated.Neg()
		case models.VehicleSuspended:
			line.Amount = decimal.Zero
		}
		side.totalTax = side.totalTax.Add(line.Amount)
		side.lines = append(side.lines, *line)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	side.totalTax = money.Max(side.totalTax, money.Zero)
	return side, nil
}

func (e *Engine) priceRefund(req Request) (*taxSide, error) {
	month, table, err := filingMonth(req)
	if err != nil {
		return nil, err
	}
	if len(req.Vehicles) == 0 {
		return nil, validation.NewValidationError("vehicles", nil, "at least one vehicle is required")
	}

	side := &taxSide{period: table.Version(), feeVehicle: len(req.Vehicles)}
	var errs validation.ValidationErrors
	for i, v := range req.Vehicles {
		field := fmt.Sprintf("vehicles[%d]", i)
		if v.VehicleType == models.VehicleTaxable {
			errs.Add(field+".vehicleType", string(v.VehicleType),
				"only credit or suspended (low-mileage) vehicles can be claimed on a refund")
			continue
		}

		line, err := e.vehicleLine(field, v, month, table, true)
		if err := errs.Append(err); err != nil {
			return nil, err
		}
		if line == nil {
			continue
		}

		// Low-mileage vehicles recover the tax paid from the first-used
		// month; credit vehicles recover it from the month they left service.
		line.Amount = line.Prorated
		side.refund = side.refund.Add(line.Amount)
		side.lines = append(side.lines, *line)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return side, nil
}

func (e *Engine) priceAmendment(req Request) (*taxSide, error) {
	if req.Amendment == nil {
		return nil, validation.NewValidationError("amendment", nil, "amendment details are required for an amendment filing")
	}

	res, err := e.amendments.Evaluate(*req.Amendment)
	if err != nil {
		return nil, err
	}

	side := &taxSide{feeVehicle: len(req.Vehicles)}
	switch res.Kind {
	case amendment.KindVinCorrection:
		side.vinOnly = true
		vc := req.Amendment.VinCorrection
		side.lines = []models.VehicleLine{{VIN: validation.NormalizeVIN(vc.CorrectedVIN)}}
	case amendment.KindWeightIncrease:
		wi := res.WeightIncrease
		side.period = wi.TaxPeriod
		side.totalTax = res.AdditionalTaxDue
		side.lines = []models.VehicleLine{{
			VIN:         validation.NormalizeVIN(req.Amendment.WeightIncrease.VIN),
			VehicleType: models.VehicleTaxable,
			Category:    wi.NewCategory,
			Logging:     req.Amendment.WeightIncrease.Logging,
			Month:       wi.IncreaseMonth,
			Prorated:    wi.NewTax,
			Amount:      res.AdditionalTaxDue,
		}}
	case amendment.KindMileageExceeded:
		me := res.MileageExceeded
		side.period = me.TaxPeriod
		side.totalTax = res.AdditionalTaxDue
		side.lines = []models.VehicleLine{{
			VIN:         validation.NormalizeVIN(req.Amendment.MileageExceeded.VIN),
			VehicleType: models.VehicleTaxable,
			Category:    me.Category,
			Logging:     req.Amendment.MileageExceeded.Logging,
			Month:       me.FirstUsedMonth,
			AnnualTax:   me.AnnualTax,
			Prorated:    me.TaxDue,
			Amount:      res.AdditionalTaxDue,
		}}
	}
	return side, nil
}

// vehicleLine resolves a vehicle's weight and the tax for the month that
// applies to it: the filing month, or the credit date for credit vehicles.
// Suspended vehicles carry zero tax unless rateSuspended is set.
func (e *Engine) vehicleLine(field string, v models.Vehicle, month hvut.FirstUseMonth, table *hvut.Table, rateSuspended bool) (*models.VehicleLine, error) {
	var errs validation.ValidationErrors

	weight, err := hvut.ParseWeight(v.GrossWeightCategory)
	if err != nil {
		errs.Add(field+".grossWeightCategory", v.GrossWeightCategory,
			"gross weight must be a category letter from A to W or a weight in pounds")
	} else if !weight.Taxable() {
		errs.Add(field+".grossWeightCategory", v.GrossWeightCategory,
			fmt.Sprintf("vehicles under %d lbs do not owe HVUT and should not be filed", hvut.MinTaxableWeight))
	}

	line := &models.VehicleLine{
		VIN:         validation.NormalizeVIN(v.VIN),
		VehicleType: v.VehicleType,
		Logging:     v.Logging,
		Month:       month.String(),
	}

	switch v.VehicleType {
	case models.VehicleTaxable:
	case models.VehicleSuspended:
	case models.VehicleCredit:
		t, err := time.Parse(CreditDateLayout, v.CreditDate)
		if err != nil {
			errs.Add(field+".creditDate", v.CreditDate, "credit date must be a date in the form YYYY-MM-DD")
			break
		}
		month = hvut.MonthOf(t)
		line.Month = month.String()
		if table, err = hvut.ForMonth(month); err != nil {
			errs.Add(field+".creditDate", v.CreditDate,
				fmt.Sprintf("no HVUT rates are available for the tax period containing %s", month))
		}
	default:
		errs.Add(field+".vehicleType", string(v.VehicleType), "vehicle type must be one of: taxable, suspended, credit")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	line.Category = weight.Category.String()
	if v.VehicleType == models.VehicleSuspended && !rateSuspended {
		return line, nil
	}

	line.AnnualTax, err = table.AnnualTax(weight, v.Logging)
	if err != nil {
		return nil, err
	}
	line.Prorated, err = table.ProratedTax(weight, month, v.Logging)
	if err != nil {
		return nil, err
	}
	return line, nil
}

func filingMonth(req Request) (hvut.FirstUseMonth, *hvut.Table, error) {
	month, err := hvut.ParseMonthField("firstUsedMonth", req.FirstUsedMonth)
	if err != nil {
		return hvut.FirstUseMonth{}, nil, err
	}
	table, err := hvut.ForMonth(month)
	if err != nil {
		return hvut.FirstUseMonth{}, nil, err
	}
	return month, table, nil
}

func roundLines(lines []models.VehicleLine) []models.VehicleLine {
	out := make([]models.VehicleLine, len(lines))
	for i, l := range lines {
		l.AnnualTax = money.Round(l.AnnualTax)
		l.Prorated = money.Round(l.Prorated)
		l.Amount = money.Round(l.Amount)
		out[i] = l
	}
	return out
}
