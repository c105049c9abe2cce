package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"quicktrucktax/internal/ifta"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/validation"
	"quicktrucktax/pkg/models"
)

const SourceSheet = "sheet"

var sheetDateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "Jan 2, 2006"}

// ReadTrips reads a trip log. Expected columns: A=State, B=Miles. The first row
// is a header and blank rows are skipped.
func (s *Service) ReadTrips(ctx context.Context, sheetName string) ([]models.TripEntry, error) {
	const op = "ReadTrips"

	s.log.Info().Str("sheet", sheetName).Msg("Reading trip log")

	values, err := s.ReadRange(ctx, sheetName+"!A:B")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	trips, err := parseTripRows(sheetName, values[1:])
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("total_rows", len(values)-1).
		Int("trips", len(trips)).
		Str("sheet", sheetName).
		Msg("Trip log read successfully")

	return trips, nil
}

// ReadFuel reads fuel purchases. Expected columns: A=Date, B=State, C=Gallons,
// D=Amount Paid, E=Vendor (optional).
func (s *Service) ReadFuel(ctx context.Context, sheetName string) ([]models.FuelPurchase, error) {
	const op = "ReadFuel"

	s.log.Info().Str("sheet", sheetName).Msg("Reading fuel purchases")

	values, err := s.ReadRange(ctx, sheetName+"!A:E")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	fuel, err := parseFuelRows(sheetName, values[1:])
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("total_rows", len(values)-1).
		Int("purchases", len(fuel)).
		Str("sheet", sheetName).
		Msg("Fuel purchases read successfully")

	return fuel, nil
}

// parseTripRows parses data rows (header already removed). Every malformed row
// is reported; none are silently dropped.
func parseTripRows(sheetName string, rows [][]interface{}) ([]models.TripEntry, error) {
	var errs validation.ValidationErrors
	var trips []models.TripEntry

	for i, row := range rows {
		if blank(row) {
			continue
		}
		field := rowField(sheetName, i)

		state := ifta.NormalizeCode(getString(row, 0))
		if state == "" {
			errs.Add(field+".state", getString(row, 0), "state is required")
		}
		miles, err := parseNumber(getString(row, 1))
		if err != nil {
			errs.Add(field+".miles", getString(row, 1), err.Error())
			continue
		}
		trips = append(trips, models.TripEntry{State: state, Miles: miles})
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

// parseFuelRows parses data rows (header already removed).
func parseFuelRows(sheetName string, rows [][]interface{}) ([]models.FuelPurchase, error) {
	var errs validation.ValidationErrors
	var fuel []models.FuelPurchase

	for i, row := range rows {
		if blank(row) {
			continue
		}
		field := rowField(sheetName, i)
		p := models.FuelPurchase{Source: SourceSheet}
		ok := true

		if raw := getString(row, 0); raw != "" {
			d, err := parseDate(raw)
			if err != nil {
				errs.Add(field+".date", raw, err.Error())
				ok = false
			}
			p.Date = d
		}

		p.State = ifta.NormalizeCode(getString(row, 1))
		if p.State == "" {
			errs.Add(field+".state", getString(row, 1), "state is required")
			ok = false
		}

		g, err := parseNumber(getString(row, 2))
		if err != nil {
			errs.Add(field+".gallons", getString(row, 2), err.Error())
			ok = false
		}
		p.Gallons = g

		if raw := getString(row, 3); raw != "" {
			amount, err := money.Parse(raw)
			if err != nil {
				errs.Add(field+".amountPaid", raw, "amount must be a dollar amount")
				ok = false
			}
			p.AmountPaid = amount
		}

		if ok {
			fuel = append(fuel, p)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return fuel, nil
}

// rowField names a data row by its sheet row number (header is row 1).
func rowField(sheetName string, index int) string {
	return fmt.Sprintf("%s!row%d", sheetName, index+2)
}

func blank(row []interface{}) bool {
	for i := range row {
		if getString(row, i) != "" {
			return false
		}
	}
	return true
}

func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}

func parseNumber(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("value is required")
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("must be a number")
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range sheetDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date, use YYYY-MM-DD")
}
