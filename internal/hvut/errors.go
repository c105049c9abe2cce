package hvut

import (
	"errors"
	"fmt"
)

// Common rate table errors
var (
	// ErrBelowTaxableWeight is returned for weights under 55,000 lbs. Such
	// vehicles owe no HVUT and must be excluded by the caller before lookup.
	ErrBelowTaxableWeight = errors.New("weight is below the 55,000 lb HVUT threshold")

	// ErrNoBracket is returned when no bracket of a schedule covers a weight.
	ErrNoBracket = errors.New("no weight bracket matches")

	// ErrUnknownTaxPeriod is returned when no schedule exists for a tax period.
	ErrUnknownTaxPeriod = errors.New("no HVUT schedule for tax period")

	// ErrInvalidSchedule is returned when an embedded schedule violates the bracket invariants.
	ErrInvalidSchedule = errors.New("invalid HVUT schedule")
)

// RateError wraps a lookup failure with the operation and inputs that caused it.
type RateError struct {
	// Op is the operation that failed (e.g., "AnnualTax", "Lookup").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RateError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("hvut: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("hvut: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RateError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRateError creates a new RateError.
func NewRateError(op string, err error, details string) *RateError {
	return &RateError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
