package ifta

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownQuarter is returned when no rate table exists for a quarter.
	ErrUnknownQuarter = errors.New("no IFTA rate table for quarter")

	// ErrUnknownJurisdiction is returned for a state or province with no published rate.
	ErrUnknownJurisdiction = errors.New("unknown IFTA jurisdiction")

	// ErrInvalidRates is returned when an embedded rate table is malformed.
	ErrInvalidRates = errors.New("invalid IFTA rate table")
)

// CalculationError wraps a calculator failure with the operation and input that caused it.
type CalculationError struct {
	Op      string
	Err     error
	Details string
}

// Error implements the error interface.
func (e *CalculationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ifta: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ifta: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CalculationError) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *CalculationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCalculationError creates a new CalculationError.
func NewCalculationError(op string, err error, details string) *CalculationError {
	return &CalculationError{Op: op, Err: err, Details: details}
}
