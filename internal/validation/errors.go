package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes one caller-input problem in terms an end user can act on.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == nil || e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors collects every rule an input failed, in the order they were checked.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, ve := range e {
		errs = append(errs, ve)
	}
	return errs
}

// Add appends a new ValidationError.
func (e *ValidationErrors) Add(field string, value interface{}, message string) {
	*e = append(*e, NewValidationError(field, value, message))
}

// Append adds err to the collection. ValidationError values are flattened; other errors are ignored
// by callers that only collect validation failures, so they are returned to the caller instead.
func (e *ValidationErrors) Append(err error) error {
	if err == nil {
		return nil
	}
	var many ValidationErrors
	if errors.As(err, &many) {
		*e = append(*e, many...)
		return nil
	}
	var one *ValidationError
	if errors.As(err, &one) {
		*e = append(*e, one)
		return nil
	}
	return err
}

// Err returns nil when nothing was collected, otherwise the collection itself.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsValidationError reports whether err is, or wraps, a caller-input validation failure.
func IsValidationError(err error) bool {
	var one *ValidationError
	if errors.As(err, &one) {
		return true
	}
	var many ValidationErrors
	return errors.As(err, &many)
}
