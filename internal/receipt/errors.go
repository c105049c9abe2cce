package receipt

import (
	"errors"
	"fmt"
)

// Common receipt extraction errors
var (
	// ErrMissingRequiredField is returned when the jurisdiction or gallons
	// cannot be read from a receipt.
	ErrMissingRequiredField = errors.New("missing required receipt field")

	// ErrProcessingFailed is returned when Document AI processing fails.
	ErrProcessingFailed = errors.New("document AI processing failed")

	// ErrInvalidCredentials is returned when Google Cloud credentials are invalid
	// or do not have the necessary permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrProcessorNotFound is returned when the configured Document AI processor
	// cannot be found or accessed.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when Document AI API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("Document AI API quota exceeded")

	// ErrDocumentTooLarge is returned when the receipt exceeds size limits.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrUnsupportedFormat is returned when the receipt is neither a PDF nor an image.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrContextCanceled is returned when extraction is canceled via context.
	ErrContextCanceled = errors.New("receipt extraction was canceled")
)

// ExtractionError wraps errors with context about a failed receipt extraction.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Extract", "NewDocumentAIExtractor").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("receipt: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("receipt: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(op string, err error, details string) *ExtractionError {
	return &ExtractionError{Op: op, Err: err, Details: details}
}

// WrapExtractionError wraps err as an ExtractionError unless it already is one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}
	return NewExtractionError(op, err, details)
}
