// Package ocr extracts text from scanned fuel receipts using the Google Cloud
// Vision API.
//
// Receipts arrive either as PDFs (printed or emailed receipts) or as photos.
// PDFs are sent through synchronous file annotation; images through image
// annotation. Both use document text detection and the results are flattened
// to a single text in reading order.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous PDF processing
package ocr

import (
	"context"
	"io"
	"time"
)

// Service extracts text from a scanned document.
type Service interface {
	// ExtractText detects the document type and returns its text with metadata.
	ExtractText(ctx context.Context, data io.Reader) (*Result, error)
}

// Result contains the text of a scanned document with metadata.
type Result struct {
	// Text is the extracted text of all pages, in reading order.
	Text string `json:"text"`

	// MimeType is the detected document type, e.g. "application/pdf" or "image/jpeg".
	MimeType string `json:"mime_type"`

	// PageCount is the number of pages (1 for images).
	PageCount int `json:"page_count"`

	// Confidence is the average confidence across detected text (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the detected languages in the document.
	LanguageCodes []string `json:"language_codes,omitempty"`

	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}
