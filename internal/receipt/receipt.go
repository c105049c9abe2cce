// Package receipt turns scanned fuel receipts into IFTA fuel purchases.
//
// Two extractors are provided. OCRExtractor runs Cloud Vision text detection
// and reads the fields from the printed text. DocumentAIExtractor sends the
// receipt to a Document AI expense processor and falls back to the text
// parser for any field the processor did not return.
package receipt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/ocr"
	"quicktrucktax/pkg/models"
)

const (
	SourceOCR        = "ocr"
	SourceDocumentAI = "documentai"
)

// Extractor reads one fuel receipt.
type Extractor interface {
	Extract(ctx context.Context, data io.Reader) (*models.FuelReceipt, error)
}

// OCRExtractor reads receipts through an OCR service and the text parser.
type OCRExtractor struct {
	ocr    ocr.Service
	logger zerolog.Logger
}

// NewOCRExtractor wraps an OCR service.
func NewOCRExtractor(svc ocr.Service) *OCRExtractor {
	return &OCRExtractor{
		ocr:    svc,
		logger: logger.WithComponent("receipt-ocr"),
	}
}

// Extract runs OCR on the receipt and parses the resulting text.
func (e *OCRExtractor) Extract(ctx context.Context, data io.Reader) (*models.FuelReceipt, error) {
	const op = "Extract"

	result, err := e.ocr.ExtractText(ctx, data)
	if err != nil {
		return nil, WrapExtractionError(op, err, "text detection failed")
	}

	parsed := ParseText(result.Text)
	e.logger.Debug().
		Str("vendor", parsed.Vendor).
		Str("state", parsed.State).
		Str("gallons", parsed.Gallons.String()).
		Str("amount", parsed.AmountPaid.String()).
		Msg("Parsed receipt text")

	return buildReceipt(op, parsed, SourceOCR, result.Confidence, result.Text)
}

func buildReceipt(op string, p ParsedReceipt, source string, confidence float32, raw string) (*models.FuelReceipt, error) {
	if missing := p.Missing(); len(missing) > 0 {
		return nil, NewExtractionError(op, ErrMissingRequiredField, fmt.Sprintf("could not read %s", strings.Join(missing, ", ")))
	}
	return &models.FuelReceipt{
		ID: uuid.NewString(),
		Purchase: models.FuelPurchase{
			State:      p.State,
			Gallons:    p.Gallons,
			AmountPaid: p.AmountPaid,
			Date:       p.Date,
			Source:     source,
		},
		Vendor:     p.Vendor,
		Confidence: confidence,
		RawText:    raw,
	}, nil
}
