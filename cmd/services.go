package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"quicktrucktax/internal/config"
	"quicktrucktax/internal/ocr"
	"quicktrucktax/internal/receipt"
	"quicktrucktax/internal/sheets"
)

// createSheetsService connects to the spreadsheet named by GOOGLE_SHEET_URL.
func createSheetsService(ctx context.Context, log zerolog.Logger) (*sheets.Service, error) {
	cfg := currentConfig()
	if err := cfg.RequireGoogleSheets(); err != nil {
		return nil, fmt.Errorf("%w: set it to the URL of the spreadsheet to read or write", err)
	}

	svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets service")
		return nil, fmt.Errorf("failed to create Google Sheets service: %w", err)
	}
	return svc, nil
}

const credentialsHelp = "Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path,\n" +
	"or GOOGLE_CREDENTIALS to the inline JSON, or run:\n" +
	"   gcloud auth application-default login"

// handleOCRError provides user-friendly messages for Vision OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")
	return ocrMessage(err)
}

func ocrMessage(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("receipt is too large (maximum 20MB)")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages (maximum %d). Split it into one receipt per file", ocr.MaxPagesSync)
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported receipt format: use PDF, JPEG, PNG, GIF, TIFF, WebP or BMP")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found on the receipt")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials are missing.\n%s", credentialsHelp)
	default:
		return err
	}
}

// handleReceiptError provides user-friendly messages for receipt extraction failures
func handleReceiptError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Receipt extraction failed")

	switch {
	case errors.Is(err, config.ErrDocumentAINotConfigured):
		return fmt.Errorf("Document AI is not configured: %w", err)
	case errors.Is(err, receipt.ErrMissingRequiredField):
		return fmt.Errorf("receipt is incomplete: %w", err)
	case errors.Is(err, receipt.ErrMissingCredentials), errors.Is(err, receipt.ErrInvalidCredentials):
		return fmt.Errorf("Google Cloud authentication failed.\n%s", credentialsHelp)
	case errors.Is(err, receipt.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Check GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION and DOCUMENT_AI_PROCESSOR_ID")
	case errors.Is(err, receipt.ErrQuotaExceeded):
		return fmt.Errorf("Document AI quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, receipt.ErrDocumentTooLarge):
		return fmt.Errorf("receipt is too large for Document AI")
	case errors.Is(err, receipt.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported receipt format: use PDF, JPEG, PNG, GIF, TIFF, WebP or BMP")
	case errors.Is(err, receipt.ErrContextCanceled):
		return fmt.Errorf("receipt extraction was canceled or timed out")
	default:
		return ocrMessage(err)
	}
}
