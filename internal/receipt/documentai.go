package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"quicktrucktax/internal/config"
	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/ocr"
	"quicktrucktax/pkg/models"
)

// MaxDocumentSizeBytes is the maximum document size for online processing (20MB)
const MaxDocumentSizeBytes = 20 * 1024 * 1024

var fuelKeywords = []string{"diesel", "fuel", "gasoline", "unleaded", "dsl", "ulsd", "propane"}

// DocumentAIConfig identifies the expense processor to call.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// ProcessorName is the full resource name of the processor (or processor version).
func (c DocumentAIConfig) ProcessorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// DocumentAIExtractor reads receipts with a Document AI expense processor.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	logger zerolog.Logger
}

// NewDocumentAIExtractor creates a Document AI client for the configured processor.
// Credentials come from GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS.
func NewDocumentAIExtractor(ctx context.Context, cfg *config.Config) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if err := cfg.RequireDocumentAI(); err != nil {
		return nil, WrapExtractionError(op, err, "")
	}

	dc := DocumentAIConfig{
		ProjectID:        cfg.GoogleCloudProject,
		Location:         cfg.GoogleCloudLocation,
		ProcessorID:      cfg.DocumentAIProcessorID,
		ProcessorVersion: cfg.DocumentAIProcessorVersion,
		Timeout:          60 * time.Second,
	}
	if dc.Location == "" {
		dc.Location = "us"
	}

	var opts []option.ClientOption
	opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", dc.Location)))

	credentialed := true
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	} else {
		credentialed = false
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if !credentialed {
			return nil, WrapExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapExtractionError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", dc.Location))
	}

	return NewDocumentAIExtractorWithClient(dc, client), nil
}

// NewDocumentAIExtractorWithClient wraps an existing client.
func NewDocumentAIExtractorWithClient(dc DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIExtractor {
	return &DocumentAIExtractor{
		client: client,
		config: dc,
		logger: logger.WithComponent("document-ai"),
	}
}

// Extract sends the receipt to Document AI and maps the expense entities to a
// fuel purchase.
func (p *DocumentAIExtractor) Extract(ctx context.Context, data io.Reader) (*models.FuelReceipt, error) {
	const op = "Extract"

	content, err := io.ReadAll(data)
	if err != nil {
		return nil, WrapExtractionError(op, err, "failed to read document data")
	}
	if len(content) > MaxDocumentSizeBytes {
		return nil, NewExtractionError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(content)))
	}
	mimeType, err := ocr.DetectMimeType(content)
	if err != nil {
		return nil, NewExtractionError(op, ErrUnsupportedFormat, err.Error())
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, NewExtractionError(op, ErrProcessingFailed, "no document in response")
	}

	parsed, confidence := p.fromDocument(resp.Document)
	return buildReceipt(op, parsed, SourceDocumentAI, confidence, resp.Document.Text)
}

// handleProcessingError maps gRPC status codes to receipt errors.
func (p *DocumentAIExtractor) handleProcessingError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return WrapExtractionError(op, context.DeadlineExceeded, "processing timeout")
	case errors.Is(err, context.Canceled):
		return WrapExtractionError(op, ErrContextCanceled, "processing was canceled")
	}

	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return WrapExtractionError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case codes.ResourceExhausted:
		return WrapExtractionError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case codes.NotFound:
		return WrapExtractionError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case codes.InvalidArgument:
		return WrapExtractionError(op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case codes.DeadlineExceeded:
		return WrapExtractionError(op, context.DeadlineExceeded, "processing timeout")
	case codes.Canceled:
		return WrapExtractionError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapExtractionError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// fromDocument maps expense-parser entities, then fills gaps from the OCR text.
// The returned confidence is the mean over the entities that were used.
func (p *DocumentAIExtractor) fromDocument(doc *documentaipb.Document) (ParsedReceipt, float32) {
	var parsed ParsedReceipt
	var confSum float32
	var confCount int
	used := func(e *documentaipb.Document_Entity) {
		confSum += e.Confidence
		confCount++
	}

	fuelGallons := decimal.Zero
	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)

		p.logger.Debug().
			Str("entity_type", entity.Type).
			Str("value", value).
			Float32("confidence", entity.Confidence).
			Msg("Processing Document AI entity")

		switch entity.Type {
		case "supplier_name":
			parsed.Vendor = value
			used(entity)
		case "supplier_address":
			if state := StateFromText(value); state != "" {
				parsed.State = state
				used(entity)
			}
		case "receipt_date", "purchase_date", "invoice_date":
			if d, ok := entityDate(entity); ok {
				parsed.Date = d
				used(entity)
			}
		case "total_amount":
			if amount, ok := entityMoney(entity); ok {
				parsed.AmountPaid = amount
				used(entity)
			}
		case "line_item":
			if g, ok := fuelQuantity(entity); ok {
				fuelGallons = fuelGallons.Add(g)
				used(entity)
			}
		}
	}
	parsed.Gallons = fuelGallons

	if missing := parsed.Missing(); len(missing) > 0 || parsed.AmountPaid.IsZero() {
		parsed = parsed.merge(ParseText(doc.Text))
		p.logger.Debug().
			Strs("missing_entities", missing).
			Msg("Filled receipt fields from document text")
	}

	var confidence float32
	if confCount > 0 {
		confidence = confSum / float32(confCount)
	}
	return parsed, confidence
}

// fuelQuantity returns the quantity of a fuel line item. Lines without a fuel
// description (DEF, snacks, scales) are skipped.
func fuelQuantity(item *documentaipb.Document_Entity) (decimal.Decimal, bool) {
	var description, quantity string
	for _, prop := range item.Properties {
		switch prop.Type {
		case "line_item/description":
			description = strings.ToLower(prop.MentionText)
		case "line_item/quantity":
			quantity = prop.MentionText
		}
	}
	if quantity == "" || !isFuel(description) {
		return decimal.Zero, false
	}
	g, ok := parseQuantity(quantity)
	if !ok || !g.IsPositive() {
		return decimal.Zero, false
	}
	return g, true
}

func isFuel(description string) bool {
	if strings.Contains(description, "exhaust fluid") {
		return false
	}
	for _, word := range strings.Fields(description) {
		if word == "def" {
			return false
		}
	}
	for _, k := range fuelKeywords {
		if strings.Contains(description, k) {
			return true
		}
	}
	return false
}

func entityDate(entity *documentaipb.Document_Entity) (time.Time, bool) {
	if nv := entity.NormalizedValue; nv != nil {
		if d := nv.GetDateValue(); d != nil && d.Year > 0 {
			return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC), true
		}
	}
	d := dateFromText(entity.MentionText)
	return d, !d.IsZero()
}

func entityMoney(entity *documentaipb.Document_Entity) (decimal.Decimal, bool) {
	if nv := entity.NormalizedValue; nv != nil {
		if m := nv.GetMoneyValue(); m != nil {
			return decimal.New(m.Units, 0).Add(decimal.New(int64(m.Nanos), -9)), true
		}
	}
	amount, ok := parseQuantity(entity.MentionText)
	return amount, ok && amount.IsPositive()
}

// Close closes the underlying Document AI client.
func (p *DocumentAIExtractor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
