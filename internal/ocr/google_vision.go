package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"quicktrucktax/internal/logger"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5

	MimePDF = "application/pdf"
)

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/tiff", "image/webp", "image/bmp"}

// DetectMimeType sniffs the document type from its content. It returns
// ErrUnsupportedFormat for anything that is neither a PDF nor a supported image.
func DetectMimeType(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if mt.Is(MimePDF) {
		return MimePDF, nil
	}
	for _, t := range imageTypes {
		if mt.Is(t) {
			return t, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// GoogleVisionService implements Service using the Google Cloud Vision API.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
	logger zerolog.Logger
}

// NewGoogleVisionService creates a Vision client with credentials from the environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionService(ctx context.Context) (*GoogleVisionService, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewGoogleVisionServiceWithClient(client), nil
}

// NewGoogleVisionServiceWithClient wraps an existing Vision client.
func NewGoogleVisionServiceWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionService {
	return &GoogleVisionService{
		client: client,
		logger: logger.WithComponent("ocr"),
	}
}

// ExtractText reads the whole document, sniffs its type and runs document
// text detection on it.
func (g *GoogleVisionService) ExtractText(ctx context.Context, data io.Reader) (*Result, error) {
	const op = "ExtractText"
	startTime := time.Now()

	content, err := io.ReadAll(data)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read document data")
	}
	if len(content) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(content)))
	}

	mimeType, err := DetectMimeType(content)
	if err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("detected %s", mimetype.Detect(content).String()))
	}

	var pages []*visionpb.AnnotateImageResponse
	if mimeType == MimePDF {
		pages, err = g.annotateFile(ctx, content)
	} else {
		pages, err = g.annotateImage(ctx, content)
	}
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	result, err := collectText(pages)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}
	result.MimeType = mimeType
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	g.logger.Debug().
		Str("mime_type", mimeType).
		Int("pages", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Document text extracted")

	return result, nil
}

func (g *GoogleVisionService) annotateFile(ctx context.Context, content []byte) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  content,
					MimeType: MimePDF,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				Pages: syncPages(),
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: Vision API call failed: %v", ErrOCRFailed, err)
	}
	return filePages(resp)
}

// syncPages lists the pages requested from a PDF: 1 through MaxPagesSync.
func syncPages() []int32 {
	pages := make([]int32, MaxPagesSync)
	for i := range pages {
		pages[i] = int32(i + 1)
	}
	return pages
}

// filePages returns the page annotations of a single-file response. Vision
// reports the document's full page count even though only the requested pages
// are annotated, so longer documents are rejected rather than truncated.
func filePages(resp *visionpb.BatchAnnotateFilesResponse) ([]*visionpb.AnnotateImageResponse, error) {
	if len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrOCRFailed)
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, fileResp.Error.Message)
	}
	if fileResp.TotalPages > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, fileResp.TotalPages)
	}
	return fileResp.Responses, nil
}

func (g *GoogleVisionService) annotateImage(ctx context.Context, content []byte) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: Vision API call failed: %v", ErrOCRFailed, err)
	}
	return resp.Responses, nil
}

// collectText flattens per-page annotations into one Result.
func collectText(pages []*visionpb.AnnotateImageResponse) (*Result, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(pages) > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, len(pages))
	}

	var allText strings.Builder
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for pageIdx, page := range pages {
		if page.Error != nil {
			return nil, fmt.Errorf("%w: page %d: %s", ErrOCRFailed, pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}

		if pageIdx > 0 {
			fmt.Fprintf(&allText, "\n\n--- Page %d ---\n\n", pageIdx+1)
		}
		allText.WriteString(page.FullTextAnnotation.Text)

		for _, p := range page.FullTextAnnotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += p.Confidence
				confidenceCount++
			}
			if p.Property == nil {
				continue
			}
			for _, lang := range p.Property.DetectedLanguages {
				if lang.LanguageCode != "" {
					languageSet[lang.LanguageCode] = true
				}
			}
		}
	}

	text := allText.String()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return &Result{
		Text:          text,
		PageCount:     len(pages),
		Confidence:    avgConfidence,
		LanguageCodes: languages,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
