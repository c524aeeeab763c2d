package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lexfisc/lexfisc/pkg/utils/errors"
)

// DefaultMinTextChars is the minimum number of extracted characters below
// which a document is treated as unreadable.
const DefaultMinTextChars = 50

// ExtractResult holds the outcome of text extraction.
type ExtractResult struct {
	Text  string
	Pages int
}

// Extractor extracts plain text from an uploaded document file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*ExtractResult, error)
}

// PDFExtractor extracts text from PDF files. The file is structurally
// validated before extraction; scanned or image-only PDFs that yield
// fewer than minChars characters are rejected as unreadable.
type PDFExtractor struct {
	minChars int
}

// NewPDFExtractor creates a PDF extractor. Non-positive minChars falls
// back to DefaultMinTextChars.
func NewPDFExtractor(minChars int) *PDFExtractor {
	if minChars <= 0 {
		minChars = DefaultMinTextChars
	}
	return &PDFExtractor{minChars: minChars}
}

// Extract validates the PDF and returns its page-ordered plain text,
// pages joined by blank lines.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (*ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := api.ValidateFile(path, nil); err != nil {
		return nil, errors.ErrExtractFailed.WithCause(fmt.Errorf("invalid pdf %s: %w", path, err))
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, errors.ErrExtractFailed.WithCause(fmt.Errorf("failed to count pages of %s: %w", path, err))
	}

	text, err := extractPlainText(path)
	if err != nil {
		return nil, errors.ErrExtractFailed.WithCause(fmt.Errorf("failed to extract text from %s: %w", path, err))
	}

	if len(strings.TrimSpace(text)) < e.minChars {
		return nil, errors.ErrUnreadableDoc.WithMessagef(
			"document yields %d characters of text, minimum is %d (empty or scanned pdf)",
			len(strings.TrimSpace(text)), e.minChars)
	}

	return &ExtractResult{Text: text, Pages: pageCount}, nil
}

func extractPlainText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page should not sink the document.
			continue
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

var _ Extractor = (*PDFExtractor)(nil)
