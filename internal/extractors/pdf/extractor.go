// Package pdf extracts text from PDF documents page by page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the formats this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads every page independently. A page that fails is skipped
// with a warning; the text of the remaining pages is joined by newlines.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (result domain.ExtractionResult) {
	if raw == nil || len(raw.Content) == 0 {
		return domain.FailedExtraction("", "file is empty")
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			result = domain.FailedExtraction(raw.Filename, "unreadable PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return domain.FailedExtraction(raw.Filename, "unreadable PDF: %v", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	var warnings []domain.Warning

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
				"stopped at page %d: %v", i, err))
			break
		}

		text, err := pageText(reader, i)
		if err != nil {
			warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
				"page %d skipped: %v", i, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 && len(warnings) == 0 {
		warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
			"no extractable text in %d pages", numPages))
	}

	result = domain.NewExtractionResult(strings.Join(pages, "\n"), warnings)
	result.Metadata = map[string]any{
		"pages":     numPages,
		"pages_ok":  len(pages),
		"extractor": "pdf",
	}
	return result
}

// pageText extracts one page, converting parser panics into errors.
func pageText(reader *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
