// Package plaintext extracts text and markdown files.
package plaintext

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/textenc"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text and markdown documents.
// Markdown is kept as-is; its markup is meaningful to retrieval.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the formats this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeTXT, domain.FileTypeMarkdown}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract decodes the file as UTF-8, falling back to Latin-1.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) domain.ExtractionResult {
	if raw == nil || len(raw.Content) == 0 {
		return domain.FailedExtraction(filename(raw), "file is empty")
	}

	text, latin1 := textenc.Decode(raw.Content)

	var warnings []domain.Warning
	if latin1 {
		warnings = append(warnings, domain.NewWarning(raw.Filename, domain.StageExtract,
			"not valid UTF-8, decoded as Latin-1"))
	}

	result := domain.NewExtractionResult(text, warnings)
	result.Metadata = map[string]any{"encoding": encodingName(latin1)}
	return result
}

func encodingName(latin1 bool) string {
	if latin1 {
		return "latin-1"
	}
	return "utf-8"
}

func filename(raw *domain.RawDocument) string {
	if raw == nil {
		return ""
	}
	return raw.Filename
}
