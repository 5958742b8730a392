package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Extractor converts the bytes of one file format into plain text.
//
// Extract never fails outright: parse problems are reported through the
// result's status and warnings, and Text holds whatever could be salvaged.
type Extractor interface {
	// FileTypes returns the formats this extractor handles.
	FileTypes() []domain.FileType

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors return 50-89, fallbacks 1-9.
	Priority() int

	// Extract produces best-effort text from raw.Content.
	Extract(ctx context.Context, raw *domain.RawDocument) domain.ExtractionResult
}

// ExtractorRegistry selects the appropriate extractor for a document.
type ExtractorRegistry interface {
	// Extract runs the best matching extractor.
	// Returns domain.ErrUnsupportedType, without extracting anything,
	// if no extractor handles raw.Type.
	Extract(ctx context.Context, raw *domain.RawDocument) (domain.ExtractionResult, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedTypes returns all file types that can be extracted.
	SupportedTypes() []domain.FileType
}
