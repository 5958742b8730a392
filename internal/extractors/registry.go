package extractors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches documents to the highest-priority extractor for
// their file type.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.FileType][]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.FileType][]driven.Extractor),
	}
}

// Register adds an extractor for every file type it declares.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ft := range extractor.FileTypes() {
		list := append(r.extractors[ft], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.extractors[ft] = list
	}
}

// Extract runs the preferred extractor for raw.Type.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (result domain.ExtractionResult, err error) {
	if raw == nil {
		return domain.ExtractionResult{}, domain.ErrInvalidInput
	}

	r.mu.RLock()
	list := r.extractors[raw.Type]
	r.mu.RUnlock()

	if len(list) == 0 {
		return domain.ExtractionResult{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, raw.Type)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("extractor for %s panicked on %s: %v", raw.Type, raw.Filename, rec)
			result = domain.FailedExtraction(raw.Filename, "extractor panicked: %v", rec)
		}
	}()

	logger.Debug("extracting %s as %s (%d bytes)", raw.Filename, raw.Type, len(raw.Content))
	return list[0].Extract(ctx, raw), nil
}

// SupportedTypes returns all file types with at least one extractor, sorted.
func (r *Registry) SupportedTypes() []domain.FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.FileType, 0, len(r.extractors))
	for ft, list := range r.extractors {
		if len(list) > 0 {
			types = append(types, ft)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
