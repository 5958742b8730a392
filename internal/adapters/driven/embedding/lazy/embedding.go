// Package lazy defers loading an embedding model until it is first needed
// and falls back to a second model if the first cannot be loaded.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Loader constructs the concrete service for a model name.
type Loader func(ctx context.Context, model string) (driven.EmbeddingService, error)

// EmbeddingService loads its model once, on first use.
//
// Concurrent callers share a single load. If both the configured model
// and the fallback fail, every later call returns the same
// ErrEmbeddingUnavailable error.
type EmbeddingService struct {
	load     Loader
	model    string
	fallback string

	mu     sync.Mutex
	svc    driven.EmbeddingService
	err    error
	loaded bool
}

// New creates a lazy service. fallback may be empty.
func New(load Loader, model, fallback string) *EmbeddingService {
	return &EmbeddingService{
		load:     load,
		model:    model,
		fallback: fallback,
	}
}

// Warm forces initialisation so load failures surface at startup.
func (s *EmbeddingService) Warm(ctx context.Context) error {
	_, err := s.get(ctx)
	return err
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	svc, err := s.get(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Embed(ctx, text)
}

// EmbedBatch generates one embedding per text, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	svc, err := s.get(ctx)
	if err != nil {
		return nil, err
	}
	vecs, err := svc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding model %s returned %d vectors for %d texts",
			svc.ModelName(), len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the loaded model's vector size, or zero before loading.
func (s *EmbeddingService) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc == nil {
		return 0
	}
	return s.svc.Dimensions()
}

// ModelName returns the loaded model, or the configured one before loading.
func (s *EmbeddingService) ModelName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc != nil {
		return s.svc.ModelName()
	}
	return s.model
}

// Ping loads the model if needed.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.Warm(ctx)
}

// Close releases the loaded model.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc == nil {
		return nil
	}
	return s.svc.Close()
}

func (s *EmbeddingService) get(ctx context.Context) (driven.EmbeddingService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.svc, s.err
	}

	svc, primaryErr := s.try(ctx, s.model)
	if primaryErr == nil {
		s.svc, s.loaded = svc, true
		return svc, nil
	}
	if ctx.Err() != nil {
		return nil, primaryErr
	}
	logger.Warn("embedding: model %s unavailable: %v", s.model, primaryErr)

	if s.fallback == "" || s.fallback == s.model {
		s.err = fmt.Errorf("%w: %s: %v", domain.ErrEmbeddingUnavailable, s.model, primaryErr)
		s.loaded = true
		return nil, s.err
	}

	svc, fallbackErr := s.try(ctx, s.fallback)
	if fallbackErr == nil {
		logger.Warn("embedding: using fallback model %s", s.fallback)
		s.svc, s.loaded = svc, true
		return svc, nil
	}
	if ctx.Err() != nil {
		return nil, fallbackErr
	}

	s.err = fmt.Errorf("%w: %s: %v; fallback %s: %v",
		domain.ErrEmbeddingUnavailable, s.model, primaryErr, s.fallback, fallbackErr)
	s.loaded = true
	logger.Error("embedding: %v", s.err)
	return nil, s.err
}

func (s *EmbeddingService) try(ctx context.Context, model string) (driven.EmbeddingService, error) {
	if s.load == nil {
		return nil, errors.New("no loader configured")
	}
	svc, err := s.load(ctx, model)
	if err != nil {
		return nil, err
	}
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	logger.Debug("embedding: loaded %s (%d dims)", svc.ModelName(), svc.Dimensions())
	return svc, nil
}
