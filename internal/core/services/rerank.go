package services

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Reranker reorders distance-ranked candidates with a cross-encoder.
//
// With k at or above the candidate count the candidates are returned
// unchanged. A missing encoder, or one that fails its first ping, leaves
// distance order in place.
type Reranker struct {
	encoder driven.CrossEncoder

	once      sync.Once
	available bool
}

// NewReranker creates a reranker. encoder may be nil.
func NewReranker(encoder driven.CrossEncoder) *Reranker {
	return &Reranker{encoder: encoder}
}

// Available pings the encoder once and reports whether it can score.
func (r *Reranker) Available(ctx context.Context) bool {
	if r == nil || r.encoder == nil {
		return false
	}
	r.once.Do(func() {
		if err := r.encoder.Ping(ctx); err != nil {
			logger.Debug("rerank: %s unavailable, keeping distance order: %v", r.encoder.ModelName(), err)
			return
		}
		r.available = true
		logger.Debug("rerank: using %s", r.encoder.ModelName())
	})
	return r.available
}

// ModelName returns the encoder's model, or "" without one.
func (r *Reranker) ModelName() string {
	if r == nil || r.encoder == nil {
		return ""
	}
	return r.encoder.ModelName()
}

// Rerank returns the best k candidates. reranked reports whether scores
// were applied; a non-nil warning reports a scoring failure that fell
// back to distance order.
func (r *Reranker) Rerank(
	ctx context.Context,
	query string,
	candidates []domain.SearchResult,
	k int,
) (results []domain.SearchResult, reranked bool, warning *domain.Warning) {
	if k >= len(candidates) {
		return candidates, false, nil
	}
	if k <= 0 {
		return []domain.SearchResult{}, false, nil
	}
	if !r.Available(ctx) {
		return candidates[:k], false, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	scores, err := r.encoder.Score(ctx, query, docs)
	if err == nil && len(scores) != len(candidates) {
		err = domain.ErrRerankerUnavailable
	}
	if err != nil {
		logger.Warn("rerank: scoring failed, keeping distance order: %v", err)
		w := domain.NewWarning("", domain.StageRerank, "reranking failed, results use distance order: %v", err)
		return candidates[:k], false, &w
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	out := make([]domain.SearchResult, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		score := scores[idx]
		out[i] = candidates[idx]
		out[i].RelevanceScore = &score
	}
	return out, true, nil
}
