package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func passages(n int) []domain.SearchResult {
	out := make([]domain.SearchResult, n)
	for i := range out {
		out[i] = domain.SearchResult{
			Content:  fmt.Sprintf("passage %d", i+1),
			Distance: float64(i) / 10,
			Metadata: domain.RecordMetadata{Filename: fmt.Sprintf("f%d.txt", i+1)},
		}
	}
	return out
}

func TestReranker_PassThroughWhenKCoversCandidates(t *testing.T) {
	encoder := &passageEncoder{}
	r := NewReranker(encoder)
	cands := passages(4)

	for _, k := range []int{4, 5, 100} {
		got, reranked, w := r.Rerank(context.Background(), "q", cands, k)

		assert.Equal(t, cands, got)
		assert.False(t, reranked)
		assert.Nil(t, w)
	}
	assert.Zero(t, encoder.calls)
	assert.Zero(t, encoder.pings)
}

func TestReranker_ZeroK(t *testing.T) {
	r := NewReranker(&passageEncoder{})

	got, reranked, _ := r.Rerank(context.Background(), "q", passages(3), 0)

	assert.Empty(t, got)
	assert.False(t, reranked)
}

func TestReranker_ReordersByScore(t *testing.T) {
	r := NewReranker(&passageEncoder{})

	got, reranked, w := r.Rerank(context.Background(), "q", passages(6), 3)

	require.Nil(t, w)
	assert.True(t, reranked)
	require.Len(t, got, 3)
	assert.Equal(t, "passage 6", got[0].Content)
	assert.Equal(t, "passage 5", got[1].Content)
	assert.Equal(t, "passage 4", got[2].Content)
	require.NotNil(t, got[0].RelevanceScore)
	assert.InDelta(t, 6.0, *got[0].RelevanceScore, 1e-9)
}

func TestReranker_StableOnEqualScores(t *testing.T) {
	cands := []domain.SearchResult{
		{Content: "no number a"},
		{Content: "no number b"},
		{Content: "no number c"},
	}
	r := NewReranker(&passageEncoder{})

	got, _, _ := r.Rerank(context.Background(), "q", cands, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "no number a", got[0].Content)
	assert.Equal(t, "no number b", got[1].Content)
}

func TestReranker_Unavailable(t *testing.T) {
	encoder := &passageEncoder{pingErr: errors.New("no model")}
	r := NewReranker(encoder)
	cands := passages(5)

	got, reranked, w := r.Rerank(context.Background(), "q", cands, 2)
	_, _, _ = r.Rerank(context.Background(), "q", cands, 2)

	assert.Equal(t, cands[:2], got)
	assert.False(t, reranked)
	assert.Nil(t, w)
	assert.Equal(t, 1, encoder.pings)
	assert.Zero(t, encoder.calls)
}

func TestReranker_ScoreFailureWarns(t *testing.T) {
	tests := []struct {
		name    string
		encoder *passageEncoder
	}{
		{name: "error", encoder: &passageEncoder{scoreErr: errors.New("boom")}},
		{name: "length mismatch", encoder: &passageEncoder{short: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReranker(tt.encoder)
			cands := passages(5)

			got, reranked, w := r.Rerank(context.Background(), "q", cands, 2)

			assert.Equal(t, cands[:2], got)
			assert.False(t, reranked)
			require.NotNil(t, w)
			assert.Equal(t, domain.StageRerank, w.Stage)
		})
	}
}

func TestReranker_Nil(t *testing.T) {
	var r *Reranker

	assert.False(t, r.Available(context.Background()))
	assert.Empty(t, r.ModelName())

	got, reranked, _ := r.Rerank(context.Background(), "q", passages(3), 1)
	assert.Len(t, got, 1)
	assert.False(t, reranked)
}

func TestReranker_ModelName(t *testing.T) {
	assert.Equal(t, "passage-encoder", NewReranker(&passageEncoder{}).ModelName())
	assert.Empty(t, NewReranker(nil).ModelName())
}
