package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_RanksOverlap(t *testing.T) {
	docs := []string{
		"Lunch menu for Friday",
		"The Digital Twin budget was approved in March",
		"Digital Twin Implementation: impact scores 2, 3",
	}

	scores, err := New().Score(context.Background(), "digital twin implementation", docs)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, 0.0, scores[0])
	assert.Greater(t, scores[1], 0.0)
	assert.Greater(t, scores[2], scores[1])
}

func TestScore_CaseAndPunctuationInsensitive(t *testing.T) {
	scores, err := New().Score(context.Background(), "REVENUE?", []string{"revenue, growth", "costs"})
	require.NoError(t, err)
	assert.Greater(t, scores[0], 0.0)
	assert.Equal(t, 0.0, scores[1])
}

func TestScore_EmptyInputs(t *testing.T) {
	s := New()
	ctx := context.Background()

	scores, err := s.Score(ctx, "", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)

	scores, err = s.Score(ctx, "query", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)

	scores, err = s.Score(ctx, "query", []string{"", "  "})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestScore_Deterministic(t *testing.T) {
	docs := []string{"alpha beta", "beta gamma", "alpha alpha gamma"}
	a, _ := New().Score(context.Background(), "alpha gamma", docs)
	b, _ := New().Score(context.Background(), "alpha gamma", docs)
	assert.Equal(t, a, b)
}

func TestScore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Score(ctx, "q", []string{"q"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScorer_Metadata(t *testing.T) {
	s := New()
	assert.Equal(t, ModelName, s.ModelName())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
