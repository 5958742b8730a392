package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/hashing"
)

// countingService records how many texts reach the model.
type countingService struct {
	*hashing.EmbeddingService
	embedded int
	err      error
}

func (c *countingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.embedded++
	return c.EmbeddingService.Embed(ctx, text)
}

func (c *countingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.embedded += len(texts)
	return c.EmbeddingService.EmbedBatch(ctx, texts)
}

func TestWrap_Disabled(t *testing.T) {
	inner := &countingService{EmbeddingService: hashing.New(8)}
	assert.Same(t, inner, Wrap(inner, 0, time.Minute))
	assert.Nil(t, Wrap(nil, 10, time.Minute))
}

func TestEmbed_CachesByText(t *testing.T) {
	inner := &countingService{EmbeddingService: hashing.New(8)}
	svc := Wrap(inner, 10, time.Minute).(*EmbeddingService)
	ctx := context.Background()

	a, err := svc.Embed(ctx, "query")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "query")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, inner.embedded)
	assert.Equal(t, 1, svc.Len())

	// Mutating a returned vector must not poison the cache.
	b[0] = 42
	c, _ := svc.Embed(ctx, "query")
	assert.Equal(t, a, c)
}

func TestEmbedBatch_OnlyMissesReachModel(t *testing.T) {
	inner := &countingService{EmbeddingService: hashing.New(8)}
	svc := Wrap(inner, 10, time.Minute)
	ctx := context.Background()

	_, err := svc.Embed(ctx, "b")
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 3, inner.embedded)

	for i, text := range []string{"a", "b", "c"} {
		want, _ := inner.EmbeddingService.Embed(ctx, text)
		assert.Equal(t, want, vecs[i])
	}

	_, err = svc.EmbedBatch(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.embedded)
}

func TestEmbed_ErrorsNotCached(t *testing.T) {
	inner := &countingService{EmbeddingService: hashing.New(8), err: errors.New("down")}
	svc := Wrap(inner, 10, time.Minute).(*EmbeddingService)

	_, err := svc.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, svc.Len())
}

func TestPassThroughMethods(t *testing.T) {
	svc := Wrap(&countingService{EmbeddingService: hashing.New(8)}, 4, 0)
	assert.Equal(t, 8, svc.Dimensions())
	assert.Equal(t, "hashing-8", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
