package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func record(id, file string, idx int, emb ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:        id,
		Embedding: emb,
		Content:   "content of " + id,
		Metadata:  domain.RecordMetadata{Filename: file, ChunkIndex: idx},
	}
}

func TestBackend_GetOrCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	c1, err := b.GetOrCreate(ctx, "kb")
	require.NoError(t, err)
	require.NoError(t, c1.Insert(ctx, []domain.VectorRecord{record("doc_0_chunk_0", "a.txt", 0, 1, 0)}))

	c2, err := b.GetOrCreate(ctx, "kb")
	require.NoError(t, err)
	n, _ := c2.Count(ctx)
	assert.Equal(t, 1, n)
	assert.Equal(t, "kb", c2.Name())

	_, err = b.GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBackend_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()
	_, _ = b.GetOrCreate(ctx, "zeta")
	_, _ = b.GetOrCreate(ctx, "alpha")

	names, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.NoError(t, b.Delete(ctx, "zeta"))
	assert.ErrorIs(t, b.Delete(ctx, "zeta"), domain.ErrNotFound)

	names, _ = b.List(ctx)
	assert.Equal(t, []string{"alpha"}, names)
	assert.Equal(t, domain.StorageEphemeral, b.Mode())

	require.NoError(t, b.Close())
	names, _ = b.List(ctx)
	assert.Empty(t, names)
}

func TestCollection_InsertDuplicateIsAtomic(t *testing.T) {
	ctx := context.Background()
	c, _ := NewBackend().GetOrCreate(ctx, "kb")

	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{record("a", "f", 0, 1, 0)}))

	err := c.Insert(ctx, []domain.VectorRecord{
		record("b", "f", 1, 0, 1),
		record("a", "f", 2, 1, 1),
	})
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	n, _ := c.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestCollection_InsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	c, _ := NewBackend().GetOrCreate(ctx, "kb")
	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{record("a", "f", 0, 1, 0)}))

	err := c.Insert(ctx, []domain.VectorRecord{record("b", "f", 1, 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.Query(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_Query(t *testing.T) {
	ctx := context.Background()
	c, _ := NewBackend().GetOrCreate(ctx, "kb")
	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{
		record("x", "a.txt", 0, 1, 0),
		record("y", "b.txt", 0, 0, 1),
		record("xy", "a.txt", 1, 1, 1),
	}))

	hits, err := c.Query(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.Equal(t, "xy", hits[1].ID)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	assert.Equal(t, domain.RecordMetadata{Filename: "a.txt", ChunkIndex: 0}, hits[0].Metadata)

	hits, err = c.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestCollection_QueryEmpty(t *testing.T) {
	ctx := context.Background()
	c, _ := NewBackend().GetOrCreate(ctx, "kb")

	hits, err := c.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCollection_Filenames(t *testing.T) {
	ctx := context.Background()
	c, _ := NewBackend().GetOrCreate(ctx, "kb")
	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{
		record("1", "b.csv", 0, 1),
		record("2", "a.pdf", 0, 1),
		record("3", "b.csv", 1, 1),
	}))

	names, err := c.Filenames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.csv"}, names)
}

func TestCollection_InsertCopiesEmbedding(t *testing.T) {
	ctx := context.Background()
	c, _ := NewBackend().GetOrCreate(ctx, "kb")

	emb := []float32{1, 0}
	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{{ID: "a", Embedding: emb}}))
	emb[0], emb[1] = 0, 1

	hits, _ := c.Query(ctx, []float32{1, 0}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
}
