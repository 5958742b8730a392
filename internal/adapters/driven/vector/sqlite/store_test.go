package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func record(id, file string, idx int, emb ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:        id,
		Embedding: emb,
		Content:   "content of " + id,
		Metadata:  domain.RecordMetadata{Filename: file, ChunkIndex: idx},
	}
}

func TestNewStore_CreatesFile(t *testing.T) {
	s, dir := newTestStore(t)
	assert.Equal(t, filepath.Join(dir, DBFile), s.Path())
	_, err := os.Stat(s.Path())
	assert.NoError(t, err)
	assert.Equal(t, domain.StoragePersistent, s.Mode())
}

func TestStore_MigrationsRecorded(t *testing.T) {
	s, _ := newTestStore(t)
	var version int
	require.NoError(t, s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, 1, version)

	// Running again is a no-op.
	require.NoError(t, s.migrate(migrations.FS))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, 1, version)
}

func TestStore_CollectionsLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.GetOrCreate(ctx, "zeta")
	require.NoError(t, err)
	_, err = s.GetOrCreate(ctx, "alpha")
	require.NoError(t, err)
	_, err = s.GetOrCreate(ctx, "alpha")
	require.NoError(t, err)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.NoError(t, s.Delete(ctx, "zeta"))
	assert.ErrorIs(t, s.Delete(ctx, "zeta"), domain.ErrNotFound)

	_, err = s.GetOrCreate(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_InsertQueryCount(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	c, err := s.GetOrCreate(ctx, "kb")
	require.NoError(t, err)

	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{
		record("doc_0_chunk_0", "a.txt", 0, 1, 0),
		record("doc_1_chunk_0", "b.txt", 0, 0, 1),
		record("doc_0_chunk_1", "a.txt", 1, 1, 1),
	}))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := c.Query(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc_0_chunk_0", hits[0].ID)
	assert.Equal(t, "content of doc_0_chunk_0", hits[0].Content)
	assert.Equal(t, domain.RecordMetadata{Filename: "a.txt", ChunkIndex: 0}, hits[0].Metadata)
	assert.Equal(t, "doc_0_chunk_1", hits[1].ID)

	names, err := c.Filenames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestCollection_DuplicateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	c, _ := s.GetOrCreate(ctx, "kb")

	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{record("a", "f", 0, 1, 0)}))
	err := c.Insert(ctx, []domain.VectorRecord{
		record("b", "f", 1, 0, 1),
		record("a", "f", 2, 1, 1),
	})
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	n, _ := c.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestCollection_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	c, _ := s.GetOrCreate(ctx, "kb")

	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{record("a", "f", 0, 1, 0)}))
	assert.ErrorIs(t, c.Insert(ctx, []domain.VectorRecord{record("b", "f", 0, 1, 0, 0)}), domain.ErrInvalidInput)

	_, err := c.Query(ctx, []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	c, _ := s.GetOrCreate(ctx, "kb")
	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{record("a", "f", 0, 1, 0)}))

	require.NoError(t, s.Delete(ctx, "kb"))

	c, _ = s.GetOrCreate(ctx, "kb")
	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStore(dir)
	require.NoError(t, err)
	c, _ := s.GetOrCreate(ctx, "kb")
	require.NoError(t, c.Insert(ctx, []domain.VectorRecord{record("a", "f.md", 0, 0.5, 0.25)}))
	require.NoError(t, s.Close())

	s, err = NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	c, _ = s.GetOrCreate(ctx, "kb")
	hits, err := c.Query(ctx, []float32{0.5, 0.25}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Empty(t, bytesToFloat32Slice(nil))
}
