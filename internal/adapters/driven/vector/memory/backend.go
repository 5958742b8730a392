// Package memory provides the ephemeral vector storage backend.
// Collections live in process memory and are lost on exit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure types implement the interfaces.
var (
	_ driven.VectorStorageBackend = (*Backend)(nil)
	_ driven.Collection           = (*Collection)(nil)
)

// Backend is an in-memory implementation of driven.VectorStorageBackend.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		collections: make(map[string]*Collection),
	}
}

// GetOrCreate returns the named collection, creating it if needed.
func (b *Backend) GetOrCreate(_ context.Context, name string) (driven.Collection, error) {
	if err := vector.ValidateName(name); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collections[name]
	if !ok {
		c = newCollection(name)
		b.collections[name] = c
	}
	return c, nil
}

// Delete removes a collection.
func (b *Backend) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[name]; !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	delete(b.collections, name)
	return nil
}

// List returns collection names, sorted.
func (b *Backend) List(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.collections))
	for name := range b.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Mode returns domain.StorageEphemeral.
func (b *Backend) Mode() domain.StorageMode {
	return domain.StorageEphemeral
}

// Close drops every collection.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections = make(map[string]*Collection)
	return nil
}

// Collection is an in-memory record set.
type Collection struct {
	name string

	mu      sync.RWMutex
	records []domain.VectorRecord
	ids     map[string]struct{}
	dims    int
}

func newCollection(name string) *Collection {
	return &Collection{
		name: name,
		ids:  make(map[string]struct{}),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Count returns the number of records.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

// Insert appends records, all or nothing.
func (c *Collection) Insert(_ context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dims, err := vector.ValidateRecords(records, c.dims)
	if err != nil {
		return err
	}
	for _, r := range records {
		if _, exists := c.ids[r.ID]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, r.ID)
		}
	}

	for _, r := range records {
		emb := make([]float32, len(r.Embedding))
		copy(emb, r.Embedding)
		r.Embedding = emb
		c.records = append(c.records, r)
		c.ids[r.ID] = struct{}{}
	}
	c.dims = dims
	return nil
}

// Query returns up to k records nearest to embedding.
func (c *Collection) Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorHit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) == 0 || k <= 0 {
		return nil, nil
	}
	if len(embedding) != c.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrInvalidInput, len(embedding), c.name, c.dims)
	}

	cands := make([]vector.Candidate, len(c.records))
	for i, r := range c.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands[i] = vector.Candidate{Record: r, Distance: vector.CosineDistance(embedding, r.Embedding)}
	}
	return vector.Nearest(cands, k), nil
}

// Filenames returns distinct filenames, sorted.
func (c *Collection) Filenames(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make(map[string]struct{})
	for _, r := range c.records {
		names[r.Metadata.Filename] = struct{}{}
	}
	return vector.SortedFilenames(names), nil
}
