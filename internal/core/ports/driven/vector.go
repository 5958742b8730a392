package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// VectorStorageBackend owns named collections of vector records.
// The variant (ephemeral, persistent, postgres) is chosen once at
// construction; callers never branch on it.
type VectorStorageBackend interface {
	// GetOrCreate returns the named collection, creating it empty if needed.
	GetOrCreate(ctx context.Context, name string) (Collection, error)

	// Delete removes a collection and all of its records.
	// Returns domain.ErrNotFound if the collection does not exist.
	Delete(ctx context.Context, name string) error

	// List returns all collection names, sorted.
	List(ctx context.Context) ([]string, error)

	// Mode reports which variant this backend is.
	Mode() domain.StorageMode

	// Close releases resources.
	Close() error
}

// Collection is a handle to one named set of vector records.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Insert appends records. Ids must be unique within the collection;
	// a duplicate id fails the whole insert with domain.ErrDuplicateID.
	Insert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns up to k records nearest to embedding, closest first.
	// Order among equal distances is unspecified.
	Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorHit, error)

	// Filenames returns the distinct filenames present in record metadata.
	Filenames(ctx context.Context) ([]string, error)
}
