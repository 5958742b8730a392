package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// RetrievalService indexes documents into collections and searches them.
type RetrievalService interface {
	// IndexFiles reads, extracts, chunks, embeds and inserts the given files.
	// Files already present in the collection are skipped. Per-file failures
	// are reported in the returned report rather than as errors.
	IndexFiles(ctx context.Context, collection string, paths []string) (*domain.IndexReport, error)

	// IndexDocuments is IndexFiles for documents already held in memory.
	IndexDocuments(ctx context.Context, collection string, docs []domain.RawDocument) (*domain.IndexReport, error)

	// Search returns up to k passages relevant to query.
	// Storage and embedding failures degrade to an empty response with warnings.
	Search(ctx context.Context, collection, query string, k int) (*domain.SearchResponse, error)

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// DeleteCollection removes a collection and all its records.
	DeleteCollection(ctx context.Context, collection string) error

	// ResetCollection deletes a collection, if present, and recreates it empty.
	ResetCollection(ctx context.Context, collection string) error

	// CollectionStats returns the record count and indexed filenames.
	CollectionStats(ctx context.Context, collection string) (*domain.CollectionStats, error)
}
