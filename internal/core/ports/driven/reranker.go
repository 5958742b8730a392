package driven

import "context"

// CrossEncoder scores query-document pairs for relevance.
// This is an optional service - when nil, results keep distance order.
type CrossEncoder interface {
	// Score returns one relevance score per document, in input order.
	// Higher is more relevant.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)

	// ModelName returns the cross-encoder model identifier.
	ModelName() string

	// Ping validates the model is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
