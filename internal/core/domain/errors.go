package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates a file exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmbeddingUnavailable indicates neither the configured nor the
	// fallback embedding model could be loaded.
	// Retrieval cannot proceed without an embedding space.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRerankerUnavailable indicates the cross-encoder could not be reached.
	// Search falls back to distance ranking.
	ErrRerankerUnavailable = errors.New("reranker unavailable")

	// ErrTokenizerUnavailable indicates the tokenizer vocabulary failed to load.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrVectorIndexUnavailable indicates the vector storage backend failed.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDuplicateID indicates a record id already exists in a collection.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrConfigNotFound indicates a configuration value or file is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)
