// Package domain defines the core business entities for docrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Bytes of one source file awaiting extraction
//   - Document: A file's extracted and cleaned text during ingestion
//   - Chunk: A token-bounded span of a Document
//   - VectorRecord: The persisted unit of a collection
//   - SearchResult: A ranked passage returned to a consumer
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
