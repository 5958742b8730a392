// Package sqlite provides the persistent vector storage backend.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. All collections share one database file, vectors.db, in
// the configured data directory.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Embeddings are stored as little-endian float32
// blobs and searched by brute-force cosine distance.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
