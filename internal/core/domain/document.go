package domain

// Document is a source file during ingestion.
// It exists only in memory and is discarded once its chunks are produced.
type Document struct {
	// ID is a unique identifier (UUID) for log correlation.
	ID string

	// Filename identifies the document within a collection.
	Filename string

	// Type is the file format.
	Type FileType

	// RawText is the extractor output.
	RawText string

	// Content is the cleaned text that gets chunked.
	Content string

	// Metadata contains extractor-specific key-value pairs.
	Metadata map[string]any
}

// Chunk is a token-bounded span of a Document's text.
// Chunks are immutable once created.
type Chunk struct {
	// Index is the 0-based position within the document.
	Index int

	// Filename is the owning document.
	Filename string

	// Content is the chunk text.
	Content string

	// TokenCount is the number of tokens in Content.
	TokenCount int
}
