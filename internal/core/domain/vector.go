package domain

import "fmt"

// RecordMetadata is stored alongside every vector record.
type RecordMetadata struct {
	// Filename is the source document.
	Filename string `json:"filename"`

	// ChunkIndex is the chunk's position within the document.
	ChunkIndex int `json:"chunk_index"`
}

// VectorRecord is the persisted unit of a collection.
// Records are never mutated and are deleted only with their collection.
type VectorRecord struct {
	// ID is unique within the collection, see RecordID.
	ID string

	// Embedding is the chunk's vector.
	Embedding []float32

	// Content is the chunk text.
	Content string

	// Metadata identifies the chunk's origin.
	Metadata RecordMetadata
}

// VectorHit is a record returned by a nearest-neighbour query.
type VectorHit struct {
	// ID is the record id.
	ID string

	// Content is the chunk text.
	Content string

	// Metadata identifies the chunk's origin.
	Metadata RecordMetadata

	// Distance is the cosine distance to the query (lower is closer).
	Distance float64
}

// RecordID builds the composite record id for a chunk.
// docIndex is the collection offset plus the file's position in its batch.
func RecordID(docIndex, chunkIndex int) string {
	return fmt.Sprintf("doc_%d_chunk_%d", docIndex, chunkIndex)
}

// CollectionStats summarises a collection.
type CollectionStats struct {
	// Name is the collection name.
	Name string `json:"name"`

	// Count is the number of records.
	Count int `json:"count"`

	// Filenames lists indexed documents, sorted.
	Filenames []string `json:"filenames"`
}
