package domain

// RawDocument holds the bytes of one source file before extraction.
type RawDocument struct {
	// Filename identifies the document within a collection.
	Filename string

	// Path is where the bytes were read from, if they came from disk.
	Path string

	// Type is the declared or inferred file format.
	Type FileType

	// Content is the raw bytes.
	Content []byte
}

// ChangeType represents the type of file change seen by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is a change event for a file under a watched directory.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the absolute path of the affected file.
	Path string
}
