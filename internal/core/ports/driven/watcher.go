package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// FileWatcher reports changes to files under a directory.
type FileWatcher interface {
	// Watch streams file changes until ctx is cancelled.
	// The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close stops watching and releases resources.
	Close() error
}
