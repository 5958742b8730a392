package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultDebounce is how long events for a path are coalesced.
const DefaultDebounce = 300 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher is closed")

// Watcher reports changes to supported files under a root directory.
type Watcher struct {
	root     string
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window. Zero emits events immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for root. Nothing is watched until Watch.
func NewWatcher(root string, opts ...Option) *Watcher {
	w := &Watcher{root: root, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Watch streams changes until ctx is cancelled or Close is called.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.watcher != nil {
		return nil, fmt.Errorf("already watching %s", w.root)
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(fsw, w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	out := make(chan domain.FileChange)
	go w.loop(ctx, fsw, out)
	return out, nil
}

// Close stops watching. The change channel is closed shortly after.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)

	pending := make(map[string]domain.FileChange)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	flush := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			select {
			case out <- pending[p]:
			case <-ctx.Done():
				return false
			}
			delete(pending, p)
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			change := w.handleFsEvent(fsw, event)
			if change == nil {
				continue
			}
			logger.Debug("watch: %s %s", change.Type, change.Path)
			prev, had := pending[change.Path]
			pending[change.Path] = merge(prev, *change, had)

			if w.debounce == 0 {
				if !flush() {
					return
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if !flush() {
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// merge combines a pending change with a newer one for the same path.
// A file created and then written within the window is still new.
func merge(prev, next domain.FileChange, had bool) domain.FileChange {
	if had && prev.Type == domain.ChangeCreated && next.Type == domain.ChangeUpdated {
		return prev
	}
	return next
}

// handleFsEvent maps an fsnotify event to a change, or nil if the event
// is not about a supported, visible file. New directories are watched.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, event fsnotify.Event) *domain.FileChange {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = filepath.Base(event.Name)
	}
	if isHidden(rel) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if fsw != nil {
				if err := addTree(fsw, event.Name); err != nil {
					logger.Warn("watch: %v", err)
				}
			}
			return nil
		}
		if !IsSupported(event.Name) {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeCreated, Path: event.Name}

	case event.Has(fsnotify.Write):
		if !IsSupported(event.Name) {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeUpdated, Path: event.Name}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !IsSupported(event.Name) {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}

	default:
		return nil
	}
}

// addTree watches dir and every visible directory beneath it.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
