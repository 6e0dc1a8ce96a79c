// Package watcher reports template changes on disk, grouped into batches.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/validation"
)

// FileWatcher watches directories and hands each batch of changes to its
// handlers.
type FileWatcher struct {
	fsw      *fsnotify.Watcher
	batches  *batcher
	logger   logging.Logger
	mu       sync.RWMutex
	filters  []FileFilter
	handlers []ChangeHandler

	wg   sync.WaitGroup
	once sync.Once
}

// ChangeEvent is one file change. ModTime and Size are zero when the file
// is gone.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Gone reports whether the file no longer exists at its path.
func (e EventType) Gone() bool {
	return e == EventTypeDeleted || e == EventTypeRenamed
}

// ChangeHandler handles one batch.
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithLogger sets the logger for watch errors and handler failures.
func WithLogger(l logging.Logger) Option {
	return func(fw *FileWatcher) { fw.logger = l.WithComponent("watcher") }
}

// NewFileWatcher returns a watcher that batches changes arriving within
// delay of each other.
func NewFileWatcher(delay time.Duration, opts ...Option) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	fw := &FileWatcher{
		fsw:     fsw,
		batches: newBatcher(delay),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

// AddFilter adds a file filter. An event passes only if every filter
// accepts its path.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.filters = append(fw.filters, filter)
}

func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches a single directory.
func (fw *FileWatcher) AddPath(path string) error {
	cleanPath, err := validation.CleanPath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return fw.fsw.Add(cleanPath)
}

// AddRecursive watches root and every directory below it, skipping hidden,
// vendor and node_modules directories.
func (fw *FileWatcher) AddRecursive(root string) error {
	cleanRoot, err := validation.CleanPath(root)
	if err != nil {
		return fmt.Errorf("invalid root path: %w", err)
	}

	return filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			return nil
		case path != cleanRoot && ignoredDir(d.Name()):
			return filepath.SkipDir
		}
		return fw.fsw.Add(path)
	})
}

// Start runs the watcher until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for _, loop := range []func(context.Context){fw.batches.run, fw.dispatchLoop, fw.watchLoop} {
		fw.wg.Add(1)
		go func() {
			defer fw.wg.Done()
			loop(ctx)
		}()
	}
	return nil
}

// Stop closes the underlying watcher. Queued changes are dropped.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.once.Do(func() {
		fw.batches.stop()
		err = fw.fsw.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.fsw.Events:
			if !ok {
				return
			}
			fw.enqueue(ctx, event)
		case err, ok := <-fw.fsw.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (fw *FileWatcher) enqueue(ctx context.Context, event fsnotify.Event) {
	info, statErr := os.Stat(event.Name)

	// New directories are watched as they appear.
	if statErr == nil && info.IsDir() {
		if event.Op.Has(fsnotify.Create) && !ignoredDir(info.Name()) {
			if err := fw.AddRecursive(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "watching new directory", "path", event.Name)
			}
		}
		return
	}

	fw.mu.RLock()
	filters := fw.filters
	fw.mu.RUnlock()
	for _, accept := range filters {
		if !accept(event.Name) {
			return
		}
	}

	change := ChangeEvent{Type: eventType(event.Op), Path: event.Name}
	if statErr == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	select {
	case fw.batches.in <- change:
	default:
		fw.logger.Warn(ctx, nil, "dropping file event, queue full", "path", event.Name)
	}
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-fw.batches.out:
			fw.dispatch(ctx, batch)
		}
	}
}

func (fw *FileWatcher) dispatch(ctx context.Context, batch []ChangeEvent) {
	fw.mu.RLock()
	handlers := fw.handlers
	fw.mu.RUnlock()

	for _, handle := range handlers {
		if err := handle(ctx, batch); err != nil {
			fw.logger.Error(ctx, err, "file watcher handler failed", "events", len(batch))
		}
	}
}
