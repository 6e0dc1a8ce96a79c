package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/scanner"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
		gone      bool
	}{
		{EventTypeCreated, "created", false},
		{EventTypeModified, "modified", false},
		{EventTypeDeleted, "deleted", true},
		{EventTypeRenamed, "renamed", true},
		{EventType(99), "unknown", false},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
			assert.Equal(t, tc.gone, tc.eventType.Gone())
		})
	}
}

func TestEventTypeFromOp(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventType(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventType(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Chmod))
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create|fsnotify.Write))
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(10 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddPath(t.TempDir()))
	assert.Error(t, watcher.AddPath("../outside"))
	assert.Error(t, watcher.AddPath(filepath.Join(t.TempDir(), "missing")))
}

func TestFileWatcherAddRecursive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views", "partials"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "x"), 0o755))

	watcher, err := NewFileWatcher(10 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(root))
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "views"),
		filepath.Join(root, "views", "partials"),
	}, watcher.fsw.WatchList())
}

func TestBatcher(t *testing.T) {
	b := newBatcher(20 * time.Millisecond)

	b.add(ChangeEvent{Type: EventTypeModified, Path: "b.htt"})
	b.add(ChangeEvent{Type: EventTypeModified, Path: "a.htn"})
	b.add(ChangeEvent{Type: EventTypeDeleted, Path: "b.htt"})

	select {
	case batch := <-b.out:
		require.Len(t, batch, 2)
		assert.Equal(t, "a.htn", batch[0].Path)
		assert.Equal(t, "b.htt", batch[1].Path)
		assert.Equal(t, EventTypeDeleted, batch[1].Type, "last event per path wins")
	case <-time.After(time.Second):
		t.Fatal("batch was not released")
	}

	b.release()
	assert.Empty(t, b.out, "empty batch is not sent")
}

func TestCoalesce(t *testing.T) {
	ev := func(typ EventType, path string) ChangeEvent { return ChangeEvent{Type: typ, Path: path} }

	tests := []struct {
		name   string
		events []ChangeEvent
		want   []ChangeEvent
	}{
		{
			name:   "created then written stays created",
			events: []ChangeEvent{ev(EventTypeCreated, "a.htt"), ev(EventTypeModified, "a.htt")},
			want:   []ChangeEvent{ev(EventTypeCreated, "a.htt")},
		},
		{
			name:   "created then deleted vanishes",
			events: []ChangeEvent{ev(EventTypeCreated, "tmp.htt"), ev(EventTypeModified, "tmp.htt"), ev(EventTypeRenamed, "tmp.htt")},
			want:   []ChangeEvent{},
		},
		{
			name:   "replaced on save is modified",
			events: []ChangeEvent{ev(EventTypeRenamed, "a.htt"), ev(EventTypeCreated, "a.htt")},
			want:   []ChangeEvent{ev(EventTypeModified, "a.htt")},
		},
		{
			name:   "sorted by path",
			events: []ChangeEvent{ev(EventTypeModified, "z.htt"), ev(EventTypeDeleted, "b.htn"), ev(EventTypeModified, "a.htt")},
			want:   []ChangeEvent{ev(EventTypeModified, "a.htt"), ev(EventTypeDeleted, "b.htn"), ev(EventTypeModified, "z.htt")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coalesce(tt.events))
		})
	}
}

func TestFilters(t *testing.T) {
	s := scanner.New(config.Defaults().Templates)
	filter := TemplateFilter(s)

	for path, ok := range map[string]bool{
		"views/page.htt":      true,
		"views/Card.htn":      true,
		"views/page_test.htt": false,
		"main.go":             false,
		"page.htt.bak":        false,
	} {
		assert.Equal(t, ok, filter(path), path)
	}

	assert.True(t, NoVendorFilter("views/page.htt"))
	assert.False(t, NoVendorFilter("vendor/lib/page.htt"))
	assert.False(t, NoVendorFilter("a/vendor/page.htt"))
	assert.True(t, NoVendorFilter("vendored.htt"))

	assert.True(t, NoGitFilter("views/page.htt"))
	assert.False(t, NoGitFilter(".git/page.htt"))
	assert.False(t, NoGitFilter("a/.git/hooks/x.htt"))
}

func TestFileWatcherDeliversTemplateChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "views")
	require.NoError(t, os.Mkdir(sub, 0o755))

	watcher, err := NewFileWatcher(30 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(TemplateFilter(scanner.New(config.Defaults().Templates)))

	batches := make(chan []ChangeEvent, 10)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		batches <- events
		return nil
	})

	require.NoError(t, watcher.AddRecursive(root))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(sub, "ignored.go"), []byte("package x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "page.htt"), []byte("<p></p>"), 0o644))

	select {
	case events := <-batches:
		require.Len(t, events, 1)
		assert.Equal(t, filepath.Join(sub, "page.htt"), events[0].Path)
		assert.False(t, events[0].Type.Gone())
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestFileWatcherHandlerErrorsDoNotStopDispatch(t *testing.T) {
	watcher, err := NewFileWatcher(time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	var mu sync.Mutex
	var calls []string
	watcher.AddHandler(func(context.Context, []ChangeEvent) error {
		mu.Lock()
		calls = append(calls, "first")
		mu.Unlock()
		return errors.New("boom")
	})
	watcher.AddHandler(func(context.Context, []ChangeEvent) error {
		mu.Lock()
		calls = append(calls, "second")
		mu.Unlock()
		return nil
	})

	watcher.dispatch(context.Background(), []ChangeEvent{{Path: "a.htt"}})
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestFileWatcherStopIsIdempotent(t *testing.T) {
	watcher, err := NewFileWatcher(10 * time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(ctx))
	cancel()

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
	watcher.wg.Wait()
}
