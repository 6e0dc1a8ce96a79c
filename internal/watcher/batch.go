package watcher

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// batcher collects events and releases them as one batch once no new event
// has arrived for delay.
type batcher struct {
	delay  time.Duration
	in     chan ChangeEvent
	out    chan []ChangeEvent
	mu     sync.Mutex
	timer  *time.Timer
	queued []ChangeEvent
}

func newBatcher(delay time.Duration) *batcher {
	return &batcher{
		delay: delay,
		in:    make(chan ChangeEvent, 100),
		out:   make(chan []ChangeEvent, 10),
	}
}

func (b *batcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.stop()
			return
		case event := <-b.in:
			b.add(event)
		}
	}
}

func (b *batcher) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *batcher) add(event ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queued = append(b.queued, event)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.release)
}

func (b *batcher) release() {
	b.mu.Lock()
	batch := Coalesce(b.queued)
	b.queued = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	select {
	case b.out <- batch:
	default:
	}
}

// Coalesce folds the events for each path into one, in path order. A file
// created and removed within the batch disappears from it; a file removed
// and created again is reported as modified.
func Coalesce(events []ChangeEvent) []ChangeEvent {
	byPath := make(map[string]ChangeEvent, len(events))
	for _, event := range events {
		prev, seen := byPath[event.Path]
		if !seen {
			byPath[event.Path] = event
			continue
		}
		switch {
		case prev.Type == EventTypeCreated && event.Type.Gone():
			delete(byPath, event.Path)
			continue
		case prev.Type == EventTypeCreated:
			event.Type = EventTypeCreated
		case prev.Type.Gone() && !event.Type.Gone():
			event.Type = EventTypeModified
		}
		byPath[event.Path] = event
	}

	batch := make([]ChangeEvent, 0, len(byPath))
	for _, event := range byPath {
		batch = append(batch, event)
	}
	slices.SortFunc(batch, func(a, b ChangeEvent) int { return strings.Compare(a.Path, b.Path) })
	return batch
}
