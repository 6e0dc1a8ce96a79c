// Package registry tracks the components a template set can call: compiled
// templates and Go functions alike. It resolves calls at render time and
// answers the validator's component checks.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/htmlc/internal/render"
)

// ComponentRegistry manages all registered components
type ComponentRegistry struct {
	components map[string]*ComponentInfo
	mutex      sync.RWMutex
	watchers   []chan ComponentEvent
}

// ComponentInfo holds a component and what is known about its source.
type ComponentInfo struct {
	Name      string
	Component render.Component
	// FilePath is empty for components implemented in Go.
	FilePath string
	LastMod  time.Time
	Hash     string
	// Dependencies are the component names the template calls.
	Dependencies []string
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type      EventType
	Component *ComponentInfo
	Timestamp time.Time
}

// EventType represents the type of component event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// watcherBuffer is the capacity of each Watch channel. Events to a full
// channel are dropped.
const watcherBuffer = 100

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]*ComponentInfo),
		watchers:   make([]chan ComponentEvent, 0),
	}
}

// Register adds or replaces a component and notifies watchers.
func (r *ComponentRegistry) Register(component *ComponentInfo) EventType {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.components[component.Name]; exists {
		eventType = EventTypeUpdated
	}
	r.components[component.Name] = component

	r.notify(ComponentEvent{Type: eventType, Component: component, Timestamp: time.Now()})
	return eventType
}

func (r *ComponentRegistry) notify(event ComponentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
		}
	}
}

// Get retrieves a component by name
func (r *ComponentRegistry) Get(name string) (*ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	component, exists := r.components[name]
	return component, exists
}

// Component implements render.Resolver.
func (r *ComponentRegistry) Component(name string) (render.Component, bool) {
	info, ok := r.Get(name)
	if !ok || info.Component == nil {
		return nil, false
	}
	return info.Component, true
}

// Has reports whether name is registered.
func (r *ComponentRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *ComponentRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns all registered components sorted by name.
func (r *ComponentRegistry) GetAll() []*ComponentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*ComponentInfo, 0, len(r.components))
	for _, component := range r.components {
		result = append(result, component)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Remove removes a component from the registry
func (r *ComponentRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[name]
	if !exists {
		return
	}
	delete(r.components, name)

	r.notify(ComponentEvent{Type: EventTypeRemoved, Component: component, Timestamp: time.Now()})
}

// RemoveByPath removes every component loaded from path and returns their
// names.
func (r *ComponentRegistry) RemoveByPath(path string) []string {
	var removed []string
	for _, info := range r.GetAll() {
		if info.FilePath != "" && info.FilePath == path {
			r.Remove(info.Name)
			removed = append(removed, info.Name)
		}
	}
	return removed
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, watcherBuffer)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}
