// Package schema holds the table of known elements and attributes that
// templates are validated against.
//
// A Registry accepts registrations until the first validation pass calls
// Freeze. After that it is immutable and read without locking.
package schema

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/conneroisu/htmlc/internal/errors"
)

// Entry describes one element.
type Entry struct {
	Name string `yaml:"name"`
	// Void elements never have children or a closing tag.
	Void bool `yaml:"void"`
	// Attributes allowed in addition to the global ones.
	Attributes []string `yaml:"attributes"`
	// AllowCustomAttributes accepts any attribute name on this element.
	AllowCustomAttributes bool `yaml:"allow_custom_attributes"`
	// RawText elements (script, style) emit their literal template text
	// verbatim. Dynamic values inside them are still escaped.
	RawText bool `yaml:"raw_text"`
}

// Registry maps element names to their schema entries.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool

	elements       map[string]*element
	globals        map[string]bool
	prefixes       []string
	frameworks     map[string]bool
	customElements bool
}

type element struct {
	entry Entry
	attrs map[string]bool
}

// New returns an empty registry: no elements, no global attributes. Only the
// data-* and aria-* prefixes are accepted.
func New() *Registry {
	return &Registry{
		elements:   make(map[string]*element),
		globals:    make(map[string]bool),
		prefixes:   []string{"data-", "aria-"},
		frameworks: make(map[string]bool),
	}
}

// NewHTML returns a registry preloaded with the HTML living-standard elements
// and global attributes.
func NewHTML() *Registry {
	r := New()
	for _, e := range htmlElements {
		r.elements[e.Name] = newElement(e)
	}
	for _, a := range globalAttributes {
		r.globals[a] = true
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, built from NewHTML on first
// use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewHTML()
	})
	return defaultRegistry
}

func newElement(e Entry) *element {
	el := &element{entry: e, attrs: make(map[string]bool, len(e.Attributes))}
	for _, a := range e.Attributes {
		el.attrs[strings.ToLower(a)] = true
	}
	return el
}

// Register adds an element. It fails when the name is already present or the
// registry is frozen.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return errors.NewSchemaError(errors.ErrCodeInvalidEntry, "element name must not be empty")
	}
	if e.Name[0] >= 'A' && e.Name[0] <= 'Z' {
		return errors.NewSchemaError(errors.ErrCodeInvalidEntry,
			"element "+e.Name+" must start with a lower-case letter").
			WithHint("upper-case names are component calls")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return errors.ErrSchemaFrozen("element " + e.Name)
	}
	if _, exists := r.elements[e.Name]; exists {
		return errors.ErrDuplicateRegistration(e.Name)
	}
	e.Attributes = append([]string(nil), e.Attributes...)
	r.elements[e.Name] = newElement(e)
	return nil
}

// RegisterGlobalAttributes allows the names on every element.
func (r *Registry) RegisterGlobalAttributes(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return errors.ErrSchemaFrozen("global attributes")
	}
	for _, n := range names {
		r.globals[strings.ToLower(n)] = true
	}
	return nil
}

// Framework attribute prefixes.
var frameworkPrefixes = map[string][]string{
	"htmx":   {"hx-"},
	"alpine": {"x-", ":", "@"},
}

// Frameworks lists the names accepted by EnableFramework.
func Frameworks() []string {
	names := make([]string, 0, len(frameworkPrefixes))
	for n := range frameworkPrefixes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EnableFramework accepts the attribute prefixes of a frontend framework on
// every element: "htmx" (hx-*) or "alpine" (x-*, :*, @*).
func (r *Registry) EnableFramework(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	prefixes, ok := frameworkPrefixes[name]
	if !ok {
		return errors.NewSchemaError(errors.ErrCodeInvalidEntry, "unknown framework "+name).
			WithContext("suggestions", errors.Suggest(name, Frameworks(), errors.DefaultSuggestionLimit))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return errors.ErrSchemaFrozen("framework " + name)
	}
	if r.frameworks[name] {
		return nil
	}
	r.frameworks[name] = true
	r.prefixes = append(r.prefixes, prefixes...)
	return nil
}

// AllowCustomElements accepts any element whose name contains a hyphen, with
// any attributes.
func (r *Registry) AllowCustomElements() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return errors.ErrSchemaFrozen("custom elements")
	}
	r.customElements = true
	return nil
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// read runs fn with the tables stable: under the lock while registration is
// still open, lock-free once frozen.
func (r *Registry) read(fn func()) {
	if r.frozen.Load() {
		fn()
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Lookup returns the entry for name. Hyphenated names resolve to a permissive
// entry when custom elements are allowed.
func (r *Registry) Lookup(name string) (Entry, bool) {
	var (
		entry Entry
		ok    bool
	)
	r.read(func() {
		if el, exists := r.elements[name]; exists {
			entry, ok = el.entry, true
			return
		}
		if r.customElements && strings.Contains(name, "-") {
			entry, ok = Entry{Name: name, AllowCustomAttributes: true}, true
		}
	})
	return entry, ok
}

// AttributeAllowed reports whether attr may appear on element.
func (r *Registry) AttributeAllowed(elementName, attr string) bool {
	attr = strings.ToLower(attr)
	allowed := false
	r.read(func() {
		if r.globals[attr] || isEventHandler(attr) {
			allowed = true
			return
		}
		for _, p := range r.prefixes {
			if strings.HasPrefix(attr, p) && len(attr) > len(p) {
				allowed = true
				return
			}
		}
		if el, ok := r.elements[elementName]; ok {
			allowed = el.entry.AllowCustomAttributes || el.attrs[attr]
			return
		}
		allowed = r.customElements && strings.Contains(elementName, "-")
	})
	return allowed
}

// isEventHandler matches on* handler attributes such as onclick.
func isEventHandler(attr string) bool {
	if len(attr) < 3 || !strings.HasPrefix(attr, "on") {
		return false
	}
	for i := 2; i < len(attr); i++ {
		if attr[i] < 'a' || attr[i] > 'z' {
			return false
		}
	}
	return true
}

// Elements returns every registered element name, sorted.
func (r *Registry) Elements() []string {
	var names []string
	r.read(func() {
		names = make([]string, 0, len(r.elements))
		for n := range r.elements {
			names = append(names, n)
		}
	})
	sort.Strings(names)
	return names
}

// Attributes returns the named attributes allowed on element, global ones
// included, sorted. Prefix rules are not expanded.
func (r *Registry) Attributes(elementName string) []string {
	seen := make(map[string]bool)
	r.read(func() {
		for a := range r.globals {
			seen[a] = true
		}
		if el, ok := r.elements[elementName]; ok {
			for a := range el.attrs {
				seen[a] = true
			}
		}
	})
	names := make([]string, 0, len(seen))
	for a := range seen {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// Prefixes returns the attribute prefixes accepted on every element.
func (r *Registry) Prefixes() []string {
	var out []string
	r.read(func() {
		out = append(out, r.prefixes...)
	})
	return out
}
