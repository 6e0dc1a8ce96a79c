// Package htmlc compiles HTML templates written in either of two grammars and
// renders them with contextual escaping.
//
// A template is parsed, checked against the element schema and compiled once.
// Rendering then runs a flat plan of pre-escaped literals and expression
// writes against an append-only buffer:
//
//	var page = htmlc.MustCompile(htmlc.SyntaxTag, "page.htt", `<p class="greeting">Hello, {name}!</p>`)
//
//	out, err := page.Render(map[string]any{"name": "<Ada>"})
//	// <p class="greeting">Hello, &lt;Ada&gt;!</p>
//
// Templates in one Set call each other by name, alongside components written
// in Go.
package htmlc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/htmlc/internal/codegen"
	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/registry"
	"github.com/conneroisu/htmlc/internal/render"
	"github.com/conneroisu/htmlc/internal/schema"
)

// Syntax selects a template grammar.
type Syntax = compiler.Syntax

const (
	SyntaxAuto   = compiler.SyntaxAuto
	SyntaxTag    = compiler.SyntaxTag
	SyntaxNested = compiler.SyntaxNested
)

type (
	// Buffer is the output sink templates and components write to.
	Buffer = render.Buffer
	// Raw is trusted HTML written without escaping.
	Raw = render.Raw
	// Props are the arguments of a component call.
	Props = render.Props
	// Component is anything a template can call by name.
	Component = render.Component
	// ComponentFunc adapts a function to Component.
	ComponentFunc = render.ComponentFunc
	// Entry describes one element of the schema.
	Entry = schema.Entry
	// Plan is a compiled template.
	Plan = codegen.Plan
	// Logger receives compile stage timings.
	Logger = logging.Logger
	// ComponentEvent reports a registration change in a Set.
	ComponentEvent = registry.ComponentEvent
	// Variable is a name a template reads from its data.
	Variable = codegen.Variable
)

// DangerouslyTrustRaw marks s as safe HTML.
func DangerouslyTrustRaw(s string) Raw { return render.DangerouslyTrustRaw(s) }

// NewBuffer returns an empty buffer capped at limit bytes, zero for none.
func NewBuffer(limit int) *Buffer { return render.NewBuffer(render.WithLimit(limit)) }

// Option configures a Set.
type Option func(*Set)

// WithRegistry validates against reg instead of the default schema.
func WithRegistry(reg *schema.Registry) Option {
	return func(s *Set) { s.schema = reg }
}

// WithLogger logs compile stages to l.
func WithLogger(l Logger) Option {
	return func(s *Set) { s.logger = l }
}

// WithBufferLimit caps the output of every Render call at n bytes.
func WithBufferLimit(n int) Option {
	return func(s *Set) { s.limit = n }
}

// WithStrictComponents rejects templates calling components that are not yet
// registered in the set.
func WithStrictComponents() Option {
	return func(s *Set) { s.strict = true }
}

// WithExtensions overrides the file extensions used by SyntaxAuto.
func WithExtensions(tag, nested []string) Option {
	return func(s *Set) {
		s.tagExt = tag
		s.nestedExt = nested
	}
}

// Set is a group of templates and Go components that resolve each other by
// name. It is safe for concurrent use.
type Set struct {
	schema     *schema.Registry
	components *registry.ComponentRegistry
	logger     Logger
	limit      int
	strict     bool
	tagExt     []string
	nestedExt  []string

	mu        sync.RWMutex
	templates map[string]*Template
}

// NewSet returns an empty set.
func NewSet(opts ...Option) *Set {
	s := &Set{
		components: registry.NewComponentRegistry(),
		logger:     logging.Nop(),
		templates:  make(map[string]*Template),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.schema == nil {
		s.schema = schema.Default()
	}
	return s
}

// ComponentName is the name other templates call a template by: the base file
// name without extension. Only names starting with an upper-case letter are
// callable.
func ComponentName(name string) (string, bool) {
	base := filepath.Base(name)
	base = base[:len(base)-len(filepath.Ext(base))]
	r, _ := utf8.DecodeRuneInString(base)
	return base, unicode.IsUpper(r)
}

// Parse compiles src and adds it to the set, replacing any template of the
// same name. Templates with a capitalized base name become callable
// components.
func (s *Set) Parse(name string, syntax Syntax, src string) (*Template, error) {
	opts := compiler.Options{
		Registry:         s.schema,
		Logger:           s.logger,
		TagExtensions:    s.tagExt,
		NestedExtensions: s.nestedExt,
	}
	if s.strict {
		opts.Components = s.components
	}

	res, err := compiler.Compile(context.Background(), compiler.Source{Name: name, Text: src, Syntax: syntax}, opts)
	if err != nil {
		return nil, err
	}

	t := &Template{set: s, res: res, src: src}
	s.mu.Lock()
	s.templates[name] = t
	s.mu.Unlock()

	if comp, ok := ComponentName(name); ok {
		sum := sha256.Sum256([]byte(src))
		s.components.Register(&registry.ComponentInfo{
			Name:         comp,
			Component:    t,
			FilePath:     name,
			LastMod:      time.Now(),
			Hash:         hex.EncodeToString(sum[:8]),
			Dependencies: registry.CallNames(res.Nodes),
		})
	}
	return t, nil
}

// Must is Parse that panics with the full diagnostic on error.
func (s *Set) Must(name string, syntax Syntax, src string) *Template {
	t, err := s.Parse(name, syntax, src)
	if err != nil {
		panic(errors.Format(err, src))
	}
	return t
}

// Func registers a Go function as a component.
func (s *Set) Func(name string, fn func(buf *Buffer, props Props) error) {
	s.Component(name, render.ComponentFunc(fn))
}

// Component registers c under name.
func (s *Set) Component(name string, c Component) {
	s.components.Register(&registry.ComponentInfo{Name: name, Component: c, LastMod: time.Now()})
}

// Lookup returns a template by the name it was parsed under, or by its
// component name.
func (s *Set) Lookup(name string) (*Template, bool) {
	s.mu.RLock()
	t, ok := s.templates[name]
	s.mu.RUnlock()
	if ok {
		return t, true
	}
	if info, found := s.components.Get(name); found {
		t, ok = info.Component.(*Template)
		return t, ok
	}
	return nil, false
}

// Names returns the callable component names, sorted.
func (s *Set) Names() []string { return s.components.Names() }

// Templates returns the parsed templates sorted by name.
func (s *Set) Templates() []*Template {
	s.mu.RLock()
	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Missing maps template names to the components they call that the set does
// not define.
func (s *Set) Missing() map[string][]string {
	out := make(map[string][]string)
	for _, t := range s.Templates() {
		for _, call := range t.Calls() {
			if !s.components.Has(call) {
				out[t.Name()] = append(out[t.Name()], call)
			}
		}
	}
	return out
}

// Remove drops a template or component by name.
func (s *Set) Remove(name string) {
	s.mu.Lock()
	t, ok := s.templates[name]
	delete(s.templates, name)
	s.mu.Unlock()
	if ok {
		s.components.RemoveByPath(t.Name())
		return
	}
	s.components.Remove(name)
}

// Cycles returns the component call cycles among the set's templates.
func (s *Set) Cycles() [][]string {
	return s.components.DetectCircularDependencies()
}

// Dependents returns the names of the components that call name.
func (s *Set) Dependents(name string) []string {
	var names []string
	for _, info := range s.components.GetDependents(name) {
		names = append(names, info.Name)
	}
	return names
}

// Watch streams registrations and removals in the set.
func (s *Set) Watch() <-chan ComponentEvent { return s.components.Watch() }

// UnWatch stops a Watch stream.
func (s *Set) UnWatch(ch <-chan ComponentEvent) { s.components.UnWatch(ch) }

// Template is a compiled template.
type Template struct {
	set *Set
	res *compiler.Result
	src string
}

// Name returns the name the template was compiled under.
func (t *Template) Name() string { return t.res.Name }

// Syntax returns the grammar the template was parsed with.
func (t *Template) Syntax() Syntax { return t.res.Syntax }

// Plan returns the compiled plan.
func (t *Template) Plan() *Plan { return t.res.Plan }

// Source returns the template text.
func (t *Template) Source() string { return t.src }

// Static returns the whole output when the template has no dynamic parts.
func (t *Template) Static() (string, bool) { return t.res.Plan.Static() }

// Variables lists the data the template reads, sorted by name.
func (t *Template) Variables() []Variable { return codegen.Variables(t.res.Plan) }

// Calls returns the component names the template calls, sorted.
func (t *Template) Calls() []string { return registry.CallNames(t.res.Nodes) }

// Render runs the template with data into a fresh buffer. Data is nil, a map
// keyed by variable name, or a struct.
func (t *Template) Render(data any) (string, error) {
	hint := t.res.Plan.SizeHint
	if limit := t.set.limit; limit > 0 && hint > limit {
		hint = limit
	}
	buf := render.NewBuffer(render.WithLimit(t.set.limit), render.WithCapacity(hint))
	if err := t.RenderTo(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTo appends the output to buf. On error buf is left as it was.
func (t *Template) RenderTo(buf *Buffer, data any) error {
	vars, err := Vars(data)
	if err != nil {
		return errors.NewRenderError(t.Name(), err.Error(), err)
	}
	return render.Exec(t.res.Plan, buf, render.NewScope(vars), t.set.components)
}

// RenderComponent renders the template with props as its variables.
func (t *Template) RenderComponent(buf *Buffer, props Props) error {
	return render.Exec(t.res.Plan, buf, render.NewScope(props), t.set.components)
}

var defaultSet = NewSet()

// Default returns the set used by the package-level functions.
func Default() *Set { return defaultSet }

// Compile adds a template to the default set.
func Compile(syntax Syntax, name, src string) (*Template, error) {
	return defaultSet.Parse(name, syntax, src)
}

// MustCompile is Compile that panics with the full diagnostic on error. It is
// meant for templates held in package-level variables.
func MustCompile(syntax Syntax, name, src string) *Template {
	return defaultSet.Must(name, syntax, src)
}

// Tag compiles a tag-grammar template named after the calling line.
func Tag(src string) *Template {
	return MustCompile(SyntaxTag, caller(), src)
}

// Nested compiles a nested-grammar template named after the calling line.
func Nested(src string) *Template {
	return MustCompile(SyntaxNested, caller(), src)
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "inline"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// RegisterElement adds an element to the default schema. It fails once any
// template has been validated against it.
func RegisterElement(e Entry) error {
	return schema.Default().Register(e)
}
