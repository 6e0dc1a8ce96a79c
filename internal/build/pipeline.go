// Package build compiles a project's templates into one htmlc.Set and keeps
// the set current as template files change.
package build

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/scanner"
	"github.com/conneroisu/htmlc/internal/schema"
	"github.com/conneroisu/htmlc/pkg/htmlc"
)

// Result is the outcome of compiling one template file.
type Result struct {
	File     *scanner.TemplateFile
	Template *htmlc.Template
	Err      error
	Duration time.Duration
	// CacheHit is set when the file was unchanged and not recompiled.
	CacheHit bool
}

// Failed reports whether the file did not compile.
func (r Result) Failed() bool { return r.Err != nil }

// Diagnostic formats the failure against the file's source.
func (r Result) Diagnostic() string {
	if r.Err == nil {
		return ""
	}
	return errors.Format(r.Err, r.File.Source)
}

// BuildCallback is called after every compile.
type BuildCallback func(result Result)

// Pipeline owns the template set of a project.
type Pipeline struct {
	cfg     *config.Config
	logger  logging.Logger
	scanner *scanner.TemplateScanner
	set     *htmlc.Set
	workers int
	metrics *Metrics

	mu        sync.RWMutex
	roots     []string
	callbacks []BuildCallback
	results   map[string]Result
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many files compile at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewSet builds the schema described by cfg and returns an empty set using
// it.
func NewSet(cfg *config.Config, logger logging.Logger) (*htmlc.Set, error) {
	reg := schema.NewHTML()
	if err := config.ApplySchema(cfg, reg); err != nil {
		return nil, err
	}
	return htmlc.NewSet(
		htmlc.WithRegistry(reg),
		htmlc.WithLogger(logger),
		htmlc.WithBufferLimit(cfg.Render.BufferLimit),
		htmlc.WithExtensions(cfg.Templates.TagExtensions, cfg.Templates.NestedExtensions),
	), nil
}

// NewPipeline creates a pipeline for the templates cfg describes.
func NewPipeline(cfg *config.Config, logger logging.Logger, opts ...Option) (*Pipeline, error) {
	set, err := NewSet(cfg, logger)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		logger:  logger.WithComponent("build"),
		scanner: scanner.New(cfg.Templates),
		set:     set,
		workers: runtime.NumCPU(),
		metrics: &Metrics{},
		roots:   cfg.Templates.Paths,
		results: make(map[string]Result),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Set returns the compiled templates.
func (p *Pipeline) Set() *htmlc.Set { return p.set }

// Scanner returns the scanner the pipeline discovers files with.
func (p *Pipeline) Scanner() *scanner.TemplateScanner { return p.scanner }

// AddCallback adds a callback to be called when builds complete
func (p *Pipeline) AddCallback(callback BuildCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

// BuildAll compiles every template under paths, or under the configured
// paths when none are given. Compile failures are reported in the results;
// the error is for failures to find or read files.
func (p *Pipeline) BuildAll(ctx context.Context, paths ...string) ([]Result, error) {
	perf := logging.StartOperation(p.logger, "build")

	if len(paths) > 0 {
		p.mu.Lock()
		p.roots = paths
		p.mu.Unlock()
	}
	files, err := p.scanner.Scan(ctx, paths...)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	workers := pool.NewWithResults[Result]().WithMaxGoroutines(p.workers)
	for _, file := range files {
		workers.Go(func() Result {
			return p.compile(file)
		})
	}
	results := workers.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].File.Name < results[j].File.Name })

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	perf.End(ctx, "templates", len(results), "failed", failed)
	return results, nil
}

// BuildFile recompiles the template at path if its content changed.
func (p *Pipeline) BuildFile(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	file, changed, err := p.scanner.ScanFile(path)
	if err != nil {
		return Result{}, err
	}
	file.Name = p.nameOf(path)

	if !changed {
		p.mu.RLock()
		prev, ok := p.results[file.Name]
		p.mu.RUnlock()
		if ok {
			prev.CacheHit = true
			prev.Duration = 0
			p.record(prev)
			return prev, nil
		}
	}
	return p.compile(file), nil
}

// Remove drops the template at path and returns its name.
func (p *Pipeline) Remove(path string) string {
	name := p.nameOf(path)
	p.set.Remove(name)
	p.scanner.Forget(path)

	p.mu.Lock()
	delete(p.results, name)
	p.mu.Unlock()

	p.logger.Debug(context.Background(), "template removed", "template", name)
	return name
}

// Results returns the latest result per template, sorted by name.
func (p *Pipeline) Results() []Result {
	p.mu.RLock()
	out := make([]Result, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, r)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].File.Name < out[j].File.Name })
	return out
}

// Result returns the latest result for the template called name.
func (p *Pipeline) Result(name string) (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.results[name]
	return r, ok
}

// Failures returns the templates whose latest compile failed.
func (p *Pipeline) Failures() []Result {
	var out []Result
	for _, r := range p.Results() {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// Metrics returns the build counters so far.
func (p *Pipeline) Metrics() Snapshot {
	return p.metrics.Snapshot()
}

func (p *Pipeline) nameOf(path string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return scanner.RelativeName(p.roots, path)
}

func (p *Pipeline) compile(file *scanner.TemplateFile) Result {
	start := time.Now()
	tmpl, err := p.set.Parse(file.Name, file.Syntax, file.Source)
	result := Result{
		File:     file,
		Template: tmpl,
		Err:      err,
		Duration: time.Since(start),
	}
	p.record(result)
	return result
}

func (p *Pipeline) record(result Result) {
	p.metrics.Record(result)

	p.mu.Lock()
	p.results[result.File.Name] = result
	callbacks := p.callbacks
	p.mu.Unlock()

	if result.Failed() {
		p.logger.Warn(context.Background(), result.Err, "template failed to compile", "template", result.File.Name)
	} else {
		p.logger.Debug(context.Background(), "template compiled",
			"template", result.File.Name,
			"cached", result.CacheHit,
			"duration", result.Duration.String())
	}

	for _, cb := range callbacks {
		cb(result)
	}
}
