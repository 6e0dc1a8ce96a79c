package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/scanner"
	"github.com/conneroisu/htmlc/internal/testutils"
)

func newPipeline(t *testing.T, root string) *Pipeline {
	t.Helper()
	cfg := config.Defaults()
	cfg.Templates.Paths = []string{root}
	p, err := NewPipeline(cfg, logging.Nop(), WithWorkers(2))
	require.NoError(t, err)
	return p
}

func TestBuildAll(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{
		"Card.htn":         `div.card { (children) }`,
		"pages/home.htt":   `<Card><p>{msg}</p></Card>`,
		"pages/broken.htt": `<p>`,
	})

	p := newPipeline(t, root)
	results, err := p.BuildAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Card.htn", results[0].File.Name)
	assert.Equal(t, "pages/broken.htt", results[1].File.Name)
	assert.Equal(t, "pages/home.htt", results[2].File.Name)

	assert.True(t, results[1].Failed())
	assert.True(t, errors.IsSyntaxError(results[1].Err))
	assert.Contains(t, results[1].Diagnostic(), "pages/broken.htt")
	assert.Empty(t, results[2].Diagnostic())

	home, ok := p.Set().Lookup("pages/home.htt")
	require.True(t, ok)
	out, err := home.Render(map[string]any{"msg": "hi"})
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><p>hi</p></div>`, out)

	assert.Len(t, p.Failures(), 1)
	r, ok := p.Result("pages/broken.htt")
	require.True(t, ok)
	assert.True(t, r.Failed())
	_, ok = p.Result("nope.htt")
	assert.False(t, ok)
	m := p.Metrics()
	assert.EqualValues(t, 3, m.Builds)
	assert.EqualValues(t, 1, m.Failed)
}

func TestBuildFile_CacheAndRebuild(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{"page.htt": `<p>one</p>`})
	p := newPipeline(t, root)
	_, err := p.BuildAll(context.Background())
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []Result
	p.AddCallback(func(r Result) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
	})

	path := filepath.Join(root, "page.htt")
	r, err := p.BuildFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, r.CacheHit)
	assert.Equal(t, "page.htt", r.File.Name)

	testutils.WriteFiles(t, root, map[string]string{"page.htt": `<p>two</p>`})
	r, err = p.BuildFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, r.CacheHit)
	out, err := r.Template.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, `<p>two</p>`, out)

	assert.Len(t, seen, 2)
	assert.InDelta(t, 100.0/3, p.Metrics().CacheHitRate(), 0.01)
}

func TestBuildFile_FailureKeepsLastGoodTemplate(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{"page.htt": `<p>ok</p>`})
	p := newPipeline(t, root)
	_, err := p.BuildAll(context.Background())
	require.NoError(t, err)

	testutils.WriteFiles(t, root, map[string]string{"page.htt": `<p>`})
	r, err := p.BuildFile(context.Background(), filepath.Join(root, "page.htt"))
	require.NoError(t, err)
	assert.True(t, r.Failed())

	tmpl, ok := p.Set().Lookup("page.htt")
	require.True(t, ok)
	out, err := tmpl.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, `<p>ok</p>`, out)
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{"Nav.htt": `<nav></nav>`})
	p := newPipeline(t, root)
	_, err := p.BuildAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Nav"}, p.Set().Names())

	assert.Equal(t, "Nav.htt", p.Remove(filepath.Join(root, "Nav.htt")))
	assert.Empty(t, p.Set().Names())
	assert.Empty(t, p.Results())
}

func TestBuildAll_ExplicitPaths(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{"a/x.htt": `<p></p>`, "b/y.htt": `<p></p>`})
	p := newPipeline(t, root)

	results, err := p.BuildAll(context.Background(), filepath.Join(root, "b"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "y.htt", results[0].File.Name)
}

func TestNewPipeline_SchemaErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.Schema.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewPipeline(cfg, logging.Nop())
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeFileNotFound))
}

func TestMetrics(t *testing.T) {
	var m Metrics
	s := m.Snapshot()
	assert.Zero(t, s.SuccessRate())
	assert.Zero(t, s.CacheHitRate())
	assert.Zero(t, s.AverageDuration())

	m.Record(Result{File: &scanner.TemplateFile{Syntax: compiler.SyntaxTag}, Duration: 2 * time.Millisecond})
	m.Record(Result{File: &scanner.TemplateFile{Syntax: compiler.SyntaxNested}, Err: assert.AnError})
	m.Record(Result{File: &scanner.TemplateFile{Syntax: compiler.SyntaxTag}, CacheHit: true})

	s = m.Snapshot()
	assert.EqualValues(t, 2, s.Succeeded())
	assert.InDelta(t, 200.0/3, s.SuccessRate(), 0.001)
	assert.InDelta(t, 100.0/3, s.CacheHitRate(), 0.001)
	assert.Equal(t, map[string]int64{"tag": 2, "nested": 1}, s.BySyntax)
	assert.False(t, s.LastBuild.IsZero())

	s.BySyntax["tag"] = 99
	assert.EqualValues(t, 2, m.Snapshot().BySyntax["tag"])
}

func TestDataPathAndLoadData(t *testing.T) {
	assert.Equal(t, filepath.Join("views", "page.yaml"), DataPath(filepath.Join("views", "page.htt"), ".yaml"))
	assert.Equal(t, "Card.data.yml", DataPath("Card.htn", ".data.yml"))

	dir := t.TempDir()
	data, err := LoadData(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, data)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	data, err = LoadData(empty)
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDataFor(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{
		"mock.htt":  `<p>@if show { {title} }</p>`,
		"real.htt":  `<p>{title}</p>`,
		"real.yaml": "title: Real\n",
	})
	p := newPipeline(t, root)
	_, err := p.BuildAll(context.Background())
	require.NoError(t, err)

	real, ok := p.Result("real.htt")
	require.True(t, ok)
	data, err := DataFor(real, ".yaml", true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Real"}, data)

	mock, ok := p.Result("mock.htt")
	require.True(t, ok)
	data, err = DataFor(mock, ".yaml", false)
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = DataFor(mock, ".yaml", true)
	require.NoError(t, err)
	assert.Equal(t, true, data["show"])
	assert.NotEmpty(t, data["title"])
}
