package scaffolding

import (
	stdcontext "context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/htmlc/internal/build"
	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/testutils"
	"github.com/conneroisu/htmlc/pkg/htmlc"
)

func TestScaffoldsCompileAndRender(t *testing.T) {
	g := NewGenerator(config.Defaults().Templates)

	for _, syntax := range []compiler.Syntax{compiler.SyntaxTag, compiler.SyntaxNested} {
		t.Run(syntax.String(), func(t *testing.T) {
			set := htmlc.NewSet()
			// page calls Layout and Card, so they are parsed first.
			order := []string{"layout", "card"}
			for _, s := range g.Scaffolds() {
				if s.Name != "layout" && s.Name != "card" {
					order = append(order, s.Name)
				}
			}

			for _, name := range order {
				component := strings.ToUpper(name[:1]) + name[1:]
				src, err := g.Source(name, component, syntax)
				require.NoError(t, err, name)

				tmpl, err := set.Parse(component, syntax, src)
				require.NoError(t, err, "%s:\n%s", name, src)

				var data map[string]any
				require.NoError(t, yaml.Unmarshal([]byte(g.scaffolds[name].Data), &data))
				out, err := tmpl.Render(data)
				require.NoError(t, err, name)
				assert.NotEmpty(t, out, name)
			}
		})
	}
}

func TestSource(t *testing.T) {
	g := NewGenerator(config.Defaults().Templates)

	src, err := g.Source("card", "ProfileCard", compiler.SyntaxTag)
	require.NoError(t, err)
	assert.Contains(t, src, `<div class="profile-card">`)

	nested, err := g.Source("card", "ProfileCard", compiler.SyntaxNested)
	require.NoError(t, err)
	assert.NotContains(t, nested, "<div")
	assert.Contains(t, nested, "profile-card")

	_, err = g.Source("carousel", "X", compiler.SyntaxTag)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: alert, button")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(config.TemplatesConfig{NestedExtensions: []string{".nest"}})

	paths, err := g.Generate(Options{
		Name:     "Card",
		Scaffold: "card",
		Dir:      dir,
		Syntax:   compiler.SyntaxNested,
		WithData: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "Card.nest"), filepath.Join(dir, "Card.yaml")}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "Card.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "title: Welcome\n", string(data))
	testutils.AssertFilePermissions(t, filepath.Join(dir, "Card.nest"), 0o644)

	_, err = g.Generate(Options{Name: "Card", Scaffold: "card", Dir: dir, Syntax: compiler.SyntaxNested})
	assert.ErrorContains(t, err, "already exists")

	_, err = g.Generate(Options{Name: "Card", Scaffold: "card", Dir: dir, Syntax: compiler.SyntaxNested, Force: true})
	assert.NoError(t, err)

	_, err = g.Generate(Options{Name: "../evil", Scaffold: "card", Dir: dir})
	assert.Error(t, err)
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(config.Defaults().Templates)

	paths, err := g.InitProject(dir, compiler.SyntaxTag, false)
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	_, err = g.InitProject(dir, compiler.SyntaxTag, false)
	assert.Error(t, err)

	cfg := config.Defaults()
	cfg.Templates.Paths = []string{filepath.Join(dir, "views")}
	p, err := build.NewPipeline(cfg, logging.Nop())
	require.NoError(t, err)
	results, err := p.BuildAll(stdcontext.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Empty(t, p.Failures())
	assert.Empty(t, p.Set().Missing())

	page, ok := p.Result("pages/index.htt")
	require.True(t, ok)
	data, err := build.DataFor(page, ".yaml", false)
	require.NoError(t, err)
	out, err := page.Template.Render(data)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Hello from htmlc</h1>")
	assert.Contains(t, out, "Getting started")
}

func TestValidateName(t *testing.T) {
	for name, ok := range map[string]bool{
		"Card":      true,
		"user-card": true,
		"Nav_2":     true,
		"":          false,
		"2fast":     false,
		"a b":       false,
		"../x":      false,
		"Card.htt":  false,
	} {
		assert.Equal(t, ok, ValidateName(name) == nil, name)
	}
}

func TestKebab(t *testing.T) {
	assert.Equal(t, "profile-card", kebab("ProfileCard"))
	assert.Equal(t, "card", kebab("Card"))
	assert.Equal(t, "nav-2", kebab("Nav_2"))
	assert.Equal(t, "index", kebab("index"))
}
