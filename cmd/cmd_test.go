package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/codegen"
	"github.com/conneroisu/htmlc/internal/testutils"
)

// workspace makes a temporary project directory the working directory.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := testutils.CreateTempProject(t, files)
	t.Chdir(root)
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfgFile = ""
	checkWatch, checkWorkers, checkA11y = false, 0, false
	renderData, renderOut, renderMock = "", "", false
	planFormat = "text"
	convertTo, convertOut = "", ""
	versionShort, versionFormat = false, "text"
	initSyntax, initForce = "tag", false
	newScaffold, newDir, newSyntax = "card", ".", "tag"
	newData, newForce, newList = false, false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck(t *testing.T) {
	workspace(t, map[string]string{
		"Card.htn":       `div.card { (children) }`,
		"pages/home.htt": `<Card><p>{msg}</p></Card>`,
	})

	out, _, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "2 template(s) checked, 0 problem(s)")
}

func TestCheck_Problems(t *testing.T) {
	workspace(t, map[string]string{
		"Card.htn":         `div.card { (children) }`,
		"pages/home.htt":   `<Cards><p>{msg}</p></Cards>`,
		"pages/broken.htt": `<p>`,
		"Ping.htt":         `<Pong/>`,
		"Pong.htt":         `<Ping/>`,
	})

	out, _, err := execute(t, "check")
	require.Error(t, err)
	assert.Contains(t, out, "✗ pages/broken.htt")
	assert.Contains(t, out, "unknown component <Cards>")
	assert.Contains(t, out, "did you mean: Card")
	assert.Contains(t, out, "component cycle")
	assert.Contains(t, out, "5 template(s) checked, 3 problem(s)")
}

func TestCheck_Accessibility(t *testing.T) {
	workspace(t, map[string]string{
		"ok.htt":    `<p>{msg}</p>`,
		"logo.htt":  `<a href={url}><img src={src}/></a>`,
		"logo.yaml": "url: /\nsrc: logo.png\n",
	})

	out, _, err := execute(t, "check", "--a11y")
	require.NoError(t, err)
	assert.Contains(t, out, "logo.htt: [missing-alt-text]")
	assert.Contains(t, out, "logo.htt: [missing-link-text]")
	assert.Contains(t, out, "2 accessibility warning(s)")
	assert.NotContains(t, out, "ok.htt:")
}

func TestCheck_InvalidConfig(t *testing.T) {
	workspace(t, map[string]string{
		".htmlc.yml": "schema:\n  frameworks: [react]\n",
	})

	_, stderr, err := execute(t, "check")
	require.Error(t, err)
	assert.Contains(t, stderr, `unknown framework "react"`)
}

func TestRender(t *testing.T) {
	root := workspace(t, map[string]string{
		"Card.htn":   `div.card { (children) }`,
		"page.htt":   `<Card><p>Hello, {name}!</p></Card>`,
		"page.yaml":  "name: Ada\n",
		"other.yaml": "name: <Bob>\n",
		"broken.htt": `<p>`,
	})

	out, _, err := execute(t, "render", "page.htt")
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><p>Hello, Ada!</p></div>`, out)

	out, _, err = execute(t, "render", "page.htt", "--data", "other.yaml")
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><p>Hello, &lt;Bob&gt;!</p></div>`, out)

	_, _, err = execute(t, "render", "page.htt", "--out", "page.html")
	require.NoError(t, err)
	written, err := os.ReadFile(filepath.Join(root, "page.html"))
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><p>Hello, Ada!</p></div>`, string(written))

	_, stderr, err := execute(t, "render", "broken.htt")
	require.Error(t, err)
	assert.Contains(t, stderr, "broken.htt")
}

func TestRender_Mock(t *testing.T) {
	workspace(t, map[string]string{
		"card.htt": `<ul>@for item in items {<li>{item.title}</li>}</ul>`,
	})

	out, _, err := execute(t, "render", "card.htt")
	require.NoError(t, err)
	assert.Equal(t, "<ul></ul>", out)

	out, _, err = execute(t, "render", "card.htt", "--mock")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "<li>"))

	again, _, err := execute(t, "render", "card.htt", "--mock")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestRender_BufferLimit(t *testing.T) {
	workspace(t, map[string]string{
		".htmlc.yml": "render:\n  buffer_limit: 8\n",
		"page.htt":   `<p>far more than eight bytes</p>`,
	})

	_, _, err := execute(t, "render", "page.htt")
	require.Error(t, err)
}

func TestPlan(t *testing.T) {
	workspace(t, map[string]string{
		"page.htt": `<p>Hello, {name}!</p>`,
	})

	out, _, err := execute(t, "plan", "page.htt")
	require.NoError(t, err)
	assert.Contains(t, out, "escaped name")

	out, _, err = execute(t, "plan", "page.htt", "--format", "json")
	require.NoError(t, err)
	var steps []codegen.Step
	require.NoError(t, json.Unmarshal([]byte(out), &steps))
	want := []codegen.Step{
		{Op: "literal", Text: "<p>Hello, "},
		{Op: "escaped", Expr: "name"},
		{Op: "literal", Text: "!</p>"},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	out, _, err = execute(t, "plan", "page.htt", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "op: escaped")

	_, _, err = execute(t, "plan", "page.htt", "--format", "xml")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	root := workspace(t, map[string]string{
		"card.htt":  `<div class="card"><h2>{title}</h2>@if count > 0 { <p>many</p> }</div>`,
		"card.yaml": "title: Hi\ncount: 2\n",
	})

	out, _, err := execute(t, "convert", "card.htt")
	require.NoError(t, err)
	assert.Contains(t, out, "(title)")

	_, _, err = execute(t, "convert", "card.htt", "--out", "card.htn")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "card.htn"))
	require.NoError(t, err)

	tagOut, _, err := execute(t, "render", "card.htt")
	require.NoError(t, err)
	nestedOut, _, err := execute(t, "render", "card.htn")
	require.NoError(t, err)
	assert.Equal(t, tagOut, nestedOut)

	back, _, err := execute(t, "convert", "card.htn", "--to", "tag")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(back, "<div"), back)

	_, _, err = execute(t, "convert", "card.htt", "--to", "yaml")
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	workspace(t, map[string]string{
		".htmlc.yml": "schema:\n  frameworks: [htmx]\n",
	})

	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "  div\n")
	assert.Contains(t, out, "  input /")
	assert.Contains(t, out, "htmx enabled")

	out, _, err = execute(t, "schema", "input")
	require.NoError(t, err)
	assert.Contains(t, out, "<input>")
	assert.Contains(t, out, "void")

	_, _, err = execute(t, "schema", "dvi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean <div>")
}

func TestInitAndNew(t *testing.T) {
	root := workspace(t, nil)

	out, _, err := execute(t, "init", "--syntax", "nested")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("views", "pages", "index.htn"))
	_, err = os.Stat(filepath.Join(root, ".htmlc.yml"))
	require.NoError(t, err)

	_, _, err = execute(t, "init")
	assert.ErrorContains(t, err, "already exists")

	out, _, err = execute(t, "new", "Menu", "--scaffold", "nav", "--dir", "views/components", "--data")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("views", "components", "Menu.htt"))
	assert.Contains(t, out, filepath.Join("views", "components", "Menu.yaml"))

	out, _, err = execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "4 template(s) checked, 0 problem(s)")

	out, _, err = execute(t, "render", "views/pages/index.htn")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello from htmlc")

	out, _, err = execute(t, "new", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "layout")

	_, _, err = execute(t, "new", "X", "--scaffold", "carousel")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, _, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "go_version")

	out, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform: ")
}
