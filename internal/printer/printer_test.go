package printer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/parser/nested"
	"github.com/conneroisu/htmlc/internal/parser/tag"
)

var treeOpts = cmp.Options{cmpopts.IgnoreTypes(ast.Pos{}), cmpopts.EquateEmpty()}

const tagDoc = `<!DOCTYPE html>
<html lang="en">
<head><title>{title}</title><style>body { color: red; }</style></head>
<body class="x" data-id={id}>
  <h1>Hello, world!</h1>
  <p title="a &quot;q&quot; &amp; b">a &amp; b {"  spaced  "} <b>bold</b> tail</p>
  <input type="checkbox" checked disabled?={locked}/>
  <pre>  keep
  this {x}</pre>
  @if user.Admin {<Badge kind="admin"/>} @else if user.Guest {{"guest"}} @else {<span>member</span>}
  <ul>@for (i, item in items) {<li>{i}: @raw(item.HTML)</li>}</ul>
  @match status { "ok" | "fine" => {<i>ok</i>} _ => {<i>bad</i>} }
  <Card title="T" count={n}><p>child</p></Card>
  <div></div><br/>
</body>
</html>`

const nestedDoc = `@doctype
html lang="en" {
  head { title { (title) } style { "body { color: red; }" } }
  body.x data-id=(id) {
    h1 { "Hello, world!" }
    input type="checkbox" checked disabled[locked];
    @for (i, item in items) { li { (i) ": " @raw(item.HTML) } }
    @match status { "ok" | "fine" => { i { "ok" } } _ => { i { "bad" } } }
    Card title="T" count=(n) { p { "child" } }
    // dropped
    "a" "b" 42
    pre { "  keep\n  this " (x) }
  }
}`

func TestTag_RoundTrip(t *testing.T) {
	want, err := tag.Parse("in.htt", tagDoc)
	require.NoError(t, err)

	out, err := Tag(want)
	require.NoError(t, err)

	got, err := tag.Parse("out.htt", out)
	require.NoError(t, err, out)
	assert.Empty(t, cmp.Diff(want, got, treeOpts), out)
}

func TestNested_RoundTrip(t *testing.T) {
	want, err := nested.Parse("in.htn", nestedDoc)
	require.NoError(t, err)

	out, err := Nested(want)
	require.NoError(t, err)

	got, err := nested.Parse("out.htn", out)
	require.NoError(t, err, out)
	assert.Empty(t, cmp.Diff(want, got, treeOpts), out)
}

func TestConvert_AcrossGrammars(t *testing.T) {
	t.Run("tag to nested", func(t *testing.T) {
		want, err := tag.Parse("in.htt", tagDoc)
		require.NoError(t, err)
		out, err := Nested(want)
		require.NoError(t, err)
		got, err := nested.Parse("out.htn", out)
		require.NoError(t, err, out)
		assert.Empty(t, cmp.Diff(want, got, treeOpts), out)
	})

	t.Run("nested to tag", func(t *testing.T) {
		want, err := nested.Parse("in.htn", nestedDoc)
		require.NoError(t, err)
		out, err := Tag(want)
		require.NoError(t, err)
		got, err := tag.Parse("out.htt", out)
		require.NoError(t, err, out)
		assert.Empty(t, cmp.Diff(want, got, treeOpts), out)
	})
}

func TestTag_Layout(t *testing.T) {
	nodes, err := nested.Parse("in.htn", `ul.list { li { "One" } li { "Two" "three" } } br;`)
	require.NoError(t, err)

	out, err := Tag(nodes)
	require.NoError(t, err)
	assert.Equal(t, `<ul class="list">
  <li>
    One
  </li>
  <li>
    Two
    {"three"}
  </li>
</ul>
<br/>
`, out)
}

func TestNested_Layout(t *testing.T) {
	nodes, err := tag.Parse("in.htt", `<a href={url} hidden>Go</a>@if x {<hr/>}`)
	require.NoError(t, err)

	out, err := Nested(nodes)
	require.NoError(t, err)
	assert.Equal(t, `a href=(url) hidden {
  "Go"
}
@if x {
  hr;
}
`, out)
}

func TestTag_Unprintable(t *testing.T) {
	nodes, err := nested.Parse("in.htn", `script { (payload) }`)
	require.NoError(t, err)

	_, err = Tag(nodes)
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeUnprintable))

	nodes, err = nested.Parse("in.htn", `style { "a</style>" }`)
	require.NoError(t, err)
	_, err = Tag(nodes)
	assert.Error(t, err)
}

func TestNested_Unprintable(t *testing.T) {
	nodes, err := tag.Parse("in.htt", `<svg.icon></svg.icon>`)
	require.NoError(t, err)

	_, err = Nested(nodes)
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeUnprintable))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\nd\te\rf"`, quote("a\"b\\c\nd\te\rf"))
}

func TestPlainText(t *testing.T) {
	for s, want := range map[string]bool{
		"Hello, world!": true,
		"it's 42":       true,
		"":              false,
		" lead":         false,
		"trail ":        false,
		"two  spaces":   false,
		"a & b":         false,
		"{x}":           false,
		"@if":           false,
		"<b>":           false,
	} {
		assert.Equal(t, want, plainText(s), s)
	}
}
