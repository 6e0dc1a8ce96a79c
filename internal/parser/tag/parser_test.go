package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
)

func mustParse(t *testing.T, src string) []ast.Node {
	t.Helper()
	nodes, err := Parse("test.htt", src)
	require.NoError(t, err)
	return nodes
}

func TestParse_Element(t *testing.T) {
	nodes := mustParse(t, `<a href="/home" class={cls} hidden?={h} download>Home</a>`)
	require.Len(t, nodes, 1)

	a, ok := nodes[0].(*ast.Element)
	require.True(t, ok)
	assert.Equal(t, "a", a.Name)
	require.Len(t, a.Attrs, 4)

	assert.Equal(t, ast.LiteralValue("/home"), a.Attrs[0].Value)
	assert.Equal(t, ast.Dynamic, a.Attrs[1].Value.Kind)
	assert.Equal(t, "cls", a.Attrs[1].Value.Expr.Source)
	assert.Equal(t, ast.Toggle, a.Attrs[2].Value.Kind)
	assert.Equal(t, "h", a.Attrs[2].Value.Expr.Source)
	assert.Equal(t, ast.Toggle, a.Attrs[3].Value.Kind)
	assert.Equal(t, "true", a.Attrs[3].Value.Expr.Source)

	require.Len(t, a.Children, 1)
	assert.Equal(t, "Home", a.Children[0].(*ast.Text).Literal)
}

func TestParse_Positions(t *testing.T) {
	nodes := mustParse(t, "<div>\n  <span>{x}</span>\n</div>")
	div := nodes[0].(*ast.Element)
	span := div.Children[0].(*ast.Element)

	assert.Equal(t, ast.Pos{Offset: 8, Line: 2, Column: 3}, span.At)
	text := span.Children[0].(*ast.Text)
	assert.Equal(t, ast.Pos{Offset: 15, Line: 2, Column: 10}, text.Expr.At)
}

func TestParse_SelfClosingAndFragments(t *testing.T) {
	nodes := mustParse(t, `<><br/><img src="a.png" /></>`)
	require.Len(t, nodes, 2)
	assert.True(t, nodes[0].(*ast.Element).SelfClosing)
	assert.Equal(t, "img", nodes[1].(*ast.Element).Name)
}

func TestParse_DoctypeAndComment(t *testing.T) {
	nodes := mustParse(t, "<!DOCTYPE html><!-- note --><html></html>")
	require.Len(t, nodes, 2)
	_, ok := nodes[0].(*ast.Doctype)
	assert.True(t, ok)
}

func TestParse_ComponentCall(t *testing.T) {
	nodes := mustParse(t, `<Card title={t}><p>body</p></Card>`)
	call, ok := nodes[0].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "Card", call.Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, "title", call.Args[0].Name)
	require.Len(t, call.Children, 1)
}

func TestParse_Interpolation(t *testing.T) {
	nodes := mustParse(t, `<p>{ "<b>" }{ name }@raw(html)</p>`)
	p := nodes[0].(*ast.Element)
	require.Len(t, p.Children, 3)

	lit := p.Children[0].(*ast.Text)
	assert.Equal(t, "<b>", lit.Literal)
	assert.False(t, lit.IsDynamic())

	dyn := p.Children[1].(*ast.Text)
	assert.Equal(t, "name", dyn.Expr.Source)
	assert.False(t, dyn.Raw)

	raw := p.Children[2].(*ast.Text)
	assert.True(t, raw.Raw)
	assert.Equal(t, "html", raw.Expr.Source)
}

func TestParse_Entities(t *testing.T) {
	nodes := mustParse(t, `<p title="a &amp; b">&copy; 2024 &lt;tag&gt;</p>`)
	p := nodes[0].(*ast.Element)
	assert.Equal(t, "a & b", p.Attrs[0].Value.Literal)
	assert.Equal(t, "© 2024 <tag>", p.Children[0].(*ast.Text).Literal)
}

func TestParse_Whitespace(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"newline runs removed", "<p>\n  Hello\n</p>", []string{"Hello"}},
		{"inline runs collapse", "<p>a  \t b</p>", []string{"a b"}},
		{"space before expr kept", "<p>\n  Hi {name}!\n</p>", []string{"Hi ", "!"}},
		{"pre verbatim", "<pre>\n  a  b\n</pre>", []string{"\n  a  b\n"}},
		{"script verbatim", "<script>\n if (a < b) {}\n</script>", []string{"\n if (a < b) {}\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := mustParse(t, tt.src)[0].(*ast.Element)
			var got []string
			for _, c := range el.Children {
				if text, ok := c.(*ast.Text); ok && !text.IsDynamic() {
					got = append(got, text.Literal)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_ScriptIsRaw(t *testing.T) {
	el := mustParse(t, `<script>let x = "<b>";</script>`)[0].(*ast.Element)
	text := el.Children[0].(*ast.Text)
	assert.True(t, text.Raw)
	assert.Equal(t, `let x = "<b>";`, text.Literal)
}

func TestParse_AtSignIsText(t *testing.T) {
	tests := []string{
		`mail me@example.com @iffy`,
		`mail me@for.com`,
		`see @if.example or @match-case`,
		`@else: nothing`,
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			p := mustParse(t, "<p>"+text+"</p>")[0].(*ast.Element)
			require.Len(t, p.Children, 1)
			assert.Equal(t, text, p.Children[0].(*ast.Text).Literal)
		})
	}
}

func TestParse_VoidElementsWithoutSlash(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		names []string
	}{
		{"br inside text", `<p>a<br>b</p>`, []string{"#text", "br", "#text"}},
		{"input before sibling", `<li><input type="checkbox"><label>x</label></li>`, []string{"input", "label"}},
		{"redundant close", `<p><img src="a.png"></img>b</p>`, []string{"img", "#text"}},
		{"slash still accepted", `<p><hr/></p>`, []string{"hr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := mustParse(t, tt.src)[0].(*ast.Element)
			var names []string
			for _, n := range parent.Children {
				switch n := n.(type) {
				case *ast.Element:
					assert.True(t, n.SelfClosing || n.Name == "label", n.Name)
					names = append(names, n.Name)
				case *ast.Text:
					names = append(names, "#text")
				}
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestParse_Control(t *testing.T) {
	src := `<ul>
	@for (i, item in items) {
		@if item.Done {
			<li class="done">{item.Name}</li>
		} @else {
			<li>{item.Name}</li>
		}
	}
	@match status {
		"a" | "b" => { <p>ab</p> }
		_ => { <p>other</p> }
	}
</ul>`
	ul := mustParse(t, src)[0].(*ast.Element)
	require.Len(t, ul.Children, 2)

	loop := ul.Children[0].(*ast.For)
	assert.Equal(t, "i", loop.Key)
	assert.Equal(t, "items", loop.Iterable.Source)
	require.Len(t, loop.Body, 1)

	cond := loop.Body[0].(*ast.If)
	assert.Equal(t, "item.Done", cond.Branches[0].Cond.Source)
	require.Len(t, cond.Else, 1)

	m := ul.Children[1].(*ast.Match)
	require.Len(t, m.Arms, 2)
	assert.True(t, m.Arms[1].Wildcard)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		col  int
		hint string
	}{
		{"single quotes", `<a href='x'>`, 1, 9, "double quotes"},
		{"unquoted value", `<a href=x>`, 1, 9, "quote the value"},
		{"mismatched close", "<div>\n<span>\n</div>", 3, 1, "close <span> before </div>"},
		{"unclosed element", "<div>\n<p>x</p>", 1, 1, "</div>"},
		{"stray close", "</div>", 1, 1, "matching opening tag"},
		{"stray brace", "<p>}</p>", 1, 4, `{"}"}`},
		{"bare less-than", "<p>a < b</p>", 1, 6, `{"<"}`},
		{"empty expression", "<p>{ }</p>", 1, 4, "expression"},
		{"unclosed comment", "<!-- x", 1, 1, "-->"},
		{"bad doctype", "<!DOCTYPE xml>", 1, 1, "<!DOCTYPE html>"},
		{"toggle needs expr", `<input disabled?="x"/>`, 1, 18, "disabled?={cond}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.htt", tt.src)
			require.Error(t, err)

			var te *errors.TemplateError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, errors.ErrorTypeSyntax, te.Type)
			assert.Equal(t, "test.htt", te.Template)
			assert.Equal(t, tt.line, te.Line, "line")
			assert.Equal(t, tt.col, te.Column, "column")
			assert.Contains(t, te.Hint, tt.hint)
		})
	}
}

func TestParse_MismatchReportsExpectedAndFound(t *testing.T) {
	_, err := Parse("t", "<div></span>")
	var te *errors.TemplateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "</div>", te.Expected)
	assert.Equal(t, "</span>", te.Found)
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		`<p class="a">{x}</p>`,
		`@if a { <b/> } @else { x }`,
		`<ul>@for (v in xs) { <li>{v}</li> }</ul>`,
		`@match x { 1 | 2 => { a } _ => { b } }`,
		`<script>a<b</script>`,
		`<!DOCTYPE html><html></html>`,
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, src string) {
		nodes, err := Parse("fuzz", src)
		if err != nil {
			var te *errors.TemplateError
			if !assert.ErrorAs(t, err, &te) {
				return
			}
			assert.Equal(t, errors.ErrorTypeSyntax, te.Type)
			assert.LessOrEqual(t, te.Offset, len(src))
			return
		}
		ast.Walk(nodes, func(n ast.Node) bool {
			assert.LessOrEqual(t, n.Position().Offset, len(src))
			return true
		})
	})
}
