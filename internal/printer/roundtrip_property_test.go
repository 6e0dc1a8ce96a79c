//go:build property

package printer

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/parser/nested"
	"github.com/conneroisu/htmlc/internal/parser/tag"
)

var (
	literals = []string{
		"hello", "Hello, world!", "a b", " lead", "two  spaces", `say "hi"`,
		`back\slash`, "line\nbreak", "{brace}", "}", "<tag>", "&amp;", "@if", "tab\t", "42", "",
	}
	exprs      = []string{"x", "user.Name", "len(items) > 0", `"a" + b`, `m["k"]`, "f(1, 2)"}
	conds      = []string{"ok", "n > 1", "user.Admin && !x"}
	elements   = []string{"div", "p", "span", "ul", "li", "section"}
	attrNames  = []string{"class", "id", "data-x", "title", "hx-get", "@click", ":value"}
	components = []string{"Card", "Nav"}
)

type treeGen struct {
	r *rand.Rand
}

func (g *treeGen) pick(from []string) string { return from[g.r.Intn(len(from))] }

func (g *treeGen) expr(from []string) *ast.Expr { return &ast.Expr{Source: g.pick(from)} }

func (g *treeGen) nodes(depth int) []ast.Node {
	n := g.r.Intn(4)
	if depth == 0 {
		n = g.r.Intn(2)
	}
	var out []ast.Node
	for i := 0; i < n; i++ {
		out = append(out, g.node(depth))
	}
	return out
}

func (g *treeGen) attrs() []ast.Attribute {
	var attrs []ast.Attribute
	for i := g.r.Intn(3); i > 0; i-- {
		a := ast.Attribute{Name: g.pick(attrNames)}
		switch g.r.Intn(4) {
		case 0:
			a.Value = ast.LiteralValue(g.pick(literals))
		case 1:
			a.Value = ast.DynamicValue(g.expr(exprs))
		case 2:
			a.Value = ast.ToggleValue(g.expr(conds))
		default:
			a.Value = ast.ToggleValue(&ast.Expr{Source: "true"})
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func (g *treeGen) node(depth int) ast.Node {
	kind := g.r.Intn(9)
	if depth == 0 {
		kind = g.r.Intn(3)
	}
	switch kind {
	case 0:
		return &ast.Text{Literal: g.pick(literals)}
	case 1:
		return &ast.Text{Expr: g.expr(exprs)}
	case 2:
		return &ast.Text{Expr: g.expr(exprs), Raw: true}
	case 3, 4:
		el := &ast.Element{Name: g.pick(elements), Attrs: g.attrs()}
		if g.r.Intn(5) == 0 {
			el.SelfClosing = true
		} else {
			el.Children = g.nodes(depth - 1)
		}
		return el
	case 5:
		n := &ast.If{}
		for i := 1 + g.r.Intn(2); i > 0; i-- {
			n.Branches = append(n.Branches, ast.Branch{Cond: g.expr(conds), Body: g.nodes(depth - 1)})
		}
		if g.r.Intn(2) == 0 {
			n.Else = g.nodes(depth - 1)
		}
		return n
	case 6:
		n := &ast.For{Value: "v", Iterable: g.expr(exprs), Body: g.nodes(depth - 1)}
		if g.r.Intn(2) == 0 {
			n.Key = "i"
		}
		return n
	case 7:
		n := &ast.Match{Scrutinee: g.expr(exprs)}
		for i := 1 + g.r.Intn(2); i > 0; i-- {
			n.Arms = append(n.Arms, ast.Arm{
				Patterns: []*ast.Expr{g.expr([]string{`"a"`, "1", "x.y"}), g.expr([]string{"2", `"b"`})}[:1+g.r.Intn(2)],
				Body:     g.nodes(depth - 1),
			})
		}
		if g.r.Intn(2) == 0 {
			n.Arms = append(n.Arms, ast.Arm{Wildcard: true, Body: g.nodes(depth - 1)})
		}
		return n
	default:
		return &ast.Call{Name: g.pick(components), Args: g.attrs(), Children: g.nodes(depth - 1)}
	}
}

func TestPrinterRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(4242)
	properties := gopter.NewProperties(parameters)

	trees := gen.Int64().Map(func(seed int64) []ast.Node {
		g := &treeGen{r: rand.New(rand.NewSource(seed))}
		return g.nodes(3)
	})

	properties.Property("tag output parses back to the same tree", prop.ForAll(
		func(tree []ast.Node) bool {
			out, err := Tag(tree)
			if err != nil {
				return false
			}
			got, err := tag.Parse("p.htt", out)
			return err == nil && cmp.Equal(tree, got, treeOpts)
		},
		trees,
	))

	properties.Property("nested output parses back to the same tree", prop.ForAll(
		func(tree []ast.Node) bool {
			out, err := Nested(tree)
			if err != nil {
				return false
			}
			got, err := nested.Parse("p.htn", out)
			return err == nil && cmp.Equal(tree, got, treeOpts)
		},
		trees,
	))

	properties.TestingRun(t)
}
