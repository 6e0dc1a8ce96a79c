package codegen

import (
	goerrors "errors"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/escape"
	"github.com/conneroisu/htmlc/internal/schema"
)

// Generate compiles nodes into a merged Plan. Expressions are compiled here,
// so a malformed one fails generation with a syntax error at its position.
func Generate(name string, nodes []ast.Node, reg *schema.Registry) (*Plan, error) {
	g := &generator{name: name, reg: reg}
	ops, err := g.nodes(nodes, false)
	if err != nil {
		return nil, err
	}
	return Merge(&Plan{Name: name, Ops: ops}), nil
}

type generator struct {
	name string
	reg  *schema.Registry
}

func literal(s string) Op { return Op{Kind: OpLiteral, Text: s} }

func invoke(inv Invocation) Op { return Op{Kind: OpInvoke, Invoke: inv} }

// compile turns an expression reference into a program.
func (g *generator) compile(e *ast.Expr) (*Expr, error) {
	program, err := expr.Compile(e.Source)
	if err != nil {
		line, col, msg := e.At.Line, e.At.Column, err.Error()
		var fe *file.Error
		if goerrors.As(err, &fe) {
			msg = fe.Message
			if fe.Line <= 1 {
				col += fe.Column
			} else {
				line += fe.Line - 1
				col = fe.Column + 1
			}
		}
		se := errors.NewSyntaxError(g.name, e.At.Offset, line, col, "", "")
		se.Message = "invalid expression " + e.Source + ": " + msg
		return nil, se.WithContext("expression", e.Source)
	}
	return &Expr{Source: e.Source, Program: program, At: e.At}, nil
}

// nodes generates ops for a node list. raw marks the content of a raw-text
// element, whose literal text is written verbatim.
func (g *generator) nodes(nodes []ast.Node, raw bool) ([]Op, error) {
	var ops []Op
	for _, n := range nodes {
		more, err := g.node(n, raw)
		if err != nil {
			return nil, err
		}
		ops = append(ops, more...)
	}
	return ops, nil
}

func (g *generator) node(n ast.Node, raw bool) ([]Op, error) {
	switch n := n.(type) {
	case *ast.Doctype:
		return []Op{literal("<!DOCTYPE html>")}, nil
	case *ast.Text:
		return g.text(n, raw)
	case *ast.Element:
		return g.element(n)
	case *ast.If:
		return g.conditional(n, raw)
	case *ast.For:
		return g.loop(n, raw)
	case *ast.Match:
		return g.match(n, raw)
	case *ast.Call:
		return g.call(n)
	default:
		return nil, errors.NewInternalError(errors.ErrCodeInternalError,
			"unsupported node type", nil).WithLocation(g.name, n.Position().Line, n.Position().Column)
	}
}

func (g *generator) text(t *ast.Text, raw bool) ([]Op, error) {
	if t.Expr == nil {
		if t.Literal == "" {
			return nil, nil
		}
		if t.Raw || raw {
			return []Op{literal(t.Literal)}, nil
		}
		return []Op{literal(escape.String(t.Literal))}, nil
	}

	e, err := g.compile(t.Expr)
	if err != nil {
		return nil, err
	}
	kind := OpEscaped
	if t.Raw {
		kind = OpRaw
	}
	return []Op{{Kind: kind, Expr: e}}, nil
}

func (g *generator) element(el *ast.Element) ([]Op, error) {
	entry, _ := g.reg.Lookup(el.Name)
	void := el.Void || entry.Void

	ops := []Op{literal("<" + el.Name)}
	for _, a := range el.Attrs {
		attrOps, err := g.attribute(a)
		if err != nil {
			return nil, err
		}
		ops = append(ops, attrOps...)
	}
	ops = append(ops, literal(">"))
	if void {
		return ops, nil
	}

	children, err := g.nodes(el.Children, entry.RawText)
	if err != nil {
		return nil, err
	}
	ops = append(ops, children...)
	return append(ops, literal("</"+el.Name+">")), nil
}

func (g *generator) attribute(a ast.Attribute) ([]Op, error) {
	switch a.Value.Kind {
	case ast.Literal:
		return []Op{literal(" " + a.Name + `="` + escape.String(a.Value.Literal) + `"`)}, nil
	case ast.Dynamic:
		e, err := g.compile(a.Value.Expr)
		if err != nil {
			return nil, err
		}
		return []Op{
			literal(" " + a.Name + `="`),
			{Kind: OpEscaped, Expr: e},
			literal(`"`),
		}, nil
	default:
		switch a.Value.Expr.Source {
		case "true":
			return []Op{literal(" " + a.Name)}, nil
		case "false":
			return nil, nil
		}
		e, err := g.compile(a.Value.Expr)
		if err != nil {
			return nil, err
		}
		return []Op{invoke(&Conditional{
			Branches: []CondBranch{{Cond: e, Ops: []Op{literal(" " + a.Name)}}},
		})}, nil
	}
}

func (g *generator) conditional(n *ast.If, raw bool) ([]Op, error) {
	inv := &Conditional{}
	empty := true
	for _, br := range n.Branches {
		cond, err := g.compile(br.Cond)
		if err != nil {
			return nil, err
		}
		body, err := g.nodes(br.Body, raw)
		if err != nil {
			return nil, err
		}
		empty = empty && len(body) == 0
		inv.Branches = append(inv.Branches, CondBranch{Cond: cond, Ops: body})
	}
	els, err := g.nodes(n.Else, raw)
	if err != nil {
		return nil, err
	}
	if empty && len(els) == 0 {
		return nil, nil
	}
	inv.Else = els
	return []Op{invoke(inv)}, nil
}

func (g *generator) loop(n *ast.For, raw bool) ([]Op, error) {
	iterable, err := g.compile(n.Iterable)
	if err != nil {
		return nil, err
	}
	body, err := g.nodes(n.Body, raw)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return []Op{invoke(&Loop{Key: n.Key, Value: n.Value, Iterable: iterable, Body: body, At: n.At})}, nil
}

func (g *generator) match(n *ast.Match, raw bool) ([]Op, error) {
	scrutinee, err := g.compile(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	inv := &Switch{Scrutinee: scrutinee}
	empty := true
	for _, arm := range n.Arms {
		body, err := g.nodes(arm.Body, raw)
		if err != nil {
			return nil, err
		}
		empty = empty && len(body) == 0
		if arm.Wildcard {
			inv.Default, inv.HasDefault = body, true
			continue
		}
		c := Case{Ops: body}
		for _, p := range arm.Patterns {
			pe, err := g.compile(p)
			if err != nil {
				return nil, err
			}
			c.Patterns = append(c.Patterns, pe)
		}
		inv.Cases = append(inv.Cases, c)
	}
	if empty {
		return nil, nil
	}
	return []Op{invoke(inv)}, nil
}

func (g *generator) call(n *ast.Call) ([]Op, error) {
	inv := &Call{Name: n.Name, At: n.At}
	for _, a := range n.Args {
		arg := Arg{Name: a.Name}
		switch a.Value.Kind {
		case ast.Literal:
			arg.Literal = a.Value.Literal
		default:
			e, err := g.compile(a.Value.Expr)
			if err != nil {
				return nil, err
			}
			arg.Expr = e
		}
		inv.Args = append(inv.Args, arg)
	}
	children, err := g.nodes(n.Children, false)
	if err != nil {
		return nil, err
	}
	inv.Children = children
	return []Op{invoke(inv)}, nil
}
