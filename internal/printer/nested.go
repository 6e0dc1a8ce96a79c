package printer

import (
	"unicode"

	"github.com/conneroisu/htmlc/internal/ast"
)

// Nested prints nodes in the brace-nested grammar, one child per line.
// Class and id are always written as attributes, never as shorthand.
func Nested(nodes []ast.Node) (string, error) {
	p := &nestedPrinter{}
	if err := p.nodes(nodes); err != nil {
		return "", err
	}
	return p.b.String(), nil
}

type nestedPrinter struct {
	printer
}

func (p *nestedPrinter) nodes(nodes []ast.Node) error {
	for _, n := range nodes {
		p.indent()
		if err := p.node(n); err != nil {
			return err
		}
		p.b.WriteByte('\n')
	}
	return nil
}

func (p *nestedPrinter) node(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Doctype:
		p.b.WriteString("@doctype")
	case *ast.Text:
		switch {
		case n.Expr != nil && n.Raw:
			p.b.WriteString("@raw(" + n.Expr.Source + ")")
		case n.Expr != nil:
			p.b.WriteString("(" + n.Expr.Source + ")")
		default:
			p.b.WriteString(quote(n.Literal))
		}
	case *ast.Element:
		if !nestedName(n.Name, false) {
			return unprintable(n.At, "element name %q cannot be written in the nested grammar", n.Name)
		}
		return p.tagged(n.Name, n.Attrs, n.Children, n.SelfClosing)
	case *ast.Call:
		if !nestedName(n.Name, false) {
			return unprintable(n.At, "component name %q cannot be written in the nested grammar", n.Name)
		}
		return p.tagged(n.Name, n.Args, n.Children, len(n.Children) == 0)
	case *ast.If:
		for i, br := range n.Branches {
			if i == 0 {
				p.b.WriteString("@if " + br.Cond.Source + " ")
			} else {
				p.b.WriteString(" @else if " + br.Cond.Source + " ")
			}
			if err := p.block(br.Body); err != nil {
				return err
			}
		}
		if len(n.Else) > 0 {
			p.b.WriteString(" @else ")
			return p.block(n.Else)
		}
	case *ast.For:
		p.b.WriteString("@for " + forHeader(n) + " ")
		return p.block(n.Body)
	case *ast.Match:
		p.b.WriteString("@match " + n.Scrutinee.Source + " {\n")
		p.depth++
		for _, arm := range n.Arms {
			p.indent()
			p.b.WriteString(patterns(arm) + " => ")
			if err := p.block(arm.Body); err != nil {
				return err
			}
			p.b.WriteByte('\n')
		}
		p.depth--
		p.indent()
		p.b.WriteByte('}')
	default:
		return unprintable(n.Position(), "cannot print %T", n)
	}
	return nil
}

func (p *nestedPrinter) tagged(name string, attrs []ast.Attribute, children []ast.Node, selfClosing bool) error {
	p.b.WriteString(name)
	for _, a := range attrs {
		if !nestedName(a.Name, true) {
			return unprintable(a.At, "attribute name %q cannot be written in the nested grammar", a.Name)
		}
		p.b.WriteString(" " + a.Name)
		switch a.Value.Kind {
		case ast.Literal:
			p.b.WriteString("=" + quote(a.Value.Literal))
		case ast.Dynamic:
			p.b.WriteString("=(" + a.Value.Expr.Source + ")")
		default:
			if a.Value.Expr.Source != "true" {
				p.b.WriteString("[" + a.Value.Expr.Source + "]")
			}
		}
	}
	if selfClosing {
		p.b.WriteByte(';')
		return nil
	}
	p.b.WriteByte(' ')
	return p.block(children)
}

func (p *nestedPrinter) block(body []ast.Node) error {
	if len(body) == 0 {
		p.b.WriteString("{}")
		return nil
	}
	p.b.WriteString("{\n")
	p.depth++
	err := p.nodes(body)
	p.depth--
	p.indent()
	p.b.WriteByte('}')
	return err
}

// nestedName reports whether the nested grammar reads s back as one element
// or attribute name.
func nestedName(s string, attribute bool) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i == 0:
			if !attribute || (r != '_' && r != '@' && r != ':') {
				return false
			}
		case r == '_' || unicode.IsDigit(r) || r == '-' || r == ':':
		case attribute && (r == '.' || r == '@'):
		default:
			return false
		}
	}
	return true
}
