package printer

import (
	"strings"
	"unicode"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/escape"
	"github.com/conneroisu/htmlc/internal/parser/source"
)

// Tag prints nodes in the angle-bracket grammar, one child per line.
// Content of pre, textarea, script and style is printed without added
// whitespace.
func Tag(nodes []ast.Node) (string, error) {
	p := &tagPrinter{}
	if err := p.nodes(nodes, false); err != nil {
		return "", err
	}
	return p.b.String(), nil
}

type tagPrinter struct {
	printer
}

// nodes prints a child list. Inline lists get no separators.
func (p *tagPrinter) nodes(nodes []ast.Node, inline bool) error {
	prevPlain := false
	for _, n := range nodes {
		if !inline {
			p.indent()
		}
		plain, err := p.node(n, inline, prevPlain)
		if err != nil {
			return err
		}
		prevPlain = plain
		if !inline {
			p.b.WriteByte('\n')
		}
	}
	return nil
}

// node prints n and reports whether it was bare text, which must not be
// followed directly by more bare text.
func (p *tagPrinter) node(n ast.Node, inline, prevPlain bool) (bool, error) {
	switch n := n.(type) {
	case *ast.Doctype:
		p.b.WriteString("<!DOCTYPE html>")
	case *ast.Text:
		return p.text(n, inline, prevPlain), nil
	case *ast.Element:
		return false, p.element(n, inline)
	case *ast.Call:
		return false, p.call(n, inline)
	case *ast.If:
		for i, br := range n.Branches {
			if i == 0 {
				p.b.WriteString("@if " + br.Cond.Source + " ")
			} else {
				p.elseSep(inline)
				p.b.WriteString("@else if " + br.Cond.Source + " ")
			}
			if err := p.block(br.Body, inline); err != nil {
				return false, err
			}
		}
		if len(n.Else) > 0 {
			p.elseSep(inline)
			p.b.WriteString("@else ")
			return false, p.block(n.Else, inline)
		}
	case *ast.For:
		p.b.WriteString("@for " + forHeader(n) + " ")
		return false, p.block(n.Body, inline)
	case *ast.Match:
		return false, p.match(n, inline)
	default:
		return false, unprintable(n.Position(), "cannot print %T", n)
	}
	return false, nil
}

func (p *tagPrinter) elseSep(inline bool) {
	if !inline {
		p.b.WriteByte(' ')
	}
}

func (p *tagPrinter) text(t *ast.Text, inline, prevPlain bool) bool {
	switch {
	case t.Expr != nil && t.Raw:
		p.b.WriteString("@raw(" + t.Expr.Source + ")")
	case t.Expr != nil:
		p.b.WriteString("{" + t.Expr.Source + "}")
	case !inline && !prevPlain && plainText(t.Literal):
		p.b.WriteString(t.Literal)
		return true
	default:
		p.b.WriteString("{" + quote(t.Literal) + "}")
	}
	return false
}

// plainText reports whether s survives the tag grammar's text rules when
// written without quoting.
func plainText(s string) bool {
	if s == "" || s[0] == ' ' || s[len(s)-1] == ' ' || strings.Contains(s, "  ") {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(" .,!?:;'-", r) {
			return false
		}
	}
	return true
}

func (p *tagPrinter) attributes(attrs []ast.Attribute) {
	for _, a := range attrs {
		p.b.WriteString(" " + a.Name)
		switch a.Value.Kind {
		case ast.Literal:
			p.b.WriteString(`="` + escape.String(a.Value.Literal) + `"`)
		case ast.Dynamic:
			p.b.WriteString("={" + a.Value.Expr.Source + "}")
		default:
			if a.Value.Expr.Source != "true" {
				p.b.WriteString("?={" + a.Value.Expr.Source + "}")
			}
		}
	}
}

func (p *tagPrinter) element(el *ast.Element, inline bool) error {
	p.b.WriteString("<" + el.Name)
	p.attributes(el.Attrs)
	if el.SelfClosing {
		p.b.WriteString("/>")
		return nil
	}
	p.b.WriteString(">")

	switch {
	case source.RawTextElement(el.Name):
		if err := p.rawText(el); err != nil {
			return err
		}
	case el.Name == "pre" || el.Name == "textarea":
		if err := p.nodes(el.Children, true); err != nil {
			return err
		}
	default:
		if err := p.children(el.Children, inline); err != nil {
			return err
		}
	}
	p.b.WriteString("</" + el.Name + ">")
	return nil
}

func (p *tagPrinter) rawText(el *ast.Element) error {
	switch len(el.Children) {
	case 0:
		return nil
	case 1:
		t, ok := el.Children[0].(*ast.Text)
		if ok && t.Expr == nil && !strings.Contains(t.Literal, "</"+el.Name) {
			p.b.WriteString(t.Literal)
			return nil
		}
	}
	return unprintable(el.At, "<%s> content must be a single literal text without </%s", el.Name, el.Name)
}

// children prints an element body between its tags.
func (p *tagPrinter) children(nodes []ast.Node, inline bool) error {
	if inline || len(nodes) == 0 {
		return p.nodes(nodes, inline)
	}
	p.b.WriteByte('\n')
	p.depth++
	err := p.nodes(nodes, false)
	p.depth--
	p.indent()
	return err
}

func (p *tagPrinter) call(c *ast.Call, inline bool) error {
	p.b.WriteString("<" + c.Name)
	p.attributes(c.Args)
	if len(c.Children) == 0 {
		p.b.WriteString("/>")
		return nil
	}
	p.b.WriteString(">")
	if err := p.children(c.Children, inline); err != nil {
		return err
	}
	p.b.WriteString("</" + c.Name + ">")
	return nil
}

func (p *tagPrinter) block(body []ast.Node, inline bool) error {
	p.b.WriteByte('{')
	if err := p.children(body, inline); err != nil {
		return err
	}
	p.b.WriteByte('}')
	return nil
}

func (p *tagPrinter) match(n *ast.Match, inline bool) error {
	p.b.WriteString("@match " + n.Scrutinee.Source + " {")
	if !inline {
		p.b.WriteByte('\n')
		p.depth++
	}
	for _, arm := range n.Arms {
		if !inline {
			p.indent()
		}
		p.b.WriteString(patterns(arm) + " => ")
		if err := p.block(arm.Body, inline); err != nil {
			return err
		}
		if inline {
			p.b.WriteByte(' ')
		} else {
			p.b.WriteByte('\n')
		}
	}
	if !inline {
		p.depth--
		p.indent()
	}
	p.b.WriteByte('}')
	return nil
}
