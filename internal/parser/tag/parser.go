// Package tag parses the angle-bracket template grammar:
//
//	<ul class="items">
//		@for (item in items) {
//			<li data-id={item.ID}>{item.Name}</li>
//		}
//	</ul>
//
// Element and component tags, {expr} interpolation, @raw, @doctype and the
// @if/@for/@match control blocks all produce the shared ast tree.
package tag

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/parser/source"
)

// Parse parses src. name identifies the template in errors. Errors are
// *errors.TemplateError values of type syntax.
func Parse(name, src string) ([]ast.Node, error) {
	p := &parser{c: source.New(name, src)}
	p.grammar = source.Grammar{Block: p.block}

	nodes, err := p.children()
	if err != nil {
		return nil, err
	}
	if !p.c.EOF() {
		return nil, p.strayClose()
	}
	return nodes, nil
}

type parser struct {
	c       *source.Cursor
	grammar source.Grammar
	// blocks counts the enclosing `{ ... }` control bodies.
	blocks int
	// verbatim counts enclosing pre/textarea elements.
	verbatim int
}

// children parses nodes until end of input, a closing tag, or the `}` that
// ends the current control body.
func (p *parser) children() ([]ast.Node, error) {
	var out []ast.Node
	for !p.c.EOF() {
		switch {
		case p.c.HasPrefix("</"):
			return out, nil
		case p.c.Peek() == '}':
			if p.blocks == 0 {
				return nil, p.c.Errorf("unexpected }").
					WithHint(`write {"}"} for a literal brace`)
			}
			return out, nil
		case p.c.Peek() == '<':
			nodes, err := p.markup()
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		case p.c.Peek() == '{':
			n, err := p.interpolation()
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		case p.c.AtControl():
			n, err := source.ParseControl(p.c, p.grammar)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		default:
			if n := p.text(); n != nil {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// block parses a control body.
func (p *parser) block() ([]ast.Node, error) {
	open := p.c.Pos()
	if err := p.c.Expect("{", "{"); err != nil {
		return nil, err
	}
	p.blocks++
	nodes, err := p.children()
	p.blocks--
	if err != nil {
		return nil, err
	}
	if p.c.EOF() {
		return nil, p.c.ErrorAt(open, "unclosed {").WithHint("close the block with }")
	}
	if err := p.c.Expect("}", "}"); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (p *parser) strayClose() error {
	pos := p.c.Pos()
	p.c.Advance(2)
	name := p.c.ReadName("-:.")
	return p.c.ErrorAt(pos, "unexpected closing tag </%s>", name).
		WithHint("remove it or add the matching opening tag")
}

// text reads a run of literal text and applies the whitespace rule.
func (p *parser) text() ast.Node {
	pos := p.c.Pos()
	start := p.c.Offset()
	for !p.c.EOF() {
		ch := p.c.Peek()
		if ch == '<' || ch == '{' || ch == '}' || (ch == '@' && p.c.AtControl()) {
			break
		}
		p.c.Next()
	}
	raw := p.c.Slice(start, p.c.Offset())
	if p.verbatim == 0 {
		raw = collapse(raw)
	}
	if raw == "" {
		return nil
	}
	return &ast.Text{Literal: html.UnescapeString(raw), At: pos}
}

// collapse removes whitespace runs containing a line break and turns other
// runs into a single space.
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if !isSpace(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}
		newline := false
		for i < len(s) && isSpace(s[i]) {
			newline = newline || s[i] == '\n'
			i++
		}
		if !newline {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// interpolation parses {expr}. A lone string literal is literal text.
func (p *parser) interpolation() (ast.Node, error) {
	pos := p.c.Pos()
	text, at, err := p.c.ScanBalanced('{', '}', "{")
	if err != nil {
		return nil, err
	}
	e := source.NewExpr(text, at)
	if e.Source == "" {
		return nil, p.c.ErrorAt(pos, "empty expression").
			WithHint("put an expression between the braces, or remove them")
	}
	if source.IsQuotedLiteral(e.Source) {
		return &ast.Text{Literal: source.UnquoteLiteral(e.Source), At: pos}, nil
	}
	return &ast.Text{Expr: e, At: pos}, nil
}

// markup parses the construct starting at '<'. Fragments return their
// children; comments return nothing.
func (p *parser) markup() ([]ast.Node, error) {
	pos := p.c.Pos()
	switch {
	case p.c.HasPrefix("<!--"):
		return nil, p.comment()
	case len(p.c.Rest()) >= 9 && strings.EqualFold(p.c.Rest()[:9], "<!doctype"):
		n, err := p.doctype()
		if err != nil {
			return nil, err
		}
		return []ast.Node{n}, nil
	case p.c.HasPrefix("<>"):
		p.c.Advance(2)
		nodes, err := p.children()
		if err != nil {
			return nil, err
		}
		if !p.c.Accept("</>") {
			if p.c.EOF() {
				return nil, p.c.ErrorAt(pos, "unclosed fragment <>").WithHint("close it with </>")
			}
			return nil, p.c.Expected("</>")
		}
		return nodes, nil
	}

	p.c.Next()
	name := p.c.ReadName("-:.")
	if name == "" {
		err := p.c.Expected("tag name")
		err.Offset, err.Line, err.Column = pos.Offset, pos.Line, pos.Column
		return nil, err.WithHint(`write {"<"} for a literal less-than sign`)
	}

	attrs, selfClosing, err := p.attributes()
	if err != nil {
		return nil, err
	}
	if !selfClosing && voidElements[name] {
		selfClosing = true
		p.acceptClose(name)
	}

	var children []ast.Node
	if !selfClosing {
		children, err = p.content(name, pos)
		if err != nil {
			return nil, err
		}
	}

	if ast.IsComponentName(name) {
		return []ast.Node{&ast.Call{Name: name, Args: attrs, Children: children, At: pos}}, nil
	}
	return []ast.Node{&ast.Element{
		Name:        name,
		Attrs:       attrs,
		Children:    children,
		SelfClosing: selfClosing,
		At:          pos,
	}}, nil
}

// content parses an element body and its closing tag.
func (p *parser) content(name string, open ast.Pos) ([]ast.Node, error) {
	if source.RawTextElement(name) {
		return p.rawText(name, open)
	}

	verbatim := name == "pre" || name == "textarea"
	if verbatim {
		p.verbatim++
	}
	// Braces inside an element never close an enclosing control body.
	blocks := p.blocks
	p.blocks = 0
	children, err := p.children()
	p.blocks = blocks
	if verbatim {
		p.verbatim--
	}
	if err != nil {
		return nil, err
	}

	if p.c.EOF() {
		return nil, p.c.ErrorAt(open, "unclosed <%s>", name).
			WithHint("close it with </" + name + "> or self-close it as <" + name + "/>")
	}

	closePos := p.c.Pos()
	p.c.Advance(2)
	closing := p.c.ReadName("-:.")
	p.c.SkipSpace()
	if closing != name {
		err := errors.NewSyntaxError(p.c.Name(), closePos.Offset, closePos.Line, closePos.Column,
			"</"+name+">", "</"+closing+">")
		return nil, err.WithHint("close <" + name + "> before </" + closing + ">, or self-close it as <" +
			name + "/>")
	}
	if err := p.c.Expect(">", "> to end </"+name); err != nil {
		return nil, err
	}
	return children, nil
}

// voidElements are the HTML elements that never have content. Their start
// tag closes them without a slash.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// acceptClose consumes a redundant </name> directly after a void element.
func (p *parser) acceptClose(name string) {
	mark := p.c.Mark()
	if p.c.Accept("</") && p.c.ReadName("-:.") == name {
		p.c.SkipSpace()
		if p.c.Accept(">") {
			return
		}
	}
	p.c.Reset(mark)
}

// rawText reads script or style content verbatim up to the closing tag.
func (p *parser) rawText(name string, open ast.Pos) ([]ast.Node, error) {
	pos := p.c.Pos()
	end := strings.Index(p.c.Rest(), "</"+name)
	if end < 0 {
		return nil, p.c.ErrorAt(open, "unclosed <%s>", name).WithHint("close it with </" + name + ">")
	}
	body := p.c.Rest()[:end]
	p.c.Advance(end + 2 + len(name))
	p.c.SkipSpace()
	if err := p.c.Expect(">", "> to end </"+name); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, nil
	}
	return []ast.Node{&ast.Text{Literal: body, Raw: true, At: pos}}, nil
}

// attributes parses the attribute list up to and including `>` or `/>`.
func (p *parser) attributes() ([]ast.Attribute, bool, error) {
	var attrs []ast.Attribute
	for {
		p.c.SkipSpace()
		switch {
		case p.c.EOF():
			return nil, false, p.c.Expected("> or />")
		case p.c.Accept("/>"):
			return attrs, true, nil
		case p.c.Accept(">"):
			return attrs, false, nil
		}

		attr, err := p.attribute()
		if err != nil {
			return nil, false, err
		}
		attrs = append(attrs, attr)
	}
}

func (p *parser) attributeName() string {
	start := p.c.Offset()
	for !p.c.EOF() {
		if strings.IndexByte(" \t\r\n\f=>/?\"'{}<", p.c.Peek()) >= 0 {
			break
		}
		p.c.Next()
	}
	return p.c.Slice(start, p.c.Offset())
}

func (p *parser) attribute() (ast.Attribute, error) {
	pos := p.c.Pos()
	name := p.attributeName()
	if name == "" {
		return ast.Attribute{}, p.c.Expected("attribute name")
	}
	attr := ast.Attribute{Name: name, At: pos}

	mark := p.c.Mark()
	p.c.SkipSpace()
	switch {
	case p.c.Accept("?="):
		p.c.SkipSpace()
		if p.c.Peek() != '{' {
			return attr, p.c.Expected("{condition} after "+name+"?=").
				WithHint("toggle attributes take an expression: " + name + "?={cond}")
		}
		text, at, err := p.c.ScanBalanced('{', '}', "{")
		if err != nil {
			return attr, err
		}
		attr.Value = ast.ToggleValue(source.NewExpr(text, at))
	case p.c.Accept("="):
		p.c.SkipSpace()
		v, err := p.attributeValue(name)
		if err != nil {
			return attr, err
		}
		attr.Value = v
	default:
		p.c.Reset(mark)
		attr.Value = ast.ToggleValue(&ast.Expr{Source: "true", At: pos})
	}
	return attr, nil
}

func (p *parser) attributeValue(name string) (ast.Value, error) {
	switch p.c.Peek() {
	case '"':
		open := p.c.Pos()
		p.c.Next()
		start := p.c.Offset()
		end := strings.IndexByte(p.c.Rest(), '"')
		if end < 0 {
			return ast.Value{}, p.c.ErrorAt(open, "unterminated attribute value").
				WithHint("close the value with \"")
		}
		p.c.Advance(end + 1)
		return ast.LiteralValue(html.UnescapeString(p.c.Slice(start, start+end))), nil
	case '{':
		text, at, err := p.c.ScanBalanced('{', '}', "{")
		if err != nil {
			return ast.Value{}, err
		}
		e := source.NewExpr(text, at)
		if e.Source == "" {
			return ast.Value{}, p.c.ErrorAt(at, "empty expression for attribute %s", name)
		}
		return ast.DynamicValue(e), nil
	case '\'':
		return ast.Value{}, p.c.Expected("\" or {").
			WithHint("attribute values use double quotes: " + name + "=\"...\"")
	default:
		return ast.Value{}, p.c.Expected("\" or {").
			WithHint("quote the value: " + name + "=\"...\" or use an expression: " + name + "={value}")
	}
}

func (p *parser) comment() error {
	pos := p.c.Pos()
	end := strings.Index(p.c.Rest(), "-->")
	if end < 0 {
		return p.c.ErrorAt(pos, "unclosed comment").WithHint("end the comment with -->")
	}
	p.c.Advance(end + 3)
	return nil
}

func (p *parser) doctype() (ast.Node, error) {
	pos := p.c.Pos()
	p.c.Advance(9)
	end := strings.IndexByte(p.c.Rest(), '>')
	if end < 0 {
		return nil, p.c.Expected("> to end <!DOCTYPE")
	}
	if kind := strings.TrimSpace(p.c.Rest()[:end]); !strings.EqualFold(kind, "html") {
		return nil, p.c.ErrorAt(pos, "unsupported doctype %q", kind).
			WithHint("only <!DOCTYPE html> is supported")
	}
	p.c.Advance(end + 1)
	return &ast.Doctype{At: pos}, nil
}
