// Package nested parses the brace-nested template grammar:
//
//	ul.items {
//		@for (item in items) {
//			li data-id=(item.ID) { (item.Name) }
//		}
//	}
//
// Text only comes from quoted literals, so no whitespace is ever implied.
package nested

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/parser/source"
)

// Parse parses src. name identifies the template in errors. Errors are
// *errors.TemplateError values of type syntax.
func Parse(name, src string) ([]ast.Node, error) {
	p := &parser{c: source.New(name, src)}
	p.grammar = source.Grammar{Block: p.block, Skip: p.skip}

	nodes, err := p.nodes("")
	if err != nil {
		return nil, err
	}
	if !p.c.EOF() {
		return nil, p.c.Errorf("unexpected }").WithHint("remove it or add the matching {")
	}
	return nodes, nil
}

type parser struct {
	c       *source.Cursor
	grammar source.Grammar
}

// skip consumes whitespace and comments.
func (p *parser) skip() {
	for {
		p.c.SkipSpace()
		switch {
		case p.c.HasPrefix("//"):
			for !p.c.EOF() && p.c.Peek() != '\n' {
				p.c.Next()
			}
		case p.c.HasPrefix("/*"):
			end := strings.Index(p.c.Rest()[2:], "*/")
			if end < 0 {
				return
			}
			p.c.Advance(end + 4)
		default:
			return
		}
	}
}

// nodes parses until end of input or the `}` closing the current body.
// parent names the enclosing element, "" at the top level.
func (p *parser) nodes(parent string) ([]ast.Node, error) {
	var out []ast.Node
	for {
		p.skip()
		if p.c.EOF() || p.c.Peek() == '}' {
			return out, nil
		}
		if p.c.HasPrefix("/*") {
			return nil, p.c.Errorf("unclosed comment").WithHint("end the comment with */")
		}
		nodes, err := p.node(parent)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
}

func (p *parser) node(parent string) ([]ast.Node, error) {
	pos := p.c.Pos()
	if lit, ok := p.literal(); ok {
		return []ast.Node{&ast.Text{Literal: lit, At: pos}}, nil
	}
	ch := p.c.Peek()
	switch {
	case ch == '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return []ast.Node{&ast.Text{Literal: s, Raw: source.RawTextElement(parent), At: pos}}, nil
	case ch == '(':
		e, err := p.paren()
		if err != nil {
			return nil, err
		}
		if source.IsQuotedLiteral(e.Source) {
			return []ast.Node{&ast.Text{Literal: source.UnquoteLiteral(e.Source), At: pos}}, nil
		}
		return []ast.Node{&ast.Text{Expr: e, At: pos}}, nil
	case ch == '{':
		return p.body(parent)
	case ch == '@':
		if !p.c.AtControl() {
			return nil, p.c.Expected("@if, @for, @match, @raw or @doctype")
		}
		n, err := source.ParseControl(p.c, p.grammar)
		if err != nil {
			return nil, err
		}
		return []ast.Node{n}, nil
	case ch == '.' || ch == '#' || unicode.IsLetter(p.c.PeekRune()):
		n, err := p.element()
		if err != nil {
			return nil, err
		}
		return []ast.Node{n}, nil
	case ch == '\'':
		return nil, p.c.Expected("element, text or expression").
			WithHint(`text literals use double quotes: "..."`)
	default:
		return nil, p.c.Expected("element, text or expression")
	}
}

// literal reads a bare number, true or false. Numbers are digits with an
// optional fraction and are written as they appear in the source.
func (p *parser) literal() (string, bool) {
	rest := p.c.Rest()
	n := digits(rest)
	if n > 0 {
		if n+1 < len(rest) && rest[n] == '.' && isDigit(rest[n+1]) {
			n += 1 + digits(rest[n+1:])
		}
		p.c.Advance(n)
		return rest[:n], true
	}
	for _, word := range []string{"true", "false"} {
		if strings.HasPrefix(rest, word) && !continuesName(rest[len(word):]) {
			p.c.Advance(len(word))
			return word, true
		}
	}
	return "", false
}

func digits(s string) int {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return n
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// continuesName reports whether s starts with a byte that would extend an
// element name, class or id.
func continuesName(s string) bool {
	if s == "" {
		return false
	}
	b := s[0]
	return b == '_' || b == '-' || b == ':' || b == '.' || b == '#' || isDigit(b) ||
		b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= utf8.RuneSelf
}

// paren reads a non-empty (expr).
func (p *parser) paren() (*ast.Expr, error) {
	pos := p.c.Pos()
	text, at, err := p.c.ScanBalanced('(', ')', "(")
	if err != nil {
		return nil, err
	}
	e := source.NewExpr(text, at)
	if e.Source == "" {
		return nil, p.c.ErrorAt(pos, "empty expression").
			WithHint("put an expression between the parentheses, or remove them")
	}
	return e, nil
}

// block parses a control body.
func (p *parser) block() ([]ast.Node, error) {
	return p.body("")
}

// body parses `{ ... }`.
func (p *parser) body(parent string) ([]ast.Node, error) {
	open := p.c.Pos()
	if err := p.c.Expect("{", "{"); err != nil {
		return nil, err
	}
	nodes, err := p.nodes(parent)
	if err != nil {
		return nil, err
	}
	if p.c.EOF() {
		return nil, p.c.ErrorAt(open, "unclosed {").WithHint("close the block with }")
	}
	p.c.Next()
	return nodes, nil
}

// quoted reads a double-quoted literal with backslash escapes.
func (p *parser) quoted() (string, error) {
	open := p.c.Pos()
	p.c.Next()
	start := p.c.Offset()
	for !p.c.EOF() {
		switch p.c.Peek() {
		case '\\':
			p.c.Next()
			p.c.Next()
		case '"':
			s := source.Unescape(p.c.Slice(start, p.c.Offset()))
			p.c.Next()
			return s, nil
		default:
			p.c.Next()
		}
	}
	return "", p.c.ErrorAt(open, "unterminated string").WithHint("close the text with \"")
}

// piece is one part of a class or id value: literal text, or an expression
// when expr is set.
type piece struct {
	lit  string
	expr *ast.Expr
}

type shorthand struct {
	kind   byte
	pieces []piece
	at     ast.Pos
}

func (p *parser) element() (ast.Node, error) {
	pos := p.c.Pos()
	name := "div"
	if ch := p.c.Peek(); ch != '.' && ch != '#' {
		name = p.c.ReadName("-:")
	}

	var short []shorthand
	for ch := p.c.Peek(); ch == '.' || ch == '#'; ch = p.c.Peek() {
		at := p.c.Pos()
		p.c.Next()
		pieces, err := p.shorthandValue(ch)
		if err != nil {
			return nil, err
		}
		short = append(short, shorthand{kind: ch, pieces: pieces, at: at})
	}
	if len(short) > 0 && ast.IsComponentName(name) {
		return nil, p.c.ErrorAt(pos, "component %s cannot take class or id shorthand", name).
			WithHint("pass the value as an argument")
	}

	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	attrs, err = p.desugar(short, attrs)
	if err != nil {
		return nil, err
	}

	var (
		children    []ast.Node
		selfClosing bool
	)
	switch {
	case p.c.Accept(";"):
		selfClosing = true
	case p.c.Peek() == '{':
		children, err = p.body(name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.c.Expected("attribute, { or ; after "+name).
			WithHint("wrap children in braces: " + name + ` { "text" }`)
	}

	if ast.IsComponentName(name) {
		return &ast.Call{Name: name, Args: attrs, Children: children, At: pos}, nil
	}
	return &ast.Element{
		Name:        name,
		Attrs:       attrs,
		Children:    children,
		SelfClosing: selfClosing,
		At:          pos,
	}, nil
}

// shorthandValue reads what follows . or #: a name, a quoted literal, an
// (expr), or a { ... } group whose parts are joined without spaces.
func (p *parser) shorthandValue(kind byte) ([]piece, error) {
	switch p.c.Peek() {
	case '"', '(':
		pc, err := p.valuePiece()
		if err != nil {
			return nil, err
		}
		return []piece{pc}, nil
	case '{':
		open := p.c.Pos()
		p.c.Next()
		var pieces []piece
		for {
			p.skip()
			if p.c.EOF() {
				return nil, p.c.ErrorAt(open, "unclosed {").WithHint("close the group with }")
			}
			if p.c.Accept("}") {
				break
			}
			pc, err := p.valuePiece()
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, pc)
		}
		if len(pieces) == 0 {
			return nil, p.c.ErrorAt(open, "empty {} after %c", kind).
				WithHint(`put text or expressions in the group: #{ "item-" (i) }`)
		}
		return pieces, nil
	}
	if v := p.c.ReadName("-:"); v != "" {
		return []piece{{lit: v}}, nil
	}
	if kind == '.' {
		return nil, p.c.Expected("class name after .")
	}
	return nil, p.c.Expected("id after #")
}

// valuePiece reads a quoted literal, a number, true, false or an (expr).
func (p *parser) valuePiece() (piece, error) {
	switch p.c.Peek() {
	case '"':
		s, err := p.quoted()
		return piece{lit: s}, err
	case '(':
		e, err := p.paren()
		if err != nil {
			return piece{}, err
		}
		if source.IsQuotedLiteral(e.Source) {
			return piece{lit: source.UnquoteLiteral(e.Source)}, nil
		}
		return piece{expr: e}, nil
	}
	if lit, ok := p.literal(); ok {
		return piece{lit: lit}, nil
	}
	return piece{}, p.c.Expected(`"text", a number or (expr)`)
}

// attributes parses attributes up to the body or `;`.
func (p *parser) attributes() ([]ast.Attribute, error) {
	var attrs []ast.Attribute
	for {
		p.skip()
		r := p.c.PeekRune()
		if r != '_' && r != '@' && r != ':' && !unicode.IsLetter(r) {
			return attrs, nil
		}
		pos := p.c.Pos()
		name := p.c.ReadName("-:.@")
		attr := ast.Attribute{Name: name, At: pos}

		switch p.c.Peek() {
		case '=':
			p.c.Next()
			switch p.c.Peek() {
			case '"':
				s, err := p.quoted()
				if err != nil {
					return nil, err
				}
				attr.Value = ast.LiteralValue(s)
			case '(':
				text, at, err := p.c.ScanBalanced('(', ')', "(")
				if err != nil {
					return nil, err
				}
				e := source.NewExpr(text, at)
				if e.Source == "" {
					return nil, p.c.ErrorAt(at, "empty expression for attribute %s", name)
				}
				attr.Value = ast.DynamicValue(e)
			default:
				return nil, p.c.Expected(`"value" or (expr) after `+name+"=").
					WithHint(name + `="text" or ` + name + "=(value)")
			}
		case '[':
			text, at, err := p.c.ScanBalanced('[', ']', "[")
			if err != nil {
				return nil, err
			}
			e := source.NewExpr(text, at)
			if e.Source == "" {
				return nil, p.c.ErrorAt(at, "empty condition for attribute %s", name)
			}
			attr.Value = ast.ToggleValue(e)
		default:
			attr.Value = ast.ToggleValue(&ast.Expr{Source: "true", At: pos})
		}
		attrs = append(attrs, attr)
	}
}

// desugar turns .class and #id shorthand into attributes placed before the
// explicit ones. Explicit class attributes are appended to the shorthand
// classes in source order.
func (p *parser) desugar(short []shorthand, attrs []ast.Attribute) ([]ast.Attribute, error) {
	if len(short) == 0 {
		return attrs, nil
	}

	var (
		classes [][]piece
		classAt ast.Pos
		id      *shorthand
		order   []byte
	)
	for i := range short {
		s := &short[i]
		if s.kind == '.' {
			if classes == nil {
				classAt = s.at
				order = append(order, '.')
			}
			classes = append(classes, s.pieces)
			continue
		}
		if id != nil {
			return nil, p.c.ErrorAt(s.at, "element has two ids").WithHint("keep a single #id")
		}
		id = s
		order = append(order, '#')
	}

	rest := attrs[:0:0]
	for _, a := range attrs {
		switch {
		case a.Name == "id" && id != nil:
			return nil, p.c.ErrorAt(a.At, "element has two ids").
				WithHint("drop either the #id shorthand or the id attribute")
		case a.Name == "class" && classes != nil:
			switch a.Value.Kind {
			case ast.Literal:
				classes = append(classes, []piece{{lit: a.Value.Literal}})
			case ast.Dynamic:
				classes = append(classes, []piece{{expr: a.Value.Expr}})
			default:
				return nil, p.c.ErrorAt(a.At, "class toggle cannot be combined with .class shorthand")
			}
		default:
			rest = append(rest, a)
		}
	}

	out := make([]ast.Attribute, 0, len(rest)+2)
	for _, kind := range order {
		if kind == '#' {
			out = append(out, ast.Attribute{Name: "id", Value: concat(id.pieces), At: id.at})
			continue
		}
		var pieces []piece
		for i, c := range classes {
			if i > 0 {
				pieces = append(pieces, piece{lit: " "})
			}
			pieces = append(pieces, c...)
		}
		out = append(out, ast.Attribute{Name: "class", Value: concat(pieces), At: classAt})
	}
	return append(out, rest...), nil
}

// concat folds pieces into a literal value, or into one string
// concatenation when any piece is an expression.
func concat(pieces []piece) ast.Value {
	var (
		terms []string
		lit   strings.Builder
		first *ast.Expr
	)
	flush := func() {
		if lit.Len() > 0 {
			terms = append(terms, strconv.Quote(lit.String()))
			lit.Reset()
		}
	}
	for _, pc := range pieces {
		if pc.expr == nil {
			lit.WriteString(pc.lit)
			continue
		}
		if first == nil {
			first = pc.expr
		}
		flush()
		terms = append(terms, "string("+pc.expr.Source+")")
	}
	if first == nil {
		return ast.LiteralValue(lit.String())
	}
	flush()
	return ast.DynamicValue(&ast.Expr{Source: strings.Join(terms, " + "), At: first.At})
}
