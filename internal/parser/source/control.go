package source

import (
	"strings"
	"unicode"

	"github.com/conneroisu/htmlc/internal/ast"
)

// Grammar supplies the grammar-specific hooks used while parsing control
// blocks.
type Grammar struct {
	// Block parses a `{ ... }` body at the cursor and returns its children.
	Block func() ([]ast.Node, error)
	// Skip consumes insignificant input between tokens. Defaults to
	// SkipSpace.
	Skip func()
}

func (g Grammar) skip(c *Cursor) {
	if g.Skip != nil {
		g.Skip()
		return
	}
	c.SkipSpace()
}

var keywords = map[string]bool{
	"if":      true,
	"else":    true,
	"for":     true,
	"match":   true,
	"raw":     true,
	"doctype": true,
}

// Mark returns a copy of the cursor state for Reset.
func (c *Cursor) Mark() Cursor { return *c }

// Reset restores a state returned by Mark.
func (c *Cursor) Reset(m Cursor) { *c = m }

// keywordAt returns the keyword following `@` at the cursor, or "". The
// keyword must end the input or be followed by whitespace, `(` or `{`, so
// text such as me@for.com stays text. @raw always needs its `(`.
func (c *Cursor) keywordAt() string {
	if c.Peek() != '@' {
		return ""
	}
	rest := c.src[c.off+1:]
	end := 0
	for end < len(rest) && isIdentByte(rest[end]) {
		end++
	}
	word := rest[:end]
	if !keywords[word] {
		return ""
	}
	if end == len(rest) {
		if word == "raw" {
			return ""
		}
		return word
	}
	switch next := rest[end]; {
	case next == '(':
	case word == "raw":
		return ""
	case next == '{' || unicode.IsSpace(rune(next)):
	default:
		return ""
	}
	return word
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// AtControl reports whether the cursor is at an `@keyword` control construct.
func (c *Cursor) AtControl() bool { return c.keywordAt() != "" }

// ParseControl parses the `@` construct at the cursor: @if, @for, @match,
// @raw(expr) or @doctype.
func ParseControl(c *Cursor, g Grammar) (ast.Node, error) {
	pos := c.Pos()
	kw := c.keywordAt()
	if kw == "" {
		return nil, c.Expected("@if, @for, @match, @raw or @doctype")
	}
	c.Advance(1 + len(kw))

	switch kw {
	case "doctype":
		return &ast.Doctype{At: pos}, nil
	case "raw":
		text, at, err := c.ScanBalanced('(', ')', "( after @raw")
		if err != nil {
			return nil, err
		}
		e := NewExpr(text, at)
		if e.Source == "" {
			return nil, c.ErrorAt(pos, "@raw needs an expression").
				WithHint("write @raw(value)")
		}
		return &ast.Text{Expr: e, Raw: true, At: pos}, nil
	case "if":
		return parseIf(c, g, pos)
	case "for":
		return parseFor(c, g, pos)
	case "match":
		return parseMatch(c, g, pos)
	default:
		return nil, c.ErrorAt(pos, "@else without a preceding @if")
	}
}

// header reads control header text up to the opening brace of the body.
func header(c *Cursor, what string) (*ast.Expr, error) {
	c.SkipSpace()
	text, at, err := c.ScanUntil("{")
	if err != nil {
		return nil, err
	}
	if c.EOF() {
		return nil, c.Expected("{ after " + what)
	}
	raw := NewExpr(text, at)
	inner := StripParens(raw.Source)
	if inner != raw.Source {
		return NewExpr(inner, advance(raw.At, raw.Source[:strings.Index(raw.Source, inner)])), nil
	}
	return raw, nil
}

// advance moves pos past text.
func advance(pos ast.Pos, text string) ast.Pos {
	for _, r := range text {
		pos.Offset += len(string(r))
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

func parseIf(c *Cursor, g Grammar, pos ast.Pos) (ast.Node, error) {
	n := &ast.If{At: pos}
	for {
		cond, err := header(c, "@if condition")
		if err != nil {
			return nil, err
		}
		if cond.Source == "" {
			return nil, c.ErrorAt(cond.At, "@if needs a condition")
		}
		body, err := g.Block()
		if err != nil {
			return nil, err
		}
		n.Branches = append(n.Branches, ast.Branch{Cond: cond, Body: body})

		mark := c.Mark()
		g.skip(c)
		if c.keywordAt() != "else" {
			c.Reset(mark)
			return n, nil
		}
		c.Advance(len("@else"))
		c.SkipSpace()
		if c.HasPrefix("if") && !isIdentByte(c.PeekAt(2)) {
			c.Advance(2)
			continue
		}
		if c.Peek() != '{' {
			return nil, c.Expected("{ or if after @else")
		}
		n.Else, err = g.Block()
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

func parseFor(c *Cursor, g Grammar, pos ast.Pos) (ast.Node, error) {
	h, err := header(c, "@for header")
	if err != nil {
		return nil, err
	}
	idx := indexWord(h.Source, "in")
	if idx < 0 {
		return nil, c.ErrorAt(h.At, "@for header must bind a variable with in").
			WithHint("write @for (item in items) { ... } or @for (i, item in items) { ... }")
	}

	n := &ast.For{At: pos}
	names := strings.Split(h.Source[:idx], ",")
	if len(names) > 2 {
		return nil, c.ErrorAt(h.At, "@for binds at most a key and a value")
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
		if !isIdent(names[i]) {
			return nil, c.ErrorAt(h.At, "invalid @for variable %q", names[i])
		}
	}
	if len(names) == 2 {
		n.Key, n.Value = names[0], names[1]
	} else {
		n.Value = names[0]
	}

	n.Iterable = NewExpr(h.Source[idx+2:], advance(h.At, h.Source[:idx+2]))
	if n.Iterable.Source == "" {
		return nil, c.ErrorAt(n.Iterable.At, "@for needs an iterable after in")
	}

	n.Body, err = g.Block()
	if err != nil {
		return nil, err
	}
	return n, nil
}

func parseMatch(c *Cursor, g Grammar, pos ast.Pos) (ast.Node, error) {
	scrutinee, err := header(c, "@match value")
	if err != nil {
		return nil, err
	}
	if scrutinee.Source == "" {
		return nil, c.ErrorAt(scrutinee.At, "@match needs a value")
	}
	c.Next()

	n := &ast.Match{Scrutinee: scrutinee, At: pos}
	wildcard := false
	for {
		g.skip(c)
		if c.EOF() {
			return nil, c.ErrorAt(pos, "unclosed @match").WithHint("close the arm list with }")
		}
		if c.Accept("}") {
			return n, nil
		}

		arm := ast.Arm{At: c.Pos()}
		if wildcard {
			return nil, c.ErrorAt(arm.At, "unreachable @match arm after _")
		}
		if c.Peek() == '_' && !isIdentByte(c.PeekAt(1)) {
			c.Next()
			arm.Wildcard = true
			wildcard = true
			c.SkipSpace()
		} else {
			for {
				text, at, err := c.ScanUntil("=>", "|")
				if err != nil {
					return nil, err
				}
				p := NewExpr(text, at)
				if p.Source == "" {
					return nil, c.Expected("@match pattern")
				}
				arm.Patterns = append(arm.Patterns, p)
				if !c.Accept("|") {
					break
				}
			}
		}

		if err := c.Expect("=>", "=> after @match pattern"); err != nil {
			return nil, err
		}
		c.SkipSpace()
		arm.Body, err = g.Block()
		if err != nil {
			return nil, err
		}
		n.Arms = append(n.Arms, arm)

		g.skip(c)
		c.Accept(",")
	}
}

// indexWord finds word as a standalone token outside string literals.
func indexWord(s, word string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' && quote != '`' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
			continue
		}
		if strings.HasPrefix(s[i:], word) &&
			(i == 0 || !isIdentByte(s[i-1])) &&
			(i+len(word) == len(s) || !isIdentByte(s[i+len(word)])) {
			return i
		}
	}
	return -1
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
