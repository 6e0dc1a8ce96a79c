// Package source holds the pieces shared by both template grammars: a
// position-tracking cursor over the template text, expression scanning that
// respects string literals and bracket nesting, and the `@` control blocks
// whose syntax is identical in both grammars.
package source

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
)

// Cursor walks template source one rune at a time, tracking line and column.
type Cursor struct {
	name string
	src  string
	off  int
	line int
	col  int
}

// New returns a cursor at the start of src. name identifies the template in
// error messages.
func New(name, src string) *Cursor {
	return &Cursor{name: name, src: src, line: 1, col: 1}
}

// Name returns the template name.
func (c *Cursor) Name() string { return c.name }

// Source returns the full template text.
func (c *Cursor) Source() string { return c.src }

// Pos returns the current position.
func (c *Cursor) Pos() ast.Pos {
	return ast.Pos{Offset: c.off, Line: c.line, Column: c.col}
}

// Offset returns the current byte offset.
func (c *Cursor) Offset() int { return c.off }

// EOF reports whether the input is exhausted.
func (c *Cursor) EOF() bool { return c.off >= len(c.src) }

// Peek returns the next byte, or 0 at end of input.
func (c *Cursor) Peek() byte {
	if c.off >= len(c.src) {
		return 0
	}
	return c.src[c.off]
}

// PeekAt returns the byte n positions ahead, or 0 past the end.
func (c *Cursor) PeekAt(n int) byte {
	if c.off+n >= len(c.src) {
		return 0
	}
	return c.src[c.off+n]
}

// PeekRune returns the next rune, or utf8.RuneError at end of input.
func (c *Cursor) PeekRune() rune {
	if c.off >= len(c.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(c.src[c.off:])
	return r
}

// HasPrefix reports whether the remaining input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	return strings.HasPrefix(c.src[c.off:], s)
}

// Rest returns the unread input.
func (c *Cursor) Rest() string { return c.src[c.off:] }

// Next consumes and returns one rune.
func (c *Cursor) Next() rune {
	if c.off >= len(c.src) {
		return utf8.RuneError
	}
	r, size := utf8.DecodeRuneInString(c.src[c.off:])
	c.off += size
	if r == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	return r
}

// Advance consumes n bytes.
func (c *Cursor) Advance(n int) {
	end := c.off + n
	for c.off < end && c.off < len(c.src) {
		c.Next()
	}
}

// Accept consumes s if the input starts with it.
func (c *Cursor) Accept(s string) bool {
	if c.HasPrefix(s) {
		c.Advance(len(s))
		return true
	}
	return false
}

// Expect consumes s or fails with a syntax error naming what was expected.
func (c *Cursor) Expect(s, expected string) error {
	if c.Accept(s) {
		return nil
	}
	return c.Expected(expected)
}

// SkipSpace consumes whitespace.
func (c *Cursor) SkipSpace() {
	for !c.EOF() && unicode.IsSpace(c.PeekRune()) {
		c.Next()
	}
}

// Slice returns the source between two byte offsets.
func (c *Cursor) Slice(from, to int) string { return c.src[from:to] }

// ReadName consumes a run of name characters: letters, digits and any byte in
// extra. It returns "" when the next rune does not start a name.
func (c *Cursor) ReadName(extra string) string {
	start := c.off
	for !c.EOF() {
		r := c.PeekRune()
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
			(r < utf8.RuneSelf && strings.IndexByte(extra, byte(r)) >= 0) {
			c.Next()
			continue
		}
		break
	}
	return c.src[start:c.off]
}

// ReadIdent consumes an identifier: a letter or '_' followed by letters,
// digits or '_'.
func (c *Cursor) ReadIdent() string {
	r := c.PeekRune()
	if r != '_' && !unicode.IsLetter(r) {
		return ""
	}
	return c.ReadName("")
}

// Errorf returns a syntax error at the current position.
func (c *Cursor) Errorf(format string, args ...interface{}) *errors.TemplateError {
	return c.ErrorAt(c.Pos(), format, args...)
}

// ErrorAt returns a syntax error at pos.
func (c *Cursor) ErrorAt(pos ast.Pos, format string, args ...interface{}) *errors.TemplateError {
	err := errors.NewSyntaxError(c.name, pos.Offset, pos.Line, pos.Column, "", "")
	err.Message = fmt.Sprintf(format, args...)
	return err
}

// Expected returns a syntax error describing the expected construct and what
// was found instead.
func (c *Cursor) Expected(expected string) *errors.TemplateError {
	pos := c.Pos()
	return errors.NewSyntaxError(c.name, pos.Offset, pos.Line, pos.Column, expected, c.Found())
}

// Found describes the upcoming input for error messages.
func (c *Cursor) Found() string {
	if c.EOF() {
		return "end of input"
	}
	rest := c.src[c.off:]
	if i := strings.IndexAny(rest, " \t\r\n"); i == 0 {
		return "whitespace"
	} else if i > 0 {
		rest = rest[:i]
	}
	if utf8.RuneCountInString(rest) > 12 {
		rest = string([]rune(rest)[:12]) + "…"
	}
	return fmt.Sprintf("%q", rest)
}
