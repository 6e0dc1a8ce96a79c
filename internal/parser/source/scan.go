package source

import (
	"strings"

	"github.com/conneroisu/htmlc/internal/ast"
)

// skipStringLiteral consumes a quoted expression literal starting at the
// current quote byte. Backslash escapes are honoured except in backtick
// strings.
func (c *Cursor) skipStringLiteral() error {
	start := c.Pos()
	quote := c.Peek()
	c.Next()
	for !c.EOF() {
		ch := c.Peek()
		switch {
		case ch == '\\' && quote != '`':
			c.Next()
			c.Next()
		case ch == quote:
			c.Next()
			return nil
		case ch == '\n' && quote != '`':
			return c.ErrorAt(start, "unterminated string literal in expression")
		default:
			c.Next()
		}
	}
	return c.ErrorAt(start, "unterminated string literal in expression")
}

// ScanBalanced consumes a bracketed region starting at the open byte and
// returns the text between the brackets and the position of its first byte.
// Quoted strings and other bracket kinds nest correctly inside it.
func (c *Cursor) ScanBalanced(open, close byte, what string) (string, ast.Pos, error) {
	if c.Peek() != open {
		return "", c.Pos(), c.Expected(what)
	}
	openPos := c.Pos()
	c.Next()
	innerPos := c.Pos()
	start := c.off

	var stack []byte
	for !c.EOF() {
		ch := c.Peek()
		switch ch {
		case '"', '\'', '`':
			if err := c.skipStringLiteral(); err != nil {
				return "", innerPos, err
			}
			continue
		case '(', '[', '{':
			stack = append(stack, matching(ch))
		case ')', ']', '}':
			if len(stack) == 0 {
				if ch == close {
					text := c.src[start:c.off]
					c.Next()
					return text, innerPos, nil
				}
				return "", innerPos, c.Errorf("unbalanced %q in expression", string(ch))
			}
			if stack[len(stack)-1] != ch {
				return "", innerPos, c.Errorf("unbalanced %q in expression", string(ch))
			}
			stack = stack[:len(stack)-1]
		}
		c.Next()
	}
	err := c.ErrorAt(openPos, "unclosed %q", string(open))
	err.Expected = "closing " + string(close)
	err.Found = "end of input"
	return "", innerPos, err
}

// ScanUntil consumes expression text up to the first occurrence of one of
// the stop strings found outside brackets and string literals. The stop
// string itself is not consumed.
func (c *Cursor) ScanUntil(stops ...string) (string, ast.Pos, error) {
	pos := c.Pos()
	start := c.off
	var stack []byte
	for !c.EOF() {
		if len(stack) == 0 {
			for _, s := range stops {
				if c.HasPrefix(s) {
					return c.src[start:c.off], pos, nil
				}
			}
		}
		ch := c.Peek()
		switch ch {
		case '"', '\'', '`':
			if err := c.skipStringLiteral(); err != nil {
				return "", pos, err
			}
			continue
		case '(', '[', '{':
			stack = append(stack, matching(ch))
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return "", pos, c.Errorf("unbalanced %q in expression", string(ch))
			}
			stack = stack[:len(stack)-1]
		}
		c.Next()
	}
	return c.src[start:c.off], pos, nil
}

func matching(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// NewExpr builds an expression reference, trimming surrounding whitespace and
// adjusting the position to the first non-space character.
func NewExpr(text string, at ast.Pos) *ast.Expr {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	for _, r := range text[:len(text)-len(trimmed)] {
		at.Offset += len(string(r))
		if r == '\n' {
			at.Line++
			at.Column = 1
		} else {
			at.Column++
		}
	}
	return &ast.Expr{Source: strings.TrimRight(trimmed, " \t\r\n"), At: at}
}

// StripParens removes one pair of parentheses enclosing the whole of s.
func StripParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	inString := byte(0)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString != 0 {
			if ch == '\\' && inString != '`' {
				i++
			} else if ch == inString {
				inString = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			inString = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}

// IsQuotedLiteral reports whether s is exactly one string literal.
func IsQuotedLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	quote := s[0]
	if quote != '"' && quote != '\'' && quote != '`' {
		return false
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' && quote != '`' {
			i++
			continue
		}
		if ch == quote {
			return i == len(s)-1
		}
	}
	return false
}

// UnquoteLiteral decodes a string literal accepted by IsQuotedLiteral.
func UnquoteLiteral(s string) string {
	s = strings.TrimSpace(s)
	quote := s[0]
	body := s[1 : len(s)-1]
	if quote == '`' {
		return body
	}
	return Unescape(body)
}

// Unescape decodes the backslash escapes \" \' \\ \n \r \t and \` .
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 == len(s) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// RawTextElement reports whether an element's literal text content is emitted
// verbatim.
func RawTextElement(name string) bool {
	return name == "script" || name == "style"
}
