// Package printer writes a node tree back out as template source in either
// grammar. Parsing the output with the matching parser yields the same tree,
// positions aside.
package printer

import (
	"fmt"
	"strings"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
)

const indentUnit = "  "

type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) indent() {
	for i := 0; i < p.depth; i++ {
		p.b.WriteString(indentUnit)
	}
}

func (p *printer) line(format string, args ...any) {
	p.indent()
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

// quote writes s as a double-quoted literal understood by both grammars.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func forHeader(n *ast.For) string {
	if n.Key != "" {
		return fmt.Sprintf("(%s, %s in %s)", n.Key, n.Value, n.Iterable.Source)
	}
	return fmt.Sprintf("%s in %s", n.Value, n.Iterable.Source)
}

func patterns(arm ast.Arm) string {
	if arm.Wildcard {
		return "_"
	}
	pats := make([]string, len(arm.Patterns))
	for i, p := range arm.Patterns {
		pats[i] = p.Source
	}
	return strings.Join(pats, " | ")
}

func unprintable(at ast.Pos, format string, args ...any) error {
	err := errors.NewInternalError(errors.ErrCodeUnprintable, fmt.Sprintf(format, args...), nil)
	return err.WithLocation("", at.Line, at.Column)
}
