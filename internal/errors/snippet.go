package errors

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Snippet renders the source line at line (1-based) followed by a caret under
// column (1-based, counted in runes). Wide characters before the column
// shift the caret by two cells so it lines up in a terminal.
func Snippet(src string, line, column int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	text := strings.TrimRight(lines[line-1], "\r")
	text = strings.ReplaceAll(text, "\t", " ")

	gutter := fmt.Sprintf("%4d | ", line)
	pad := 0
	col := 1
	for _, r := range text {
		if col >= column {
			break
		}
		pad += cellWidth(r)
		col++
	}
	if column > col {
		pad += column - col
	}

	return gutter + text + "\n" + strings.Repeat(" ", len(gutter)-2) + "| " + strings.Repeat(" ", pad) + "^"
}

func cellWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// Format renders err for a terminal: the message, the offending source line
// with a caret, and the corrective hint. src may be empty.
func Format(err error, src string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Violations))
		for _, te := range ve.ToTemplateErrors() {
			parts = append(parts, formatOne(te, src))
		}
		return strings.Join(parts, "\n\n")
	}

	var te *TemplateError
	if errors.As(err, &te) {
		return formatOne(te, src)
	}
	return err.Error()
}

func formatOne(te *TemplateError, src string) string {
	var b strings.Builder
	b.WriteString(te.Error())
	if src != "" && te.Line > 0 {
		if s := Snippet(src, te.Line, te.Column); s != "" {
			b.WriteString("\n")
			b.WriteString(s)
		}
	}
	if te.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(te.Hint)
	}
	if sugg, ok := te.Context["suggestions"].([]string); ok && len(sugg) > 0 {
		b.WriteString("\n  did you mean: ")
		b.WriteString(strings.Join(sugg, ", "))
	}
	return b.String()
}
