// Package escape converts raw text into HTML-safe text.
//
// The same five characters are replaced everywhere, in text content and in
// double-quoted attribute values alike: "&", "<", ">", '"' and "'". Every
// other byte, including multi-byte UTF-8 sequences, is copied unchanged.
package escape

import "strings"

const specials = `&<>"'`

// NeedsEscaping reports whether s contains any character that String would
// replace.
func NeedsEscaping(s string) bool {
	return strings.ContainsAny(s, specials)
}

// String returns s with the HTML special characters replaced by entities.
// When s contains none of them it is returned as is.
func String(s string) string {
	if !NeedsEscaping(s) {
		return s
	}
	buf := make([]byte, 0, len(s)+len(s)/4)
	return string(AppendString(buf, s))
}

// AppendString appends the escaped form of s to dst and returns the extended
// buffer.
func AppendString(dst []byte, s string) []byte {
	last := 0
	for i := 0; i < len(s); i++ {
		var entity string
		switch s[i] {
		case '&':
			entity = "&amp;"
		case '<':
			entity = "&lt;"
		case '>':
			entity = "&gt;"
		case '"':
			entity = "&quot;"
		case '\'':
			entity = "&#39;"
		default:
			continue
		}
		dst = append(dst, s[last:i]...)
		dst = append(dst, entity...)
		last = i + 1
	}
	return append(dst, s[last:]...)
}

// EscapedLen returns the length of the escaped form of s without building it.
func EscapedLen(s string) int {
	n := len(s)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			n += 4
		case '<', '>':
			n += 3
		case '"':
			n += 5
		case '\'':
			n += 4
		}
	}
	return n
}
