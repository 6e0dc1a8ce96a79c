package escape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

func TestString(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"ampersand", "&", "&amp;"},
		{"tag", "<script>", "&lt;script&gt;"},
		{"double quote", `say "hi"`, "say &quot;hi&quot;"},
		{"single quote", "it's", "it&#39;s"},
		{"all", `&<>"'`, "&amp;&lt;&gt;&quot;&#39;"},
		{"existing entity", "&amp;", "&amp;amp;"},
		{"unicode", "héllo <wörld>", "héllo &lt;wörld&gt;"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, String(tc.input))
		})
	}
}

func TestStringReturnsInputWhenClean(t *testing.T) {
	input := "nothing to see here"
	out := String(input)
	assert.Equal(t, input, out)
	assert.False(t, NeedsEscaping(input))
}

func TestAppendString(t *testing.T) {
	dst := []byte("<p>")
	dst = AppendString(dst, "a < b")
	dst = append(dst, "</p>"...)
	assert.Equal(t, "<p>a &lt; b</p>", string(dst))
}

func TestEscapedLen(t *testing.T) {
	for _, s := range []string{"", "abc", `&<>"'`, "x & y < z", "it's \"quoted\""} {
		assert.Equal(t, len(String(s)), EscapedLen(s), "input %q", s)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		`<a href="x">Tom & Jerry's</a>`,
		"&&&<<<>>>",
		`'"'"`,
		"plain",
		"&amp; already",
	}
	for _, in := range inputs {
		out := String(in)
		assert.False(t, strings.ContainsAny(out, `<>"'`), "output %q", out)
		assert.Equal(t, in, html.UnescapeString(out))
	}
}

func FuzzString(f *testing.F) {
	f.Add("")
	f.Add("<b>bold</b>")
	f.Add(`"quoted" & 'single'`)
	f.Add("&#39;&quot;")

	f.Fuzz(func(t *testing.T, input string) {
		out := String(input)
		if strings.ContainsAny(out, `<>"'`) {
			t.Fatalf("escaped output %q still contains special characters", out)
		}
		// every remaining '&' must start one of our entities
		for i := strings.IndexByte(out, '&'); i >= 0; {
			rest := out[i:]
			if !(strings.HasPrefix(rest, "&amp;") || strings.HasPrefix(rest, "&lt;") ||
				strings.HasPrefix(rest, "&gt;") || strings.HasPrefix(rest, "&quot;") ||
				strings.HasPrefix(rest, "&#39;")) {
				t.Fatalf("bare ampersand in %q", out)
			}
			next := strings.IndexByte(out[i+1:], '&')
			if next < 0 {
				break
			}
			i += next + 1
		}
		if got := html.UnescapeString(out); got != input {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", input, out, got)
		}
	})
}
