package htmlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_AttributeOrder(t *testing.T) {
	data := map[string]any{"u": "/x", "h": true, "off": false, "n": 7}

	tests := []struct {
		name string
		tag  string
		htn  string
		want string
	}{
		{
			name: "id first",
			tag:  `<a id="1" href="x">go</a>`,
			htn:  `a id="1" href="x" { "go" }`,
			want: `<a id="1" href="x">go</a>`,
		},
		{
			name: "href first",
			tag:  `<a href="x" id="1">go</a>`,
			htn:  `a href="x" id="1" { "go" }`,
			want: `<a href="x" id="1">go</a>`,
		},
		{
			name: "dynamic and toggles between literals",
			tag:  `<a href={u} hidden?={h} id="1" download>go</a>`,
			htn:  `a href=(u) hidden[h] id="1" download { "go" }`,
			want: `<a href="/x" hidden id="1" download>go</a>`,
		},
		{
			name: "false toggle keeps the rest in place",
			tag:  `<a id={n} title="t" hidden?={off} href="x">go</a>`,
			htn:  `a id=(n) title="t" hidden[off] href="x" { "go" }`,
			want: `<a id="7" title="t" href="x">go</a>`,
		},
		{
			name: "void element",
			tag:  `<input type="checkbox" checked?={h} name={u}>`,
			htn:  `input type="checkbox" checked[h] name=(u);`,
			want: `<input type="checkbox" checked name="/x">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSet()
			for name, src := range map[string]string{"t.htt": tt.tag, "t.htn": tt.htn} {
				tmpl, err := s.Parse(name, SyntaxAuto, src)
				require.NoError(t, err, name)

				out, err := tmpl.Render(data)
				require.NoError(t, err, name)
				assert.Equal(t, tt.want, out, name)
			}
		})
	}
}

func TestRender_NestedShorthand(t *testing.T) {
	tests := []struct {
		name string
		src  string
		data map[string]any
		want string
	}{
		{
			name: "literal class after dynamic class",
			src:  `div.a class=(x) class="b" {}`,
			data: map[string]any{"x": "X"},
			want: `<div class="a X b"></div>`,
		},
		{
			name: "dynamic id",
			src:  `li#{ "item-" (i) } { (i) }`,
			data: map[string]any{"i": 3},
			want: `<li id="item-3">3</li>`,
		},
		{
			name: "escaped class expression",
			src:  `p.{ "x-" (k) } {}`,
			data: map[string]any{"k": `"><b>`},
			want: `<p class="x-&quot;&gt;&lt;b&gt;"></p>`,
		},
		{
			name: "quoted class",
			src:  `i.bi."bi-chat" {}`,
			want: `<i class="bi bi-chat"></i>`,
		},
		{
			name: "literals",
			src:  `p { 3.14 " " true }`,
			want: `<p>3.14 true</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := newSet().Parse("t.htn", SyntaxAuto, tt.src)
			require.NoError(t, err)

			out, err := tmpl.Render(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
