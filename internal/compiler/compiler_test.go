package compiler

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sourcegraph/conc/iter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/schema"
)

func TestParseSyntax(t *testing.T) {
	for in, want := range map[string]Syntax{"": SyntaxAuto, "auto": SyntaxAuto, "TAG": SyntaxTag, "nested": SyntaxNested} {
		got, err := ParseSyntax(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSyntax("jsx")
	assert.True(t, errors.HasErrorType(err, errors.ErrorTypeConfig))
}

func TestDetectSyntax(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Syntax
		wantErr bool
	}{
		{"page.htt", Options{}, SyntaxTag, false},
		{"dir/PAGE.HTN", Options{}, SyntaxNested, false},
		{"page.html", Options{}, SyntaxAuto, true},
		{"page.html", Options{TagExtensions: []string{".html"}}, SyntaxTag, false},
		{"page.tpl", Options{NestedExtensions: []string{".tpl"}}, SyntaxNested, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectSyntax(tt.name, tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				var te *errors.TemplateError
				require.ErrorAs(t, err, &te)
				assert.Contains(t, te.Hint, ".htt")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_BothGrammarsAgree(t *testing.T) {
	opts := Options{Registry: schema.NewHTML()}
	tagged, err := Compile(context.Background(), Source{
		Name: "card.htt",
		Text: `<div class="card" id={id}><h2>{title}</h2>@if open {<p>"open"</p>}</div>`,
	}, opts)
	require.NoError(t, err)
	assert.Equal(t, SyntaxTag, tagged.Syntax)

	nestedRes, err := Compile(context.Background(), Source{
		Name: "card.htn",
		Text: `.card id=(id) { h2 { (title) } @if open { p { "\"open\"" } } }`,
	}, opts)
	require.NoError(t, err)
	assert.Equal(t, SyntaxNested, nestedRes.Syntax)

	assert.Empty(t, cmp.Diff(tagged.Nodes, nestedRes.Nodes, cmpopts.IgnoreTypes(ast.Pos{}), cmpopts.EquateEmpty()))
	assert.Equal(t, tagged.Plan.String()[len("plan card.htt"):], nestedRes.Plan.String()[len("plan card.htn"):])
}

func TestCompile_ExplicitSyntaxOverridesExtension(t *testing.T) {
	res, err := Compile(context.Background(), Source{Name: "x.txt", Text: `p { "hi" }`, Syntax: SyntaxNested},
		Options{Registry: schema.NewHTML()})
	require.NoError(t, err)
	out, ok := res.Plan.Static()
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", out)
}

func TestCompile_StageErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   Source
		check func(error) bool
	}{
		{"syntax", Source{Name: "a.htt", Text: `<p>`}, errors.IsSyntaxError},
		{"validation", Source{Name: "a.htt", Text: `<dvi></dvi>`}, errors.IsValidationError},
		{"expression", Source{Name: "a.htt", Text: `<p>{a +}</p>`}, errors.IsSyntaxError},
		{"unknown component", Source{Name: "a.htn", Text: `Nope;`}, errors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(context.Background(), tt.src, Options{
				Registry:   schema.NewHTML(),
				Components: names{"Card"},
			})
			require.Error(t, err)
			assert.True(t, tt.check(err), "%v", err)
		})
	}
}

func TestCompile_LogsStages(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.Config{Level: logging.LevelDebug, Output: &buf})

	_, err := Compile(context.Background(), Source{Name: "a.htt", Text: `<p>{x}</p>`},
		Options{Registry: schema.NewHTML(), Logger: logger})
	require.NoError(t, err)

	out := buf.String()
	for _, stage := range []string{"operation=parse", "operation=validate", "operation=generate"} {
		assert.Contains(t, out, stage)
	}
	assert.Contains(t, out, "template=a.htt")
	assert.Contains(t, out, "component=compiler")
}

func TestCompile_Parallel(t *testing.T) {
	reg := schema.NewHTML()
	inputs := make([]int, 32)
	for i := range inputs {
		inputs[i] = i
	}

	results := iter.Map(inputs, func(i *int) string {
		res, err := Compile(context.Background(), Source{
			Name: fmt.Sprintf("t%d.htt", *i),
			Text: fmt.Sprintf(`<ul>@for v in xs {<li data-i="%d">{v}</li>}</ul>`, *i),
		}, Options{Registry: reg})
		if err != nil {
			return err.Error()
		}
		return res.Plan.Name
	})

	for i, got := range results {
		assert.Equal(t, fmt.Sprintf("t%d.htt", i), got)
	}
	assert.True(t, reg.Frozen())
}

type names []string

func (n names) Has(name string) bool {
	for _, s := range n {
		if s == name {
			return true
		}
	}
	return false
}

func (n names) Names() []string { return n }
