//go:build property

package codegen

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// opsFromSpec turns a compact description into ops: strings starting with
// '$' become escaped writes, everything else a literal.
func opsFromSpec(spec []string) []Op {
	ops := make([]Op, 0, len(spec))
	for _, s := range spec {
		if strings.HasPrefix(s, "$") {
			ops = append(ops, Op{Kind: OpEscaped, Expr: &Expr{Source: s[1:]}})
			continue
		}
		ops = append(ops, literal(s))
	}
	return ops
}

// flatten renders ops with every dynamic write replaced by its source.
func flatten(ops []Op) string {
	var b strings.Builder
	for _, op := range ops {
		if op.Kind == OpLiteral {
			b.WriteString(op.Text)
		} else {
			b.WriteString("${" + op.Expr.Source + "}")
		}
	}
	return b.String()
}

func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(1234)
	properties := gopter.NewProperties(parameters)

	element := gen.OneGenOf(
		gen.AlphaString(),
		gen.Identifier().Map(func(s string) string { return "$" + s }),
	)

	properties.Property("merge preserves output", prop.ForAll(
		func(spec []string) bool {
			ops := opsFromSpec(spec)
			want := flatten(ops)
			return flatten(Merge(&Plan{Ops: ops}).Ops) == want
		},
		gen.SliceOf(element),
	))

	properties.Property("merged plans have no adjacent literals", prop.ForAll(
		func(spec []string) bool {
			merged := Merge(&Plan{Ops: opsFromSpec(spec)}).Ops
			for i := 1; i < len(merged); i++ {
				if merged[i].Kind == OpLiteral && merged[i-1].Kind == OpLiteral {
					return false
				}
			}
			for _, op := range merged {
				if op.Kind == OpLiteral && op.Text == "" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(element),
	))

	properties.Property("merge is idempotent", prop.ForAll(
		func(spec []string) bool {
			once := Merge(&Plan{Ops: opsFromSpec(spec)})
			twice := Merge(&Plan{Ops: append([]Op(nil), once.Ops...)})
			return flatten(once.Ops) == flatten(twice.Ops) && len(once.Ops) == len(twice.Ops)
		},
		gen.SliceOf(element),
	))

	properties.TestingRun(t)
}
