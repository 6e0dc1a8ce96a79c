// Package codegen turns a validated node tree into a Plan: a flat list of
// buffer writes where every literal run is pre-escaped and merged, and only
// expression values and control flow are left for render time.
package codegen

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"

	"github.com/conneroisu/htmlc/internal/ast"
)

// OpKind selects what an Op writes.
type OpKind int

const (
	// OpLiteral writes Text, already escaped where needed.
	OpLiteral OpKind = iota
	// OpEscaped writes the value of Expr, escaped.
	OpEscaped
	// OpRaw writes the value of Expr unescaped.
	OpRaw
	// OpInvoke runs a nested invocation against the same buffer.
	OpInvoke
)

// String returns the string representation of the kind.
func (k OpKind) String() string {
	switch k {
	case OpLiteral:
		return "literal"
	case OpEscaped:
		return "escaped"
	case OpRaw:
		return "raw"
	case OpInvoke:
		return "invoke"
	default:
		return "unknown"
	}
}

// Op is one buffer write.
type Op struct {
	Kind   OpKind
	Text   string
	Expr   *Expr
	Invoke Invocation
}

// Expr is a compiled host expression.
type Expr struct {
	Source  string
	Program *vm.Program
	At      ast.Pos
}

// Invocation is one of *Conditional, *Loop, *Switch or *Call.
type Invocation interface {
	invocation()
}

// CondBranch is one guarded branch of a Conditional.
type CondBranch struct {
	Cond *Expr
	Ops  []Op
}

// Conditional runs the first branch whose condition is true, else Else.
type Conditional struct {
	Branches []CondBranch
	Else     []Op
}

// Loop runs Body for every element of Iterable.
type Loop struct {
	Key      string
	Value    string
	Iterable *Expr
	Body     []Op
	At       ast.Pos
}

// Case is one arm of a Switch.
type Case struct {
	Patterns []*Expr
	Ops      []Op
}

// Switch runs the first case with a pattern equal to Scrutinee, else Default
// when HasDefault is set.
type Switch struct {
	Scrutinee  *Expr
	Cases      []Case
	Default    []Op
	HasDefault bool
}

// Arg is a component argument: Literal when Expr is nil.
type Arg struct {
	Name    string
	Literal string
	Expr    *Expr
}

// Call renders a named component. Children, rendered in the caller's scope,
// are passed as the "children" argument.
type Call struct {
	Name     string
	Args     []Arg
	Children []Op
	At       ast.Pos
}

func (*Conditional) invocation() {}
func (*Loop) invocation()        {}
func (*Switch) invocation()      {}
func (*Call) invocation()        {}

// Plan is the compiled form of one template.
type Plan struct {
	Name string
	Ops  []Op
	// SizeHint estimates the rendered size for buffer preallocation.
	SizeHint int
}

// Static returns the whole output when the plan has no dynamic parts.
func (p *Plan) Static() (string, bool) {
	switch {
	case len(p.Ops) == 0:
		return "", true
	case len(p.Ops) == 1 && p.Ops[0].Kind == OpLiteral:
		return p.Ops[0].Text, true
	default:
		return "", false
	}
}

// String dumps the plan one op per line, nested invocations indented.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan %s (%d ops, size hint %d)\n", p.Name, len(p.Ops), p.SizeHint)
	dump(&b, p.Ops, 1)
	return b.String()
}

func dump(b *strings.Builder, ops []Op, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, op := range ops {
		switch op.Kind {
		case OpLiteral:
			fmt.Fprintf(b, "%sliteral %q\n", indent, op.Text)
		case OpEscaped, OpRaw:
			fmt.Fprintf(b, "%s%s %s\n", indent, op.Kind, op.Expr.Source)
		case OpInvoke:
			switch inv := op.Invoke.(type) {
			case *Conditional:
				for i, br := range inv.Branches {
					kw := "if"
					if i > 0 {
						kw = "else if"
					}
					fmt.Fprintf(b, "%s%s %s\n", indent, kw, br.Cond.Source)
					dump(b, br.Ops, depth+1)
				}
				if len(inv.Else) > 0 {
					fmt.Fprintf(b, "%selse\n", indent)
					dump(b, inv.Else, depth+1)
				}
			case *Loop:
				vars := inv.Value
				if inv.Key != "" {
					vars = inv.Key + ", " + inv.Value
				}
				fmt.Fprintf(b, "%sfor %s in %s\n", indent, vars, inv.Iterable.Source)
				dump(b, inv.Body, depth+1)
			case *Switch:
				fmt.Fprintf(b, "%smatch %s\n", indent, inv.Scrutinee.Source)
				for _, c := range inv.Cases {
					pats := make([]string, len(c.Patterns))
					for i, p := range c.Patterns {
						pats[i] = p.Source
					}
					fmt.Fprintf(b, "%s  case %s\n", indent, strings.Join(pats, " | "))
					dump(b, c.Ops, depth+2)
				}
				if inv.HasDefault {
					fmt.Fprintf(b, "%s  default\n", indent)
					dump(b, inv.Default, depth+2)
				}
			case *Call:
				fmt.Fprintf(b, "%scall %s", indent, inv.Name)
				for _, a := range inv.Args {
					if a.Expr != nil {
						fmt.Fprintf(b, " %s=(%s)", a.Name, a.Expr.Source)
					} else {
						fmt.Fprintf(b, " %s=%q", a.Name, a.Literal)
					}
				}
				b.WriteString("\n")
				dump(b, inv.Children, depth+1)
			}
		}
	}
}

// Step is a serialisable view of an Op for tooling output.
type Step struct {
	Op       string `json:"op" yaml:"op"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Expr     string `json:"expr,omitempty" yaml:"expr,omitempty"`
	Body     []Step `json:"body,omitempty" yaml:"body,omitempty"`
	Branches []Step `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// Describe converts ops into Steps.
func Describe(ops []Op) []Step {
	steps := make([]Step, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpLiteral:
			steps = append(steps, Step{Op: "literal", Text: op.Text})
		case OpEscaped, OpRaw:
			steps = append(steps, Step{Op: op.Kind.String(), Expr: op.Expr.Source})
		case OpInvoke:
			steps = append(steps, describeInvocation(op.Invoke))
		}
	}
	return steps
}

func describeInvocation(inv Invocation) Step {
	switch inv := inv.(type) {
	case *Conditional:
		s := Step{Op: "if"}
		for _, br := range inv.Branches {
			s.Branches = append(s.Branches, Step{Op: "branch", Expr: br.Cond.Source, Body: Describe(br.Ops)})
		}
		if len(inv.Else) > 0 {
			s.Branches = append(s.Branches, Step{Op: "else", Body: Describe(inv.Else)})
		}
		return s
	case *Loop:
		vars := inv.Value
		if inv.Key != "" {
			vars = inv.Key + ", " + inv.Value
		}
		return Step{Op: "for", Text: vars, Expr: inv.Iterable.Source, Body: Describe(inv.Body)}
	case *Switch:
		s := Step{Op: "match", Expr: inv.Scrutinee.Source}
		for _, c := range inv.Cases {
			pats := make([]string, len(c.Patterns))
			for i, p := range c.Patterns {
				pats[i] = p.Source
			}
			s.Branches = append(s.Branches, Step{Op: "case", Expr: strings.Join(pats, " | "), Body: Describe(c.Ops)})
		}
		if inv.HasDefault {
			s.Branches = append(s.Branches, Step{Op: "default", Body: Describe(inv.Default)})
		}
		return s
	case *Call:
		return Step{Op: "call", Text: inv.Name, Body: Describe(inv.Children)}
	default:
		return Step{Op: "unknown"}
	}
}
