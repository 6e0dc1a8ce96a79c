package codegen

import (
	"sort"

	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Usage is the strongest way a template uses a variable.
type Usage int

const (
	// UsageValue is printed or compared.
	UsageValue Usage = iota
	// UsageCondition is a whole @if condition.
	UsageCondition
	// UsageRecord has fields read from it.
	UsageRecord
	// UsageList is iterated by @for.
	UsageList
)

// String returns the string representation of the usage.
func (u Usage) String() string {
	switch u {
	case UsageValue:
		return "value"
	case UsageCondition:
		return "condition"
	case UsageRecord:
		return "record"
	case UsageList:
		return "list"
	default:
		return "unknown"
	}
}

// Variable is a name a plan reads from its data.
type Variable struct {
	Name  string
	Usage Usage
	// Fields read from a record, sorted.
	Fields []string
	// Elem describes the loop variable bound to the elements of a list.
	Elem *Variable
}

func (v *Variable) use(u Usage) {
	if u > v.Usage {
		v.Usage = u
	}
}

func (v *Variable) field(name string) {
	v.use(UsageRecord)
	for _, f := range v.Fields {
		if f == name {
			return
		}
	}
	v.Fields = append(v.Fields, name)
	sort.Strings(v.Fields)
}

// Variables lists the free variables of p sorted by name. Loop variables
// are not free; how a loop body uses its value variable is reported as the
// Elem of the iterated list.
func Variables(p *Plan) []Variable {
	a := &analyzer{free: make(map[string]*Variable)}
	a.ops(p.Ops)

	vars := make([]Variable, 0, len(a.free))
	for _, v := range a.free {
		vars = append(vars, *v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

type analyzer struct {
	free   map[string]*Variable
	scopes []map[string]*Variable
}

func (a *analyzer) lookup(name string) *Variable {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i][name]; ok {
			return v
		}
	}
	v, ok := a.free[name]
	if !ok {
		v = &Variable{Name: name}
		a.free[name] = v
	}
	return v
}

func (a *analyzer) ops(ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpEscaped, OpRaw:
			a.expr(op.Expr, UsageValue)
		case OpInvoke:
			a.invocation(op.Invoke)
		}
	}
}

func (a *analyzer) invocation(inv Invocation) {
	switch inv := inv.(type) {
	case *Conditional:
		for _, br := range inv.Branches {
			a.expr(br.Cond, UsageCondition)
			a.ops(br.Ops)
		}
		a.ops(inv.Else)
	case *Loop:
		list := a.expr(inv.Iterable, UsageList)
		scope := map[string]*Variable{inv.Value: {Name: inv.Value}}
		if inv.Key != "" {
			scope[inv.Key] = &Variable{Name: inv.Key}
		}
		a.scopes = append(a.scopes, scope)
		a.ops(inv.Body)
		a.scopes = a.scopes[:len(a.scopes)-1]
		if list != nil {
			list.Elem = scope[inv.Value]
		}
	case *Switch:
		a.expr(inv.Scrutinee, UsageValue)
		for _, c := range inv.Cases {
			for _, p := range c.Patterns {
				a.expr(p, UsageValue)
			}
			a.ops(c.Ops)
		}
		a.ops(inv.Default)
	case *Call:
		for _, arg := range inv.Args {
			if arg.Expr != nil {
				a.expr(arg.Expr, UsageValue)
			}
		}
		a.ops(inv.Children)
	}
}

// expr records the identifiers e reads. When e is a bare identifier it is
// used as top and returned.
func (a *analyzer) expr(e *Expr, top Usage) *Variable {
	if e == nil {
		return nil
	}
	tree, err := parser.Parse(e.Source)
	if err != nil {
		return nil
	}
	if ident, ok := tree.Node.(*exprast.IdentifierNode); ok {
		v := a.lookup(ident.Value)
		v.use(top)
		return v
	}
	exprast.Walk(&tree.Node, &identVisitor{a: a})
	return nil
}

type identVisitor struct {
	a *analyzer
}

func (iv *identVisitor) Visit(node *exprast.Node) {
	switch n := (*node).(type) {
	case *exprast.IdentifierNode:
		iv.a.lookup(n.Value).use(UsageValue)
	case *exprast.MemberNode:
		base, ok := n.Node.(*exprast.IdentifierNode)
		prop, isName := n.Property.(*exprast.StringNode)
		if ok && isName {
			iv.a.lookup(base.Value).field(prop.Value)
		}
	}
}
