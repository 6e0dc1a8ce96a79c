package render

import (
	goerrors "errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/expr-lang/expr/vm"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/codegen"
	"github.com/conneroisu/htmlc/internal/errors"
)

// MaxDepth bounds component nesting within one buffer.
const MaxDepth = 100

// Exec runs plan against buf. On error everything the plan wrote is
// discarded, so buf holds exactly what it held before the call.
func Exec(plan *codegen.Plan, buf *Buffer, scope *Scope, resolver Resolver) error {
	if scope == nil {
		scope = NewScope(nil)
	}
	start := buf.Len()
	buf.grow(plan.SizeHint)

	x := &executor{name: plan.Name, buf: buf, resolver: resolver}
	if err := x.ops(plan.Ops, scope); err != nil {
		buf.truncate(start)
		return err
	}
	return nil
}

type executor struct {
	name     string
	buf      *Buffer
	resolver Resolver
}

func (x *executor) fail(at ast.Pos, msg string, cause error) *errors.TemplateError {
	return errors.NewRenderError(x.name, msg, cause).WithLocation(x.name, at.Line, at.Column)
}

func (x *executor) eval(e *codegen.Expr, scope *Scope) (any, error) {
	v, err := vm.Run(e.Program, scope.Env())
	if err != nil {
		return nil, x.fail(e.At, "evaluating "+e.Source+": "+err.Error(), err).
			WithContext("expression", e.Source)
	}
	return v, nil
}

func (x *executor) ops(ops []codegen.Op, scope *Scope) error {
	for i := range ops {
		op := &ops[i]
		switch op.Kind {
		case codegen.OpLiteral:
			x.buf.writeString(op.Text)
		case codegen.OpEscaped, codegen.OpRaw:
			v, err := x.eval(op.Expr, scope)
			if err != nil {
				return err
			}
			if r, ok := v.(Renderable); ok {
				if err := r.RenderHTML(x.buf); err != nil {
					return err
				}
				continue
			}
			x.buf.writeValue(v, op.Kind == codegen.OpEscaped)
		case codegen.OpInvoke:
			if err := x.invoke(op.Invoke, scope); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *executor) invoke(inv codegen.Invocation, scope *Scope) error {
	switch inv := inv.(type) {
	case *codegen.Conditional:
		return x.conditional(inv, scope)
	case *codegen.Loop:
		return x.loop(inv, scope)
	case *codegen.Switch:
		return x.match(inv, scope)
	case *codegen.Call:
		return x.call(inv, scope)
	default:
		return errors.NewInternalError(errors.ErrCodeInternalError,
			fmt.Sprintf("unsupported invocation %T", inv), nil)
	}
}

func (x *executor) conditional(c *codegen.Conditional, scope *Scope) error {
	for _, br := range c.Branches {
		v, err := x.eval(br.Cond, scope)
		if err != nil {
			return err
		}
		ok, valid := truthy(v)
		if !valid {
			return x.fail(br.Cond.At, fmt.Sprintf("condition %s is %T, not bool", br.Cond.Source, v), nil)
		}
		if ok {
			return x.ops(br.Ops, scope)
		}
	}
	return x.ops(c.Else, scope)
}

func (x *executor) loop(l *codegen.Loop, scope *Scope) error {
	v, err := x.eval(l.Iterable, scope)
	if err != nil {
		return err
	}
	err = each(v, func(key, value any) error {
		vars := make(map[string]any, 2)
		if l.Key != "" {
			vars[l.Key] = key
		}
		vars[l.Value] = value
		return x.ops(l.Body, scope.With(vars))
	})
	if goerrors.Is(err, errNotIterable) {
		return x.fail(l.Iterable.At, fmt.Sprintf("cannot iterate over %s (%T)", l.Iterable.Source, v), nil).
			WithHint("@for accepts slices, arrays, maps, strings, integers and nil")
	}
	return err
}

func (x *executor) match(s *codegen.Switch, scope *Scope) error {
	v, err := x.eval(s.Scrutinee, scope)
	if err != nil {
		return err
	}
	for _, c := range s.Cases {
		for _, p := range c.Patterns {
			pv, err := x.eval(p, scope)
			if err != nil {
				return err
			}
			if equal(v, pv) {
				return x.ops(c.Ops, scope)
			}
		}
	}
	if s.HasDefault {
		return x.ops(s.Default, scope)
	}
	return nil
}

func (x *executor) call(c *codegen.Call, scope *Scope) error {
	var comp Component
	ok := false
	if x.resolver != nil {
		comp, ok = x.resolver.Component(c.Name)
	}
	if !ok {
		return x.fail(c.At, "unknown component "+c.Name, nil).
			WithHint("register it on the template set before rendering")
	}

	props := make(Props, len(c.Args)+1)
	for _, a := range c.Args {
		if a.Expr == nil {
			props[a.Name] = a.Literal
			continue
		}
		v, err := x.eval(a.Expr, scope)
		if err != nil {
			return err
		}
		props[a.Name] = v
	}
	if len(c.Children) > 0 {
		props[ChildrenKey] = &fragment{name: x.name, resolver: x.resolver, ops: c.Children, scope: scope}
	}

	if x.buf.depth >= MaxDepth {
		return x.fail(c.At, fmt.Sprintf("component nesting deeper than %d calling %s", MaxDepth, c.Name), nil)
	}
	x.buf.depth++
	defer func() { x.buf.depth-- }()

	if err := comp.RenderComponent(x.buf, props); err != nil {
		var te *errors.TemplateError
		if goerrors.As(err, &te) {
			return err
		}
		return x.fail(c.At, "component "+c.Name+" failed", err)
	}
	return nil
}

// fragment is a call body, rendered in the caller's scope.
type fragment struct {
	name     string
	resolver Resolver
	ops      []codegen.Op
	scope    *Scope
}

// RenderHTML implements Renderable.
func (f *fragment) RenderHTML(buf *Buffer) error {
	x := &executor{name: f.name, buf: buf, resolver: f.resolver}
	return x.ops(f.ops, f.scope)
}

var errNotIterable = goerrors.New("not iterable")

// each calls fn for every element of v. Maps are visited in key order.
func each(v any, fn func(key, value any) error) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
		for _, k := range keys {
			if err := fn(k.Interface(), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
	case reflect.String:
		for i, r := range rv.String() {
			if err := fn(i, string(r)); err != nil {
				return err
			}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		for i := int64(0); i < rv.Int(); i++ {
			if err := fn(int(i), int(i)); err != nil {
				return err
			}
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return each(rv.Elem().Interface(), fn)
	default:
		return errNotIterable
	}
	return nil
}

func lessKey(a, b reflect.Value) bool {
	if x, ok := asFloat(a.Interface()); ok {
		if y, ok := asFloat(b.Interface()); ok {
			return x < y
		}
	}
	if a.Kind() == reflect.String && b.Kind() == reflect.String {
		return a.String() < b.String()
	}
	return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
}
