// Package ast defines the grammar-independent node tree produced by both
// template parsers and consumed by the validator and the code generator.
package ast

import "fmt"

// Pos is a location in template source. Line and Column are 1-based; Column
// counts runes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// String returns line:column.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is one of *Element, *Text, *Doctype, *If, *For, *Match or *Call.
type Node interface {
	Position() Pos
	node()
}

// Control is implemented by the control-flow nodes *If, *For and *Match.
type Control interface {
	Node
	control()
}

// Expr is an opaque reference to a host expression. The compiler never
// evaluates it; it only records where its value is substituted.
type Expr struct {
	Source string
	At     Pos
}

// ValueKind selects how an attribute value is produced.
type ValueKind int

const (
	// Literal values are fixed text.
	Literal ValueKind = iota
	// Dynamic values are computed from an expression and escaped.
	Dynamic
	// Toggle values write the bare attribute name when the expression is true.
	Toggle
)

// String returns the string representation of the kind.
func (k ValueKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Dynamic:
		return "dynamic"
	case Toggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Value is an attribute or argument value.
type Value struct {
	Kind    ValueKind
	Literal string
	Expr    *Expr
}

// LiteralValue returns a literal value.
func LiteralValue(s string) Value {
	return Value{Kind: Literal, Literal: s}
}

// DynamicValue returns an escaped dynamic value.
func DynamicValue(e *Expr) Value {
	return Value{Kind: Dynamic, Expr: e}
}

// ToggleValue returns a boolean toggle.
func ToggleValue(e *Expr) Value {
	return Value{Kind: Toggle, Expr: e}
}

// Attribute is a name/value pair on an element or a component call.
// Attributes keep their source order.
type Attribute struct {
	Name  string
	Value Value
	At    Pos
}

// Element is an HTML element.
type Element struct {
	Name     string
	Attrs    []Attribute
	Children []Node
	// SelfClosing records `<x/>` or `x;` in the source.
	SelfClosing bool
	// Void is set by the validator from the schema.
	Void bool
	At   Pos
}

// Text is literal or dynamic text content.
type Text struct {
	Literal string
	Expr    *Expr
	// Raw marks output that skips escaping: the explicit raw construct for
	// Expr, verbatim script/style source for Literal.
	Raw bool
	At  Pos
}

// IsDynamic reports whether the text comes from an expression.
func (t *Text) IsDynamic() bool { return t.Expr != nil }

// Doctype is the HTML5 document type declaration.
type Doctype struct {
	At Pos
}

// Branch is one `if`/`else if` arm.
type Branch struct {
	Cond *Expr
	Body []Node
}

// If is a conditional with optional else-if branches and an else body.
type If struct {
	Branches []Branch
	Else     []Node
	At       Pos
}

// For iterates Iterable, binding Value (and Key, when set) for each element.
type For struct {
	Key      string
	Value    string
	Iterable *Expr
	Body     []Node
	At       Pos
}

// Arm is one `@match` arm. Wildcard arms (`_`) have no patterns.
type Arm struct {
	Patterns []*Expr
	Wildcard bool
	Body     []Node
	At       Pos
}

// Match renders the first arm whose pattern equals the scrutinee.
type Match struct {
	Scrutinee *Expr
	Arms      []Arm
	At        Pos
}

// Call invokes a named component with arguments and optional children.
type Call struct {
	Name     string
	Args     []Attribute
	Children []Node
	At       Pos
}

func (n *Element) Position() Pos { return n.At }
func (n *Text) Position() Pos    { return n.At }
func (n *Doctype) Position() Pos { return n.At }
func (n *If) Position() Pos      { return n.At }
func (n *For) Position() Pos     { return n.At }
func (n *Match) Position() Pos   { return n.At }
func (n *Call) Position() Pos    { return n.At }

func (*Element) node() {}
func (*Text) node()    {}
func (*Doctype) node() {}
func (*If) node()      {}
func (*For) node()     {}
func (*Match) node()   {}
func (*Call) node()    {}

func (*If) control()    {}
func (*For) control()   {}
func (*Match) control() {}

// Walk calls fn for every node in depth-first order. Returning false from fn
// skips the node's children.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		switch n := n.(type) {
		case *Element:
			Walk(n.Children, fn)
		case *If:
			for _, b := range n.Branches {
				Walk(b.Body, fn)
			}
			Walk(n.Else, fn)
		case *For:
			Walk(n.Body, fn)
		case *Match:
			for _, a := range n.Arms {
				Walk(a.Body, fn)
			}
		case *Call:
			Walk(n.Children, fn)
		}
	}
}

// IsComponentName reports whether name refers to a component rather than an
// element: components start with an upper-case ASCII letter.
func IsComponentName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}
