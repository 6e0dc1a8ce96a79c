// Package validate checks a parsed template against the element schema.
//
// Validation reports every violation in one pass instead of stopping at the
// first, and never evaluates expressions. On success the tree is annotated
// with the schema's void flags.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/parser/source"
	"github.com/conneroisu/htmlc/internal/schema"
)

// Components resolves component names for call checking.
type Components interface {
	Has(name string) bool
	Names() []string
}

// Options tunes a validation pass.
type Options struct {
	// Components, when set, turns calls to unknown components into
	// UnknownComponent violations.
	Components Components
	// SuggestionLimit caps "did you mean" candidates. Zero uses
	// errors.DefaultSuggestionLimit.
	SuggestionLimit int
}

// Validate checks nodes against reg and returns a *errors.ValidationError
// listing every violation, or nil. The first call freezes reg.
func Validate(name string, nodes []ast.Node, reg *schema.Registry, opts Options) error {
	reg.Freeze()

	v := &validator{
		reg:   reg,
		opts:  opts,
		limit: opts.SuggestionLimit,
		errs:  &errors.ValidationError{Template: name},
	}
	if v.limit <= 0 {
		v.limit = errors.DefaultSuggestionLimit
	}

	ast.Walk(nodes, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Element:
			v.element(n)
		case *ast.Call:
			v.call(n)
		}
		return true
	})
	return v.errs.Err()
}

type validator struct {
	reg   *schema.Registry
	opts  Options
	limit int
	errs  *errors.ValidationError
}

func (v *validator) add(kind errors.ViolationKind, at ast.Pos, element, attr, msg, hint string, suggestions []string) {
	v.errs.Add(errors.Violation{
		Kind:        kind,
		Line:        at.Line,
		Column:      at.Column,
		Offset:      at.Offset,
		Element:     element,
		Attribute:   attr,
		Message:     msg,
		Hint:        hint,
		Suggestions: suggestions,
	})
}

func (v *validator) element(el *ast.Element) {
	entry, known := v.reg.Lookup(el.Name)
	if !known {
		v.add(errors.UnknownElement, el.At, el.Name, "",
			fmt.Sprintf("unknown element <%s>", el.Name),
			"register it with RegisterElement, or use a hyphenated custom element name",
			errors.Suggest(el.Name, v.reg.Elements(), v.limit))
	}

	el.Void = entry.Void
	if entry.Void && len(el.Children) > 0 {
		v.add(errors.VoidElementHasChildren, el.At, el.Name, "",
			fmt.Sprintf("void element <%s> cannot have children", el.Name),
			fmt.Sprintf("remove the children and self-close it as <%s/>", el.Name), nil)
	}

	if known {
		for _, a := range el.Attrs {
			if v.reg.AttributeAllowed(el.Name, a.Name) {
				continue
			}
			v.add(errors.UnknownAttribute, a.At, el.Name, a.Name,
				fmt.Sprintf("unknown attribute %q on <%s>", a.Name, el.Name),
				"use a data-* attribute for custom data",
				errors.Suggest(strings.ToLower(a.Name), v.reg.Attributes(el.Name), v.limit))
		}
	}

	v.quoting(el.Name, el.Attrs)
}

func (v *validator) call(c *ast.Call) {
	if v.opts.Components != nil && !v.opts.Components.Has(c.Name) {
		v.add(errors.UnknownComponent, c.At, c.Name, "",
			fmt.Sprintf("unknown component %s", c.Name),
			"define the template or register the Go component before compiling",
			errors.Suggest(c.Name, v.opts.Components.Names(), v.limit))
	}
	v.quoting(c.Name, c.Args)
}

// interpolation matches literal text that was probably meant as an
// expression, like "{user.Name}".
var interpolation = regexp.MustCompile(`\{\{?\s*[A-Za-z_][\w.]*\s*\}?\}`)

func (v *validator) quoting(element string, attrs []ast.Attribute) {
	for _, a := range attrs {
		switch a.Value.Kind {
		case ast.Literal:
			if interpolation.MatchString(a.Value.Literal) {
				v.add(errors.AmbiguousQuoting, a.At, element, a.Name,
					fmt.Sprintf("literal value of %s looks like an interpolation: %q", a.Name, a.Value.Literal),
					"drop the quotes to bind an expression: "+a.Name+"={expr} or "+a.Name+"=(expr)", nil)
			}
		case ast.Dynamic:
			src := a.Value.Expr.Source
			if source.IsQuotedLiteral(src) && strings.ContainsAny(source.UnquoteLiteral(src), `"'`) {
				v.add(errors.AmbiguousQuoting, a.Value.Expr.At, element, a.Name,
					fmt.Sprintf("value of %s is a string literal containing quotes: %s", a.Name, src),
					"write the value as a plain literal attribute", nil)
			}
		case ast.Toggle:
			if src := a.Value.Expr.Source; source.IsQuotedLiteral(src) {
				v.add(errors.AmbiguousQuoting, a.Value.Expr.At, element, a.Name,
					fmt.Sprintf("toggle %s takes a boolean, not the string %s", a.Name, src),
					"pass a boolean expression, or use a literal attribute for text", nil)
			}
		}
	}
}
