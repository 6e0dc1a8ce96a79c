// Package compiler runs the parse, validate and generate stages for one
// template. It holds no state between calls.
package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conneroisu/htmlc/internal/ast"
	"github.com/conneroisu/htmlc/internal/codegen"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/parser/nested"
	"github.com/conneroisu/htmlc/internal/parser/tag"
	"github.com/conneroisu/htmlc/internal/schema"
	"github.com/conneroisu/htmlc/internal/validate"
)

// Syntax selects a template grammar.
type Syntax int

const (
	// SyntaxAuto picks the grammar from the template's file extension.
	SyntaxAuto Syntax = iota
	// SyntaxTag is the angle-bracket grammar.
	SyntaxTag
	// SyntaxNested is the brace-nested grammar.
	SyntaxNested
)

// String returns the string representation of the syntax.
func (s Syntax) String() string {
	switch s {
	case SyntaxAuto:
		return "auto"
	case SyntaxTag:
		return "tag"
	case SyntaxNested:
		return "nested"
	default:
		return "unknown"
	}
}

// ParseSyntax accepts "auto", "tag" or "nested".
func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return SyntaxAuto, nil
	case "tag":
		return SyntaxTag, nil
	case "nested":
		return SyntaxNested, nil
	default:
		return SyntaxAuto, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown syntax %q", s)).WithHint(`use "tag" or "nested"`)
	}
}

// Default file extensions.
var (
	DefaultTagExtensions    = []string{".htt"}
	DefaultNestedExtensions = []string{".htn"}
)

// Source is one template to compile.
type Source struct {
	Name   string
	Text   string
	Syntax Syntax
}

// Options configure a compilation. The zero value compiles against the
// default schema without component checks or logging.
type Options struct {
	Registry   *schema.Registry
	Components validate.Components
	Logger     logging.Logger

	TagExtensions    []string
	NestedExtensions []string
	SuggestionLimit  int
}

// Result is a compiled template.
type Result struct {
	Name   string
	Syntax Syntax
	Nodes  []ast.Node
	Plan   *codegen.Plan
}

// DetectSyntax maps a file name to a grammar by extension.
func DetectSyntax(name string, opts Options) (Syntax, error) {
	ext := strings.ToLower(filepath.Ext(name))
	tagExt, nestedExt := extensions(opts)
	for _, e := range tagExt {
		if ext == e {
			return SyntaxTag, nil
		}
	}
	for _, e := range nestedExt {
		if ext == e {
			return SyntaxNested, nil
		}
	}
	return SyntaxAuto, errors.NewConfigError(errors.ErrCodeConfigInvalid,
		fmt.Sprintf("cannot tell the grammar of %q from its extension", name)).
		WithContext("template", name).
		WithHint(fmt.Sprintf("use one of %s for tag templates or %s for nested templates",
			strings.Join(tagExt, ", "), strings.Join(nestedExt, ", ")))
}

func extensions(opts Options) ([]string, []string) {
	tagExt, nestedExt := opts.TagExtensions, opts.NestedExtensions
	if len(tagExt) == 0 {
		tagExt = DefaultTagExtensions
	}
	if len(nestedExt) == 0 {
		nestedExt = DefaultNestedExtensions
	}
	return tagExt, nestedExt
}

// Parse runs only the parser, resolving SyntaxAuto first.
func Parse(src Source, opts Options) ([]ast.Node, Syntax, error) {
	syntax := src.Syntax
	if syntax == SyntaxAuto {
		var err error
		if syntax, err = DetectSyntax(src.Name, opts); err != nil {
			return nil, syntax, err
		}
	}

	switch syntax {
	case SyntaxTag:
		nodes, err := tag.Parse(src.Name, src.Text)
		return nodes, syntax, err
	case SyntaxNested:
		nodes, err := nested.Parse(src.Name, src.Text)
		return nodes, syntax, err
	default:
		return nil, syntax, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown syntax %d", syntax))
	}
}

// Compile parses, validates and generates src. Every stage is logged at debug
// level with its duration.
func Compile(ctx context.Context, src Source, opts Options) (*Result, error) {
	reg := opts.Registry
	if reg == nil {
		reg = schema.Default()
	}
	var log logging.Logger = logging.Nop()
	if opts.Logger != nil {
		log = opts.Logger
	}
	log = log.WithComponent("compiler").With("template", src.Name)

	op := logging.StartOperation(log, "parse")
	nodes, syntax, err := Parse(src, opts)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	op.End(ctx, "syntax", syntax.String(), "nodes", len(nodes))

	op = logging.StartOperation(log, "validate")
	err = validate.Validate(src.Name, nodes, reg, validate.Options{
		Components:      opts.Components,
		SuggestionLimit: opts.SuggestionLimit,
	})
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	op.End(ctx)

	op = logging.StartOperation(log, "generate")
	plan, err := codegen.Generate(src.Name, nodes, reg)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	op.End(ctx, "ops", len(plan.Ops), "size_hint", plan.SizeHint)

	return &Result{Name: src.Name, Syntax: syntax, Nodes: nodes, Plan: plan}, nil
}
