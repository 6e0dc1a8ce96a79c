// Package scaffolding writes new templates and projects from built-in
// scaffolds.
package scaffolding

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/printer"
)

// Generator writes templates from scaffolds.
type Generator struct {
	scaffolds map[string]Scaffold
	tagExt    string
	nestedExt string
}

// NewGenerator creates a generator naming files with the first configured
// extension of each grammar.
func NewGenerator(cfg config.TemplatesConfig) *Generator {
	g := &Generator{
		scaffolds: builtinScaffolds(),
		tagExt:    compiler.DefaultTagExtensions[0],
		nestedExt: compiler.DefaultNestedExtensions[0],
	}
	if len(cfg.TagExtensions) > 0 {
		g.tagExt = cfg.TagExtensions[0]
	}
	if len(cfg.NestedExtensions) > 0 {
		g.nestedExt = cfg.NestedExtensions[0]
	}
	return g
}

// Options select what Generate writes.
type Options struct {
	// Name is the template name. Capitalized names become components.
	Name     string
	Scaffold string
	Dir      string
	Syntax   compiler.Syntax
	// WithData also writes a data file with DataSuffix.
	WithData   bool
	DataSuffix string
	// Force overwrites existing files.
	Force bool
}

// context is what scaffold content is expanded with.
type context struct {
	Name  string
	Class string
}

// Scaffolds lists the available scaffolds sorted by name.
func (g *Generator) Scaffolds() []Scaffold {
	list := make([]Scaffold, 0, len(g.scaffolds))
	for _, s := range g.scaffolds {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Add registers a custom scaffold, replacing a built-in one of the same
// name.
func (g *Generator) Add(s Scaffold) {
	g.scaffolds[s.Name] = s
}

// Source expands a scaffold and prints it in syntax.
func (g *Generator) Source(scaffold, name string, syntax compiler.Syntax) (string, error) {
	s, ok := g.scaffolds[scaffold]
	if !ok {
		return "", fmt.Errorf("scaffold %q not found (available: %s)", scaffold, strings.Join(g.names(), ", "))
	}

	tmpl, err := template.New(s.Name).Delims("[[", "]]").Parse(s.Content)
	if err != nil {
		return "", fmt.Errorf("parsing scaffold %s: %w", s.Name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, context{Name: name, Class: kebab(name)}); err != nil {
		return "", fmt.Errorf("expanding scaffold %s: %w", s.Name, err)
	}

	if syntax != compiler.SyntaxNested {
		return b.String(), nil
	}
	nodes, _, err := compiler.Parse(compiler.Source{Name: name, Text: b.String(), Syntax: compiler.SyntaxTag}, compiler.Options{})
	if err != nil {
		return "", fmt.Errorf("scaffold %s: %w", s.Name, err)
	}
	return printer.Nested(nodes)
}

// Generate writes a template, and its data file when asked, and returns the
// paths written.
func (g *Generator) Generate(opts Options) ([]string, error) {
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}
	src, err := g.Source(opts.Scaffold, opts.Name, opts.Syntax)
	if err != nil {
		return nil, err
	}

	ext := g.tagExt
	if opts.Syntax == compiler.SyntaxNested {
		ext = g.nestedExt
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := map[string]string{filepath.Join(opts.Dir, opts.Name+ext): src}
	if opts.WithData {
		suffix := opts.DataSuffix
		if suffix == "" {
			suffix = config.Defaults().Render.DataSuffix
		}
		files[filepath.Join(opts.Dir, opts.Name+suffix)] = g.scaffolds[opts.Scaffold].Data
	}
	return writeFiles(files, opts.Force)
}

// InitProject lays out a new project in dir: a config file, Layout and Card
// components and an index page with its data.
func (g *Generator) InitProject(dir string, syntax compiler.Syntax, force bool) ([]string, error) {
	var written []string
	cfgPath := filepath.Join(dir, config.DefaultFileName)
	paths, err := writeFiles(map[string]string{cfgPath: projectConfig}, force)
	if err != nil {
		return nil, err
	}
	written = append(written, paths...)

	for _, item := range []struct{ scaffold, name, dir string }{
		{"layout", "Layout", "views/components"},
		{"card", "Card", "views/components"},
		{"page", "index", "views/pages"},
	} {
		paths, err := g.Generate(Options{
			Name:     item.name,
			Scaffold: item.scaffold,
			Dir:      filepath.Join(dir, filepath.FromSlash(item.dir)),
			Syntax:   syntax,
			WithData: item.scaffold == "page",
			Force:    force,
		})
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", item.name, err)
		}
		written = append(written, paths...)
	}
	return written, nil
}

const projectConfig = `templates:
  paths: [views]
render:
  mock_data: true
server:
  port: 8080
`

func writeFiles(files map[string]string, force bool) ([]string, error) {
	paths := make([]string, 0, len(files))
	for path := range files {
		if _, err := os.Stat(path); err == nil && !force {
			return nil, fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(files[path]), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return paths, nil
}

func (g *Generator) names() []string {
	names := make([]string, 0, len(g.scaffolds))
	for name := range g.scaffolds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateName checks that name can be a template file name: letters,
// digits, '-' and '_', starting with a letter.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '_'):
		default:
			return fmt.Errorf("template name %q must start with a letter and contain only letters, digits, '-' and '_'", name)
		}
	}
	return nil
}

// kebab turns ProfileCard into profile-card.
func kebab(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
