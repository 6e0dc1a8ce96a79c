// Package accessibility audits rendered HTML against a small set of WCAG
// rules: text alternatives, form labels, accessible names, heading order,
// page language and title, and duplicate ids.
package accessibility

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Severity ranks a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule is one check.
type Rule struct {
	ID       string   `json:"id"`
	Criteria string   `json:"wcag"`
	Severity Severity `json:"severity"`
	Help     string   `json:"help"`
}

// Rules are the checks Check runs, in report order.
var Rules = []Rule{
	{ID: "missing-alt-text", Criteria: "1.1.1", Severity: SeverityError, Help: `add alt text, or alt="" for decorative images`},
	{ID: "missing-form-label", Criteria: "3.3.2", Severity: SeverityError, Help: "wrap the control in a <label> or point a label's for at its id"},
	{ID: "missing-button-text", Criteria: "4.1.2", Severity: SeverityError, Help: "give the button text or an aria-label"},
	{ID: "missing-link-text", Criteria: "2.4.4", Severity: SeverityError, Help: "give the link text or an aria-label"},
	{ID: "missing-lang-attribute", Criteria: "3.1.1", Severity: SeverityWarning, Help: `add lang="en" (or the page language) to <html>`},
	{ID: "missing-page-title", Criteria: "2.4.2", Severity: SeverityWarning, Help: "add a non-empty <title> to <head>"},
	{ID: "missing-heading-structure", Criteria: "1.3.1", Severity: SeverityWarning, Help: "do not skip heading levels"},
	{ID: "duplicate-id", Criteria: "4.1.1", Severity: SeverityError, Help: "make every id unique"},
}

func rule(id string) Rule {
	for _, r := range Rules {
		if r.ID == id {
			return r
		}
	}
	panic("accessibility: unknown rule " + id)
}

// Violation is one problem found in a document.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Element string `json:"element"`
	Message string `json:"message"`
	// Index orders violations by the position of their element.
	Index int `json:"-"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s (WCAG %s)", v.Rule.ID, v.Element, v.Message, v.Rule.Criteria)
}

// Check parses r and returns every violation in document order. Document
// rules (lang, title) apply only when the input has a doctype.
func Check(r io.Reader) ([]Violation, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	c := &checker{ids: make(map[string][]*html.Node), index: make(map[*html.Node]int)}
	c.walk(doc)
	c.run()

	sort.SliceStable(c.violations, func(i, j int) bool {
		return c.violations[i].Index < c.violations[j].Index
	})
	return c.violations, nil
}

type checker struct {
	elements   []*html.Node
	index      map[*html.Node]int
	ids        map[string][]*html.Node
	labelled   map[string]bool
	doctype    bool
	violations []Violation
}

func (c *checker) walk(n *html.Node) {
	switch n.Type {
	case html.DoctypeNode:
		c.doctype = true
	case html.ElementNode:
		c.index[n] = len(c.elements)
		c.elements = append(c.elements, n)
		if id, ok := attr(n, "id"); ok && id != "" {
			c.ids[id] = append(c.ids[id], n)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

func (c *checker) report(id string, n *html.Node, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Rule:    rule(id),
		Element: describe(n),
		Message: fmt.Sprintf(format, args...),
		Index:   c.index[n],
	})
}

func (c *checker) run() {
	c.labelled = make(map[string]bool)
	for _, n := range c.elements {
		if n.DataAtom == atom.Label {
			if target, ok := attr(n, "for"); ok {
				c.labelled[target] = true
			}
		}
	}

	var lastHeading int
	for _, n := range c.elements {
		switch n.DataAtom {
		case atom.Img:
			if _, ok := attr(n, "alt"); !ok {
				c.report("missing-alt-text", n, "image has no alt attribute")
			}
		case atom.Input, atom.Select, atom.Textarea:
			if c.needsLabel(n) && !c.hasLabel(n) {
				c.report("missing-form-label", n, "form control has no label")
			}
		case atom.Button:
			if !hasAccessibleName(n) {
				c.report("missing-button-text", n, "button has no accessible name")
			}
		case atom.A:
			if _, ok := attr(n, "href"); ok && !hasAccessibleName(n) {
				c.report("missing-link-text", n, "link has no accessible name")
			}
		case atom.Html:
			if lang, _ := attr(n, "lang"); c.doctype && strings.TrimSpace(lang) == "" {
				c.report("missing-lang-attribute", n, "page language is not set")
			}
		case atom.Head:
			if c.doctype && !hasTitle(n) {
				c.report("missing-page-title", n, "page has no title")
			}
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			if lastHeading > 0 && level > lastHeading+1 {
				c.report("missing-heading-structure", n, "heading level jumps from h%d to h%d", lastHeading, level)
			}
			lastHeading = level
		}
	}

	ids := make([]string, 0, len(c.ids))
	for id, nodes := range c.ids {
		if len(nodes) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, n := range c.ids[id][1:] {
			c.report("duplicate-id", n, "id %q is used %d times", id, len(c.ids[id]))
		}
	}
}

func (c *checker) needsLabel(n *html.Node) bool {
	if n.DataAtom != atom.Input {
		return true
	}
	typ, _ := attr(n, "type")
	switch strings.ToLower(typ) {
	case "hidden", "submit", "reset", "button", "image":
		return false
	}
	return true
}

func (c *checker) hasLabel(n *html.Node) bool {
	if id, ok := attr(n, "id"); ok && c.labelled[id] {
		return true
	}
	for _, name := range []string{"aria-label", "aria-labelledby", "title"} {
		if v, ok := attr(n, name); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Label {
			return true
		}
	}
	return false
}

func hasAccessibleName(n *html.Node) bool {
	for _, name := range []string{"aria-label", "aria-labelledby", "title"} {
		if v, ok := attr(n, name); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return strings.TrimSpace(textContent(n)) != "" || hasAltImage(n)
}

func hasAltImage(n *html.Node) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.DataAtom == atom.Img {
			if alt, _ := attr(child, "alt"); strings.TrimSpace(alt) != "" {
				return true
			}
		}
		if hasAltImage(child) {
			return true
		}
	}
	return false
}

func hasTitle(head *html.Node) bool {
	for child := head.FirstChild; child != nil; child = child.NextSibling {
		if child.DataAtom == atom.Title && strings.TrimSpace(textContent(child)) != "" {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return b.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// describe renders n as a short opening tag for reports.
func describe(n *html.Node) string {
	var b strings.Builder
	b.WriteString("<" + n.Data)
	for _, key := range []string{"id", "class", "name", "type", "src", "href"} {
		if v, ok := attr(n, key); ok {
			if len(v) > 40 {
				v = v[:37] + "..."
			}
			fmt.Fprintf(&b, " %s=%q", key, v)
		}
	}
	b.WriteString(">")
	return b.String()
}
