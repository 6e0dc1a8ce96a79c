// Package mockdata invents sample data for previewing a template that has no
// data file. Values are picked from each variable's name and from how the
// template uses it.
package mockdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/conneroisu/htmlc/internal/codegen"
)

// ListLength is the number of elements generated for a list.
const ListLength = 3

// Generator makes sample values. The same seed gives the same values.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New creates a generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
}

// SeedFor derives a stable seed from a template name so a preview shows the
// same data on every reload.
func SeedFor(name string) int64 {
	var h int64 = 17
	for _, r := range name {
		h = h*31 + int64(r)
	}
	return h
}

// ForVariables returns data with a value for every variable.
func (g *Generator) ForVariables(vars []codegen.Variable) map[string]any {
	data := make(map[string]any, len(vars))
	for i := range vars {
		data[vars[i].Name] = g.value(&vars[i])
	}
	return data
}

func (g *Generator) value(v *codegen.Variable) any {
	switch v.Usage {
	case codegen.UsageCondition:
		return true
	case codegen.UsageList:
		list := make([]any, ListLength)
		for i := range list {
			if v.Elem != nil {
				list[i] = g.value(v.Elem)
			} else {
				list[i] = g.byName(singular(v.Name))
			}
		}
		return list
	case codegen.UsageRecord:
		record := make(map[string]any, len(v.Fields))
		for _, field := range v.Fields {
			record[field] = g.byName(field)
		}
		return record
	default:
		return g.byName(v.Name)
	}
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s"):
		return strings.TrimSuffix(name, "s")
	default:
		return name
	}
}

// byName picks a value from patterns in the variable name.
func (g *Generator) byName(name string) any {
	lower := strings.ToLower(name)

	switch {
	case containsAny(lower, "email", "mail"):
		return g.email()
	case containsAny(lower, "phone", "tel", "mobile"):
		return fmt.Sprintf("+1-%03d-%03d-%04d", g.rng.Intn(900)+100, g.rng.Intn(900)+100, g.rng.Intn(10000))
	case containsAny(lower, "url", "link", "href", "src", "image", "avatar"):
		return g.url(lower)
	case containsAny(lower, "name", "author", "user"):
		return g.name(lower)
	case containsAny(lower, "title", "heading", "header", "label"):
		return g.title()
	case containsAny(lower, "description", "content", "text", "body", "message", "children"):
		return g.text(lower)
	case containsAny(lower, "date", "time", "created", "updated"):
		return g.now.AddDate(0, 0, -g.rng.Intn(365)).Format("2006-01-02")
	case containsAny(lower, "age", "count", "number", "price", "amount", "quantity", "total"):
		return g.number(lower)
	case containsAny(lower, "active", "enabled", "visible", "featured", "selected", "done"):
		return g.rng.Intn(2) == 1
	case containsAny(lower, "color", "colour", "theme"):
		return colors[g.rng.Intn(len(colors))]
	case lower == "id" || strings.HasSuffix(lower, "id") || containsAny(lower, "key", "uuid"):
		return fmt.Sprintf("item-%d", g.rng.Intn(1000))
	default:
		return "Sample " + name
	}
}

var colors = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7", "#DDA0DD"}

func (g *Generator) email() string {
	names := []string{"john", "jane", "alex", "taylor", "jordan", "casey"}
	domains := []string{"example.com", "example.org", "example.net"}
	return names[g.rng.Intn(len(names))] + "@" + domains[g.rng.Intn(len(domains))]
}

func (g *Generator) url(context string) string {
	if containsAny(context, "image", "avatar") {
		sizes := []string{"150x150", "200x200", "300x300"}
		return "https://via.placeholder.com/" + sizes[g.rng.Intn(len(sizes))]
	}
	paths := []string{"page", "article", "post", "item"}
	return fmt.Sprintf("https://example.com/%s/%d", paths[g.rng.Intn(len(paths))], g.rng.Intn(1000)+1)
}

func (g *Generator) name(context string) string {
	first := []string{"John", "Jane", "Alex", "Taylor", "Jordan", "Casey", "Morgan", "Riley"}
	last := []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}

	switch {
	case strings.Contains(context, "first"):
		return first[g.rng.Intn(len(first))]
	case strings.Contains(context, "last"):
		return last[g.rng.Intn(len(last))]
	case strings.Contains(context, "username"):
		return strings.ToLower(first[g.rng.Intn(len(first))]) + fmt.Sprint(g.rng.Intn(100))
	default:
		return first[g.rng.Intn(len(first))] + " " + last[g.rng.Intn(len(last))]
	}
}

func (g *Generator) title() string {
	adjectives := []string{"Amazing", "Incredible", "Fantastic", "Remarkable"}
	nouns := []string{"Component", "Feature", "Design", "Experience"}
	return adjectives[g.rng.Intn(len(adjectives))] + " " + nouns[g.rng.Intn(len(nouns))]
}

func (g *Generator) text(context string) string {
	switch {
	case strings.Contains(context, "description"):
		return "A short description of the item and what it does."
	case strings.Contains(context, "message"):
		messages := []string{"Welcome!", "Thank you for your interest.", "Get started below."}
		return messages[g.rng.Intn(len(messages))]
	default:
		lorem := []string{
			"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			"Ut enim ad minim veniam, quis nostrud exercitation ullamco.",
			"Duis aute irure dolor in reprehenderit in voluptate velit esse.",
		}
		return lorem[g.rng.Intn(len(lorem))]
	}
}

func (g *Generator) number(context string) any {
	switch {
	case strings.Contains(context, "age"):
		return g.rng.Intn(80) + 18
	case containsAny(context, "price", "amount", "total"):
		return float64(g.rng.Intn(10000)) / 100
	default:
		return g.rng.Intn(100) + 1
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
