package errors

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// DefaultSuggestionLimit caps the names offered in a "did you mean" hint.
const DefaultSuggestionLimit = 3

// Suggest returns up to limit candidates that look like a misspelling of
// name. Close edit-distance matches come first, then fuzzy subsequence
// matches ("btn" for "button").
func Suggest(name string, candidates []string, limit int) []string {
	if name == "" || len(candidates) == 0 || limit <= 0 {
		return nil
	}
	lower := strings.ToLower(name)

	type scored struct {
		name string
		dist int
	}
	maxDist := len(lower) / 3
	if maxDist < 1 {
		maxDist = 1
	}

	var near []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := editDistance(lower, strings.ToLower(c)); d <= maxDist {
			near = append(near, scored{c, d})
		}
	}
	sort.Slice(near, func(i, j int) bool {
		if near[i].dist != near[j].dist {
			return near[i].dist < near[j].dist
		}
		return near[i].name < near[j].name
	})

	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	add := func(s string) {
		if len(out) < limit && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range near {
		add(s.name)
	}

	if len(lower) >= 2 {
		for _, m := range fuzzy.Find(lower, candidates) {
			if m.Str != name {
				add(m.Str)
			}
		}
	}

	return out
}

// editDistance is the optimal string alignment distance, so a swapped pair
// of letters ("dvi" for "div") counts as one edit.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(rb)]
}
