package registry

import (
	"sort"

	"github.com/conneroisu/htmlc/internal/ast"
)

// CallNames returns the distinct component names called anywhere in nodes,
// sorted.
func CallNames(nodes []ast.Node) []string {
	seen := make(map[string]bool)
	ast.Walk(nodes, func(n ast.Node) bool {
		if c, ok := n.(*ast.Call); ok {
			seen[c.Name] = true
		}
		return true
	})

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDependents returns the components that call componentName, sorted by
// name.
func (r *ComponentRegistry) GetDependents(componentName string) []*ComponentInfo {
	var dependents []*ComponentInfo
	for _, component := range r.GetAll() {
		for _, dep := range component.Dependencies {
			if dep == componentName {
				dependents = append(dependents, component)
				break
			}
		}
	}
	return dependents
}

// GetDependencyGraph returns each component's dependencies.
func (r *ComponentRegistry) GetDependencyGraph() map[string][]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	graph := make(map[string][]string, len(r.components))
	for name, component := range r.components {
		graph[name] = append([]string(nil), component.Dependencies...)
	}
	return graph
}

// DetectCircularDependencies returns the call cycles among registered
// components. Each cycle starts and ends with the same name.
func (r *ComponentRegistry) DetectCircularDependencies() [][]string {
	graph := r.GetDependencyGraph()
	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	for _, name := range names {
		if !visited[name] {
			if cycle := detectCycleDFS(name, graph, visited, onStack, nil); cycle != nil {
				cycles = append(cycles, cycle)
			}
		}
	}
	return cycles
}

func detectCycleDFS(component string, graph map[string][]string, visited, onStack map[string]bool, path []string) []string {
	visited[component] = true
	onStack[component] = true
	path = append(path, component)

	for _, dep := range graph[component] {
		if !visited[dep] {
			if cycle := detectCycleDFS(dep, graph, visited, onStack, path); cycle != nil {
				return cycle
			}
			continue
		}
		if onStack[dep] {
			for i, p := range path {
				if p == dep {
					cycle := append([]string(nil), path[i:]...)
					return append(cycle, dep)
				}
			}
		}
	}

	onStack[component] = false
	return nil
}
