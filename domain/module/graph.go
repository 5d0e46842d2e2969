package module

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Graph is the "requires" relation between modules, kept as an adjacency
// list in both directions so that dependents can be found without scanning.
// Edges may name modules that are no longer installed.
type Graph struct {
	mu         sync.RWMutex
	deps       map[string]map[string]struct{} // slug -> modules it requires
	dependents map[string]map[string]struct{} // slug -> modules requiring it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// Set replaces the dependencies of slug. It fails without modifying the graph
// if the new edges would close a cycle.
func (g *Graph) Set(slug string, deps []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkLocked(slug, deps); err != nil {
		return err
	}

	g.unlinkLocked(slug)
	set := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		set[d] = struct{}{}
		if g.dependents[d] == nil {
			g.dependents[d] = make(map[string]struct{})
		}
		g.dependents[d][slug] = struct{}{}
	}
	g.deps[slug] = set
	return nil
}

// Check reports the error Set would return without modifying the graph.
func (g *Graph) Check(slug string, deps []string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.checkLocked(slug, deps)
}

func (g *Graph) checkLocked(slug string, deps []string) error {
	for _, d := range deps {
		if d == slug {
			return fmt.Errorf("module %s depends on itself", slug)
		}
		if path := g.pathLocked(d, slug); path != nil {
			return fmt.Errorf("dependency cycle: %s -> %s", slug, strings.Join(path, " -> "))
		}
	}
	return nil
}

// Remove drops slug's own edges. Edges from other modules to slug remain,
// so Dependents still reports modules that name it.
func (g *Graph) Remove(slug string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlinkLocked(slug)
	delete(g.deps, slug)
	if len(g.dependents[slug]) == 0 {
		delete(g.dependents, slug)
	}
}

// Has reports whether slug has been Set and not removed.
func (g *Graph) Has(slug string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.deps[slug]
	return ok
}

// Dependencies returns the modules slug requires, sorted.
func (g *Graph) Dependencies(slug string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.deps[slug])
}

// Dependents returns the modules that require slug, sorted.
func (g *Graph) Dependents(slug string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.dependents[slug])
}

// Order sorts slugs so that every module comes after the modules it requires.
// Dependencies outside the input set are ignored. Ties are broken by name.
func (g *Graph) Order(slugs []string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	in := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		in[s] = true
	}

	indegree := make(map[string]int, len(slugs))
	for s := range in {
		for d := range g.deps[s] {
			if in[d] {
				indegree[s]++
			}
		}
	}

	var ready []string
	for s := range in {
		if indegree[s] == 0 {
			ready = append(ready, s)
		}
	}
	sort.Strings(ready)

	out := make([]string, 0, len(in))
	for len(ready) > 0 {
		s := ready[0]
		ready = ready[1:]
		out = append(out, s)

		var next []string
		for dep := range g.dependents[s] {
			if !in[dep] {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				next = append(next, dep)
			}
		}
		ready = append(ready, next...)
		sort.Strings(ready)
	}

	if len(out) != len(in) {
		return nil, fmt.Errorf("dependency cycle among %d modules", len(in)-len(out))
	}
	return out, nil
}

func (g *Graph) unlinkLocked(slug string) {
	for d := range g.deps[slug] {
		delete(g.dependents[d], slug)
		if len(g.dependents[d]) == 0 {
			delete(g.dependents, d)
		}
	}
}

// pathLocked returns a dependency path from -> ... -> to, or nil.
func (g *Graph) pathLocked(from, to string) []string {
	seen := map[string]bool{}
	var walk func(cur string, path []string) []string
	walk = func(cur string, path []string) []string {
		path = append(path, cur)
		if cur == to {
			return path
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true
		for next := range g.deps[cur] {
			if p := walk(next, path); p != nil {
				return p
			}
		}
		return nil
	}
	return walk(from, nil)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
