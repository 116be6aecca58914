// Package depgraph validates a root Task's depends_on list against the rest
// of the store's task graph: existence, self-reference, and cycle safety.
// See spec §4.3.
package depgraph

import (
	"fmt"
	"regexp"
	"sort"
)

var taskIDPattern = regexp.MustCompile(`^TASK-\d+$`)

// Error is the structured validation failure for a proposed depends_on
// list, carrying the stable error_code the intent processor surfaces
// verbatim.
type Error struct {
	Code    string
	Message string
	Cycle   []string
	Invalid []string
}

func (e *Error) Error() string { return e.Message }

// Graph is a directed dependency graph over TASK-IDs: edges[id] lists the
// IDs that id depends on.
type Graph struct {
	edges map[string][]string
}

// Build constructs a graph from a id -> depends_on map.
func Build(deps map[string][]string) *Graph {
	g := &Graph{edges: make(map[string][]string, len(deps))}
	for id, d := range deps {
		g.edges[id] = append([]string(nil), d...)
	}
	return g
}

// Validate checks a proposed new depends_on list for task id against the
// rest of the graph (which must already exclude id's own prior edges):
//  1. each dep must parse as TASK-\d+
//  2. each dep must exist in the known node set
//  3. self-dependency is forbidden
//  4. adding the edges must not create a cycle
//
// On cycle, the DFS walk ties-break on lexicographic ID order so the
// reported cycle is deterministic.
func Validate(id string, newDeps []string, existing map[string][]string) *Error {
	for _, dep := range newDeps {
		if !taskIDPattern.MatchString(dep) {
			return &Error{Code: "INVALID_DEPENDENCY_ID", Message: fmt.Sprintf("not a task id: %s", dep), Invalid: []string{dep}}
		}
		if dep == id {
			return &Error{Code: "INVALID_DEPENDENCIES", Message: "a task cannot depend on itself", Invalid: []string{dep}}
		}
	}

	known := make(map[string]bool, len(existing)+1)
	known[id] = true
	for nodeID := range existing {
		known[nodeID] = true
	}
	var missing []string
	for _, dep := range newDeps {
		if !known[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &Error{Code: "INVALID_DEPENDENCIES", Message: fmt.Sprintf("unknown dependencies: %v", missing), Invalid: missing}
	}

	g := Build(existing)
	g.edges[id] = append([]string(nil), newDeps...)

	// Per spec, walk the DFS from each new target back towards id rather
	// than from id itself, so a cycle closing id -> dep -> ... -> id is
	// reported starting at the new target, not at id.
	targets := append([]string(nil), newDeps...)
	sort.Strings(targets)
	for _, target := range targets {
		if cycle := g.detectCycleFrom(target); cycle != nil {
			return &Error{Code: "CIRCULAR_DEPENDENCY", Message: fmt.Sprintf("circular dependency: %v", cycle), Cycle: cycle}
		}
	}
	return nil
}

// detectCycleFrom runs a DFS colored white/gray/black from start, returning
// one concrete cycle path (as a list of IDs, closing back on the first
// node) if a cycle involving start is found.
func (g *Graph) detectCycleFrom(start string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(n string) []string
	dfs = func(n string) []string {
		color[n] = gray
		deps := append([]string(nil), g.edges[n]...)
		sort.Strings(deps)
		for _, dep := range deps {
			if color[dep] == gray {
				cycle := []string{dep}
				for cur := n; cur != dep; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, dep)
				reverse(cycle)
				return cycle
			}
			if color[dep] == white {
				parent[dep] = n
				if found := dfs(dep); found != nil {
					return found
				}
			}
		}
		color[n] = black
		return nil
	}
	return dfs(start)
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// DetectCycle reports whether the graph (without any proposed addition)
// already contains a cycle, returning one concrete path if so.
func (g *Graph) DetectCycle() []string {
	ids := make([]string, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if cycle := g.detectCycleFrom(id); cycle != nil {
			return cycle
		}
	}
	return nil
}
