package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/dxexplorer/internal/model"
)

// Warning levels.
const (
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// ReferenceWarning describes a reference cycle or a dangling reference in a
// component graph.
//
// Neither is an error: a reference may legally point into a cycle of views,
// and servers routinely omit views that are not needed for the current step.
type ReferenceWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["A.x", "A.y", "A.x"], or [from, missing]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeReferences performs static analysis of the reference edges in a
// component graph.
//
// The algorithm:
//  1. Build component key → referenced keys from every reference node in
//     each component's subtree (subtrees are not crossed)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a cycle warning
//  4. Report each edge whose target is absent from the graph as info
//
// An acyclic, closed graph returns an empty warning list.
func AnalyzeReferences(components model.ComponentMap) []ReferenceWarning {
	warnings := []ReferenceWarning{}
	if len(components) == 0 {
		return warnings
	}

	graph := buildReferenceGraph(components)

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	for _, from := range model.SortedKeys(graph) {
		for _, to := range graph[from] {
			if _, ok := components[to]; !ok {
				warnings = append(warnings, ReferenceWarning{
					Path:    []string{from, to},
					Message: fmt.Sprintf("Reference to missing component: %s → %s", from, to),
					Level:   LevelInfo,
				})
			}
		}
	}

	return warnings
}

// referenceGraph maps component key → referenced component keys.
type referenceGraph map[string][]string

func buildReferenceGraph(components model.ComponentMap) referenceGraph {
	graph := make(referenceGraph)
	for _, key := range model.SortedKeys(components) {
		seen := make(map[string]bool)
		graph[key] = []string{}
		var walk func(*model.Component)
		walk = func(c *model.Component) {
			if c.Kind == model.KindReference && !c.IsBroken && !seen[c.Key] {
				seen[c.Key] = true
				graph[key] = append(graph[key], c.Key)
			}
			for _, child := range c.Children {
				walk(child)
			}
		}
		walk(components[key])
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in sorted order so the result is deterministic. Each SCC
// is rotated to start at its smallest key.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, ok := graph[w]; !ok {
				// Dangling; reported separately.
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range model.SortedKeys(graph) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}

// cycleSCCToWarning converts an SCC to a ReferenceWarning.
func cycleSCCToWarning(scc []string, graph referenceGraph) ReferenceWarning {
	if len(scc) == 1 {
		key := scc[0]
		return ReferenceWarning{
			Path:    []string{key, key},
			Message: fmt.Sprintf("Self-referencing component detected: %s → %s", key, key),
			Level:   LevelWarning,
		}
	}

	path := reconstructCyclePath(scc, graph)
	return ReferenceWarning{
		Path:    path,
		Message: fmt.Sprintf("Reference cycle detected: %s", strings.Join(path, " → ")),
		Level:   LevelWarning,
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start or runs out of unvisited members.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
