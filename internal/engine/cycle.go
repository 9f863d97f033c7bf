package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/prodrule/internal/ir"
)

// CycleWarning reports a group of variables that depend on each other
// through rules.
//
// A cycle is only fatal when no input breaks it; AnalyzeCycles reports it
// either way so that authors can see it before evaluation.
type CycleWarning struct {
	Path    []string `json:"path"`    // Closed variable path: ["X", "Y", "X"]
	Rules   []string `json:"rules"`   // Labels of rules forming the cycle's edges
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles builds the variable dependency graph (an edge from every IF
// variable of a rule to every THEN variable of the same rule) and reports
// each strongly connected component that contains a cycle.
//
// The result is deterministic: nodes are visited in first-mention order and
// warnings are sorted by the first variable of their path. A rule set without
// cycles returns an empty list.
func AnalyzeCycles(rules []ir.Rule) []CycleWarning {
	all := make([]int, len(rules))
	for i := range rules {
		all[i] = i
	}
	return analyzeCycles(rules, all)
}

func analyzeCycles(rules []ir.Rule, subset []int) []CycleWarning {
	g := buildVarGraph(rules, subset)
	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(g) {
		if len(scc) == 1 && !g.hasEdge(scc[0], scc[0]) {
			continue
		}
		warnings = append(warnings, g.warning(scc))
	}
	return warnings
}

// varGraph is a directed graph over variable names with deterministic
// node and edge order. Each edge remembers the first rule that created it.
type varGraph struct {
	nodes []string
	edges map[string][]string
	via   map[[2]string]string
}

func buildVarGraph(rules []ir.Rule, subset []int) *varGraph {
	g := &varGraph{
		edges: make(map[string][]string),
		via:   make(map[[2]string]string),
	}
	seen := make(map[string]bool)
	addNode := func(v string) {
		if !seen[v] {
			seen[v] = true
			g.nodes = append(g.nodes, v)
		}
	}
	for _, idx := range subset {
		r := rules[idx]
		for _, from := range r.Reads() {
			addNode(from)
			for _, to := range r.Writes() {
				addNode(to)
				key := [2]string{from, to}
				if _, ok := g.via[key]; ok {
					continue
				}
				g.via[key] = r.Label(idx)
				g.edges[from] = append(g.edges[from], to)
			}
		}
	}
	return g
}

func (g *varGraph) hasEdge(from, to string) bool {
	_, ok := g.via[[2]string{from, to}]
	return ok
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Each component lists its members in the order they were first visited.
func tarjanSCC(g *varGraph) [][]string {
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

		for _, w := range g.edges[v] {
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
			// Popped in reverse visit order.
			for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
				scc[i], scc[j] = scc[j], scc[i]
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	// Report in first-mention order of each component's root.
	order := make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		order[n] = i
	}
	for i := 1; i < len(sccs); i++ {
		for j := i; j > 0 && order[sccs[j][0]] < order[sccs[j-1][0]]; j-- {
			sccs[j], sccs[j-1] = sccs[j-1], sccs[j]
		}
	}
	return sccs
}

// cyclePath walks edges inside scc from its first member back to itself.
func (g *varGraph) cyclePath(scc []string) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{start, start}
	}

	member := make(map[string]bool, len(scc))
	for _, n := range scc {
		member[n] = true
	}

	// Breadth-first search for the shortest closed walk through start.
	prev := map[string]string{}
	queue := []string{start}
	visited := map[string]bool{start: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[cur] {
			if !member[next] {
				continue
			}
			if next == start {
				path := []string{start}
				for n := cur; n != start; n = prev[n] {
					path = append(path, n)
				}
				for i, j := 1, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return append(path, start)
			}
			if !visited[next] {
				visited[next] = true
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return append(append([]string{}, scc...), start)
}

func (g *varGraph) warning(scc []string) CycleWarning {
	path := g.cyclePath(scc)
	rules := make([]string, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		rules = append(rules, g.via[[2]string{path[i], path[i+1]}])
	}

	msg := fmt.Sprintf("variable cycle: %s", strings.Join(path, " -> "))
	if len(scc) == 1 {
		msg = fmt.Sprintf("rule %s reads and writes %s", rules[0], scc[0])
	}
	return CycleWarning{
		Path:    path,
		Rules:   rules,
		Message: msg,
		Level:   "warning",
	}
}
