package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/morph/internal/ir"
)

// Cycle is a loop of pipeline references. A pipeline on a cycle has no
// finite expansion, so cycles are errors.
type Cycle struct {
	Path    []string `json:"path"` // ["a", "b", "a"]
	Message string   `json:"message"`
}

// DetectCycles reports one Cycle per strongly connected group of "@name"
// references, plus one per self-reference. Each path starts at the
// group's smallest name and cycles are sorted by that name. References to
// unknown pipelines are left to Validate.
func DetectCycles(specs []ir.PipelineSpec) []Cycle {
	edges := make(map[string][]string, len(specs))
	for _, spec := range specs {
		edges[spec.Name] = nil
	}
	for _, spec := range specs {
		for _, ref := range spec.References() {
			if _, ok := edges[ref]; ok {
				edges[spec.Name] = append(edges[spec.Name], ref)
			}
		}
	}

	w := &sccWalker{edges: edges, index: map[string]int{}, low: map[string]int{}, onStack: map[string]bool{}}
	for _, spec := range specs {
		if _, seen := w.index[spec.Name]; !seen {
			w.visit(spec.Name)
		}
	}

	var cycles []Cycle
	for _, group := range w.groups {
		switch {
		case len(group) > 1:
			path := loopThrough(slices.Min(group), group, edges)
			cycles = append(cycles, Cycle{
				Path:    path,
				Message: "reference cycle: " + strings.Join(path, " → "),
			})
		case slices.Contains(edges[group[0]], group[0]):
			name := group[0]
			cycles = append(cycles, Cycle{
				Path:    []string{name, name},
				Message: fmt.Sprintf("pipeline references itself: %s → %s", name, name),
			})
		}
	}
	slices.SortFunc(cycles, func(a, b Cycle) int { return strings.Compare(a.Path[0], b.Path[0]) })
	return cycles
}

// sccWalker is Tarjan's strongly connected components search over the
// reference graph.
type sccWalker struct {
	edges   map[string][]string
	next    int
	index   map[string]int
	low     map[string]int
	stack   []string
	onStack map[string]bool
	groups  [][]string
}

func (w *sccWalker) visit(v string) {
	w.index[v], w.low[v] = w.next, w.next
	w.next++
	w.stack = append(w.stack, v)
	w.onStack[v] = true

	for _, u := range w.edges[v] {
		if _, seen := w.index[u]; !seen {
			w.visit(u)
			w.low[v] = min(w.low[v], w.low[u])
		} else if w.onStack[u] {
			w.low[v] = min(w.low[v], w.index[u])
		}
	}
	if w.low[v] != w.index[v] {
		return
	}

	var group []string
	for {
		top := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.onStack[top] = false
		group = append(group, top)
		if top == v {
			break
		}
	}
	w.groups = append(w.groups, group)
}

// loopThrough returns the shortest reference loop from start back to
// start that stays inside group. Ties follow declaration order of steps.
func loopThrough(start string, group []string, edges map[string][]string) []string {
	inGroup := make(map[string]bool, len(group))
	for _, name := range group {
		inGroup[name] = true
	}

	parent := map[string]string{}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nxt := range edges[cur] {
			if !inGroup[nxt] {
				continue
			}
			if nxt == start {
				path := []string{start}
				for n := cur; n != start; n = parent[n] {
					path = append(path, n)
				}
				slices.Reverse(path[1:])
				return append(path, start)
			}
			if _, seen := parent[nxt]; !seen {
				parent[nxt] = cur
				queue = append(queue, nxt)
			}
		}
	}
	return []string{start, start}
}
