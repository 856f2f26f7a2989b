package dependency

import (
	"errors"
	"slices"
)

// ErrCycle is returned when the dependency graph contains a cycle.
var ErrCycle = errors.New("dependency cycle detected")

// Edge says that Target depends on Source.
type Edge struct {
	Source string
	Target string
}

// CycleError lists the nodes that could not be ordered.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string { return ErrCycle.Error() }

func (e *CycleError) Unwrap() error { return ErrCycle }

// Resolve returns node IDs in topological order (dependencies first). Nodes that become
// ready at the same time are ordered by ID so the result is deterministic. Edges that
// mention unknown nodes or point a node at itself are ignored.
func Resolve(nodes []string, edges []Edge) ([]string, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	nodeSet := make(map[string]bool, len(nodes))
	for _, id := range nodes {
		nodeSet[id] = true
	}

	// target depends on source => inDegree[target] = number of edges into target
	inDegree := make(map[string]int, len(nodeSet))
	out := make(map[string][]string, len(nodeSet))
	for id := range nodeSet {
		inDegree[id] = 0
	}
	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if !nodeSet[e.Source] || !nodeSet[e.Target] || e.Source == e.Target || seen[e] {
			continue
		}
		seen[e] = true
		inDegree[e.Target]++
		out[e.Source] = append(out[e.Source], e.Target)
	}

	var queue []string
	for id := range nodeSet {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	slices.Sort(queue)

	ordered := make([]string, 0, len(nodeSet))
	for len(queue) > 0 {
		var nextQueue []string
		for _, u := range queue {
			ordered = append(ordered, u)
			for _, v := range out[u] {
				inDegree[v]--
				if inDegree[v] == 0 {
					nextQueue = append(nextQueue, v)
				}
			}
		}
		slices.Sort(nextQueue)
		queue = nextQueue
	}

	if len(ordered) != len(nodeSet) {
		var stuck []string
		for id, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		slices.Sort(stuck)
		return nil, &CycleError{Nodes: stuck}
	}
	return ordered, nil
}
