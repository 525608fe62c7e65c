package graph

import "sort"

// MaximalOnOff implements spec.md §4.7's greedy procedure: sort nodes
// by descending fitness (stable by linear id, i.e. index, for
// determinism); walk that order, turning each unvisited node ON and
// marking its unvisited neighbors OFF (visited, not ON). Any node
// never visited stays OFF by default — the all-isolated-nodes edge
// case becomes every node ON, satisfied automatically since an
// isolated node's first visit always turns it ON.
func MaximalOnOff[T any](g *Graph[T]) []bool {
	n := g.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return g.Fitness[order[a]] > g.Fitness[order[b]]
	})

	visited := make([]bool, n)
	on := make([]bool, n)
	for _, i := range order {
		if visited[i] {
			continue
		}
		visited[i] = true
		on[i] = true
		for _, j := range g.Neighbors(i) {
			visited[j] = true
		}
	}
	g.On = on
	return on
}
