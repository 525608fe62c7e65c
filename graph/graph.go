// Package graph implements the index-array graph representation
// spec.md §9's re-architecture note mandates, plus the two filtering
// graphs (spec.md §4.5, §4.6) and the maximal on/off partition
// algorithm (spec.md §4.7) they both filter through.
package graph

import (
	"strconv"

	core "github.com/katalvlaran/lvlath/graph/core"
)

// Graph is a fixed-size graph over nodes of payload type T, indexed by
// position: node i's data is Nodes[i], its fitness Fitness[i], and
// whether the maximal on/off partition accepted it On[i]. Edge storage
// and traversal are delegated to lvlath's adjacency-list Graph, reused
// for the concern it already covers instead of hand-rolling adjacency
// maps; this type supplies the "payload stored by value in the node"
// shape the spec requires on top of it.
type Graph[T any] struct {
	Nodes    []T
	Fitness  []float64
	On       []bool
	Directed bool

	core *core.Graph
}

// New returns a Graph over nodes with the given per-node fitness,
// directed as requested (spec.md §4.5 uses directed edges, §4.6
// undirected).
func New[T any](directed bool, nodes []T, fitness []float64) *Graph[T] {
	g := &Graph[T]{
		Nodes:    nodes,
		Fitness:  fitness,
		On:       make([]bool, len(nodes)),
		Directed: directed,
		core:     core.NewGraph(directed, false),
	}
	for i := range nodes {
		g.core.AddVertex(&core.Vertex{ID: idOf(i), Metadata: make(map[string]interface{})})
	}
	return g
}

func idOf(i int) string {
	return strconv.Itoa(i)
}

// AddEdge connects node i to node j (mirrored automatically if the
// graph is undirected, per lvlath's AddEdge).
func (g *Graph[T]) AddEdge(i, j int) {
	g.core.AddEdge(idOf(i), idOf(j), 0)
}

// HasEdge reports whether an edge i->j exists.
func (g *Graph[T]) HasEdge(i, j int) bool {
	return g.core.HasEdge(idOf(i), idOf(j))
}

// Neighbors returns the indices of every node reachable from i.
func (g *Graph[T]) Neighbors(i int) []int {
	vs := g.core.Neighbors(idOf(i))
	out := make([]int, 0, len(vs))
	for _, v := range vs {
		n, err := strconv.Atoi(v.ID)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph[T]) Len() int {
	return len(g.Nodes)
}
