package graph

import (
	"github.com/kwv/objrecransac/hypothesis"
	"github.com/kwv/objrecransac/transformspace"
)

// BuildCloseHypothesisGraph implements spec.md §4.5's construction: one
// node per HypothesisOctree leaf (linear ids in the octree's
// deterministic traversal order), fitness = |explained_pixels|, and a
// directed edge i->j for every grid-neighbor j of leaf i.
func BuildCloseHypothesisGraph(oct *transformspace.HypothesisOctree) *Graph[hypothesis.Hypothesis] {
	leaves := oct.Leaves()

	nodes := make([]hypothesis.Hypothesis, len(leaves))
	fitness := make([]float64, len(leaves))
	for i, leaf := range leaves {
		nodes[i] = leaf.Hypothesis
		fitness[i] = float64(leaf.Hypothesis.Explained.Len())
	}

	g := New(true, nodes, fitness)
	for i, leaf := range leaves {
		for _, nb := range oct.NeighborsOf(leaf) {
			g.AddEdge(i, nb.Hypothesis.LinearID)
		}
	}
	return g
}
