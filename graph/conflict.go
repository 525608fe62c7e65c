package graph

import (
	"github.com/kwv/objrecransac/bvh"
	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/hypothesis"
)

// BuildConflictGraph implements spec.md §4.6: each hypothesis becomes a
// bounded object (the AABB of its transformed model full leaves); a
// BVH over these objects finds overlap candidates without an
// all-pairs scan; for each overlapping pair (i,j), i<j, an undirected
// edge is added iff |E_i∩E_j|/|E_i| or |E_i∩E_j|/|E_j| exceeds
// intersectionFraction. Node fitness is the net-novelty formula:
// |E_v| minus the sum of |E_u| over v's eventual neighbors — computed
// after every edge is known, since a node's neighbor set isn't final
// until all pairs have been checked.
func BuildConflictGraph(hyps []hypothesis.Hypothesis, intersectionFraction float64) *Graph[hypothesis.Hypothesis] {
	objs := make([]bvh.Object, len(hyps))
	for i, h := range hyps {
		objs[i] = bvh.Object{Box: transformedBounds(h), Index: i}
	}
	tree := bvh.Build(objs)

	seen := make(map[[2]int]bool)
	var pairs [][2]int
	for i, h := range hyps {
		for _, cand := range tree.Intersect(objs[i].Box) {
			j := cand.Index
			if j == i {
				continue
			}
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			key := [2]int{lo, hi}
			if seen[key] {
				continue
			}
			seen[key] = true
			ei, ej := h.Explained.Len(), hyps[j].Explained.Len()
			if ei == 0 || ej == 0 {
				continue
			}
			shared := h.Explained.Intersection(hyps[j].Explained)
			if float64(shared)/float64(ei) > intersectionFraction || float64(shared)/float64(ej) > intersectionFraction {
				pairs = append(pairs, key)
			}
		}
	}

	nodes := make([]hypothesis.Hypothesis, len(hyps))
	copy(nodes, hyps)
	fitness := make([]float64, len(hyps))
	for i := range nodes {
		fitness[i] = float64(nodes[i].Explained.Len())
	}

	g := New(false, nodes, fitness)
	for _, p := range pairs {
		g.AddEdge(p[0], p[1])
	}

	for i := range g.Fitness {
		netFitness := float64(hyps[i].Explained.Len())
		for _, n := range g.Neighbors(i) {
			netFitness -= float64(hyps[n].Explained.Len())
		}
		g.Fitness[i] = netFitness
	}
	return g
}

func transformedBounds(h hypothesis.Hypothesis) geom.AABB {
	box := geom.EmptyAABB()
	for _, leaf := range h.Base.Model.Octree.FullLeaves() {
		box = box.Extend(h.Base.Transform.ApplyVec(leaf.Point.Position))
	}
	return box
}
