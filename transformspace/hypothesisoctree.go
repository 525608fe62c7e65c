package transformspace

import (
	"sort"

	"github.com/kwv/objrecransac/hypothesis"
)

// HypothesisLeaf is one occupied position voxel of a HypothesisOctree:
// its grid key and the single representative Hypothesis chosen for it
// (spec.md §4.3's "Output: a HypothesisOctree where each leaf holds
// one Hypothesis; leaves know their grid neighbors").
type HypothesisLeaf struct {
	key        positionKey
	Hypothesis hypothesis.Hypothesis
}

// HypothesisOctree is the grouped output of TransformSpace.Representatives.
type HypothesisOctree struct {
	binSize float64
	byKey   map[positionKey]*HypothesisLeaf
	order   []positionKey
}

func newHypothesisOctree(binSize float64) *HypothesisOctree {
	return &HypothesisOctree{binSize: binSize, byKey: make(map[positionKey]*HypothesisLeaf)}
}

func (h *HypothesisOctree) insert(key positionKey, hyp hypothesis.Hypothesis) {
	if _, exists := h.byKey[key]; !exists {
		h.order = append(h.order, key)
	}
	h.byKey[key] = &HypothesisLeaf{key: key, Hypothesis: hyp}
}

// Leaves returns every leaf in a deterministic order (sorted by grid
// key), with each Hypothesis's LinearID set to its position in that
// order — the stable traversal order spec.md §4.5 requires for linear
// id assignment.
func (h *HypothesisOctree) Leaves() []*HypothesisLeaf {
	keys := make([]positionKey, len(h.order))
	copy(keys, h.order)
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	out := make([]*HypothesisLeaf, len(keys))
	for i, k := range keys {
		leaf := h.byKey[k]
		leaf.Hypothesis.LinearID = i
		out[i] = leaf
	}
	return out
}

func lessKey(a, b positionKey) bool {
	if a.ix != b.ix {
		return a.ix < b.ix
	}
	if a.iy != b.iy {
		return a.iy < b.iy
	}
	return a.iz < b.iz
}

// NeighborsOf returns the leaves occupying any of the 26 grid cells
// adjacent to leaf (spec.md §4.5's leaf-neighbor adjacency).
func (h *HypothesisOctree) NeighborsOf(leaf *HypothesisLeaf) []*HypothesisLeaf {
	return h.neighbors(leaf.key)
}

func (h *HypothesisOctree) neighbors(key positionKey) []*HypothesisLeaf {
	var out []*HypothesisLeaf
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				n := positionKey{key.ix + dx, key.iy + dy, key.iz + dz}
				if leaf, ok := h.byKey[n]; ok {
					out = append(out, leaf)
				}
			}
		}
	}
	return out
}

// Key exposes a leaf's grid key to callers that only hold the leaf.
// Neighbor lookups go through HypothesisOctree.NeighborsOf instead.
func (l *HypothesisLeaf) Key() [3]int64 {
	return [3]int64{l.key.ix, l.key.iy, l.key.iz}
}
