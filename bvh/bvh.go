// Package bvh implements the generic bounding-volume hierarchy over
// axis-aligned bounded objects named as an external collaborator in
// spec.md §1(c)/§6, used by the conflict graph (spec.md §4.6) to find
// candidate overlapping hypotheses without an all-pairs scan.
package bvh

import (
	"sort"

	"github.com/kwv/objrecransac/geom"
)

// Object is anything a BVH can hold: a bounding box plus an opaque
// index back into the caller's object slice.
type Object struct {
	Box   geom.AABB
	Index int
}

// BVH is a simple median-split AABB tree, built once per call
// (spec.md §5, §9 Scoped cleanup) and queried with an AABB to find
// overlap candidates.
type BVH struct {
	root *node
}

type node struct {
	box         geom.AABB
	objects     []Object // non-empty only at leaves
	left, right *node
}

const leafSize = 4

// Build constructs a BVH over objs. An empty input yields a BVH whose
// Intersect always returns nil.
func Build(objs []Object) *BVH {
	if len(objs) == 0 {
		return &BVH{}
	}
	cp := make([]Object, len(objs))
	copy(cp, objs)
	return &BVH{root: buildNode(cp)}
}

func buildNode(objs []Object) *node {
	box := geom.EmptyAABB()
	for _, o := range objs {
		box = box.Union(o.Box)
	}
	if len(objs) <= leafSize {
		return &node{box: box, objects: objs}
	}

	axis := longestAxis(box)
	sort.Slice(objs, func(i, j int) bool {
		return centerOn(objs[i].Box, axis) < centerOn(objs[j].Box, axis)
	})
	mid := len(objs) / 2
	return &node{
		box:   box,
		left:  buildNode(objs[:mid]),
		right: buildNode(objs[mid:]),
	}
}

func longestAxis(b geom.AABB) int {
	d := b.Max.Sub(b.Min)
	if d.X >= d.Y && d.X >= d.Z {
		return 0
	}
	if d.Y >= d.Z {
		return 1
	}
	return 2
}

func centerOn(b geom.AABB, axis int) float64 {
	c := b.Center()
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// Intersect returns every object whose box overlaps aabb (spec.md §6:
// `intersect(aabb) -> list<Object>`).
func (t *BVH) Intersect(aabb geom.AABB) []Object {
	if t.root == nil {
		return nil
	}
	var out []Object
	var visit func(n *node)
	visit = func(n *node) {
		if n == nil || !n.box.Overlaps(aabb) {
			return
		}
		if n.objects != nil {
			for _, o := range n.objects {
				if o.Box.Overlaps(aabb) {
					out = append(out, o)
				}
			}
			return
		}
		visit(n.left)
		visit(n.right)
	}
	visit(t.root)
	return out
}
