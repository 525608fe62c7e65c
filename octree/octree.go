// Package octree provides the scene voxel octree and its 2.5-D
// z-projection. Both are named in spec.md §6 as external collaborator
// contracts; this package is their sole implementation. The sampler
// reaches the octree through the SceneOctree interface; the other
// packages use the concrete *Octree and *ZProjection types.
package octree

import (
	"math/rand"

	"github.com/kwv/objrecransac/geom"
)

// Leaf is one occupied voxel of the octree: its representative point
// (the average position/normal of the points that fell into the voxel)
// and a stable linear id assigned in build order.
type Leaf struct {
	ID    int
	Point geom.Point
	Index [3]int64
}

// SceneOctree is the contract named in spec.md §6. Both the scene
// octree and each model's octree satisfy it.
type SceneOctree interface {
	Build(points []geom.Point, voxelSize float64) error
	FullLeaves() []Leaf
	RandomFullLeafOnSphere(rng *rand.Rand, p geom.Vec3, radius, tolerance float64) (Leaf, bool)
	Bounds() geom.AABB
}

// Octree is a uniform voxel grid over a point cloud. It does not
// subdivide recursively (a "real" octree would), but it satisfies the
// contract's interface exactly: the spec's recursive-subdivision detail
// is an implementation choice of the external collaborator it stands
// in for, not an invariant the core pipeline relies on.
type Octree struct {
	voxelSize float64
	leaves    []Leaf
	index     map[[3]int64]int
	bounds    geom.AABB
}

// New returns an empty octree ready for Build.
func New() *Octree {
	return &Octree{index: make(map[[3]int64]int)}
}

// Build voxelizes points at voxelSize, averaging position and normal of
// all points landing in the same voxel into that voxel's representative
// leaf point. Per spec.md §7, an empty input is not an error: it simply
// yields zero full leaves.
func (o *Octree) Build(points []geom.Point, voxelSize float64) error {
	o.voxelSize = voxelSize
	o.leaves = nil
	o.index = make(map[[3]int64]int)
	o.bounds = geom.EmptyAABB()

	type accum struct {
		sumPos, sumNorm geom.Vec3
		count           int
		idx             [3]int64
	}
	buckets := make(map[[3]int64]*accum)
	var order []*accum

	for _, p := range points {
		idx := voxelIndexFloor(p.Position, voxelSize)
		a, ok := buckets[idx]
		if !ok {
			a = &accum{idx: idx}
			buckets[idx] = a
			order = append(order, a)
		}
		a.sumPos = a.sumPos.Add(p.Position)
		a.sumNorm = a.sumNorm.Add(p.Normal)
		a.count++
		o.bounds = o.bounds.Extend(p.Position)
	}

	if len(points) == 0 {
		o.bounds = geom.AABB{}
	}

	for _, a := range order {
		avgPos := a.sumPos.Scale(1.0 / float64(a.count))
		avgNorm := a.sumNorm.Scale(1.0 / float64(a.count)).Normalize()
		leaf := Leaf{
			ID:    len(o.leaves),
			Point: geom.Point{Position: avgPos, Normal: avgNorm},
			Index: a.idx,
		}
		o.index[a.idx] = len(o.leaves)
		o.leaves = append(o.leaves, leaf)
	}
	return nil
}

func voxelIndexFloor(p geom.Vec3, voxelSize float64) [3]int64 {
	f := func(v float64) int64 {
		q := v / voxelSize
		iq := int64(q)
		if q < 0 && float64(iq) != q {
			iq--
		}
		return iq
	}
	return [3]int64{f(p.X), f(p.Y), f(p.Z)}
}

// FullLeaves returns every occupied leaf, in build order (the order in
// which each voxel first received an input point).
func (o *Octree) FullLeaves() []Leaf {
	return o.leaves
}

// Bounds returns the AABB of the points used to build the octree.
func (o *Octree) Bounds() geom.AABB {
	return o.bounds
}

// VoxelSize returns the leaf size the octree was built with.
func (o *Octree) VoxelSize() float64 {
	return o.voxelSize
}

// RandomFullLeafOnSphere implements spec.md §4.1's
// `random_full_leaf_on_sphere(p, r) -> Option<Leaf>`: among full leaves
// whose distance to p falls within a tolerance band of r, return one
// chosen uniformly at random, or false if none qualify.
func (o *Octree) RandomFullLeafOnSphere(rng *rand.Rand, p geom.Vec3, radius, tolerance float64) (Leaf, bool) {
	lo, hi := radius*(1-tolerance), radius*(1+tolerance)
	var candidates []Leaf
	for _, leaf := range o.leaves {
		d := leaf.Point.Position.DistanceTo(p)
		if d >= lo && d <= hi {
			candidates = append(candidates, leaf)
		}
	}
	if len(candidates) == 0 {
		return Leaf{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}
