// Package model holds the read-only object library: each Model's point
// cloud, octree, and precomputed oriented-pair hash table (spec.md §3,
// §6 ModelLibrary contract). Models and the library are built once,
// outside a recognition call, and shared read-only across every call
// (spec.md §3 Lifecycles).
package model

import (
	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/octree"
)

// ModelPoint is a point belonging to a specific model's cloud, carrying
// enough context (the model it belongs to) to build a rigid transform
// against a scene pair without further lookups.
type ModelPoint struct {
	Model *Model
	Point geom.Point
}

// Model is a named object in the library: its point cloud with
// normals, its octree, and its center of mass in octree coordinates
// (spec.md §3). UserData is an opaque payload returned verbatim in
// recognize()'s output.
type Model struct {
	Name         string
	Points       []geom.Point
	Octree       *octree.Octree
	CenterOfMass geom.Vec3
	UserData     any
}

// NumFullLeaves is a convenience used throughout scoring/acceptance
// thresholds (spec.md §4.3, §4.4): `visibility_ * model_full_leaves`
// and `relative_num_of_illegal_pts_ * model_full_leaves`.
func (m *Model) NumFullLeaves() int {
	return len(m.Octree.FullLeaves())
}

// NewModel builds a Model from a raw point cloud: it voxelizes the
// cloud at voxelSize to obtain the model's octree and computes the
// unweighted centroid of the input points as the center of mass.
func NewModel(name string, points []geom.Point, voxelSize float64, userData any) (*Model, error) {
	oct := octree.New()
	if err := oct.Build(points, voxelSize); err != nil {
		return nil, err
	}
	var sum geom.Vec3
	for _, p := range points {
		sum = sum.Add(p.Position)
	}
	var centroid geom.Vec3
	if len(points) > 0 {
		centroid = sum.Scale(1.0 / float64(len(points)))
	}
	return &Model{
		Name:         name,
		Points:       points,
		Octree:       oct,
		CenterOfMass: centroid,
		UserData:     userData,
	}, nil
}
