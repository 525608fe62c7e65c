package graph

import (
	"testing"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/hypothesis"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/octree"
	"github.com/kwv/objrecransac/transformspace"
)

func flatSceneCloud() []geom.Point {
	var pts []geom.Point
	for x := 0; x < 20; x++ {
		for y := 0; y < 6; y++ {
			pts = append(pts, geom.Point{
				Position: geom.Vec3{X: float64(x) * 0.1, Y: float64(y) * 0.1, Z: 0},
				Normal:   geom.Vec3{X: 0, Y: 0, Z: 1},
			})
		}
	}
	return pts
}

func buildFlatProjection(t *testing.T) *octree.ZProjection {
	t.Helper()
	oct := octree.New()
	if err := oct.Build(flatSceneCloud(), 0.1); err != nil {
		t.Fatalf("build scene octree: %v", err)
	}
	return octree.BuildZProjection(oct, 0.02, 0.02)
}

func TestBuildCloseHypothesisGraphConnectsAdjacentVoxels(t *testing.T) {
	patch := []geom.Point{
		{Position: geom.Vec3{X: 0, Y: 0, Z: 0}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
		{Position: geom.Vec3{X: 0.1, Y: 0, Z: 0}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
		{Position: geom.Vec3{X: 0, Y: 0.1, Z: 0}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
	}
	m, err := model.NewModel("patch", patch, 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	bounds := geom.AABB{Min: geom.Vec3{X: -2, Y: -2, Z: -2}, Max: geom.Vec3{X: 2, Y: 2, Z: 2}}
	ts := transformspace.New(bounds, 1.0, 0.2)

	translate := func(x float64) geom.RigidTransform {
		return geom.RigidTransform{R: geom.Identity().R, T: [3]float64{x, 0, 0}}
	}
	ts.Insert(hypothesis.Base{Model: m, Transform: translate(0)}, geom.Vec3{})
	ts.Insert(hypothesis.Base{Model: m, Transform: translate(1.2)}, geom.Vec3{})
	ts.Insert(hypothesis.Base{Model: m, Transform: translate(5.0)}, geom.Vec3{})

	proj := buildFlatProjection(t)
	tester := hypothesis.NewTester(hypothesis.PixelCount)
	oct := ts.Representatives(tester, proj, 0, 1, nil, 0)
	if len(oct.Leaves()) != 3 {
		t.Fatalf("expected 3 representative voxels, got %d", len(oct.Leaves()))
	}

	g := BuildCloseHypothesisGraph(oct)
	if g.Len() != 3 {
		t.Fatalf("expected 3 graph nodes, got %d", g.Len())
	}

	adjacentFound := false
	for i := 0; i < g.Len(); i++ {
		for _, j := range g.Neighbors(i) {
			adjacentFound = true
			_ = j
		}
	}
	if !adjacentFound {
		t.Error("expected at least one adjacency edge among grid-neighbor voxels")
	}
}
