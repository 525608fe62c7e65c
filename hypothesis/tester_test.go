package hypothesis

import (
	"testing"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/octree"
)

func sceneCloud() []geom.Point {
	var pts []geom.Point
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			pts = append(pts, geom.Point{
				Position: geom.Vec3{X: float64(x) * 0.1, Y: float64(y) * 0.1, Z: 0},
				Normal:   geom.Vec3{X: 0, Y: 0, Z: 1},
			})
		}
	}
	return pts
}

func buildSceneProjection(t *testing.T) *octree.ZProjection {
	t.Helper()
	oct := octree.New()
	if err := oct.Build(sceneCloud(), 0.1); err != nil {
		t.Fatalf("build scene octree: %v", err)
	}
	return octree.BuildZProjection(oct, 0.02, 0.02)
}

func TestTestPixelCountMatchesCoincidentModel(t *testing.T) {
	proj := buildSceneProjection(t)
	m, err := model.NewModel("plate", sceneCloud(), 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	base := Base{Model: m, Transform: geom.Identity()}
	tester := NewTester(PixelCount)
	result := tester.Test(base, proj)

	if result.Confidence <= 0.9 {
		t.Errorf("expected near-perfect confidence for an identity-aligned scene model, got %v", result.Confidence)
	}
	if result.Penalty != 0 {
		t.Errorf("expected zero penalty for a coincident model, got %d", result.Penalty)
	}
}

func TestTestPenalizesOcclusion(t *testing.T) {
	proj := buildSceneProjection(t)
	occluding := []geom.Point{
		{Position: geom.Vec3{X: 0.2, Y: 0.2, Z: -1}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
	}
	m, err := model.NewModel("spike", occluding, 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	base := Base{Model: m, Transform: geom.Identity()}
	tester := NewTester(PixelCount)
	result := tester.Test(base, proj)
	if result.Penalty != 1 {
		t.Errorf("expected one occlusion penalty, got %d", result.Penalty)
	}
}

func TestTestSkipsPointsBehindSurfaceAndOffGrid(t *testing.T) {
	proj := buildSceneProjection(t)
	behindAndOffGrid := []geom.Point{
		{Position: geom.Vec3{X: 0.2, Y: 0.2, Z: 1}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
		{Position: geom.Vec3{X: 100, Y: 100, Z: 0}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
	}
	m, err := model.NewModel("far", behindAndOffGrid, 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	base := Base{Model: m, Transform: geom.Identity()}
	tester := NewTester(PixelCount)
	result := tester.Test(base, proj)
	if result.Confidence != 0 || result.Penalty != 0 || result.Explained.Len() != 0 {
		t.Errorf("expected no match/penalty for behind-surface and off-grid points, got %+v", result)
	}
}

func TestTestNormalDotVariantRewardsAlignedNormals(t *testing.T) {
	proj := buildSceneProjection(t)
	m, err := model.NewModel("plate", sceneCloud(), 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	base := Base{Model: m, Transform: geom.Identity()}
	tester := NewTester(NormalDot)
	result := tester.Test(base, proj)
	if result.Confidence <= 0.9 {
		t.Errorf("expected high confidence for aligned normals under NormalDot, got %v", result.Confidence)
	}
}
