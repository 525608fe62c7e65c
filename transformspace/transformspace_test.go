package transformspace

import (
	"testing"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/hypothesis"
	"github.com/kwv/objrecransac/icp"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/octree"
)

func sceneCloud() []geom.Point {
	var pts []geom.Point
	for x := 0; x < 6; x++ {
		for y := 0; y < 6; y++ {
			pts = append(pts, geom.Point{
				Position: geom.Vec3{X: float64(x) * 0.1, Y: float64(y) * 0.1, Z: 0},
				Normal:   geom.Vec3{X: 0, Y: 0, Z: 1},
			})
		}
	}
	return pts
}

func buildProjection(t *testing.T) *octree.ZProjection {
	t.Helper()
	oct := octree.New()
	if err := oct.Build(sceneCloud(), 0.1); err != nil {
		t.Fatalf("build scene octree: %v", err)
	}
	return octree.BuildZProjection(oct, 0.02, 0.02)
}

func TestInsertAndRepresentativesAcceptsVisibleCandidate(t *testing.T) {
	m, err := model.NewModel("plate", sceneCloud(), 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	bounds := geom.AABB{Min: geom.Vec3{X: -1, Y: -1, Z: -1}, Max: geom.Vec3{X: 1, Y: 1, Z: 1}}
	ts := New(bounds, 0.2, 0.1)

	base := hypothesis.Base{Model: m, Transform: geom.Identity()}
	ts.Insert(base, m.CenterOfMass)

	proj := buildProjection(t)
	tester := hypothesis.NewTester(hypothesis.PixelCount)

	oct := ts.Representatives(tester, proj, 0.2, 0.5, nil, 0)
	leaves := oct.Leaves()
	if len(leaves) != 1 {
		t.Fatalf("expected exactly one representative voxel, got %d", len(leaves))
	}
	if leaves[0].Hypothesis.Confidence <= 0.9 {
		t.Errorf("expected high confidence representative, got %v", leaves[0].Hypothesis.Confidence)
	}
	if leaves[0].Hypothesis.LinearID != 0 {
		t.Errorf("expected the sole leaf to have LinearID 0, got %d", leaves[0].Hypothesis.LinearID)
	}
}

func TestRepresentativesRejectsBelowVisibilityThreshold(t *testing.T) {
	occluding := []geom.Point{
		{Position: geom.Vec3{X: 10, Y: 10, Z: 10}, Normal: geom.Vec3{X: 0, Y: 0, Z: 1}},
	}
	m, err := model.NewModel("far", occluding, 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	bounds := geom.AABB{Min: geom.Vec3{X: -1, Y: -1, Z: -1}, Max: geom.Vec3{X: 1, Y: 1, Z: 1}}
	ts := New(bounds, 0.2, 0.1)
	base := hypothesis.Base{Model: m, Transform: geom.Identity()}
	ts.Insert(base, m.CenterOfMass)

	proj := buildProjection(t)
	tester := hypothesis.NewTester(hypothesis.PixelCount)
	oct := ts.Representatives(tester, proj, 0.5, 0.1, nil, 0)
	if len(oct.Leaves()) != 0 {
		t.Errorf("expected no representatives for an unmatched model, got %d", len(oct.Leaves()))
	}
}

// TestRepresentativesAdoptsICPRefinementUnconditionally exercises the
// icpRefiner != nil branch of Representatives: spec.md:79 requires that
// once a candidate's initial match exceeds 3, the transform is refined
// with trimmed ICP and the refined transform/score replaces the initial
// one unconditionally, even when the refinement makes the score worse.
// The model's initial transform is the identity, a perfect match against
// the scene (confidence 1.0); the ICP target is initialized to a cloud
// translated far from the scene, so Align pulls the transform toward
// that foreign target and away from the correct alignment. If
// Representatives kept whichever score was higher (as a conditional
// adoption would), the perfect initial match would survive; this test
// asserts it does not.
func TestRepresentativesAdoptsICPRefinementUnconditionally(t *testing.T) {
	m, err := model.NewModel("plate", sceneCloud(), 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	bounds := geom.AABB{Min: geom.Vec3{X: -1, Y: -1, Z: -1}, Max: geom.Vec3{X: 1, Y: 1, Z: 1}}
	ts := New(bounds, 0.2, 0.1)

	base := hypothesis.Base{Model: m, Transform: geom.Identity()}
	ts.Insert(base, m.CenterOfMass)

	proj := buildProjection(t)
	tester := hypothesis.NewTester(hypothesis.PixelCount)

	preICP := tester.Test(base, proj)
	if preICP.Confidence < 0.9 {
		t.Fatalf("expected the identity transform to be a near-perfect initial match, got confidence %v", preICP.Confidence)
	}

	// Offset the ICP target by enough to pull the refined transform's
	// translation well outside the scene's 0.5-unit footprint (so the
	// refined model lands mostly off-grid and scores far lower), but
	// still within DefaultConfig's MaxCorrespondDist (10*voxelSize=1.0)
	// so Align actually finds correspondences and moves the transform.
	foreignTarget := make([]geom.Vec3, len(sceneCloud()))
	for i, p := range sceneCloud() {
		foreignTarget[i] = p.Position.Add(geom.Vec3{X: 0.4, Y: 0.4, Z: 0})
	}
	refiner := icp.NewRefiner(icp.DefaultConfig(0.1))
	refiner.Init(foreignTarget)

	oct := ts.Representatives(tester, proj, 0.2, 0.5, refiner, 0.5)
	leaves := oct.Leaves()
	if len(leaves) != 1 {
		t.Fatalf("expected exactly one representative voxel, got %d", len(leaves))
	}

	got := leaves[0].Hypothesis.Confidence
	if got == preICP.Confidence {
		t.Errorf("Representatives kept the pre-ICP score (%v) instead of unconditionally adopting the ICP-refined re-score, as spec.md:79 requires", preICP.Confidence)
	}
}

func TestLeavesAreDeterministicallyOrdered(t *testing.T) {
	bounds := geom.AABB{Min: geom.Vec3{X: -5, Y: -5, Z: -5}, Max: geom.Vec3{X: 5, Y: 5, Z: 5}}
	ts := New(bounds, 0.5, 0.1)
	m, err := model.NewModel("plate", sceneCloud(), 0.1, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	positions := []geom.Vec3{{X: 2, Y: 0, Z: 0}, {X: -2, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 0}}
	for _, p := range positions {
		base := hypothesis.Base{Model: m, Transform: geom.RigidTransform{R: geom.Identity().R, T: [3]float64{p.X, p.Y, p.Z}}}
		ts.Insert(base, geom.Vec3{})
	}

	proj := buildProjection(t)
	tester := hypothesis.NewTester(hypothesis.PixelCount)
	oct := ts.Representatives(tester, proj, 0, 1, nil, 0)
	leaves := oct.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("expected 3 distinct position voxels, got %d", len(leaves))
	}
	for i := 1; i < len(leaves); i++ {
		if !lessKey(leaves[i-1].key, leaves[i].key) {
			t.Errorf("leaves not sorted: %v then %v", leaves[i-1].key, leaves[i].key)
		}
	}
}
