package icp

import (
	"math"
	"testing"

	"github.com/kwv/objrecransac/geom"
)

func approxVec(a, b geom.Vec3, tol float64) bool {
	return a.DistanceTo(b) <= tol
}

func TestCalculateRigidTransformRecoversKnownMotion(t *testing.T) {
	src := []geom.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	truth := geom.RigidTransform{
		R: [9]float64{0, -1, 0, 1, 0, 0, 0, 0, 1}, // 90deg about Z
		T: [3]float64{2, -3, 1},
	}
	dst := make([]geom.Vec3, len(src))
	for i, p := range src {
		dst[i] = truth.ApplyVec(p)
	}

	recovered := CalculateRigidTransform(src, dst)
	for i, p := range src {
		got := recovered.ApplyVec(p)
		if !approxVec(got, dst[i], 1e-6) {
			t.Errorf("point %d: got %v want %v", i, got, dst[i])
		}
	}
}

func TestRefinerAlignConvergesOnNoisyCloud(t *testing.T) {
	target := []geom.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0.5, Y: 0.5, Z: 1},
	}
	offset := geom.Vec3{X: 0.05, Y: -0.03, Z: 0.02}
	source := make([]geom.Vec3, len(target))
	for i, p := range target {
		source[i] = p.Add(offset)
	}

	r := NewRefiner(Config{MaxIterations: 50, ConvergenceThresh: 1e-8, MaxCorrespondDist: 1.0, OutlierPercentile: 1.0})
	r.Init(target)

	transform := geom.Identity()
	result := r.Align(source, len(source), &transform)

	if result.Error > 1e-4 {
		t.Errorf("expected ICP to converge closely, final error=%v", result.Error)
	}
	for i, p := range source {
		got := transform.ApplyVec(p)
		if got.DistanceTo(target[i]) > 1e-2 {
			t.Errorf("point %d not aligned: got %v want %v", i, got, target[i])
		}
	}
}

func TestAlignReturnsEarlyOnInsufficientPoints(t *testing.T) {
	r := NewRefiner(DefaultConfig(0.01))
	r.Init([]geom.Vec3{{X: 0, Y: 0, Z: 0}})
	transform := geom.Identity()
	result := r.Align([]geom.Vec3{{X: 1, Y: 1, Z: 1}}, 1, &transform)
	if result.Iterations != 0 {
		t.Errorf("expected no iterations with fewer than 3 target points, got %d", result.Iterations)
	}
}

func TestQuaternionToRotationIsOrthonormal(t *testing.T) {
	q := [4]float64{0.7071, 0.7071, 0, 0}
	r := quaternionToRotation(q)
	// Every column should have unit norm and be orthogonal to the others.
	col0 := math.Sqrt(r[0]*r[0] + r[3]*r[3] + r[6]*r[6])
	if math.Abs(col0-1) > 1e-3 {
		t.Errorf("expected unit-norm rotation column, got %v", col0)
	}
	col1 := math.Sqrt(r[1]*r[1] + r[4]*r[4] + r[7]*r[7])
	col2 := math.Sqrt(r[2]*r[2] + r[5]*r[5] + r[8]*r[8])
	if math.Abs(col1-1) > 1e-3 || math.Abs(col2-1) > 1e-3 {
		t.Errorf("expected unit-norm rotation columns 1 and 2, got %v, %v", col1, col2)
	}
	d01 := r[0]*r[1] + r[3]*r[4] + r[6]*r[7]
	d02 := r[0]*r[2] + r[3]*r[5] + r[6]*r[8]
	d12 := r[1]*r[2] + r[4]*r[5] + r[7]*r[8]
	if math.Abs(d01) > 1e-3 || math.Abs(d02) > 1e-3 || math.Abs(d12) > 1e-3 {
		t.Errorf("expected orthogonal rotation columns, got dots %v, %v, %v", d01, d02, d12)
	}
}
