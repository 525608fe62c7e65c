package recognizer

import (
	"context"
	"testing"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/model"
)

func squareCloud() []geom.Point {
	z := geom.Vec3{X: 0, Y: 0, Z: 1}
	return []geom.Point{
		{Position: geom.Vec3{X: 0, Y: 0, Z: 0}, Normal: z},
		{Position: geom.Vec3{X: 0.2, Y: 0, Z: 0}, Normal: z},
		{Position: geom.Vec3{X: 0, Y: 0.2, Z: 0}, Normal: z},
		{Position: geom.Vec3{X: 0.2, Y: 0.2, Z: 0}, Normal: z},
	}
}

func buildLibrary(t *testing.T) *model.Library {
	t.Helper()
	builder := model.NewBuilder(0.2, 0.25)
	lib, err := builder.Build(map[string][]geom.Point{"square": squareCloud()}, 0.01)
	if err != nil {
		t.Fatalf("build library: %v", err)
	}
	return lib
}

func splitXYZ(pts []geom.Point) ([]geom.Vec3, []geom.Vec3) {
	pos := make([]geom.Vec3, len(pts))
	norm := make([]geom.Vec3, len(pts))
	for i, p := range pts {
		pos[i] = p.Position
		norm[i] = p.Normal
	}
	return pos, norm
}

func TestRecognizeFindsIdentityPlacedModel(t *testing.T) {
	lib := buildLibrary(t)
	r := New(lib, 0.01,
		WithPairWidth(0.2),
		WithPairWidthTolerance(0.25),
		WithCoplanarityFilter(false, 0),
		WithVisibility(0.1),
		WithRelativeNumOfIllegalPts(0.5),
		WithIntersectionFraction(0.5),
	)

	scenePos, sceneNorm := splitXYZ(squareCloud())
	outputs, err := r.Recognize(context.Background(), scenePos, sceneNorm, 0.99)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(outputs) == 0 {
		t.Fatal("expected at least one recognized object")
	}
	found := false
	for _, o := range outputs {
		if o.ObjectName == "square" && o.MatchConfidence > 0.3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a confident 'square' match, got %+v", outputs)
	}
}

func TestRecognizeSampleOPPModeReturnsEarly(t *testing.T) {
	lib := buildLibrary(t)
	r := New(lib, 0.01, WithPairWidth(0.2), WithPairWidthTolerance(0.25), WithCoplanarityFilter(false, 0))
	r.WithMode(RecModeSampleOPP)

	scenePos, sceneNorm := splitXYZ(squareCloud())
	outputs, err := r.Recognize(context.Background(), scenePos, sceneNorm, 0.99)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if outputs != nil {
		t.Errorf("expected nil outputs in SAMPLE_OPP mode, got %v", outputs)
	}
	if len(r.LastSampledOPPs()) == 0 {
		t.Error("expected LastSampledOPPs to be populated")
	}
}

func TestRecognizeTestHypothesesModeExposesAccepted(t *testing.T) {
	lib := buildLibrary(t)
	r := New(lib, 0.01,
		WithPairWidth(0.2),
		WithPairWidthTolerance(0.25),
		WithCoplanarityFilter(false, 0),
		WithVisibility(0.1),
		WithRelativeNumOfIllegalPts(0.5),
	)
	r.WithMode(RecModeTestHypotheses)

	scenePos, sceneNorm := splitXYZ(squareCloud())
	outputs, err := r.Recognize(context.Background(), scenePos, sceneNorm, 0.99)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if outputs != nil {
		t.Errorf("expected nil outputs in TEST_HYPOTHESES mode, got %v", outputs)
	}
	if len(r.LastAcceptedHypotheses()) == 0 {
		t.Error("expected at least one accepted hypothesis to be recorded")
	}
}

func TestRecognizeRejectsMismatchedLengths(t *testing.T) {
	lib := buildLibrary(t)
	r := New(lib, 0.01)
	_, err := r.Recognize(context.Background(), []geom.Vec3{{}}, nil, 0.9)
	if err == nil {
		t.Fatal("expected an error for mismatched point/normal slice lengths")
	}
}

func TestRecognizeRespectsCanceledContext(t *testing.T) {
	lib := buildLibrary(t)
	r := New(lib, 0.01)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenePos, sceneNorm := splitXYZ(squareCloud())
	_, err := r.Recognize(ctx, scenePos, sceneNorm, 0.9)
	if err == nil {
		t.Error("expected a canceled-context error")
	}
}
