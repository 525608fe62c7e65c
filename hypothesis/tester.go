package hypothesis

import (
	"math"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/octree"
	"github.com/kwv/objrecransac/orderedset"
)

// Variant selects the per-leaf scoring rule of spec.md §4.4.
type Variant int

const (
	// PixelCount increments match by one per explained pixel (the default).
	PixelCount Variant = iota
	// NormalDot increments match by dot(R*n_model_leaf, n_scene_nearest),
	// clamped below at 0.
	NormalDot
)

// Tester scores Base hypotheses against a scene z-projection.
type Tester struct {
	Variant Variant
}

// NewTester returns a Tester configured with the given scoring Variant.
func NewTester(variant Variant) *Tester {
	return &Tester{Variant: variant}
}

// Test implements spec.md §4.4: for each full leaf of the model
// octree, transform it into scene space and query the z-projection's
// pixel at that (x,y). Pixels whose recorded depth interval [z1,z2]
// is occluded by the transformed point (z < z1) count as a penalty;
// pixels the point falls within count as a match and are recorded in
// explained_pixels; pixels behind the observed surface (z > z2) are
// skipped; (x,y) with no pixel at all is skipped.
func (t *Tester) Test(h Base, proj *octree.ZProjection) Hypothesis {
	leaves := h.Model.Octree.FullLeaves()
	explained := orderedset.New()
	var match float64
	var penalty int

	for _, leaf := range leaves {
		transformed := h.Transform.Apply(leaf.Point)
		pixel, ok := proj.PixelAt(transformed.Position)
		if !ok {
			continue
		}
		z := transformed.Position.Z
		switch {
		case z < pixel.Z1:
			penalty++
		case z <= pixel.Z2:
			explained.Add(pixel.ID)
			match += t.matchIncrement(transformed, proj, pixel)
		default:
			// z > pixel.Z2: model point lies behind the observed
			// surface; neither a match nor a penalty.
		}
	}

	numModelFullLeaves := len(leaves)
	var confidence float64
	if numModelFullLeaves > 0 {
		confidence = match / float64(numModelFullLeaves)
	}

	return Hypothesis{
		Base:       h,
		Explained:  explained,
		Confidence: confidence,
		Penalty:    penalty,
	}
}

// matchIncrement returns the per-leaf contribution to match: 1 for
// PixelCount, or max(0, dot(R*n_model_leaf, n_scene_nearest)) for
// NormalDot, where n_scene_nearest is the normal of the scene octree
// node in the pixel's column closest to the transformed model point.
// The clamp keeps opposed normals from lowering match below zero.
func (t *Tester) matchIncrement(transformed geom.Point, proj *octree.ZProjection, pixel octree.Pixel) float64 {
	if t.Variant == PixelCount {
		return 1
	}

	nodes := proj.OctreeNodesAt(transformed.Position)
	if len(nodes) == 0 {
		return 0
	}
	best := nodes[0]
	bestDist := transformed.Position.SqDistanceTo(best.Point.Position)
	for _, n := range nodes[1:] {
		d := transformed.Position.SqDistanceTo(n.Point.Position)
		if d < bestDist {
			bestDist = d
			best = n
		}
	}
	return math.Max(0, transformed.Normal.Dot(best.Point.Normal))
}
