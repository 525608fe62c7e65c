// Package transformspace clusters the raw hypothesis stream from the
// generator into discretized 6-DOF transform-space bins, retaining at
// most one best-scoring hypothesis per position voxel (spec.md §4.3).
package transformspace

import (
	"math"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/hypothesis"
	"github.com/kwv/objrecransac/icp"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/octree"
)

type positionKey struct{ ix, iy, iz int64 }

// RotationSpace accumulates votes, within one position voxel, for each
// (model, discretized rotation) bin: the bin with the most votes per
// model is the cluster's representative rotation (spec.md §4.3).
type RotationSpace struct {
	buckets map[rotationKey]*rotationBucket
}

type rotationKey struct {
	model    string
	thetaBin int64
	phiBin   int64
	angleBin int64
}

type rotationBucket struct {
	votes int
	base  hypothesis.Base
}

func newRotationSpace() *RotationSpace {
	return &RotationSpace{buckets: make(map[rotationKey]*rotationBucket)}
}

func (rs *RotationSpace) insert(h hypothesis.Base, rotationBin float64) {
	axis, angle := h.Transform.AxisAngle()
	theta := math.Acos(clamp(axis.Z, -1, 1))
	phi := math.Atan2(axis.Y, axis.X)
	key := rotationKey{
		model:    h.Model.Name,
		thetaBin: binOf(theta, rotationBin),
		phiBin:   binOf(phi, rotationBin),
		angleBin: binOf(angle, rotationBin),
	}
	b, ok := rs.buckets[key]
	if !ok {
		b = &rotationBucket{base: h}
		rs.buckets[key] = b
	}
	b.votes++
}

// bestPerModel returns, for each model name present in this rotation
// space, the bucket with the most votes.
func (rs *RotationSpace) bestPerModel() map[string]hypothesis.Base {
	best := make(map[string]*rotationBucket)
	for key, b := range rs.buckets {
		cur, ok := best[key.model]
		if !ok || b.votes > cur.votes {
			best[key.model] = b
		}
	}
	out := make(map[string]hypothesis.Base, len(best))
	for name, b := range best {
		out[name] = b.base
	}
	return out
}

func binOf(v, size float64) int64 {
	q := v / size
	iq := int64(q)
	if q < 0 && float64(iq) != q {
		iq--
	}
	return iq
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TransformSpace is the position-voxel grid of RotationSpaces, built
// over scene bounds enlarged by scene_bounds_enlargement_factor_
// (spec.md §4.3).
type TransformSpace struct {
	bounds      geom.AABB
	positionBin float64
	rotationBin float64
	cells       map[positionKey]*RotationSpace
}

// New returns an empty TransformSpace over bounds, with the given
// position and rotation bin sizes.
func New(bounds geom.AABB, positionBin, rotationBin float64) *TransformSpace {
	return &TransformSpace{
		bounds:      bounds,
		positionBin: positionBin,
		rotationBin: rotationBin,
		cells:       make(map[positionKey]*RotationSpace),
	}
}

// Insert transforms centerOfMass by h.Transform to obtain the
// hypothesis's position, finds its position voxel, and casts a vote in
// that voxel's rotation space (spec.md §4.3).
func (ts *TransformSpace) Insert(h hypothesis.Base, centerOfMass geom.Vec3) {
	pos := h.Transform.ApplyVec(centerOfMass)
	key := ts.keyOf(pos)
	rs, ok := ts.cells[key]
	if !ok {
		rs = newRotationSpace()
		ts.cells[key] = rs
	}
	rs.insert(h, ts.rotationBin)
}

// Bounds returns the (enlarged) scene bounds this space was built
// over. Position voxels are keyed on absolute coordinates, so these
// bounds do not limit which voxels Insert can create.
func (ts *TransformSpace) Bounds() geom.AABB {
	return ts.bounds
}

func (ts *TransformSpace) keyOf(p geom.Vec3) positionKey {
	return positionKey{
		ix: binOf(p.X, ts.positionBin),
		iy: binOf(p.Y, ts.positionBin),
		iz: binOf(p.Z, ts.positionBin),
	}
}

// Representatives implements the selection rule of spec.md §4.3: for
// each occupied position voxel, test each model's best-voted rotation
// against proj, keep the per-model candidates that pass the
// visibility/illegal-fraction thresholds, and retain the
// highest-confidence survivor as the voxel's representative. When icp
// is non-nil and a candidate's initial match exceeds 3 explained
// pixels, the transform is refined with trimmed ICP over
// icpInlierFraction of the match before the final re-score.
func (ts *TransformSpace) Representatives(tester *hypothesis.Tester, proj *octree.ZProjection, visibility, illegalFrac float64, icpRefiner *icp.Refiner, icpInlierFraction float64) *HypothesisOctree {
	out := newHypothesisOctree(ts.positionBin)

	for key, rs := range ts.cells {
		var bestHyp *hypothesis.Hypothesis
		for _, base := range rs.bestPerModel() {
			scored := tester.Test(base, proj)
			full := base.Model.NumFullLeaves()
			if full == 0 {
				continue
			}
			match := scored.Confidence * float64(full)
			if match < visibility*float64(full) {
				continue
			}
			if float64(scored.Penalty) > illegalFrac*float64(full) {
				continue
			}

			if icpRefiner != nil && match > 3 {
				numInliers := int(icpInlierFraction * match)
				refinedTransform := scored.Base.Transform
				source := modelLeafPositions(scored.Base.Model)
				icpRefiner.Align(source, numInliers, &refinedTransform)
				refinedBase := hypothesis.Base{Model: scored.Base.Model, Transform: refinedTransform}
				scored = tester.Test(refinedBase, proj)
			}

			if bestHyp == nil || scored.Confidence > bestHyp.Confidence {
				s := scored
				bestHyp = &s
			}
		}
		if bestHyp != nil {
			out.insert(key, *bestHyp)
		}
	}
	return out
}

// modelLeafPositions returns the model's full-leaf positions in model
// space, the "source" cloud trimmed ICP aligns onto the scene.
func modelLeafPositions(m *model.Model) []geom.Vec3 {
	leaves := m.Octree.FullLeaves()
	out := make([]geom.Vec3, len(leaves))
	for i, l := range leaves {
		out[i] = l.Point.Position
	}
	return out
}
