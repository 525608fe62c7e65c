// Package recognizer orchestrates the full object-recognition pipeline
// of spec.md §4.8: scene voxelization, OPP sampling, hypothesis
// generation and scoring, rotation-space grouping, and the two
// graph-based filtering passes.
package recognizer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/graph"
	"github.com/kwv/objrecransac/hypothesis"
	"github.com/kwv/objrecransac/icp"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/octree"
	"github.com/kwv/objrecransac/sampler"
	"github.com/kwv/objrecransac/telemetry"
	"github.com/kwv/objrecransac/transformspace"
)

// RecMode selects how far the pipeline runs before returning, per
// spec.md §4.8's early-return points.
type RecMode int

const (
	// RecModeFull runs the complete pipeline (the default).
	RecModeFull RecMode = iota
	// RecModeSampleOPP returns immediately after OPP sampling.
	RecModeSampleOPP
	// RecModeTestHypotheses returns after the close-hypothesis filter,
	// before the conflict graph and BVH.
	RecModeTestHypotheses
)

// Output is one recognized object instance.
type Output struct {
	ObjectName      string
	RigidTransform  geom.RigidTransform
	MatchConfidence float64
	UserData        any
}

// Recognizer holds the immutable, shared-across-calls collaborators
// (spec.md §3 lifecycle rules: the model library is read-only and
// built once) plus the per-call configuration.
type Recognizer struct {
	library *model.Library
	config  Config
	icp     *icp.Refiner
	logger  *telemetry.Logger
	mode    RecMode

	lastAccepted []hypothesis.Hypothesis
	lastSampled  []geom.OPP
}

// New returns a Recognizer over library with the given options applied
// on top of DefaultConfig(voxelSize).
func New(library *model.Library, voxelSize float64, opts ...Option) *Recognizer {
	cfg := DefaultConfig(voxelSize)
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Recognizer{library: library, config: cfg}
	if cfg.UseICP {
		r.icp = icp.NewRefiner(icp.DefaultConfig(voxelSize))
		r.icp.SetNewToOldEnergyRatio(cfg.NewToOldEnergyRatio)
	}
	return r
}

// WithLogger attaches a telemetry.Logger used to time each pipeline
// stage; nil (the zero value) disables logging.
func (r *Recognizer) WithLogger(l *telemetry.Logger) *Recognizer {
	r.logger = l
	return r
}

// WithMode sets the early-return mode for subsequent Recognize calls.
func (r *Recognizer) WithMode(mode RecMode) *Recognizer {
	r.mode = mode
	return r
}

// LastAcceptedHypotheses returns the hypotheses that survived the
// close-hypothesis filter in the most recent Recognize call, as
// spec.md §8 scenario 6 (TEST_HYPOTHESES mode) requires.
func (r *Recognizer) LastAcceptedHypotheses() []hypothesis.Hypothesis {
	return r.lastAccepted
}

// LastSampledOPPs returns the OPPs sampled in the most recent
// Recognize call (SAMPLE_OPP mode, spec.md §8 scenario).
func (r *Recognizer) LastSampledOPPs() []geom.OPP {
	return r.lastSampled
}

// Recognize runs the pipeline of spec.md §4.8 against a scene point
// cloud and its per-point normals. ctx is checked only at stage
// boundaries (ctx.Err()); the pipeline has no internal suspension
// point per spec.md §5.
func (r *Recognizer) Recognize(ctx context.Context, scenePoints, sceneNormals []geom.Vec3, successProbability float64) ([]Output, error) {
	if len(scenePoints) != len(sceneNormals) {
		return nil, fmt.Errorf("recognizer: scenePoints and sceneNormals length mismatch (%d vs %d)", len(scenePoints), len(sceneNormals))
	}
	r.lastAccepted = nil
	r.lastSampled = nil

	points := make([]geom.Point, len(scenePoints))
	for i := range scenePoints {
		points[i] = geom.Point{Position: scenePoints[i], Normal: sceneNormals[i]}
	}

	defer r.logStage("recognize")()

	sceneOctree := octree.New()
	if err := sceneOctree.Build(points, r.config.VoxelSize); err != nil {
		return nil, fmt.Errorf("recognizer: building scene octree: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	proj := octree.BuildZProjection(sceneOctree, r.config.AbsZDistThresh, r.config.AbsZDistThresh)

	if r.config.UseICP {
		r.icp.Init(scenePoints)
	}

	if successProbability > 0.99 {
		successProbability = 0.99
	}

	leaves := sceneOctree.FullLeaves()
	numIterations := sampler.IterationCount(successProbability, r.config.PriorQ, len(leaves))

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	coplanar := sampler.CoplanarityFilter{Enabled: r.config.IgnoreCoplanarOPPs, MaxCoplanarityAngle: r.config.MaxCoplanarityAngle}
	opps := sampler.Sample(rng, sceneOctree, leaves, numIterations, r.config.PairWidth, r.config.PairWidthTolerance, coplanar)
	r.lastSampled = opps

	if r.mode == RecModeSampleOPP {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	bases := hypothesis.GenerateParallel(opps, r.library, r.config.Workers)

	bounds := geom.EmptyAABB()
	for _, p := range scenePoints {
		bounds = bounds.Extend(p)
	}
	bounds = bounds.EnlargedBy(r.config.SceneBoundsEnlargementFactor)

	ts := transformspace.New(bounds, r.config.PositionDiscretization, r.config.RotationDiscretization)
	for _, b := range bases {
		ts.Insert(b, b.Model.CenterOfMass)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	variant := hypothesis.PixelCount
	if r.config.NormalVariant {
		variant = hypothesis.NormalDot
	}
	tester := hypothesis.NewTester(variant)

	hypOctree := ts.Representatives(tester, proj, r.config.Visibility, r.config.RelativeNumOfIllegalPts, r.icp, r.config.FracOfPointsForICPRefinement)

	closeGraph := graph.BuildCloseHypothesisGraph(hypOctree)
	onClose := graph.MaximalOnOff(closeGraph)

	var accepted []hypothesis.Hypothesis
	for i, on := range onClose {
		if on {
			accepted = append(accepted, closeGraph.Nodes[i])
		}
	}
	r.lastAccepted = accepted

	if r.mode == RecModeTestHypotheses {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	conflictGraph := graph.BuildConflictGraph(accepted, r.config.IntersectionFraction)
	onConflict := graph.MaximalOnOff(conflictGraph)

	var outputs []Output
	for i, on := range onConflict {
		if !on {
			continue
		}
		h := conflictGraph.Nodes[i]
		if h.Confidence < r.config.MatchConfidenceThreshold {
			continue
		}
		outputs = append(outputs, Output{
			ObjectName:      h.Base.Model.Name,
			RigidTransform:  h.Base.Transform,
			MatchConfidence: h.Confidence,
			UserData:        h.Base.Model.UserData,
		})
	}

	sort.Slice(outputs, func(i, j int) bool {
		return outputs[i].MatchConfidence > outputs[j].MatchConfidence
	})
	return outputs, nil
}

func (r *Recognizer) logStage(name string) func() {
	if r.logger == nil {
		return func() {}
	}
	return r.logger.Stage(name)
}
