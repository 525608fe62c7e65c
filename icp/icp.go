// Package icp implements the optional trimmed-ICP refiner named as an
// external collaborator in spec.md §1(d)/§6. It is the 3D, point-cloud
// generalization of the teacher's 2D map-alignment ICP (mesh/icp.go):
// the same correspondence/outlier-rejection/convergence shape, lifted
// from AffineMatrix-over-pixels to RigidTransform-over-point-clouds.
package icp

import (
	"math"
	"sort"

	"github.com/kwv/objrecransac/geom"
)

// Config mirrors the teacher's ICPConfig fields, renamed to 3D units.
// frac_of_points_for_icp_refinement_ is not a Config field: the caller
// turns it into Align's numInliers argument.
type Config struct {
	MaxIterations     int
	ConvergenceThresh float64
	MaxCorrespondDist float64
	OutlierPercentile float64
}

// DefaultConfig mirrors the teacher's DefaultICPConfig defaults,
// rescaled from millimeters to the caller's scene units.
func DefaultConfig(voxelSize float64) Config {
	return Config{
		MaxIterations:     50,
		ConvergenceThresh: 0.1 * voxelSize,
		MaxCorrespondDist: 10 * voxelSize,
		OutlierPercentile: 0.8,
	}
}

// Result mirrors the teacher's ICPResult.
type Result struct {
	Transform      geom.RigidTransform
	Error          float64
	InlierFraction float64
	Iterations     int
	Converged      bool
}

// Refiner implements spec.md §6's TrimmedICP contract:
// `init(target)`, `set_new_to_old_energy_ratio(r)`, `align(source,
// num_inliers, inout_transform)`.
type Refiner struct {
	config           Config
	target           []geom.Vec3
	newToOldEnergyRatio float64
}

// NewRefiner returns a Refiner with the given configuration.
func NewRefiner(config Config) *Refiner {
	return &Refiner{config: config, newToOldEnergyRatio: 1.0}
}

// Init sets the (fixed) target point cloud correspondences are sought
// against, per spec.md §6.
func (r *Refiner) Init(target []geom.Vec3) {
	r.target = target
}

// SetNewToOldEnergyRatio bounds how much worse a new iterate's energy
// may be, relative to the previous one, before a step is rejected —
// the teacher's "physical overlap score decreasing" backtracking guard
// in runICP, generalized into one tunable ratio.
func (r *Refiner) SetNewToOldEnergyRatio(ratio float64) {
	r.newToOldEnergyRatio = ratio
}

// Align runs trimmed ICP starting from *transform, refining it in
// place and returning the refinement's Result. numInliers caps how
// many of source's closest-by-distance correspondences the trimmed
// estimate is fit from (spec.md §4.3's frac_of_points_for_icp_refinement_
// is applied by the caller to compute numInliers).
func (r *Refiner) Align(source []geom.Vec3, numInliers int, transform *geom.RigidTransform) Result {
	result := Result{Transform: *transform, Error: math.MaxFloat64}
	if len(source) < 3 || len(r.target) < 3 {
		return result
	}

	current := *transform
	prevEnergy := math.MaxFloat64

	for iter := 0; iter < r.config.MaxIterations; iter++ {
		result.Iterations = iter + 1

		transformed := applyAll(source, current)
		srcCorr, tgtCorr, distances := nearestCorrespondences(transformed, r.target, r.config.MaxCorrespondDist)
		if len(srcCorr) < 3 {
			break
		}

		srcCorr, tgtCorr, distances = rejectOutliers(srcCorr, tgtCorr, distances, r.config.OutlierPercentile)
		if len(srcCorr) < 3 {
			break
		}

		srcCorr, tgtCorr, distances = trimToClosest(srcCorr, tgtCorr, distances, numInliers)
		if len(srcCorr) < 3 {
			break
		}

		// Correspondences were found in the already-transformed source
		// frame, so the incremental fit maps transformed-source onto
		// target; compose with `current` to get the new estimate.
		incremental := CalculateRigidTransform(srcCorr, tgtCorr)
		candidate := incremental.Compose(current)

		candidateTransformed := applyAll(source, candidate)
		energy := meanSquaredCorrespondenceError(candidateTransformed, r.target, r.config.MaxCorrespondDist)

		if energy > prevEnergy*r.newToOldEnergyRatio {
			break
		}

		improvement := prevEnergy - energy
		current = candidate
		result.Transform = current
		result.Error = energy
		result.InlierFraction = float64(len(srcCorr)) / float64(len(source))

		if improvement >= 0 && improvement < r.config.ConvergenceThresh {
			result.Converged = true
			break
		}
		prevEnergy = energy
	}

	*transform = result.Transform
	return result
}

func applyAll(pts []geom.Vec3, t geom.RigidTransform) []geom.Vec3 {
	out := make([]geom.Vec3, len(pts))
	for i, p := range pts {
		out[i] = t.ApplyVec(p)
	}
	return out
}

// nearestCorrespondences finds, for each source point, its nearest
// target point within maxDist (the teacher's findCorrespondencesWithDistances).
func nearestCorrespondences(source, target []geom.Vec3, maxDist float64) (srcCorr, tgtCorr []geom.Vec3, distances []float64) {
	for _, sp := range source {
		minDist := math.MaxFloat64
		var nearest geom.Vec3
		for _, tp := range target {
			d := sp.DistanceTo(tp)
			if d < minDist {
				minDist = d
				nearest = tp
			}
		}
		if minDist <= maxDist {
			srcCorr = append(srcCorr, sp)
			tgtCorr = append(tgtCorr, nearest)
			distances = append(distances, minDist)
		}
	}
	return
}

// rejectOutliers drops correspondences whose distance exceeds the
// given percentile (the teacher's rejectOutliers).
func rejectOutliers(srcCorr, tgtCorr []geom.Vec3, distances []float64, percentile float64) ([]geom.Vec3, []geom.Vec3, []float64) {
	if len(distances) == 0 || percentile >= 1.0 {
		return srcCorr, tgtCorr, distances
	}
	sorted := make([]float64, len(distances))
	copy(sorted, distances)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * percentile)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	threshold := sorted[idx]

	var fSrc, fTgt []geom.Vec3
	var fDist []float64
	for i, d := range distances {
		if d <= threshold {
			fSrc = append(fSrc, srcCorr[i])
			fTgt = append(fTgt, tgtCorr[i])
			fDist = append(fDist, d)
		}
	}
	return fSrc, fTgt, fDist
}

// trimToClosest keeps at most numInliers correspondences, the closest
// ones by distance — the "trimmed" in trimmed-ICP (spec.md §4.3's
// frac_of_points_for_icp_refinement_).
func trimToClosest(srcCorr, tgtCorr []geom.Vec3, distances []float64, numInliers int) ([]geom.Vec3, []geom.Vec3, []float64) {
	if numInliers <= 0 || numInliers >= len(srcCorr) {
		return srcCorr, tgtCorr, distances
	}
	order := make([]int, len(srcCorr))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return distances[order[i]] < distances[order[j]] })
	order = order[:numInliers]

	outSrc := make([]geom.Vec3, numInliers)
	outTgt := make([]geom.Vec3, numInliers)
	outDist := make([]float64, numInliers)
	for i, idx := range order {
		outSrc[i] = srcCorr[idx]
		outTgt[i] = tgtCorr[idx]
		outDist[i] = distances[idx]
	}
	return outSrc, outTgt, outDist
}

func meanSquaredCorrespondenceError(source, target []geom.Vec3, maxDist float64) float64 {
	_, _, distances := nearestCorrespondences(source, target, maxDist)
	if len(distances) == 0 {
		return math.MaxFloat64
	}
	var sum float64
	for _, d := range distances {
		sum += d * d
	}
	return sum / float64(len(distances))
}
