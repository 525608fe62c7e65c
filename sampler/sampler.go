// Package sampler draws oriented point pairs from the scene octree's
// full leaves (spec.md §4.1).
package sampler

import (
	"math"
	"math/rand"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/octree"
)

// DefaultPriorQ is the implementer-chosen prior probability that a
// single random OPP yields at least one correct hypothesis, used by
// IterationCount. spec.md §9 leaves this constant unspecified in the
// source material and requires the implementer to document and expose
// its choice; 0.01 is a conservative default for a library pair
// fraction in the low single digits.
const DefaultPriorQ = 0.01

// CoplanarityFilter rejects OPPs whose normals are too close to
// perpendicular to the pair direction (spec.md §3).
type CoplanarityFilter struct {
	Enabled             bool
	MaxCoplanarityAngle float64
}

// Sample draws up to len(fullLeaves) OPPs at the target pair width,
// per spec.md §4.1: sample without replacement for the first point,
// query the octree for a random full leaf on the sphere of radius
// pairWidth around it for the second, skip the iteration if none is
// found or the pair is coplanar.
func Sample(rng *rand.Rand, oct octree.SceneOctree, fullLeaves []octree.Leaf, numIterations int, pairWidth, tolerance float64, coplanar CoplanarityFilter) []geom.OPP {
	if len(fullLeaves) == 0 {
		return nil
	}

	remaining := make([]int, len(fullLeaves))
	for i := range remaining {
		remaining[i] = i
	}

	var out []geom.OPP
	for iter := 0; iter < numIterations && len(remaining) > 0; iter++ {
		pick := rng.Intn(len(remaining))
		leafIdx := remaining[pick]
		remaining[pick] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]

		p1 := fullLeaves[leafIdx].Point

		leaf2, ok := oct.RandomFullLeafOnSphere(rng, p1.Position, pairWidth, tolerance)
		if !ok {
			continue
		}
		p2 := leaf2.Point

		opp := geom.OPP{P1: p1, P2: p2}
		if coplanar.Enabled && opp.IsCoplanar(coplanar.MaxCoplanarityAngle) {
			continue
		}
		out = append(out, opp)
	}
	return out
}

// IterationCount implements spec.md §4.8's Bernoulli-trial derivation:
// given a success probability p (caller-chosen, capped at 0.99 by the
// caller) and the prior q that any single OPP yields a correct
// hypothesis, the number of iterations needed so at least one succeeds
// with probability p is ceil(log(1-p)/log(1-q)), clamped to the number
// of available full leaves.
func IterationCount(successProbability, priorQ float64, numFullLeaves int) int {
	if successProbability <= 0 {
		return 0
	}
	if successProbability > 0.99 {
		successProbability = 0.99
	}
	n := int(math.Ceil(math.Log(1-successProbability) / math.Log(1-priorQ)))
	if n < 0 {
		n = 0
	}
	if n > numFullLeaves {
		n = numFullLeaves
	}
	return n
}
