// Package hypothesis generates candidate model placements from scene
// oriented point pairs (spec.md §4.2) and scores them against a scene
// z-projection (spec.md §4.4).
package hypothesis

import (
	"sync"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/orderedset"
)

// Base is a raw, unscored hypothesis: a candidate model placement
// produced by aligning one model pair onto one scene pair (spec.md
// §4.2's HypothesisBase).
type Base struct {
	Model     *model.Model
	Transform geom.RigidTransform
}

// Hypothesis is a scored Base: the set of scene pixels it explains,
// its confidence, and the linear id assigned by
// transformspace.HypothesisOctree.Leaves in its sorted traversal order
// (spec.md §4.5/§4.7 require a stable linear_id for deterministic
// tie-breaking).
type Hypothesis struct {
	Base       Base
	Explained  *orderedset.Set
	Confidence float64
	Penalty    int
	LinearID   int
}

// Generate implements spec.md §4.2: for each scene OPP, look up the 27
// hash-table neighbor cells around its signature and, for every stored
// model pair found there, emit the rigid transform that aligns the
// model pair onto the scene pair.
func Generate(opps []geom.OPP, lib *model.Library) []Base {
	return generateRange(opps, lib)
}

// GenerateParallel is Generate sharded across workers goroutines
// (spec.md §5's optional parallel path for §4.2): each worker processes
// a disjoint slice of opps into its own local slice, concatenated into
// one result slice only after every worker has returned — satisfying
// invariant (a) of spec.md §5 ("hypothesis generation writes to a
// thread-local list later concatenated"). workers<=1 falls back to
// Generate with no goroutines spawned.
func GenerateParallel(opps []geom.OPP, lib *model.Library, workers int) []Base {
	if workers < 2 || len(opps) < workers {
		return Generate(opps, lib)
	}

	chunks := make([][]Base, workers)
	var wg sync.WaitGroup
	chunkSize := (len(opps) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(opps) {
			break
		}
		end := start + chunkSize
		if end > len(opps) {
			end = len(opps)
		}
		wg.Add(1)
		go func(w int, slice []geom.OPP) {
			defer wg.Done()
			chunks[w] = generateRange(slice, lib)
		}(w, opps[start:end])
	}
	wg.Wait()

	var out []Base
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func generateRange(opps []geom.OPP, lib *model.Library) []Base {
	table := lib.HashTable()
	var out []Base
	for _, opp := range opps {
		sig := opp.Signature()
		cells := table.Neighbors(sig)
		sceneFrame := geom.BuildPairFrame(opp.P1.Position, opp.P1.Normal, opp.P2.Position, opp.P2.Normal)
		for _, cell := range cells {
			for _, entry := range cell.Entries {
				modelFrame := geom.BuildPairFrame(entry.P1.Point.Position, entry.P1.Point.Normal, entry.P2.Point.Position, entry.P2.Point.Normal)
				transform := geom.RigidTransformBetween(modelFrame, sceneFrame)
				out = append(out, Base{Model: entry.Model, Transform: transform})
			}
		}
	}
	return out
}
