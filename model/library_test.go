package model

import (
	"testing"

	"github.com/kwv/objrecransac/geom"
)

func cubeCloud() []geom.Point {
	var pts []geom.Point
	add := func(x, y, z, nx, ny, nz float64) {
		pts = append(pts, geom.Point{Position: geom.Vec3{X: x, Y: y, Z: z}, Normal: geom.Vec3{X: nx, Y: ny, Z: nz}})
	}
	add(0, 0, 0, 1, 0, 0)
	add(0.1, 0, 0, 1, 0, 0)
	add(0, 0.1, 0, 0, 1, 0)
	add(0, 0, 0.1, 0, 0, 1)
	return pts
}

func TestBuilderIndexesBothPairOrderings(t *testing.T) {
	b := NewBuilder(0.1, 0.1)
	b.DistCellSize = 0.02
	b.AngleCellSize = 0.2
	b.NNTolerance = 1.0

	lib, err := b.Build(map[string][]geom.Point{"cube": cubeCloud()}, 0.01)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	m := lib.Model("cube")
	if m == nil {
		t.Fatalf("expected model cube to be registered")
	}

	leaves := m.Octree.FullLeaves()
	if len(leaves) < 2 {
		t.Fatalf("expected at least 2 full leaves, got %d", len(leaves))
	}

	// For every admissible ordered pair (both orderings), build its
	// signature and confirm the neighbor query returns at least one
	// cell for it.
	var found bool
	for i := range leaves {
		for j := range leaves {
			if i == j {
				continue
			}
			opp := geom.OPP{P1: leaves[i].Point, P2: leaves[j].Point}
			if !opp.WithinPairWidth(0.1, 0.1) {
				continue
			}
			sig := opp.Signature()
			cells := lib.HashTable().Neighbors(sig)
			if len(cells) == 0 {
				t.Errorf("expected neighbor cells for a pair the builder indexed")
				continue
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("no admissible pair found in cube cloud to verify indexing")
	}
}

func TestNewModelCentroidIsUnweightedMean(t *testing.T) {
	pts := []geom.Point{
		{Position: geom.Vec3{X: 0, Y: 0, Z: 0}},
		{Position: geom.Vec3{X: 2, Y: 0, Z: 0}},
	}
	m, err := NewModel("seg", pts, 0.01, nil)
	if err != nil {
		t.Fatalf("NewModel returned error: %v", err)
	}
	want := geom.Vec3{X: 1, Y: 0, Z: 0}
	if m.CenterOfMass.DistanceTo(want) > 1e-9 {
		t.Errorf("unexpected center of mass: %v", m.CenterOfMass)
	}
}

func TestHashTableNeighborsPrunesOnNNDot(t *testing.T) {
	table := NewHashTable(0.05, 0.1, 1e-6)
	m := &Model{Name: "m"}
	p1 := ModelPoint{Model: m, Point: geom.Point{Position: geom.Vec3{X: 0, Y: 0, Z: 0}, Normal: geom.Vec3{X: 1, Y: 0, Z: 0}}}
	p2 := ModelPoint{Model: m, Point: geom.Point{Position: geom.Vec3{X: 1, Y: 0, Z: 0}, Normal: geom.Vec3{X: 0, Y: 1, Z: 0}}}
	table.Insert(m, p1, p2)

	sig := geom.OPP{P1: p1.Point, P2: p2.Point}.Signature()
	cells := table.Neighbors(sig)
	total := 0
	for _, c := range cells {
		total += len(c.Entries)
	}
	if total != 1 {
		t.Fatalf("expected exactly 1 matching entry, got %d", total)
	}

	// A query with a wildly different n1.n2 invariant (same dist/angle
	// cell otherwise) must be pruned out.
	farSig := sig
	farSig.NNDot = sig.NNDot + 10
	cells = table.Neighbors(farSig)
	total = 0
	for _, c := range cells {
		total += len(c.Entries)
	}
	if total != 0 {
		t.Fatalf("expected the mismatched n1.n2 entry to be pruned, got %d", total)
	}
}
