package model

import "github.com/kwv/objrecransac/geom"

// Library is the ModelLibrary contract of spec.md §6: a read-only
// collection of Models plus the hash table mapping pair signatures to
// the (Model, ModelPoint pair) entries that produced them. It is built
// once by Build and shared, by borrow, across every recognition call.
type Library struct {
	models map[string]*Model
	table  *HashTable
}

// HashTable exposes the library's hash table for neighbor lookups
// (spec.md §6: `hash_table().neighbors(key)`).
func (l *Library) HashTable() *HashTable {
	return l.table
}

// Model returns the named model, or nil if absent.
func (l *Library) Model(name string) *Model {
	return l.models[name]
}

// Models returns every model in the library, in no particular order.
func (l *Library) Models() []*Model {
	out := make([]*Model, 0, len(l.models))
	for _, m := range l.models {
		out = append(out, m)
	}
	return out
}

// Builder precomputes, for each registered model, every oriented point
// pair at the library's target pair width and inserts it into the
// shared hash table — the "model library builder" named as an external
// collaborator in spec.md §1(a). It is exhaustive (not sampled): unlike
// the scene's randomized OPP sampler (§4.1), the library only needs to
// be built once, so every admissible pair is worth indexing.
type Builder struct {
	PairWidth           float64
	Tolerance           float64
	DistCellSize        float64
	AngleCellSize       float64
	NNTolerance         float64
	IgnoreCoplanarOPPs  bool
	MaxCoplanarityAngle float64
}

// NewBuilder returns a Builder with the cell sizes derived from
// pairWidth/tolerance the way spec.md's defaults table derives
// position/rotation discretization from voxel_size.
func NewBuilder(pairWidth, tolerance float64) *Builder {
	return &Builder{
		PairWidth:     pairWidth,
		Tolerance:     tolerance,
		DistCellSize:  pairWidth * tolerance,
		AngleCellSize: 0.05,
		NNTolerance:   0.05,
	}
}

// Build constructs a Library from the given named model point clouds.
func (b *Builder) Build(modelClouds map[string][]geom.Point, voxelSize float64) (*Library, error) {
	lib := &Library{
		models: make(map[string]*Model),
		table:  NewHashTable(b.DistCellSize, b.AngleCellSize, b.NNTolerance),
	}

	for name, points := range modelClouds {
		m, err := NewModel(name, points, voxelSize, nil)
		if err != nil {
			return nil, err
		}
		lib.models[name] = m
		b.indexModel(lib.table, m)
	}
	return lib, nil
}

// indexModel inserts every admissible oriented pair of m's full leaves
// into table, in both orderings, since a scene OPP may sample either
// point first (spec.md §4.2's pair-frame construction is order-
// sensitive).
func (b *Builder) indexModel(table *HashTable, m *Model) {
	leaves := m.Octree.FullLeaves()
	for i := range leaves {
		for j := range leaves {
			if i == j {
				continue
			}
			opp := geom.OPP{P1: leaves[i].Point, P2: leaves[j].Point}
			if !opp.WithinPairWidth(b.PairWidth, b.Tolerance) {
				continue
			}
			if b.IgnoreCoplanarOPPs && opp.IsCoplanar(b.MaxCoplanarityAngle) {
				continue
			}
			p1 := ModelPoint{Model: m, Point: leaves[i].Point}
			p2 := ModelPoint{Model: m, Point: leaves[j].Point}
			table.Insert(m, p1, p2)
		}
	}
}
