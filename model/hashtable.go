package model

import "math"

import "github.com/kwv/objrecransac/geom"

// HashTableCell groups the model pairs whose signature falls in one
// grid cell of the hash table (spec.md §3 HashTableCell).
type HashTableCell struct {
	Entries []PairEntry
}

// PairEntry is one stored model pair: the model it belongs to and its
// two (ordered) points.
type PairEntry struct {
	Model  *Model
	P1, P2 ModelPoint
}

type cellKey struct{ ix, iy, iz int64 }

type cellBucket struct {
	entries []PairEntry
	nnDots  []float64
}

// HashTable is the 3D-keyed (distance, n1.d, n2.d) signature table of
// spec.md §9's Open Question resolution: the fourth invariant (n1.n2)
// is not part of the key, it prunes candidates within a matched cell.
type HashTable struct {
	distCellSize  float64
	angleCellSize float64
	nnTolerance   float64
	cells         map[cellKey]*cellBucket
}

// NewHashTable builds an empty table. distCellSize and angleCellSize
// size the 3D grid cells; nnTolerance bounds how far a stored pair's
// n1.n2 invariant may differ from the query's before it is pruned.
func NewHashTable(distCellSize, angleCellSize, nnTolerance float64) *HashTable {
	return &HashTable{
		distCellSize:  distCellSize,
		angleCellSize: angleCellSize,
		nnTolerance:   nnTolerance,
		cells:         make(map[cellKey]*cellBucket),
	}
}

func (h *HashTable) keyOf(sig geom.PairSignature) cellKey {
	return cellKey{
		ix: int64(math.Floor(sig.Dist / h.distCellSize)),
		iy: int64(math.Floor(sig.N1Dot / h.angleCellSize)),
		iz: int64(math.Floor(sig.N2Dot / h.angleCellSize)),
	}
}

// Insert adds a model pair entry keyed by its own signature.
func (h *HashTable) Insert(m *Model, p1, p2 ModelPoint) {
	opp := geom.OPP{P1: p1.Point, P2: p2.Point}
	sig := opp.Signature()
	key := h.keyOf(sig)
	b, ok := h.cells[key]
	if !ok {
		b = &cellBucket{}
		h.cells[key] = b
	}
	b.entries = append(b.entries, PairEntry{Model: m, P1: p1, P2: p2})
	b.nnDots = append(b.nnDots, sig.NNDot)
}

// Neighbors returns up to 27 cells (the query cell and its 26
// neighbors in the 3D grid) whose pruned entry lists are non-empty,
// per spec.md §3/§4.2.
func (h *HashTable) Neighbors(sig geom.PairSignature) []HashTableCell {
	center := h.keyOf(sig)
	var out []HashTableCell
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				key := cellKey{center.ix + dx, center.iy + dy, center.iz + dz}
				b, ok := h.cells[key]
				if !ok {
					continue
				}
				var entries []PairEntry
				for i, e := range b.entries {
					if math.Abs(b.nnDots[i]-sig.NNDot) <= h.nnTolerance {
						entries = append(entries, e)
					}
				}
				if len(entries) > 0 {
					out = append(out, HashTableCell{Entries: entries})
				}
			}
		}
	}
	return out
}
