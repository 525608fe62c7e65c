package octree

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/kwv/objrecransac/geom"
)

// Pixel is a cell of the 2.5-D z-projection, exposing the observed
// depth interval within its (x,y) column (spec.md §3/§6).
type Pixel struct {
	ID     int
	Z1, Z2 float64
}

// ZProjection is the contract named in spec.md §6: it flattens the
// scene octree's full leaves into an (x,y) pixel grid, each pixel
// carrying the min/max observed depth among the leaves that project
// into it. Pixel centers are indexed in a 2-D quadtree so lookups are
// a nearest-neighbor query rather than a hand-rolled grid scan.
type ZProjection struct {
	pixelSize float64
	pixels    map[pixelKey]*pixelColumn
	index     *quadtree.Quadtree
}

type pixelKey struct{ ix, iy int64 }

type pixelColumn struct {
	id    int
	z1, z2 float64
	nodes []Leaf
	center orb.Point
}

// Point implements orb.Pointer so pixelColumn can be indexed directly.
func (c *pixelColumn) Point() orb.Point { return c.center }

// BuildZProjection voxelizes the octree's full leaves into pixel
// columns sized to the octree's voxel size, expanding the recorded
// z-interval of each column by [zTolLower, zTolUpper] as spec.md §6's
// `build(octree, z_tol_lower, z_tol_upper)` specifies.
func BuildZProjection(oct *Octree, zTolLower, zTolUpper float64) *ZProjection {
	z := &ZProjection{
		pixelSize: oct.VoxelSize(),
		pixels:    make(map[pixelKey]*pixelColumn),
	}

	leaves := oct.FullLeaves()
	if len(leaves) == 0 {
		z.index = quadtree.New(orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{1, 1}})
		return z
	}

	bound := geom.EmptyAABB()
	for _, leaf := range leaves {
		bound = bound.Extend(leaf.Point.Position)
		key := z.keyOf(leaf.Point.Position)
		col, ok := z.pixels[key]
		if !ok {
			col = &pixelColumn{
				id:     len(z.pixels),
				z1:     leaf.Point.Position.Z,
				z2:     leaf.Point.Position.Z,
				center: orb.Point{float64(key.ix)*z.pixelSize + z.pixelSize/2, float64(key.iy)*z.pixelSize + z.pixelSize/2},
			}
			z.pixels[key] = col
		}
		if leaf.Point.Position.Z < col.z1 {
			col.z1 = leaf.Point.Position.Z
		}
		if leaf.Point.Position.Z > col.z2 {
			col.z2 = leaf.Point.Position.Z
		}
		col.nodes = append(col.nodes, leaf)
	}

	for _, col := range z.pixels {
		col.z1 -= zTolLower
		col.z2 += zTolUpper
		sort.Slice(col.nodes, func(i, j int) bool { return col.nodes[i].ID < col.nodes[j].ID })
	}

	orbBound := orb.Bound{Min: orb.Point{bound.Min.X - z.pixelSize, bound.Min.Y - z.pixelSize},
		Max: orb.Point{bound.Max.X + z.pixelSize, bound.Max.Y + z.pixelSize}}
	z.index = quadtree.New(orbBound)
	for _, col := range z.pixels {
		_ = z.index.Add(col)
	}
	return z
}

func (z *ZProjection) keyOf(p geom.Vec3) pixelKey {
	return pixelKey{ix: floorDiv(p.X, z.pixelSize), iy: floorDiv(p.Y, z.pixelSize)}
}

func floorDiv(v, size float64) int64 {
	q := v / size
	iq := int64(q)
	if q < 0 && float64(iq) != q {
		iq--
	}
	return iq
}

// PixelAt returns the pixel covering (x,y) of p, if any full leaf
// projects there. The lookup is a nearest-center query against the
// quadtree built in BuildZProjection: the Voronoi cell of a regular
// square grid's center is exactly the square it anchors, so when the
// containing column is occupied its center is the nearest indexed one.
// Only occupied columns are indexed, so the nearest center may belong
// to another column; the key check below rejects that case.
func (z *ZProjection) PixelAt(p geom.Vec3) (Pixel, bool) {
	if len(z.pixels) == 0 {
		return Pixel{}, false
	}
	found := z.index.Find(orb.Point{p.X, p.Y})
	if found == nil {
		return Pixel{}, false
	}
	col := found.(*pixelColumn)
	// Guard against the query point falling in an unoccupied column
	// (including the padding margin around the scene bound), where the
	// nearest indexed center is not the containing cell.
	if z.keyOf(p) != z.keyOf(geom.Vec3{X: col.center.X(), Y: col.center.Y()}) {
		return Pixel{}, false
	}
	return Pixel{ID: col.id, Z1: col.z1, Z2: col.z2}, true
}

// OctreeNodesAt returns the full leaves projecting into the pixel
// column covering p, ordered by id (spec.md §6, used by the
// normal-variant tester's scene-nearest search).
func (z *ZProjection) OctreeNodesAt(p geom.Vec3) []Leaf {
	col, ok := z.pixels[z.keyOf(p)]
	if !ok {
		return nil
	}
	return col.nodes
}
