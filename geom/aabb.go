package geom

import "math"

// AABB is an axis-aligned bounding box, used by the scene octree, the
// hypothesis bounding-volume hierarchy, and transform-space bounds.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns an AABB with inverted bounds, ready to be grown via
// Union/Extend.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to include p.
func (b AABB) Extend(p Vec3) AABB {
	return AABB{
		Min: Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)},
		Max: Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Overlaps reports whether b and o share any volume (touching counts).
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// LargestSpan returns the length of the box's largest axis extent.
func (b AABB) LargestSpan() float64 {
	d := b.Max.Sub(b.Min)
	return math.Max(d.X, math.Max(d.Y, d.Z))
}

// EnlargedBy returns b grown uniformly along every axis so that its
// largest span increases by factor (1+f), centered on the original box.
// Used to pad the scene bounds before building the transform space
// (spec.md §4.3, scene_bounds_enlargement_factor_).
func (b AABB) EnlargedBy(f float64) AABB {
	span := b.LargestSpan()
	pad := span * f / 2
	padVec := Vec3{pad, pad, pad}
	return AABB{Min: b.Min.Sub(padVec), Max: b.Max.Add(padVec)}
}
