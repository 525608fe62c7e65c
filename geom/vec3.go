// Package geom provides the point, pair, and rigid-transform primitives
// shared by the recognition pipeline.
package geom

import "math"

// Vec3 is a 3D vector or position, stored as three float64 components.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the scalar product v.w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. Returns the zero vector if
// v is (numerically) the zero vector.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1.0 / n)
}

// DistanceTo returns ||v-w||.
func (v Vec3) DistanceTo(w Vec3) float64 {
	return v.Sub(w).Norm()
}

// SqDistanceTo returns ||v-w||^2, avoiding the sqrt when only comparison
// is needed (used by nearest-neighbor search in the normal-variant tester).
func (v Vec3) SqDistanceTo(w Vec3) float64 {
	d := v.Sub(w)
	return d.Dot(d)
}

// IsUnit reports whether v has unit length within tol.
func (v Vec3) IsUnit(tol float64) bool {
	return math.Abs(v.Norm()-1.0) <= tol
}
