package geom

import "math"

// RigidTransform is a rotation followed by a translation, stored as
// spec.md §3 requires: 9 row-major rotation entries followed by a
// 3-vector translation.
type RigidTransform struct {
	R [9]float64
	T [3]float64
}

// Identity returns the transform that leaves every point unchanged.
func Identity() RigidTransform {
	return RigidTransform{R: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// ApplyVec rotates and translates v.
func (t RigidTransform) ApplyVec(v Vec3) Vec3 {
	r := t.R
	return Vec3{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z + t.T[0],
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z + t.T[1],
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z + t.T[2],
	}
}

// RotateVec applies only the rotation component of t.
func (t RigidTransform) RotateVec(v Vec3) Vec3 {
	r := t.R
	return Vec3{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// Apply transforms a Point, rotating its normal and rotating+translating
// its position.
func (t RigidTransform) Apply(p Point) Point {
	return Point{Position: t.ApplyVec(p.Position), Normal: t.RotateVec(p.Normal)}
}

// Compose returns the transform equivalent to applying `inner` first,
// then `t` (i.e. t.Compose(inner) applied to p == t.Apply(inner.Apply(p))).
func (t RigidTransform) Compose(inner RigidTransform) RigidTransform {
	var out RigidTransform
	// R_out = R_t * R_inner
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += t.R[row*3+k] * inner.R[k*3+col]
			}
			out.R[row*3+col] = sum
		}
	}
	// T_out = R_t * T_inner + T_t
	innerT := Vec3{inner.T[0], inner.T[1], inner.T[2]}
	translated := t.RotateVec(innerT)
	out.T = [3]float64{
		translated.X + t.T[0],
		translated.Y + t.T[1],
		translated.Z + t.T[2],
	}
	return out
}

// RotationMatrix returns the 3x3 rotation as three row vectors.
func (t RigidTransform) RotationMatrix() (row0, row1, row2 Vec3) {
	return Vec3{t.R[0], t.R[1], t.R[2]}, Vec3{t.R[3], t.R[4], t.R[5]}, Vec3{t.R[6], t.R[7], t.R[8]}
}

// RotationFromColumns builds the row-major rotation entries of a
// RigidTransform from three orthonormal column vectors x, y, z.
func RotationFromColumns(x, y, z Vec3) [9]float64 {
	return [9]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	}
}

// Transpose3x3 returns the transpose of a row-major 3x3 matrix.
func Transpose3x3(m [9]float64) [9]float64 {
	return [9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Mul3x3 multiplies two row-major 3x3 matrices: a*b.
func Mul3x3(a, b [9]float64) [9]float64 {
	var out [9]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[row*3+k] * b[k*3+col]
			}
			out[row*3+col] = sum
		}
	}
	return out
}

// MulVec3x3 applies a row-major 3x3 matrix to a vector.
func MulVec3x3(m [9]float64, v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// PairFrame is the orthonormal (x,y,z) basis built from an oriented
// point pair, per spec.md §4.2: origin at the pair midpoint, x along
// the pair direction, y the component of the first normal orthogonal
// to x, z completing a right-handed frame.
type PairFrame struct {
	Origin Vec3
	X, Y, Z Vec3
}

// BuildPairFrame constructs the pair frame for (p1,n1,p2,n2). If n1 is
// (numerically) parallel to the pair direction, the degenerate case in
// spec.md §4.2 applies: an arbitrary orthonormal completion is returned
// so that callers never have to special-case a nil frame; the resulting
// hypothesis will generally fail scoring, as the spec anticipates.
func BuildPairFrame(p1, n1, p2, n2 Vec3) PairFrame {
	mid := p1.Add(p2).Scale(0.5)
	x := p2.Sub(p1).Normalize()

	y := orthogonalComponent(n1, x)
	if y.Norm() < 1e-9 {
		y = arbitraryOrthogonal(x)
	} else {
		y = y.Normalize()
	}
	z := x.Cross(y)
	return PairFrame{Origin: mid, X: x, Y: y, Z: z}
}

// orthogonalComponent returns n minus its projection onto x.
func orthogonalComponent(n, x Vec3) Vec3 {
	return n.Sub(x.Scale(n.Dot(x)))
}

// arbitraryOrthogonal returns some unit vector orthogonal to x, used as
// the degenerate-pair fallback (spec.md §4.2 edge case).
func arbitraryOrthogonal(x Vec3) Vec3 {
	ref := Vec3{1, 0, 0}
	if math.Abs(x.Dot(ref)) > 0.9 {
		ref = Vec3{0, 1, 0}
	}
	return orthogonalComponent(ref, x).Normalize()
}

// RotationMatrixOf returns the row-major rotation whose columns are the
// frame's basis vectors X, Y, Z (i.e. the matrix that maps frame-local
// coordinates to world coordinates).
func (f PairFrame) RotationMatrixOf() [9]float64 {
	return RotationFromColumns(f.X, f.Y, f.Z)
}

// AxisAngle decomposes t's rotation into an axis and an angle (radians
// in [0,pi]), per spec.md §4.3's rotation-space discretization. Near
// angle 0, the axis is numerically unstable (the skew-symmetric part
// vanishes); an arbitrary unit axis is returned in that case since any
// axis is equivalent for a near-identity rotation.
func (t RigidTransform) AxisAngle() (axis Vec3, angle float64) {
	r := t.R
	trace := r[0] + r[4] + r[8]
	cosAngle := clampUnit((trace - 1) / 2)
	angle = math.Acos(cosAngle)

	raw := Vec3{r[7] - r[5], r[2] - r[6], r[3] - r[1]}
	if raw.Norm() < 1e-9 {
		return Vec3{1, 0, 0}, angle
	}
	return raw.Normalize(), angle
}

// RigidTransformBetween computes the rigid transform that maps the
// model pair frame onto the scene pair frame, per spec.md §4.2:
// R = S*M^T, t = midpoint_scene - R*midpoint_model.
func RigidTransformBetween(model, scene PairFrame) RigidTransform {
	m := model.RotationMatrixOf()
	s := scene.RotationMatrixOf()
	r := Mul3x3(s, Transpose3x3(m))
	rotatedModelMid := MulVec3x3(r, model.Origin)
	t := scene.Origin.Sub(rotatedModelMid)
	return RigidTransform{R: r, T: [3]float64{t.X, t.Y, t.Z}}
}
