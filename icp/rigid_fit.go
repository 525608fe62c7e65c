package icp

import (
	"math"

	"github.com/kwv/objrecransac/geom"
)

// CalculateRigidTransform computes the best-fit rigid transform mapping
// src onto dst (Horn's 1987 absolute-orientation method): center both
// clouds, build the cross-covariance matrix, and take the unit
// quaternion eigenvector of its corresponding symmetric 4x4 matrix N
// with the largest eigenvalue as the optimal rotation. No pack example
// imports a linear-algebra library with an eigensolver, so the
// dominant eigenvector is found by plain power iteration rather than a
// borrowed SVD/eigendecomposition routine (see DESIGN.md).
func CalculateRigidTransform(src, dst []geom.Vec3) geom.RigidTransform {
	centroidSrc := centroid(src)
	centroidDst := centroid(dst)

	var Sxx, Sxy, Sxz, Syx, Syy, Syz, Szx, Szy, Szz float64
	for i := range src {
		a := src[i].Sub(centroidSrc)
		b := dst[i].Sub(centroidDst)
		Sxx += a.X * b.X
		Sxy += a.X * b.Y
		Sxz += a.X * b.Z
		Syx += a.Y * b.X
		Syy += a.Y * b.Y
		Syz += a.Y * b.Z
		Szx += a.Z * b.X
		Szy += a.Z * b.Y
		Szz += a.Z * b.Z
	}

	n := [4][4]float64{
		{Sxx + Syy + Szz, Syz - Szy, Szx - Sxz, Sxy - Syx},
		{Syz - Szy, Sxx - Syy - Szz, Sxy + Syx, Szx + Sxz},
		{Szx - Sxz, Sxy + Syx, -Sxx + Syy - Szz, Syz + Szy},
		{Sxy - Syx, Szx + Sxz, Syz + Szy, -Sxx - Syy + Szz},
	}

	q := dominantEigenvector(n)
	r := quaternionToRotation(q)

	rotatedCentroidSrc := geom.MulVec3x3(r, centroidSrc)
	t := centroidDst.Sub(rotatedCentroidSrc)
	return geom.RigidTransform{R: r, T: [3]float64{t.X, t.Y, t.Z}}
}

func centroid(pts []geom.Vec3) geom.Vec3 {
	var sum geom.Vec3
	for _, p := range pts {
		sum = sum.Add(p)
	}
	if len(pts) == 0 {
		return sum
	}
	return sum.Scale(1.0 / float64(len(pts)))
}

// dominantEigenvector finds the eigenvector of symmetric 4x4 matrix n
// with the largest (most positive, not largest-magnitude) eigenvalue
// via power iteration, normalized to a unit quaternion. n is shifted by
// a Gershgorin bound on its spectral radius first so every eigenvalue
// of the shifted matrix is non-negative and power iteration converges
// to the rotation Horn's method actually wants, rather than to
// whichever eigenvalue has the largest magnitude.
func dominantEigenvector(n [4][4]float64) [4]float64 {
	var bound float64
	for i := 0; i < 4; i++ {
		var rowSum float64
		for j := 0; j < 4; j++ {
			rowSum += math.Abs(n[i][j])
		}
		if rowSum > bound {
			bound = rowSum
		}
	}
	shifted := n
	for i := 0; i < 4; i++ {
		shifted[i][i] += bound
	}

	v := [4]float64{1, 0, 0, 0}
	for iter := 0; iter < 100; iter++ {
		var next [4]float64
		for i := 0; i < 4; i++ {
			var sum float64
			for j := 0; j < 4; j++ {
				sum += shifted[i][j] * v[j]
			}
			next[i] = sum
		}
		norm := math.Sqrt(next[0]*next[0] + next[1]*next[1] + next[2]*next[2] + next[3]*next[3])
		if norm < 1e-15 {
			// n ~ 0 (degenerate correspondence set): identity rotation.
			return [4]float64{1, 0, 0, 0}
		}
		for i := range next {
			next[i] /= norm
		}
		v = next
	}
	return v
}

// quaternionToRotation converts a unit quaternion (w,x,y,z) to a
// row-major 3x3 rotation matrix.
func quaternionToRotation(q [4]float64) [9]float64 {
	w, x, y, z := q[0], q[1], q[2], q[3]
	return [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}
