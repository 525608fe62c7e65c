package geom

import "math"

// OPP is an oriented point pair: two points with their normals
// (spec.md §3). The pair is ordered — P1 is "first", P2 "second" — and
// that order is part of the pair's identity (the hypothesis generator
// aligns model pairs to scene pairs in order).
type OPP struct {
	P1, P2 Point
}

// Width returns ||p2-p1||.
func (o OPP) Width() float64 {
	return o.P1.Position.DistanceTo(o.P2.Position)
}

// Direction returns the normalized vector from P1 to P2.
func (o OPP) Direction() Vec3 {
	return o.P2.Position.Sub(o.P1.Position).Normalize()
}

// WithinPairWidth reports whether the pair's width falls in
// [pairWidth*(1-eps), pairWidth*(1+eps)], the tolerance band from
// spec.md §3.
func (o OPP) WithinPairWidth(pairWidth, eps float64) bool {
	w := o.Width()
	return w >= pairWidth*(1-eps) && w <= pairWidth*(1+eps)
}

// IsCoplanar reports whether the pair should be rejected by the
// coplanarity filter: the angle between each normal and the pair
// direction falls within maxCoplanarityAngle of pi/2 (spec.md §3).
func (o OPP) IsCoplanar(maxCoplanarityAngle float64) bool {
	d := o.Direction()
	return nearPerpendicular(o.P1.Normal, d, maxCoplanarityAngle) ||
		nearPerpendicular(o.P2.Normal, d, maxCoplanarityAngle)
}

func nearPerpendicular(n, d Vec3, tol float64) bool {
	// angle(n,d) = acos(n.d); "near pi/2" <=> |n.d| is small.
	cosAngle := clampUnit(n.Normalize().Dot(d))
	angle := math.Acos(cosAngle)
	return angle > math.Pi/2-tol && angle < math.Pi/2+tol
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// PairSignature is the rotation/translation-invariant key derived from
// an OPP (spec.md §3): the pair distance and three angle invariants.
// The hash table keys on the 3D signature (Dist, N1Dot, N2Dot); NNDot
// is carried along to prune same-cell collisions (spec.md §9 Open
// Question resolution).
type PairSignature struct {
	Dist  float64
	N1Dot float64
	N2Dot float64
	NNDot float64
}

// Signature computes the PairSignature of an OPP: d = (p2-p1)/||p2-p1||,
// then (dist, n1.d, n2.d, n1.n2).
func (o OPP) Signature() PairSignature {
	d := o.Direction()
	n1 := o.P1.Normal.Normalize()
	n2 := o.P2.Normal.Normalize()
	return PairSignature{
		Dist:  o.Width(),
		N1Dot: n1.Dot(d),
		N2Dot: n2.Dot(d),
		NNDot: n1.Dot(n2),
	}
}
