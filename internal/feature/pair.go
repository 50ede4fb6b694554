package feature

import (
	"math"

	"github.com/golang/geo/r3"
)

// PairFeature describes the relative pose of two oriented points.
type PairFeature struct {
	Alpha    float64 // angle in (-pi, pi] between normals about the frame's v axis
	Phi      float64 // v . n2, in [-1, 1]
	Theta    float64 // cosine between the reference normal and the pair vector
	Distance float64 // |p2 - p1|
}

// IsZero reports whether f is the degenerate all-zero feature.
func (f PairFeature) IsZero() bool {
	return f == PairFeature{}
}

// ComputePairFeature encodes the oriented points (p1, n1) and (p2, n2).
//
// The normal making the smaller angle with the line through both points
// becomes the reference frame; when that is n2 the roles swap, the pair
// vector is negated and theta is taken from n2. Coincident points, or a
// pair vector parallel to the reference normal, give the zero feature.
func ComputePairFeature(p1, n1, p2, n2 r3.Vector) PairFeature {
	d := p2.Sub(p1)
	dist := d.Norm()
	if dist == 0 {
		return PairFeature{}
	}

	var f PairFeature
	f.Distance = dist

	angle1 := n1.Dot(d) / dist
	angle2 := n2.Dot(d) / dist
	if math.Acos(math.Abs(angle1)) > math.Acos(math.Abs(angle2)) {
		n1, n2 = n2, n1
		d = d.Mul(-1)
		f.Theta = -angle2
	} else {
		f.Theta = angle1
	}

	v := d.Cross(n1)
	vNorm := v.Norm()
	if vNorm == 0 {
		return PairFeature{}
	}
	v = v.Mul(1 / vNorm)
	w := n1.Cross(v)

	f.Phi = v.Dot(n2)
	f.Alpha = math.Atan2(w.Dot(n2), n1.Dot(n2))
	return f
}

// Bins returns the alpha, phi and theta bin indices of f, each in
// [0, BinsPerAngle).
func (f PairFeature) Bins() (alpha, phi, theta int) {
	return clampBin(BinsPerAngle * (f.Alpha + math.Pi) / (2.0 * math.Pi)),
		clampBin(BinsPerAngle * (f.Phi + 1.0) * 0.5),
		clampBin(BinsPerAngle * (f.Theta + 1.0) * 0.5)
}

func clampBin(x float64) int {
	h := int(math.Floor(x))
	if h < 0 {
		return 0
	}
	if h >= BinsPerAngle {
		return BinsPerAngle - 1
	}
	return h
}
