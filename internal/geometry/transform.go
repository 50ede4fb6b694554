package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// transformTolerance bounds the determinant error accepted for a rotation.
const transformTolerance = 0.01

// IdentityTransform is the 4x4 identity in row-major order.
var IdentityTransform = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// ApplyTransform applies a 4x4 row-major transform T to point p.
func ApplyTransform(p r3.Vector, T [16]float64) r3.Vector {
	return r3.Vector{
		X: T[0]*p.X + T[1]*p.Y + T[2]*p.Z + T[3],
		Y: T[4]*p.X + T[5]*p.Y + T[6]*p.Z + T[7],
		Z: T[8]*p.X + T[9]*p.Y + T[10]*p.Z + T[11],
	}
}

// RotateVector applies only the rotation block of T, for directions.
func RotateVector(v r3.Vector, T [16]float64) r3.Vector {
	return r3.Vector{
		X: T[0]*v.X + T[1]*v.Y + T[2]*v.Z,
		Y: T[4]*v.X + T[5]*v.Y + T[6]*v.Z,
		Z: T[8]*v.X + T[9]*v.Y + T[10]*v.Z,
	}
}

// IsRigidTransform reports whether T is a proper rotation plus translation:
// determinant of the rotation block near 1 and last row [0 0 0 1].
func IsRigidTransform(T [16]float64) bool {
	r00, r01, r02 := T[0], T[1], T[2]
	r10, r11, r12 := T[4], T[5], T[6]
	r20, r21, r22 := T[8], T[9], T[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > transformTolerance {
		return false
	}
	return T[12] == 0 && T[13] == 0 && T[14] == 0 && math.Abs(T[15]-1.0) <= 0.001
}

// Transform returns a copy of pc with T applied to points and its rotation
// applied to normals. Colours are copied unchanged.
func Transform(pc *PointCloud, T [16]float64) *PointCloud {
	out := pc.Clone()
	if out == nil {
		return nil
	}
	for i, p := range out.Points {
		out.Points[i] = ApplyTransform(p, T)
	}
	for i, n := range out.Normals {
		out.Normals[i] = RotateVector(n, T)
	}
	return out
}

// RotationTransform builds a rigid transform rotating by angle radians about
// axis and then translating by t.
func RotationTransform(axis r3.Vector, angle float64, t r3.Vector) [16]float64 {
	a := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	C := 1 - c
	return [16]float64{
		c + a.X*a.X*C, a.X*a.Y*C - a.Z*s, a.X*a.Z*C + a.Y*s, t.X,
		a.Y*a.X*C + a.Z*s, c + a.Y*a.Y*C, a.Y*a.Z*C - a.X*s, t.Y,
		a.Z*a.X*C - a.Y*s, a.Z*a.Y*C + a.X*s, c + a.Z*a.Z*C, t.Z,
		0, 0, 0, 1,
	}
}
