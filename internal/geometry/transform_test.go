package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestIsRigidTransform(t *testing.T) {
	t.Parallel()

	scaled := IdentityTransform
	scaled[0] = 2
	reflected := IdentityTransform
	reflected[10] = -1
	projective := IdentityTransform
	projective[12] = 0.5

	tests := []struct {
		name string
		T    [16]float64
		want bool
	}{
		{"identity", IdentityTransform, true},
		{"rotation and translation", RotationTransform(r3.Vector{X: 1, Y: 1}, 0.7, r3.Vector{X: 3, Y: -2, Z: 1}), true},
		{"scaled", scaled, false},
		{"reflected", reflected, false},
		{"projective", projective, false},
	}
	for _, tt := range tests {
		if got := IsRigidTransform(tt.T); got != tt.want {
			t.Errorf("%s: IsRigidTransform = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTransform_PointsAndNormals(t *testing.T) {
	t.Parallel()

	T := RotationTransform(r3.Vector{Z: 1}, math.Pi/2, r3.Vector{X: 1, Y: 2, Z: 3})
	pc := &PointCloud{
		Points:  []r3.Vector{{X: 1}},
		Normals: []r3.Vector{{X: 1}},
	}
	out := Transform(pc, T)

	near := func(a, b r3.Vector) bool { return a.Sub(b).Norm() < 1e-12 }
	if want := (r3.Vector{X: 1, Y: 3, Z: 3}); !near(out.Points[0], want) {
		t.Errorf("point = %v, want %v", out.Points[0], want)
	}
	// Normals rotate but never translate.
	if want := (r3.Vector{Y: 1}); !near(out.Normals[0], want) {
		t.Errorf("normal = %v, want %v", out.Normals[0], want)
	}
	if pc.Points[0] != (r3.Vector{X: 1}) {
		t.Errorf("input point changed to %v", pc.Points[0])
	}
	if Transform(nil, T) != nil {
		t.Error("Transform(nil) returned a cloud")
	}
}
