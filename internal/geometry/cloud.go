package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrNoNormals is returned by operations that need per-point normals.
var ErrNoNormals = errors.New("point cloud has no normals")

// PointCloud is an ordered set of 3-D points with optional parallel normal
// and colour channels. Colours are RGB triples in [0, 1].
type PointCloud struct {
	Points  []r3.Vector
	Normals []r3.Vector
	Colors  []colorful.Color
}

// Len returns the number of points. A nil cloud is empty.
func (pc *PointCloud) Len() int {
	if pc == nil {
		return 0
	}
	return len(pc.Points)
}

// HasNormals reports whether the cloud is non-empty and carries one normal
// per point.
func (pc *PointCloud) HasNormals() bool {
	return pc.Len() > 0 && len(pc.Normals) == len(pc.Points)
}

// HasColors reports whether the cloud is non-empty and carries one colour
// per point.
func (pc *PointCloud) HasColors() bool {
	return pc.Len() > 0 && len(pc.Colors) == len(pc.Points)
}

// Validate checks channel lengths and rejects non-finite coordinates.
func (pc *PointCloud) Validate() error {
	if pc == nil {
		return errors.New("nil point cloud")
	}
	if len(pc.Normals) != 0 && len(pc.Normals) != len(pc.Points) {
		return fmt.Errorf("normal count %d does not match point count %d", len(pc.Normals), len(pc.Points))
	}
	if len(pc.Colors) != 0 && len(pc.Colors) != len(pc.Points) {
		return fmt.Errorf("color count %d does not match point count %d", len(pc.Colors), len(pc.Points))
	}
	for i, p := range pc.Points {
		if !isFinite(p) {
			return fmt.Errorf("point %d is not finite: %v", i, p)
		}
	}
	for i, n := range pc.Normals {
		if !isFinite(n) {
			return fmt.Errorf("normal %d is not finite: %v", i, n)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (pc *PointCloud) Clone() *PointCloud {
	if pc == nil {
		return nil
	}
	out := &PointCloud{
		Points: append([]r3.Vector(nil), pc.Points...),
	}
	if pc.Normals != nil {
		out.Normals = append([]r3.Vector(nil), pc.Normals...)
	}
	if pc.Colors != nil {
		out.Colors = append([]colorful.Color(nil), pc.Colors...)
	}
	return out
}

// Centroid returns the mean position, or the zero vector for an empty cloud.
func (pc *PointCloud) Centroid() r3.Vector {
	n := pc.Len()
	if n == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	for _, p := range pc.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(n))
}

func isFinite(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
