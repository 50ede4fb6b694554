package geometry

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/pointfeature/internal/monitoring"
	"github.com/banshee-data/pointfeature/internal/search"
	"github.com/banshee-data/pointfeature/internal/workpool"
)

// minNormalNeighbors is the smallest neighbourhood that defines a plane.
const minNormalNeighbors = 3

// defaultNormal is assigned when a neighbourhood is too small for PCA.
var defaultNormal = r3.Vector{X: 0, Y: 0, Z: 1}

// EstimateNormals replaces pc.Normals with PCA normals: for each point the
// eigenvector of the smallest eigenvalue of its neighbourhood covariance.
// If the cloud already had normals, each new normal is flipped to agree
// with the old one. A nil index builds a k-d tree over pc.Points.
func EstimateNormals(pc *PointCloud, index search.Searcher, p search.Param, workers int) {
	n := pc.Len()
	if n == 0 {
		return
	}
	if p.IsZero() {
		p = search.DefaultParam()
	}
	if index == nil {
		index = search.NewKDTree(pc.Points)
	}

	previous := pc.Normals
	hadNormals := pc.HasNormals()
	normals := make([]r3.Vector, n)
	workpool.ForEach(n, workers, func(i int) {
		indices, _ := index.Search(pc.Points[i], p)
		normal := planeNormal(pc.Points, indices)
		if hadNormals && normal.Dot(previous[i]) < 0 {
			normal = normal.Mul(-1)
		}
		normals[i] = normal
	})
	pc.Normals = normals
	monitoring.Debugf("estimated %d normals with %s", n, p)
}

// planeNormal fits a plane to the indexed points and returns its unit normal.
func planeNormal(points []r3.Vector, indices []int) r3.Vector {
	if len(indices) < minNormalNeighbors {
		return defaultNormal
	}

	var centroid r3.Vector
	for _, idx := range indices {
		centroid = centroid.Add(points[idx])
	}
	centroid = centroid.Mul(1 / float64(len(indices)))

	var cxx, cxy, cxz, cyy, cyz, czz float64
	for _, idx := range indices {
		d := points[idx].Sub(centroid)
		cxx += d.X * d.X
		cxy += d.X * d.Y
		cxz += d.X * d.Z
		cyy += d.Y * d.Y
		cyz += d.Y * d.Z
		czz += d.Z * d.Z
	}
	inv := 1 / float64(len(indices))
	cov := mat.NewSymDense(3, []float64{
		cxx * inv, cxy * inv, cxz * inv,
		cxy * inv, cyy * inv, cyz * inv,
		cxz * inv, cyz * inv, czz * inv,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return defaultNormal
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues are ascending; column 0 is the normal direction.
	normal := r3.Vector{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	if normal.Norm2() == 0 {
		return defaultNormal
	}
	return normal.Normalize()
}

// OrientNormalsToDirection flips every normal whose dot product with dir is
// negative.
func OrientNormalsToDirection(pc *PointCloud, dir r3.Vector) error {
	if !pc.HasNormals() {
		return ErrNoNormals
	}
	for i, n := range pc.Normals {
		if n.Dot(dir) < 0 {
			pc.Normals[i] = n.Mul(-1)
		}
	}
	return nil
}

// OrientNormalsTowardsPoint flips normals so that they point at viewpoint.
func OrientNormalsTowardsPoint(pc *PointCloud, viewpoint r3.Vector) error {
	if !pc.HasNormals() {
		return ErrNoNormals
	}
	for i, n := range pc.Normals {
		if n.Dot(viewpoint.Sub(pc.Points[i])) < 0 {
			pc.Normals[i] = n.Mul(-1)
		}
	}
	return nil
}
