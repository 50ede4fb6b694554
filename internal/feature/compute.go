package feature

import (
	"time"

	"github.com/banshee-data/pointfeature/internal/geometry"
	"github.com/banshee-data/pointfeature/internal/monitoring"
)

// ComputeFPFH returns the 33 x N geometric descriptor matrix. A cloud
// without normals yields an all-zero matrix and one logged diagnostic.
func ComputeFPFH(pc *geometry.PointCloud, opts Options) *Feature {
	if !pc.HasNormals() {
		monitoring.Logf("[ComputeFPFH] failed because input point cloud has no normals")
		return NewFeature(GeometricDim, pc.Len())
	}
	index, param := opts.resolve(pc)

	start := time.Now()
	spfh := simplified(pc, index, param, opts.Workers, false)
	monitoring.Debugf("[ComputeFPFH] SPFH pass over %d points took %v", pc.Len(), time.Since(start))

	start = time.Now()
	f := refine(pc, spfh, index, param, opts.Workers)
	monitoring.Debugf("[ComputeFPFH] refine pass took %v", time.Since(start))
	return f
}

// ComputeCFPFH returns the 41 x N colour-extended descriptor matrix. A
// cloud without normals or without colours yields an all-zero matrix and
// one logged diagnostic.
func ComputeCFPFH(pc *geometry.PointCloud, opts Options) *Feature {
	if !checkColorPreconditions("ComputeCFPFH", pc) {
		return NewFeature(ColorDim, pc.Len())
	}
	index, param := opts.resolve(pc)

	start := time.Now()
	cspfh := simplified(pc, index, param, opts.Workers, true)
	monitoring.Debugf("[ComputeCFPFH] CSPFH pass over %d points took %v", pc.Len(), time.Since(start))

	start = time.Now()
	f := refine(pc, cspfh, index, param, opts.Workers)
	monitoring.Debugf("[ComputeCFPFH] refine pass took %v", time.Since(start))
	return f
}

// ComputeSPFH returns only the first-pass 33 x N simplified histograms.
func ComputeSPFH(pc *geometry.PointCloud, opts Options) *Feature {
	if !pc.HasNormals() {
		monitoring.Logf("[ComputeSPFH] failed because input point cloud has no normals")
		return NewFeature(GeometricDim, pc.Len())
	}
	index, param := opts.resolve(pc)
	return simplified(pc, index, param, opts.Workers, false)
}

// ComputeCSPFH returns only the first-pass 41 x N colour-extended
// simplified histograms.
func ComputeCSPFH(pc *geometry.PointCloud, opts Options) *Feature {
	if !checkColorPreconditions("ComputeCSPFH", pc) {
		return NewFeature(ColorDim, pc.Len())
	}
	index, param := opts.resolve(pc)
	return simplified(pc, index, param, opts.Workers, true)
}

func checkColorPreconditions(op string, pc *geometry.PointCloud) bool {
	if !pc.HasNormals() {
		monitoring.Logf("[%s] failed because input point cloud has no normals", op)
		return false
	}
	if !pc.HasColors() {
		monitoring.Logf("[%s] failed because input point cloud has no colors", op)
		return false
	}
	return true
}
