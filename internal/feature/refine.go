package feature

import (
	"github.com/banshee-data/pointfeature/internal/geometry"
	"github.com/banshee-data/pointfeature/internal/search"
	"github.com/banshee-data/pointfeature/internal/workpool"
)

// refine turns a complete simplified matrix into the final descriptors.
// spfh is only read. For each point, neighbour histograms are weighted by
// 1/dist2, each geometric sub-histogram (and the colour block as a whole)
// is rescaled to sum to 100, and the point's own simplified histogram is
// added on top.
func refine(pc *geometry.PointCloud, spfh *Feature, index search.Searcher, param search.Param, workers int) *Feature {
	dim := spfh.Dimension()
	out := NewFeature(dim, pc.Len())
	if pc.Len() == 0 {
		return out
	}
	data, stride := spfh.raw()

	workpool.ForEach(pc.Len(), workers, func(i int) {
		indices, dist2 := index.Search(pc.Points[i], param)
		if len(indices) < 2 {
			return
		}

		col := make([]float64, dim)
		var sum [3]float64
		var colorSum float64
		for k := 1; k < len(indices); k++ {
			d := dist2[k]
			if d == 0 {
				continue
			}
			nb := indices[k]
			for j := 0; j < GeometricDim; j++ {
				val := data[j*stride+nb] / d
				sum[j/BinsPerAngle] += val
				col[j] += val
			}
			for j := GeometricDim; j < dim; j++ {
				val := data[j*stride+nb] / d
				colorSum += val
				col[j] += val
			}
		}

		for s := range sum {
			if sum[s] != 0 {
				sum[s] = 100.0 / sum[s]
			}
		}
		for j := 0; j < GeometricDim; j++ {
			col[j] = col[j]*sum[j/BinsPerAngle] + data[j*stride+i]
		}

		if dim > GeometricDim {
			if colorSum != 0 {
				colorSum = 100.0 / colorSum
			}
			for j := GeometricDim; j < dim; j++ {
				col[j] = col[j]*colorSum + data[j*stride+i]
			}
		}
		out.setColumn(i, col)
	})
	return out
}
