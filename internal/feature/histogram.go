package feature

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/banshee-data/pointfeature/internal/geometry"
	"github.com/banshee-data/pointfeature/internal/search"
	"github.com/banshee-data/pointfeature/internal/workpool"
)

// simplified builds the SPFH matrix, or the CSPFH matrix when withColor is
// set. Callers have already checked the normal and colour channels.
func simplified(pc *geometry.PointCloud, index search.Searcher, param search.Param, workers int, withColor bool) *Feature {
	dim := GeometricDim
	if withColor {
		dim = ColorDim
	}
	f := NewFeature(dim, pc.Len())
	workpool.ForEach(pc.Len(), workers, func(i int) {
		indices, _ := index.Search(pc.Points[i], param)
		// Only the point itself: leave the column at zero.
		if len(indices) < 2 {
			return
		}
		col := make([]float64, dim)
		addPairHistogram(col, pc, i, indices)
		if withColor {
			addColorHistogram(col, pc.Colors, indices)
		}
		f.setColumn(i, col)
	})
	return f
}

// addPairHistogram bins the pair features between point i and every
// neighbour after the first (self) result. Each neighbour adds
// 100/(len(indices)-1) to one bin of each sub-histogram.
func addPairHistogram(col []float64, pc *geometry.PointCloud, i int, indices []int) {
	incr := 100.0 / float64(len(indices)-1)
	p, n := pc.Points[i], pc.Normals[i]
	for _, k := range indices[1:] {
		pf := ComputePairFeature(p, n, pc.Points[k], pc.Normals[k])
		alpha, phi, theta := pf.Bins()
		col[alpha] += incr
		col[BinsPerAngle+phi] += incr
		col[2*BinsPerAngle+theta] += incr
	}
}

// addColorHistogram counts, over the whole neighbourhood including the
// point itself, the share of points whose colour equals each reference
// colour. Other colours contribute nothing.
func addColorHistogram(col []float64, colors []colorful.Color, indices []int) {
	incr := 100.0 / float64(len(indices))
	for _, k := range indices {
		c := colors[k]
		for b := range ReferencePalette {
			if c == ReferencePalette[b].Color {
				col[GeometricDim+b] += incr
			}
		}
	}
}
