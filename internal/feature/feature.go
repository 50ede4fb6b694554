package feature

import (
	"gonum.org/v1/gonum/mat"
)

const (
	// BinsPerAngle is the bin count of each angular sub-histogram.
	BinsPerAngle = 11
	// GeometricDim is the row count of an FPFH matrix: alpha, phi and theta
	// sub-histograms.
	GeometricDim = 3 * BinsPerAngle
	// ColorBins is the number of reference-colour bins.
	ColorBins = 8
	// ColorDim is the row count of a CFPFH matrix.
	ColorDim = GeometricDim + ColorBins
)

// Feature is a dense descriptor matrix with one column per point. Data is
// nil when the matrix has no columns.
type Feature struct {
	Data *mat.Dense
	dim  int
	num  int
}

// NewFeature allocates a zero matrix of dim rows and num columns.
func NewFeature(dim, num int) *Feature {
	f := &Feature{dim: dim, num: num}
	if dim > 0 && num > 0 {
		f.Data = mat.NewDense(dim, num, nil)
	}
	return f
}

// Dimension returns the descriptor length (rows).
func (f *Feature) Dimension() int { return f.dim }

// Num returns the number of descriptors (columns).
func (f *Feature) Num() int { return f.num }

// At returns the value of bin row for point col.
func (f *Feature) At(row, col int) float64 {
	return f.Data.At(row, col)
}

// Column returns a copy of point i's descriptor.
func (f *Feature) Column(i int) []float64 {
	col := make([]float64, f.dim)
	if f.Data != nil {
		mat.Col(col, i, f.Data)
	}
	return col
}

// IsZeroColumn reports whether point i's descriptor is all zero, the
// sentinel for "no neighbours" or a failed precondition.
func (f *Feature) IsZeroColumn(i int) bool {
	if f.Data == nil {
		return true
	}
	for r := 0; r < f.dim; r++ {
		if f.Data.At(r, i) != 0 {
			return false
		}
	}
	return true
}

// IsZero reports whether every entry is zero.
func (f *Feature) IsZero() bool {
	for i := 0; i < f.num; i++ {
		if !f.IsZeroColumn(i) {
			return false
		}
	}
	return true
}

// Select returns a new Feature holding the listed columns in order.
func (f *Feature) Select(indices []int) *Feature {
	out := NewFeature(f.dim, len(indices))
	for j, i := range indices {
		out.Data.SetCol(j, f.Column(i))
	}
	return out
}

// setColumn writes point i's descriptor. Concurrent calls must use
// distinct i.
func (f *Feature) setColumn(i int, col []float64) {
	f.Data.SetCol(i, col)
}

// raw returns the backing storage for fast read-only access by refine.
func (f *Feature) raw() (data []float64, stride int) {
	rm := f.Data.RawMatrix()
	return rm.Data, rm.Stride
}
