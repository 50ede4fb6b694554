package feature

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RowSummary is the distribution of one descriptor bin across the cloud.
type RowSummary struct {
	Row    int
	Label  string
	Mean   float64
	StdDev float64
}

// Summarize returns the mean and sample standard deviation of every row.
// Standard deviation is zero when there are fewer than two columns.
func Summarize(f *Feature) []RowSummary {
	out := make([]RowSummary, f.Dimension())
	row := make([]float64, f.Num())
	for r := range out {
		out[r] = RowSummary{Row: r, Label: BinLabel(r)}
		if f.Num() == 0 {
			continue
		}
		mat.Row(row, r, f.Data)
		if f.Num() == 1 {
			out[r].Mean = row[0]
			continue
		}
		out[r].Mean, out[r].StdDev = stat.MeanStdDev(row, nil)
	}
	return out
}

// SubHistogramSums returns the totals of the alpha, phi and theta blocks
// of point i, and of the colour block when present.
func (f *Feature) SubHistogramSums(i int) (angles [3]float64, color float64) {
	col := f.Column(i)
	for s := 0; s < 3; s++ {
		angles[s] = floats.Sum(col[s*BinsPerAngle : (s+1)*BinsPerAngle])
	}
	if f.Dimension() > GeometricDim {
		color = floats.Sum(col[GeometricDim:])
	}
	return angles, color
}
