// Package report renders descriptor matrices as PNG bar charts and HTML
// summary pages.
package report

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/pointfeature/internal/feature"
	"github.com/banshee-data/pointfeature/internal/fsutil"
)

// block is a contiguous group of descriptor rows drawn in one colour.
type block struct {
	name       string
	start, end int
}

func blocks(dim int) []block {
	b := []block{
		{"alpha", 0, feature.BinsPerAngle},
		{"phi", feature.BinsPerAngle, 2 * feature.BinsPerAngle},
		{"theta", 2 * feature.BinsPerAngle, feature.GeometricDim},
	}
	if dim > feature.GeometricDim {
		b = append(b, block{"color", feature.GeometricDim, dim})
	}
	return b
}

// PlotDescriptor writes a PNG bar chart of point's descriptor to path,
// one colour per sub-histogram.
func PlotDescriptor(fsys fsutil.FileSystem, path string, f *feature.Feature, point int) (err error) {
	if point < 0 || point >= f.Num() {
		return fmt.Errorf("point %d out of range [0, %d)", point, f.Num())
	}
	col := f.Column(point)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Point %d descriptor", point)
	p.X.Label.Text = "Bin"
	p.Y.Label.Text = "Value"

	for i, b := range blocks(f.Dimension()) {
		bars, err := plotter.NewBarChart(plotter.Values(col[b.start:b.end]), vg.Points(6))
		if err != nil {
			return fmt.Errorf("failed to build %s bars: %w", b.name, err)
		}
		bars.XMin = float64(b.start)
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.Legend.Add(b.name, bars)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if _, err := wt.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PlotDescriptors writes one PNG per listed point into dir and returns the
// file paths.
func PlotDescriptors(fsys fsutil.FileSystem, dir string, f *feature.Feature, points []int) ([]string, error) {
	paths := make([]string, 0, len(points))
	for _, pt := range points {
		path := filepath.Join(dir, fmt.Sprintf("point_%05d.png", pt))
		if err := PlotDescriptor(fsys, path, f, pt); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
