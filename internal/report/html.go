package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pointfeature/internal/feature"
)

// RenderSummaryHTML writes an HTML page with the per-bin mean and standard
// deviation of f across all points, plus the share of empty descriptors.
func RenderSummaryHTML(w io.Writer, f *feature.Feature, title string) error {
	rows := feature.Summarize(f)
	x := make([]string, len(rows))
	means := make([]opts.BarData, len(rows))
	stddevs := make([]opts.BarData, len(rows))
	for i, r := range rows {
		x[i] = r.Label
		means[i] = opts.BarData{Value: r.Mean}
		stddevs[i] = opts.BarData{Value: r.StdDev}
	}

	empty := 0
	for i := 0; i < f.Num(); i++ {
		if f.IsZeroColumn(i) {
			empty++
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("points=%d dim=%d empty=%d", f.Num(), f.Dimension(), empty),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Bin", AxisLabel: &opts.AxisLabel{Rotate: 60}}),
	)
	bar.SetXAxis(x).
		AddSeries("mean", means).
		AddSeries("stddev", stddevs)

	page := components.NewPage()
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
