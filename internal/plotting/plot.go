// Package plotting renders a convergence chart: best archive cost
// against wall-clock time, as the search progresses.
package plotting

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Sample is one point on the convergence curve.
type Sample struct {
	ElapsedSeconds float64
	BestCost       float64
}

// RenderConvergence writes an HTML line chart of samples to path.
func RenderConvergence(samples []Sample, path string) error {
	if len(samples) == 0 {
		return fmt.Errorf("plotting: no samples to render")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Best cost over time",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "elapsed (s)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "best cost",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	x := make([]string, len(samples))
	y := make([]opts.LineData, len(samples))
	for i, s := range samples {
		x[i] = fmt.Sprintf("%.1f", s.ElapsedSeconds)
		y[i] = opts.LineData{Value: s.BestCost}
	}

	line.SetXAxis(x).
		AddSeries("best cost", y).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}),
		)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plotting: creating output file: %w", err)
	}
	defer f.Close()

	return line.Render(f)
}
