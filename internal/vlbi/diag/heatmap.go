// Package diag renders UV-plane diagnostics as standalone HTML via
// go-echarts, the same debugging-dashboard technique the lidar monitor
// package uses for its grid visualizations. This is not an image-export
// path (FITS/PNG/JPEG encoding is an explicit external collaborator) —
// it is a developer-facing HTML report for inspecting a grid's coverage
// or amplitude without a full imaging pipeline.
package diag

import (
	"fmt"
	"io"
	"math/cmplx"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// VisibilitySource is the subset of vlbi.Grid this package depends on,
// kept narrow so diag never needs to import the vlbi package itself.
type VisibilitySource interface {
	Visibility() []complex128
	Coverage() []float64
}

// RenderCoverageHeatmap writes an HTML heatmap of g's per-cell coverage
// counts to w.
func RenderCoverageHeatmap(w io.Writer, g VisibilitySource, width, height int, title string) error {
	coverage := g.Coverage()
	return renderHeatmap(w, coverage, width, height, title, "coverage")
}

// RenderAmplitudeHeatmap writes an HTML heatmap of g's per-cell
// visibility amplitude to w.
func RenderAmplitudeHeatmap(w io.Writer, g VisibilitySource, width, height int, title string) error {
	vis := g.Visibility()
	amp := make([]float64, len(vis))
	for i, c := range vis {
		amp[i] = cmplx.Abs(c)
	}
	return renderHeatmap(w, amp, width, height, title, "amplitude")
}

func renderHeatmap(w io.Writer, values []float64, width, height int, title, subtitle string) error {
	if len(values) != width*height {
		return fmt.Errorf("diag: %d values does not match %dx%d grid", len(values), width, height)
	}

	data := make([]opts.HeatMapData, 0, len(values))
	maxVal := 0.0
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v := values[row*width+col]
			if v > maxVal {
				maxVal = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, row, v}})
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "U"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "V"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#fde725"},
			},
		}),
	)
	hm.AddSeries(subtitle, data)

	return hm.Render(w)
}
