// Package chart renders SPC and risk analytics charts to PNG using
// gonum/plot.
package chart

import (
	"image/color"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/batchsight/internal/stats"
)

var (
	colorData    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorMean    = color.RGBA{G: 128, A: 255}
	colorLimit   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorOutlier = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorSafe    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// ControlChart renders a control chart: the measurement series in
// sample order, dashed mean and three-sigma limit lines, and red
// markers on flagged outliers.
func ControlChart(values []float64, m stats.Metrics, outliers []bool, path string) error {
	if len(outliers) != 0 && len(outliers) != len(values) {
		return eris.Errorf("chart: %d values but %d outlier flags", len(values), len(outliers))
	}

	p := plot.New()
	p.Title.Text = "SPC Control Chart"
	p.X.Label.Text = "Sample Index"
	p.Y.Label.Text = "Measured Value"

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return eris.Wrap(err, "chart: control data series")
	}
	line.Color = colorData
	points.Color = colorData
	p.Add(line, points)
	p.Legend.Add("data", line)

	xMax := float64(len(values) - 1)
	for _, hl := range []struct {
		label string
		y     float64
		color color.Color
	}{
		{"mean", m.Mean, colorMean},
		{"UCL (+3s)", m.UCL, colorLimit},
		{"LCL (-3s)", m.LCL, colorLimit},
	} {
		l, err := plotter.NewLine(plotter.XYs{{X: 0, Y: hl.y}, {X: xMax, Y: hl.y}})
		if err != nil {
			return eris.Wrapf(err, "chart: %s line", hl.label)
		}
		l.Color = hl.color
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(l)
		p.Legend.Add(hl.label, l)
	}

	if len(outliers) > 0 {
		var flagged plotter.XYs
		for i, bad := range outliers {
			if bad {
				flagged = append(flagged, plotter.XY{X: float64(i), Y: values[i]})
			}
		}
		if len(flagged) > 0 {
			sc, err := plotter.NewScatter(flagged)
			if err != nil {
				return eris.Wrap(err, "chart: outlier markers")
			}
			sc.GlyphStyle = draw.GlyphStyle{Color: colorOutlier, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}
			p.Add(sc)
			p.Legend.Add("outliers", sc)
		}
	}

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "chart: save %s", path)
	}
	zap.L().Info("chart: saved control chart", zap.String("path", path))
	return nil
}
