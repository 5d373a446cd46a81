package chart

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// TrendPoint is one scored batch on the risk timeline.
type TrendPoint struct {
	Date     time.Time
	PFailure float64
	Flagged  bool
}

// TrendOptions configures the risk trend chart.
type TrendOptions struct {
	Title     string
	Threshold float64 // draw a dashed threshold line when > 0
}

// RiskTrend renders a date-sorted scatter of failure probabilities,
// flagged batches in red and the rest in blue.
func RiskTrend(points []TrendPoint, path string, opts TrendOptions) error {
	if len(points) == 0 {
		return eris.New("chart: no trend points")
	}
	sorted := append([]TrendPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	p := plot.New()
	if opts.Title == "" {
		opts.Title = "Risk Score Over Time"
	}
	p.Title.Text = opts.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "P(failure)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	var flagged, safe plotter.XYs
	for _, tp := range sorted {
		xy := plotter.XY{X: float64(tp.Date.Unix()), Y: tp.PFailure}
		if tp.Flagged {
			flagged = append(flagged, xy)
		} else {
			safe = append(safe, xy)
		}
	}
	for _, series := range []struct {
		name string
		pts  plotter.XYs
		col  draw.GlyphStyle
	}{
		{"flagged", flagged, draw.GlyphStyle{Color: colorOutlier, Radius: vg.Points(3.5), Shape: draw.CircleGlyph{}}},
		{"ok", safe, draw.GlyphStyle{Color: colorSafe, Radius: vg.Points(3.5), Shape: draw.CircleGlyph{}}},
	} {
		if len(series.pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(series.pts)
		if err != nil {
			return eris.Wrapf(err, "chart: trend %s series", series.name)
		}
		sc.GlyphStyle = series.col
		p.Add(sc)
		p.Legend.Add(series.name, sc)
	}

	if opts.Threshold > 0 {
		x0 := float64(sorted[0].Date.Unix())
		x1 := float64(sorted[len(sorted)-1].Date.Unix())
		l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: opts.Threshold}, {X: x1, Y: opts.Threshold}})
		if err != nil {
			return eris.Wrap(err, "chart: threshold line")
		}
		l.Color = colorMean
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(l)
		p.Legend.Add("threshold", l)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "chart: save %s", path)
	}
	zap.L().Info("chart: saved risk trend", zap.String("path", path))
	return nil
}
