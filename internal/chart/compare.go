package chart

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ComparePanel is one panel of the model comparison figure: points in
// feature space colored by a per-point value.
type ComparePanel struct {
	Title  string
	Values []float64 // color values, one per point
	Min    float64   // color scale bounds; Min == Max means auto
	Max    float64
}

// ModelComparison renders side-by-side feature-space scatters, each
// colored by a different quantity (outcome metric, GMM risk, logistic
// risk), sharing the same x/y columns.
func ModelComparison(x, y []float64, xLabel, yLabel string, panels []ComparePanel, path string) error {
	if len(panels) == 0 {
		return eris.New("chart: no comparison panels")
	}
	if len(x) != len(y) {
		return eris.Errorf("chart: %d x values but %d y values", len(x), len(y))
	}

	plots := make([][]*plot.Plot, 1)
	plots[0] = make([]*plot.Plot, len(panels))
	for pi, panel := range panels {
		if len(panel.Values) != len(x) {
			return eris.Errorf("chart: panel %q has %d values, want %d", panel.Title, len(panel.Values), len(x))
		}

		lo, hi := panel.Min, panel.Max
		if lo == hi {
			lo, hi = minMax(panel.Values)
			if lo == hi {
				hi = lo + 1
			}
		}
		cm := moreland.SmoothBlueRed()
		cm.SetMin(lo)
		cm.SetMax(hi)

		p := plot.New()
		p.Title.Text = panel.Title
		p.X.Label.Text = xLabel
		p.Y.Label.Text = yLabel

		pts := make(plotter.XYs, len(x))
		for i := range x {
			pts[i] = plotter.XY{X: x[i], Y: y[i]}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return eris.Wrapf(err, "chart: panel %q", panel.Title)
		}
		values := panel.Values
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			c, err := cm.At(clamp(values[i], lo, hi))
			if err != nil {
				c = colorData
			}
			return draw.GlyphStyle{Color: c, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
		plots[0][pi] = p
	}

	width := vg.Length(len(panels)) * 5 * vg.Inch
	img := vgimg.New(width, 5*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(panels),
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, dc)
	for pi := range panels {
		plots[0][pi].Draw(canvases[0][pi])
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "chart: create %s", path)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return eris.Wrapf(err, "chart: write %s", path)
	}

	zap.L().Info("chart: saved model comparison",
		zap.String("path", path),
		zap.Int("panels", len(panels)),
	)
	return nil
}

func minMax(xs []float64) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
