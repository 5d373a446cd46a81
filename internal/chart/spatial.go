package chart

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/batchsight/internal/dataset"
)

// SpatialMap renders a 2D defect position scatter, one colored series
// per defect type with a legend.
func SpatialMap(defects []dataset.Defect, path string) error {
	if len(defects) == 0 {
		return eris.New("chart: no defects to plot")
	}

	p := plot.New()
	p.Title.Text = "Spatial Defect Map"
	p.X.Label.Text = "X Position"
	p.Y.Label.Text = "Y Position"
	p.Legend.Top = true

	for i, defectType := range dataset.DefectTypes(defects) {
		var pts plotter.XYs
		for _, d := range defects {
			if d.Type == defectType {
				pts = append(pts, plotter.XY{X: d.X, Y: d.Y})
			}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return eris.Wrapf(err, "chart: defect series %q", defectType)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  plotutil.Color(i),
			Radius: vg.Points(4),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
		p.Legend.Add(defectType, sc)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "chart: save %s", path)
	}
	zap.L().Info("chart: saved spatial defect map",
		zap.String("path", path),
		zap.Int("defects", len(defects)),
	)
	return nil
}
