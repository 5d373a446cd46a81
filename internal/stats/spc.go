// Package stats computes SPC summary metrics and outlier flags for a
// single numeric measurement series.
package stats

import (
	"slices"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
)

// Metrics holds SPC summary statistics for one measurement column.
// UCL and LCL are the mean plus/minus three sample standard deviations.
type Metrics struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	UCL  float64 `json:"ucl"`
	LCL  float64 `json:"lcl"`
}

// SPCMetrics computes mean, sample standard deviation, min, max and
// three-sigma control limits.
func SPCMetrics(xs []float64) (Metrics, error) {
	if len(xs) == 0 {
		return Metrics{}, eris.New("stats: no data")
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Metrics{
		Mean: mean,
		Std:  std,
		Min:  slices.Min(xs),
		Max:  slices.Max(xs),
		UCL:  mean + 3*std,
		LCL:  mean - 3*std,
	}, nil
}
