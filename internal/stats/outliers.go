package stats

import (
	"math"
	"slices"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
)

// OutlierMethod selects the detection rule.
type OutlierMethod string

const (
	// MethodZScore flags |x-mean|/std > threshold.
	MethodZScore OutlierMethod = "zscore"
	// MethodIQR flags x outside [Q1 - t*IQR, Q3 + t*IQR].
	MethodIQR OutlierMethod = "iqr"
)

// DetectOutliers flags statistical outliers in xs. Unknown methods are
// a configuration error. A zero-variance series yields no z-score
// outliers rather than a division by zero.
func DetectOutliers(xs []float64, method OutlierMethod, threshold float64) ([]bool, error) {
	switch method {
	case MethodZScore:
		return detectZScore(xs, threshold), nil
	case MethodIQR:
		return detectIQR(xs, threshold), nil
	default:
		return nil, eris.Errorf("stats: unknown outlier method %q (want zscore or iqr)", method)
	}
}

func detectZScore(xs []float64, threshold float64) []bool {
	flags := make([]bool, len(xs))
	if len(xs) < 2 {
		return flags
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if std == 0 {
		// Degenerate distribution: every point sits on the mean.
		return flags
	}
	for i, x := range xs {
		flags[i] = math.Abs(x-mean)/std > threshold
	}
	return flags
}

func detectIQR(xs []float64, threshold float64) []bool {
	flags := make([]bool, len(xs))
	if len(xs) < 2 {
		return flags
	}
	sorted := append([]float64(nil), xs...)
	slices.Sort(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	lower := q1 - threshold*iqr
	upper := q3 + threshold*iqr
	for i, x := range xs {
		flags[i] = x < lower || x > upper
	}
	return flags
}
