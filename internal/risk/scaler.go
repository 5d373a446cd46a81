// Package risk implements batch failure-risk scoring: a rule-based
// strategy and two fitted strategies (Gaussian mixture clusters and
// logistic regression) over standardized process features.
package risk

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit variance. One
// scaler is fit per model at training time and reused verbatim at
// inference; mixing scalers across models is undefined.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler computes per-column mean and population standard deviation.
func FitScaler(x *mat.Dense) *Scaler {
	rows, cols := x.Dims()
	s := &Scaler{Mean: make([]float64, cols), Std: make([]float64, cols)}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		var ss float64
		for _, v := range col {
			ss += (v - mean) * (v - mean)
		}
		s.Mean[j] = mean
		s.Std[j] = math.Sqrt(ss / float64(rows))
	}
	return s
}

// Transform returns a standardized copy of x. Constant columns (zero
// std) map to zero rather than dividing by zero.
func (s *Scaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, eris.Errorf("risk: scaler fit on %d features, input has %d", len(s.Mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j) - s.Mean[j]
			if s.Std[j] > 0 {
				v /= s.Std[j]
			} else {
				v = 0
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}
