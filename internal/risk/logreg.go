package risk

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

const (
	logregMaxIter = 100
	logregTol     = 1e-8
	logregRidge   = 1e-8
)

// LogReg is a binary logistic regression classifier fit by
// Newton-Raphson (iteratively reweighted least squares).
type LogReg struct {
	Intercept float64
	Coef      []float64
}

// Fit trains the classifier on x against binary labels y (0 or 1).
// Both classes must be present: a threshold that fails to partition the
// training data is a validation error, not a degenerate fit.
func (m *LogReg) Fit(x *mat.Dense, y []float64) error {
	n, d := x.Dims()
	if len(y) != n {
		return eris.Errorf("risk: logreg has %d rows but %d labels", n, len(y))
	}
	var pos int
	for _, v := range y {
		if v != 0 && v != 1 {
			return eris.Errorf("risk: logreg labels must be 0 or 1, got %v", v)
		}
		if v == 1 {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return eris.Errorf("risk: logreg needs both classes in training data (got %d/%d positive)", pos, n)
	}

	// Design matrix with intercept column.
	xd := mat.NewDense(n, d+1, nil)
	for i := 0; i < n; i++ {
		xd.Set(i, 0, 1)
		for j := 0; j < d; j++ {
			xd.Set(i, j+1, x.At(i, j))
		}
	}

	beta := make([]float64, d+1)
	p := make([]float64, n)
	for iter := 0; iter < logregMaxIter; iter++ {
		for i := 0; i < n; i++ {
			var z float64
			for j := 0; j <= d; j++ {
				z += beta[j] * xd.At(i, j)
			}
			p[i] = sigmoid(z)
		}

		// Gradient Xᵀ(y-p) and Hessian XᵀWX with W = diag(p(1-p)).
		grad := make([]float64, d+1)
		hess := mat.NewDense(d+1, d+1, nil)
		for i := 0; i < n; i++ {
			w := math.Max(p[i]*(1-p[i]), 1e-10)
			r := y[i] - p[i]
			for j := 0; j <= d; j++ {
				grad[j] += xd.At(i, j) * r
				for l := j; l <= d; l++ {
					hess.Set(j, l, hess.At(j, l)+w*xd.At(i, j)*xd.At(i, l))
				}
			}
		}
		for j := 0; j <= d; j++ {
			for l := 0; l < j; l++ {
				hess.Set(j, l, hess.At(l, j))
			}
			hess.Set(j, j, hess.At(j, j)+logregRidge)
		}

		var step mat.VecDense
		if err := step.SolveVec(hess, mat.NewVecDense(d+1, grad)); err != nil {
			return eris.Wrap(err, "risk: logreg newton step")
		}

		var maxDelta float64
		for j := 0; j <= d; j++ {
			delta := step.AtVec(j)
			beta[j] += delta
			maxDelta = math.Max(maxDelta, math.Abs(delta))
		}
		if maxDelta < logregTol {
			break
		}
	}

	m.Intercept = beta[0]
	m.Coef = beta[1:]
	return nil
}

// PredictProba returns the positive-class probability for each row.
func (m *LogReg) PredictProba(x *mat.Dense) ([]float64, error) {
	if m.Coef == nil {
		return nil, eris.New("risk: logreg is not fitted")
	}
	n, d := x.Dims()
	if d != len(m.Coef) {
		return nil, eris.Errorf("risk: logreg fit on %d features, input has %d", len(m.Coef), d)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		z := m.Intercept
		for j := 0; j < d; j++ {
			z += m.Coef[j] * x.At(i, j)
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
