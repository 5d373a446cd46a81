package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLogRegFitSeparable(t *testing.T) {
	x := mat.NewDense(8, 1, []float64{-4, -3, -2, -1, 1, 2, 3, 4})
	y := []float64{0, 0, 0, 0, 1, 1, 1, 1}

	m := &LogReg{}
	require.NoError(t, m.Fit(x, y))

	probs, err := m.PredictProba(x)
	require.NoError(t, err)
	for i, p := range probs {
		if y[i] == 1 {
			assert.Greater(t, p, 0.5, "row %d", i)
		} else {
			assert.Less(t, p, 0.5, "row %d", i)
		}
	}
}

func TestLogRegNeedsBothClasses(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 2, 3})

	m := &LogReg{}
	err := m.Fit(x, []float64{1, 1, 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both classes")

	err = m.Fit(x, []float64{0, 0, 0})
	require.Error(t, err)
}

func TestLogRegRejectsBadLabels(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	m := &LogReg{}
	require.Error(t, m.Fit(x, []float64{0, 0.5}))
	require.Error(t, m.Fit(x, []float64{0}))
}

func TestLogRegPredictUnfitted(t *testing.T) {
	m := &LogReg{}
	_, err := m.PredictProba(mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)
}

func TestLogRegPredictFeatureMismatch(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{-1, -2, 1, 2})
	m := &LogReg{}
	require.NoError(t, m.Fit(x, []float64{0, 0, 1, 1}))

	_, err := m.PredictProba(mat.NewDense(1, 2, nil))
	require.Error(t, err)
}
