package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// twoBlobs builds two well-separated 2D clusters of n points each.
func twoBlobs(n int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(2*n, 2, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, rng.NormFloat64()*0.3)
		x.Set(i, 1, rng.NormFloat64()*0.3)
		x.Set(n+i, 0, 5+rng.NormFloat64()*0.3)
		x.Set(n+i, 1, 5+rng.NormFloat64()*0.3)
	}
	return x
}

func TestGMMSeparatesClusters(t *testing.T) {
	x := twoBlobs(50, 7)
	g := NewGMM(2, 1)
	require.NoError(t, g.Fit(x))

	labels, err := g.Predict(x)
	require.NoError(t, err)
	require.Len(t, labels, 100)

	// All points in each blob share a label, and the blobs differ.
	first := labels[0]
	for _, l := range labels[:50] {
		assert.Equal(t, first, l)
	}
	second := labels[50]
	assert.NotEqual(t, first, second)
	for _, l := range labels[50:] {
		assert.Equal(t, second, l)
	}
}

func TestGMMDeterministicForSeed(t *testing.T) {
	x := twoBlobs(30, 3)

	g1 := NewGMM(2, 42)
	require.NoError(t, g1.Fit(x))
	l1, err := g1.Predict(x)
	require.NoError(t, err)

	g2 := NewGMM(2, 42)
	require.NoError(t, g2.Fit(x))
	l2, err := g2.Predict(x)
	require.NoError(t, err)

	assert.Equal(t, l1, l2)
}

func TestGMMTooFewRows(t *testing.T) {
	x := mat.NewDense(1, 2, []float64{1, 2})
	g := NewGMM(2, 1)
	require.Error(t, g.Fit(x))
}

func TestGMMPredictUnfitted(t *testing.T) {
	g := NewGMM(2, 1)
	_, err := g.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	require.Error(t, err)
}

func TestGMMPredictFeatureMismatch(t *testing.T) {
	x := twoBlobs(10, 1)
	g := NewGMM(2, 1)
	require.NoError(t, g.Fit(x))

	_, err := g.Predict(mat.NewDense(1, 3, nil))
	require.Error(t, err)
}
