package risk

import (
	"math"
	"math/rand"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

const (
	gmmMaxIter  = 200
	gmmTol      = 1e-6
	gmmVarFloor = 1e-6
)

// GMM is a Gaussian mixture with diagonal covariance, fit by EM.
// Cluster labels carry no semantics across refits: the same data can
// come back with components 0 and 1 swapped, so downstream probability
// lookups must always go through the saved cluster map.
type GMM struct {
	Components int
	Weights    []float64
	Means      [][]float64
	Vars       [][]float64
	Seed       int64
}

// NewGMM creates an unfitted mixture with k components.
func NewGMM(k int, seed int64) *GMM {
	return &GMM{Components: k, Seed: seed}
}

// Fit runs EM on x until the log-likelihood stabilizes.
func (g *GMM) Fit(x *mat.Dense) error {
	n, _ := x.Dims()
	k := g.Components
	if k < 1 {
		return eris.Errorf("risk: gmm needs at least 1 component, got %d", k)
	}
	if n < k {
		return eris.Errorf("risk: gmm with %d components needs at least %d rows, got %d", k, k, n)
	}

	rng := rand.New(rand.NewSource(g.Seed))

	// Init: k distinct random rows as means, pooled variance, uniform weights.
	g.Weights = make([]float64, k)
	g.Means = make([][]float64, k)
	g.Vars = make([][]float64, k)
	pooled := columnVariances(x)
	for c, idx := range rng.Perm(n)[:k] {
		g.Weights[c] = 1.0 / float64(k)
		g.Means[c] = append([]float64(nil), x.RawRowView(idx)...)
		g.Vars[c] = append([]float64(nil), pooled...)
	}

	resp := mat.NewDense(n, k, nil)
	prevLL := math.Inf(-1)
	for iter := 0; iter < gmmMaxIter; iter++ {
		ll := g.eStep(x, resp)
		g.mStep(x, resp)
		if math.Abs(ll-prevLL) < gmmTol*(1+math.Abs(ll)) {
			break
		}
		prevLL = ll
	}
	return nil
}

// eStep fills responsibilities and returns the total log-likelihood.
func (g *GMM) eStep(x, resp *mat.Dense) float64 {
	n, _ := x.Dims()
	k := g.Components
	logp := make([]float64, k)
	var ll float64
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		for c := 0; c < k; c++ {
			logp[c] = math.Log(g.Weights[c]) + logNormalDiag(row, g.Means[c], g.Vars[c])
		}
		lse := logSumExp(logp)
		ll += lse
		for c := 0; c < k; c++ {
			resp.Set(i, c, math.Exp(logp[c]-lse))
		}
	}
	return ll
}

// mStep re-estimates weights, means and variances from responsibilities.
func (g *GMM) mStep(x, resp *mat.Dense) {
	n, d := x.Dims()
	k := g.Components
	for c := 0; c < k; c++ {
		var nc float64
		for i := 0; i < n; i++ {
			nc += resp.At(i, c)
		}
		if nc < 1e-12 {
			continue // empty component keeps its previous parameters
		}
		g.Weights[c] = nc / float64(n)

		mean := make([]float64, d)
		for i := 0; i < n; i++ {
			r := resp.At(i, c)
			for j := 0; j < d; j++ {
				mean[j] += r * x.At(i, j)
			}
		}
		for j := 0; j < d; j++ {
			mean[j] /= nc
		}
		g.Means[c] = mean

		vars := make([]float64, d)
		for i := 0; i < n; i++ {
			r := resp.At(i, c)
			for j := 0; j < d; j++ {
				diff := x.At(i, j) - mean[j]
				vars[j] += r * diff * diff
			}
		}
		for j := 0; j < d; j++ {
			vars[j] = math.Max(vars[j]/nc, gmmVarFloor)
		}
		g.Vars[c] = vars
	}
}

// Predict assigns each row of x to its most responsible component.
func (g *GMM) Predict(x *mat.Dense) ([]int, error) {
	if len(g.Means) == 0 {
		return nil, eris.New("risk: gmm is not fitted")
	}
	n, d := x.Dims()
	if d != len(g.Means[0]) {
		return nil, eris.Errorf("risk: gmm fit on %d features, input has %d", len(g.Means[0]), d)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		best, bestLP := 0, math.Inf(-1)
		for c := 0; c < g.Components; c++ {
			lp := math.Log(g.Weights[c]) + logNormalDiag(row, g.Means[c], g.Vars[c])
			if lp > bestLP {
				best, bestLP = c, lp
			}
		}
		out[i] = best
	}
	return out, nil
}

// logNormalDiag is the log density of a diagonal-covariance Gaussian.
func logNormalDiag(x, mean, vars []float64) float64 {
	var lp float64
	for j := range x {
		diff := x[j] - mean[j]
		lp += -0.5 * (math.Log(2*math.Pi*vars[j]) + diff*diff/vars[j])
	}
	return lp
}

func logSumExp(xs []float64) float64 {
	maxv := math.Inf(-1)
	for _, v := range xs {
		if v > maxv {
			maxv = v
		}
	}
	if math.IsInf(maxv, -1) {
		return maxv
	}
	var sum float64
	for _, v := range xs {
		sum += math.Exp(v - maxv)
	}
	return maxv + math.Log(sum)
}

func columnVariances(x *mat.Dense) []float64 {
	n, d := x.Dims()
	out := make([]float64, d)
	for j := 0; j < d; j++ {
		var mean float64
		for i := 0; i < n; i++ {
			mean += x.At(i, j)
		}
		mean /= float64(n)
		var ss float64
		for i := 0; i < n; i++ {
			diff := x.At(i, j) - mean
			ss += diff * diff
		}
		out[j] = math.Max(ss/float64(n), gmmVarFloor)
	}
	return out
}
