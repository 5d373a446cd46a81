package risk

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/sells-group/batchsight/internal/table"
)

// Method labels the scoring strategy. The label prefixes the derived
// columns attached to scored tables (e.g. gmm_p_failure).
type Method string

const (
	MethodRule   Method = "rule"
	MethodGMM    Method = "gmm"
	MethodLogReg Method = "logreg"
)

// ClusterMap maps a mixture component id to its estimated failure
// probability, computed once at training time. It is the only valid
// way to turn a cluster assignment into a probability: component ids
// are not stable across retrains.
type ClusterMap map[int]float64

// TrainOptions configures model training.
type TrainOptions struct {
	Features      []string // process feature columns
	TargetCol     string   // quality outcome column (e.g. viability_pct)
	FailThreshold float64  // target below this counts as a failure
	Clusters      int      // mixture components (default 2)
	Seed          int64    // mixture init seed
}

// MixtureResult is the outcome of TrainMixture.
type MixtureResult struct {
	Model      *GMM
	Scaler     *Scaler
	ClusterMap ClusterMap
	Assignment []int // training-row cluster ids, aligned with the input table
}

// TrainMixture standardizes the feature columns, fits a Gaussian
// mixture, and estimates per-cluster failure probability as the
// fraction of training rows in each cluster whose target falls below
// the failure threshold. The probability is retrofitted from the
// outcome column, not produced by the clustering itself.
func TrainMixture(t *table.Table, opts TrainOptions) (*MixtureResult, error) {
	if opts.Clusters <= 0 {
		opts.Clusters = 2
	}
	x, err := featureMatrix(t, opts.Features)
	if err != nil {
		return nil, eris.Wrap(err, "risk: train mixture")
	}
	target, err := t.FloatColumn(opts.TargetCol)
	if err != nil {
		return nil, eris.Wrap(err, "risk: train mixture target")
	}

	scaler := FitScaler(x)
	xs, err := scaler.Transform(x)
	if err != nil {
		return nil, err
	}

	model := NewGMM(opts.Clusters, opts.Seed)
	if err := model.Fit(xs); err != nil {
		return nil, err
	}
	assignment, err := model.Predict(xs)
	if err != nil {
		return nil, err
	}

	// Per-cluster failure rate over the training rows.
	total := make(map[int]int)
	failed := make(map[int]int)
	for i, c := range assignment {
		total[c]++
		if target[i] < opts.FailThreshold {
			failed[c]++
		}
	}
	cm := make(ClusterMap, len(total))
	for c, n := range total {
		cm[c] = float64(failed[c]) / float64(n)
	}

	zap.L().Info("risk: trained mixture",
		zap.Int("rows", t.Len()),
		zap.Int("clusters", opts.Clusters),
		zap.String("cluster_map", cm.String()),
	)
	return &MixtureResult{Model: model, Scaler: scaler, ClusterMap: cm, Assignment: assignment}, nil
}

// ClassifierResult is the outcome of TrainClassifier. AUC and accuracy
// are training-time diagnostics only and are never recomputed at
// inference.
type ClassifierResult struct {
	Model    *LogReg
	Scaler   *Scaler
	AUC      float64
	Accuracy float64
	PFailure []float64 // training-row probabilities, aligned with the input table
}

// TrainClassifier fits a logistic regression against the binary label
// target < FailThreshold, with its own scaler independent from the
// mixture's.
func TrainClassifier(t *table.Table, opts TrainOptions) (*ClassifierResult, error) {
	x, err := featureMatrix(t, opts.Features)
	if err != nil {
		return nil, eris.Wrap(err, "risk: train classifier")
	}
	target, err := t.FloatColumn(opts.TargetCol)
	if err != nil {
		return nil, eris.Wrap(err, "risk: train classifier target")
	}

	y := make([]float64, len(target))
	for i, v := range target {
		if v < opts.FailThreshold {
			y[i] = 1
		}
	}

	scaler := FitScaler(x)
	xs, err := scaler.Transform(x)
	if err != nil {
		return nil, err
	}

	model := &LogReg{}
	if err := model.Fit(xs, y); err != nil {
		return nil, err
	}
	probs, err := model.PredictProba(xs)
	if err != nil {
		return nil, err
	}

	auc := rocAUC(y, probs)
	acc := accuracyAt(y, probs, 0.5)
	zap.L().Info("risk: trained classifier",
		zap.Int("rows", t.Len()),
		zap.Float64("auc", auc),
		zap.Float64("accuracy", acc),
	)
	return &ClassifierResult{Model: model, Scaler: scaler, AUC: auc, Accuracy: acc, PFailure: probs}, nil
}

// featureMatrix extracts the named columns into a dense matrix.
func featureMatrix(t *table.Table, features []string) (*mat.Dense, error) {
	if len(features) == 0 {
		return nil, eris.New("risk: no feature columns configured")
	}
	if t.Len() == 0 {
		return nil, eris.New("risk: no training rows")
	}
	if err := t.RequireColumns(features...); err != nil {
		return nil, err
	}
	x := mat.NewDense(t.Len(), len(features), nil)
	for j, c := range features {
		col, err := t.FloatColumn(c)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			x.Set(i, j, v)
		}
	}
	return x, nil
}

// rocAUC computes the area under the ROC curve via the rank-sum
// statistic, with average ranks over tied scores.
func rocAUC(y, score []float64) float64 {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return score[idx[a]] < score[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && score[idx[j]] == score[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // 1-based average rank of the tie group
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var pos, rankSum float64
	for i := range y {
		if y[i] == 1 {
			pos++
			rankSum += ranks[i]
		}
	}
	neg := float64(n) - pos
	if pos == 0 || neg == 0 {
		return 0
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}

func accuracyAt(y, score []float64, threshold float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var correct int
	for i := range y {
		pred := 0.0
		if score[i] > threshold {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

// String renders a cluster map as "0:0.12 1:0.85" in id order.
func (cm ClusterMap) String() string {
	ids := make([]int, 0, len(cm))
	for id := range cm {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " "
		}
		out += strconv.Itoa(id) + ":" + strconv.FormatFloat(cm[id], 'g', 3, 64)
	}
	return out
}
