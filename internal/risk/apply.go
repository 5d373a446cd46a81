package risk

import (
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/table"
)

// Column names attached to scored tables. Fitted strategies prefix
// p_failure and risk_flag with their method label.
const (
	ColGMMCluster = "gmm_cluster"
	colPFailure   = "_p_failure"
	colRiskFlag   = "_risk_flag"
)

// PFailureColumn returns the probability column name for a method.
func PFailureColumn(m Method) string { return string(m) + colPFailure }

// RiskFlagColumn returns the flag column name for a method.
func RiskFlagColumn(m Method) string { return string(m) + colRiskFlag }

// ApplyOptions configures inference-time scoring.
type ApplyOptions struct {
	Method        Method
	Features      []string
	FlagThreshold float64
	ClusterMap    ClusterMap // required for the gmm method
}

// Apply scores every row of t in place using a previously trained
// artifact. The mixture path assigns a cluster per row through the
// saved scaler and model, then looks up p_failure in the cluster map;
// an id missing from the map means the artifact and map came from
// different training runs and is a hard error. The classifier path
// reads the positive-class probability directly. Both paths derive
// risk_flag as p_failure > FlagThreshold.
func Apply(t *table.Table, art *Artifact, opts ApplyOptions) error {
	x, err := featureMatrix(t, opts.Features)
	if err != nil {
		return eris.Wrapf(err, "risk: apply %s", opts.Method)
	}
	xs, err := art.Scaler.Transform(x)
	if err != nil {
		return eris.Wrapf(err, "risk: apply %s", opts.Method)
	}

	var probs []float64
	switch opts.Method {
	case MethodGMM:
		if art.GMM == nil {
			return eris.New("risk: artifact holds no mixture model")
		}
		if opts.ClusterMap == nil {
			return eris.New("risk: gmm scoring requires a cluster map; it cannot be inferred from the model")
		}
		clusters, err := art.GMM.Predict(xs)
		if err != nil {
			return err
		}
		probs = make([]float64, len(clusters))
		cells := make([]string, len(clusters))
		for i, c := range clusters {
			p, ok := opts.ClusterMap[c]
			if !ok {
				return eris.Errorf("risk: cluster %d has no entry in cluster map %s", c, opts.ClusterMap)
			}
			probs[i] = p
			cells[i] = strconv.Itoa(c)
		}
		if err := t.SetColumn(ColGMMCluster, cells); err != nil {
			return err
		}

	case MethodLogReg:
		if art.LogReg == nil {
			return eris.New("risk: artifact holds no classifier model")
		}
		probs, err = art.LogReg.PredictProba(xs)
		if err != nil {
			return err
		}

	default:
		return eris.Errorf("risk: cannot apply artifact for method %q", opts.Method)
	}

	flags := make([]bool, len(probs))
	var flagged int
	for i, p := range probs {
		flags[i] = p > opts.FlagThreshold
		if flags[i] {
			flagged++
		}
	}
	if err := t.SetFloatColumn(PFailureColumn(opts.Method), probs); err != nil {
		return err
	}
	if err := t.SetBoolColumn(RiskFlagColumn(opts.Method), flags); err != nil {
		return err
	}

	zap.L().Info("risk: applied model",
		zap.String("method", string(opts.Method)),
		zap.Int("rows", t.Len()),
		zap.Int("flagged", flagged),
	)
	return nil
}

// ApplyRule scores every row of t in place with the rule-based
// strategy. It needs only the component_A and avg_pH columns.
func ApplyRule(t *table.Table) error {
	if err := t.RequireColumns("component_A", "avg_pH"); err != nil {
		return eris.Wrap(err, "risk: apply rule")
	}
	probs := make([]float64, t.Len())
	flags := make([]bool, t.Len())
	var flagged int
	for i := 0; i < t.Len(); i++ {
		compA, err := t.Float(i, "component_A")
		if err != nil {
			return eris.Wrap(err, "risk: apply rule")
		}
		ph, err := t.Float(i, "avg_pH")
		if err != nil {
			return eris.Wrap(err, "risk: apply rule")
		}
		s := ScoreRule(compA, ph)
		probs[i] = s.PFailure
		flags[i] = s.RiskFlag
		if s.RiskFlag {
			flagged++
		}
	}
	if err := t.SetFloatColumn(PFailureColumn(MethodRule), probs); err != nil {
		return err
	}
	if err := t.SetBoolColumn(RiskFlagColumn(MethodRule), flags); err != nil {
		return err
	}

	zap.L().Info("risk: applied rule",
		zap.Int("rows", t.Len()),
		zap.Int("flagged", flagged),
	)
	return nil
}
