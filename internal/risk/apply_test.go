package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/batchsight/internal/table"
)

func TestApplyRule(t *testing.T) {
	tbl := table.New("batch_id", "component_A", "avg_pH")
	require.NoError(t, tbl.Append([]string{"B001", "0.75", "6.8"}))
	require.NoError(t, tbl.Append([]string{"B002", "0.60", "7.2"}))

	require.NoError(t, ApplyRule(tbl))

	p, err := tbl.Float(0, "rule_p_failure")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)
	flag, _ := tbl.Value(0, "rule_risk_flag")
	assert.Equal(t, "true", flag)

	p, err = tbl.Float(1, "rule_p_failure")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
	flag, _ = tbl.Value(1, "rule_risk_flag")
	assert.Equal(t, "false", flag)
}

func TestApplyRuleMissingColumns(t *testing.T) {
	tbl := table.New("batch_id")
	require.NoError(t, tbl.Append([]string{"B001"}))
	require.Error(t, ApplyRule(tbl))
}

func TestApplyGMMRoundTrip(t *testing.T) {
	train := trainingTable(t, 30)
	opts := defaultTrainOptions()
	res, err := TrainMixture(train, opts)
	require.NoError(t, err)

	art := &Artifact{Method: MethodGMM, Features: opts.Features, Scaler: res.Scaler, GMM: res.Model}

	scored := table.New("batch_id", "component_A", "avg_pH")
	require.NoError(t, scored.Append([]string{"N001", "0.80", "6.5"})) // hot and acidic
	require.NoError(t, scored.Append([]string{"N002", "0.62", "7.15"}))

	require.NoError(t, Apply(scored, art, ApplyOptions{
		Method:        MethodGMM,
		Features:      opts.Features,
		FlagThreshold: 0.5,
		ClusterMap:    res.ClusterMap,
	}))

	require.True(t, scored.HasColumn(ColGMMCluster))
	p, err := scored.Float(0, "gmm_p_failure")
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)
	flag, _ := scored.Value(0, "gmm_risk_flag")
	assert.Equal(t, "true", flag)

	p, err = scored.Float(1, "gmm_p_failure")
	require.NoError(t, err)
	assert.Less(t, p, 0.5)
	flag, _ = scored.Value(1, "gmm_risk_flag")
	assert.Equal(t, "false", flag)
}

func TestApplyGMMRequiresClusterMap(t *testing.T) {
	train := trainingTable(t, 20)
	opts := defaultTrainOptions()
	res, err := TrainMixture(train, opts)
	require.NoError(t, err)

	art := &Artifact{Method: MethodGMM, Features: opts.Features, Scaler: res.Scaler, GMM: res.Model}
	scored := table.New("component_A", "avg_pH")
	require.NoError(t, scored.Append([]string{"0.75", "6.8"}))

	err = Apply(scored, art, ApplyOptions{Method: MethodGMM, Features: opts.Features, FlagThreshold: 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster map")
}

func TestApplyGMMUnmappedCluster(t *testing.T) {
	train := trainingTable(t, 20)
	opts := defaultTrainOptions()
	res, err := TrainMixture(train, opts)
	require.NoError(t, err)

	art := &Artifact{Method: MethodGMM, Features: opts.Features, Scaler: res.Scaler, GMM: res.Model}
	scored := table.New("component_A", "avg_pH")
	require.NoError(t, scored.Append([]string{"0.75", "6.8"}))

	// A cluster map from a different training run misses this model's ids.
	err = Apply(scored, art, ApplyOptions{
		Method:        MethodGMM,
		Features:      opts.Features,
		FlagThreshold: 0.5,
		ClusterMap:    ClusterMap{97: 0.5, 98: 0.5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry")
}

func TestApplyLogReg(t *testing.T) {
	train := trainingTable(t, 30)
	opts := defaultTrainOptions()
	res, err := TrainClassifier(train, opts)
	require.NoError(t, err)

	art := &Artifact{Method: MethodLogReg, Features: opts.Features, Scaler: res.Scaler, LogReg: res.Model}

	scored := table.New("component_A", "avg_pH")
	require.NoError(t, scored.Append([]string{"0.80", "6.5"}))
	require.NoError(t, scored.Append([]string{"0.62", "7.15"}))

	require.NoError(t, Apply(scored, art, ApplyOptions{
		Method:        MethodLogReg,
		Features:      opts.Features,
		FlagThreshold: 0.5,
	}))

	p, err := scored.Float(0, "logreg_p_failure")
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)
	p, err = scored.Float(1, "logreg_p_failure")
	require.NoError(t, err)
	assert.Less(t, p, 0.5)
}

func TestApplyFlagMatchesThreshold(t *testing.T) {
	train := trainingTable(t, 30)
	opts := defaultTrainOptions()
	res, err := TrainClassifier(train, opts)
	require.NoError(t, err)

	art := &Artifact{Method: MethodLogReg, Features: opts.Features, Scaler: res.Scaler, LogReg: res.Model}
	scored := table.New("component_A", "avg_pH")
	for i := 0; i < train.Len(); i++ {
		a, _ := train.Value(i, "component_A")
		ph, _ := train.Value(i, "avg_pH")
		require.NoError(t, scored.Append([]string{a, ph}))
	}

	const threshold = 0.3
	require.NoError(t, Apply(scored, art, ApplyOptions{
		Method:        MethodLogReg,
		Features:      opts.Features,
		FlagThreshold: threshold,
	}))

	for i := 0; i < scored.Len(); i++ {
		p, err := scored.Float(i, "logreg_p_failure")
		require.NoError(t, err)
		flag, _ := scored.Value(i, "logreg_risk_flag")
		assert.Equal(t, p > threshold, flag == "true", "row %d", i)
	}
}

func TestApplyUnknownMethod(t *testing.T) {
	scored := table.New("component_A", "avg_pH")
	require.NoError(t, scored.Append([]string{"0.75", "6.8"}))
	err := Apply(scored, &Artifact{Scaler: &Scaler{Mean: []float64{0, 0}, Std: []float64{1, 1}}}, ApplyOptions{
		Method:   "svm",
		Features: []string{"component_A", "avg_pH"},
	})
	require.Error(t, err)
}
