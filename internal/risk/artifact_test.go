package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactRoundTrip(t *testing.T) {
	train := trainingTable(t, 20)
	opts := defaultTrainOptions()
	res, err := TrainClassifier(train, opts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), LogRegArtifactFile)
	art := &Artifact{Method: MethodLogReg, Features: opts.Features, Scaler: res.Scaler, LogReg: res.Model}
	require.NoError(t, SaveArtifact(art, path))

	back, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, MethodLogReg, back.Method)
	assert.Equal(t, opts.Features, back.Features)
	assert.Equal(t, res.Model.Intercept, back.LogReg.Intercept)
	assert.Equal(t, res.Model.Coef, back.LogReg.Coef)
	assert.Equal(t, res.Scaler.Mean, back.Scaler.Mean)
	assert.Nil(t, back.GMM)
}

func TestLoadArtifactMissing(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "nope.gob"))
	require.Error(t, err)
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), MetadataFile)
	meta := Metadata{
		FeaturesUsed:   []string{"component_A", "avg_pH"},
		LogregAUC:      0.93,
		LogregAccuracy: 0.88,
	}
	require.NoError(t, SaveMetadata(meta, path))

	back, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, meta, back)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"features_used"`)
	assert.Contains(t, string(data), `"logreg_auc"`)
}

func TestClusterMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ClusterMapFile)
	cm := ClusterMap{0: 0.125, 1: 0.875}
	require.NoError(t, SaveClusterMap(cm, path))

	back, err := LoadClusterMap(path)
	require.NoError(t, err)
	assert.Equal(t, cm, back)
}

func TestLoadClusterMapBadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not_an_int": 0.5}`), 0o644))

	_, err := LoadClusterMap(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_an_int")
}
