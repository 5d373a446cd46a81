package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.Data.OutputDir)
	assert.Equal(t, "output/batch_history_log.csv", cfg.Data.HistoryLog)
	assert.Equal(t, "inner", cfg.Merge.QCJoin)
	assert.Equal(t, "logreg", cfg.Risk.Strategy)
	assert.Equal(t, []string{"component_A", "avg_pH"}, cfg.Risk.Features)
	assert.Equal(t, "viability_pct", cfg.Risk.TargetCol)
	assert.InDelta(t, 70.0, cfg.Risk.FailThreshold, 0.001)
	assert.InDelta(t, 0.5, cfg.Risk.FlagThreshold, 0.001)
	assert.Equal(t, 2, cfg.Risk.Clusters)
	assert.Equal(t, int64(1), cfg.Risk.Seed)
	assert.Equal(t, "zscore", cfg.SPC.OutlierMethod)
	assert.InDelta(t, 3.0, cfg.SPC.OutlierThreshold, 0.001)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
data:
  batch_csv: inputs/batches.csv
merge:
  qc_join: left
risk:
  strategy: gmm
  clusters: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "inputs/batches.csv", cfg.Data.BatchCSV)
	assert.Equal(t, "left", cfg.Merge.QCJoin)
	assert.Equal(t, "gmm", cfg.Risk.Strategy)
	assert.Equal(t, 3, cfg.Risk.Clusters)
	// Untouched keys keep their defaults.
	assert.Equal(t, "viability_pct", cfg.Risk.TargetCol)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BATCHSIGHT_RISK_STRATEGY", "rule")
	t.Setenv("BATCHSIGHT_MERGE_QC_JOIN", "left")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rule", cfg.Risk.Strategy)
	assert.Equal(t, "left", cfg.Merge.QCJoin)
}

func TestWriteDefault(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "qc_join: inner")
	assert.Contains(t, string(data), "strategy: logreg")

	// Never clobbers an existing file.
	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
}
