package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "train", map[string]any{"seed": float64(1)}, 80)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	artifacts := []string{"output/risk_model_gmm.gob", "output/risk_model_logreg.gob"}
	require.NoError(t, s.CompleteRun(ctx, run.ID, RunStatusComplete, 80, artifacts))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "train", got.Command)
	assert.Equal(t, RunStatusComplete, got.Status)
	assert.Equal(t, 80, got.InputRows)
	assert.Equal(t, 80, got.OutputRows)
	assert.Equal(t, artifacts, got.Artifacts)
	assert.Equal(t, float64(1), got.Params["seed"])
}

func TestSQLiteStore_CompleteRun_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	err := s.CompleteRun(context.Background(), "no-such-run", RunStatusFailed, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := s.CreateRun(ctx, "spc", nil, 10)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "predict", nil, 20)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, r1.ID, RunStatusComplete, 10, nil))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	spcOnly, err := s.ListRuns(ctx, RunFilter{Command: "spc"})
	require.NoError(t, err)
	require.Len(t, spcOnly, 1)
	assert.Equal(t, r1.ID, spcOnly[0].ID)

	running, err := s.ListRuns(ctx, RunFilter{Status: RunStatusRunning})
	require.NoError(t, err)
	assert.Len(t, running, 1)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}
