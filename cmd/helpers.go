package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/store"
	"github.com/sells-group/batchsight/internal/table"
)

// openStore builds the run registry from config.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Store.DatabaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "create store dir %s", dir)
			}
		}
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q (want sqlite or postgres)", cfg.Store.Driver)
	}
}

// runRecorder tracks one CLI invocation in the run registry. Registry
// failures are logged and swallowed: the analysis output matters more
// than the audit row.
type runRecorder struct {
	st  store.Store
	run *store.Run
	ctx context.Context
}

func startRun(ctx context.Context, command string, params map[string]any, inputRows int) *runRecorder {
	r := &runRecorder{ctx: ctx}
	st, err := openStore(ctx)
	if err != nil {
		zap.L().Warn("run registry unavailable", zap.Error(err))
		return r
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run registry migrate failed", zap.Error(err))
		st.Close()
		return r
	}
	run, err := st.CreateRun(ctx, command, params, inputRows)
	if err != nil {
		zap.L().Warn("run registry create failed", zap.Error(err))
		st.Close()
		return r
	}
	r.st, r.run = st, run
	return r
}

func (r *runRecorder) finish(status store.RunStatus, outputRows int, artifacts []string) {
	if r.st == nil {
		return
	}
	defer r.st.Close()
	if err := r.st.CompleteRun(r.ctx, r.run.ID, status, outputRows, artifacts); err != nil {
		zap.L().Warn("run registry complete failed", zap.Error(err))
	}
}

// loadInput reads a tabular input, dispatching on file extension: CSV
// by default, XLSX for .xls/.xlsx.
func loadInput(path string, required ...string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return table.ReadXLSX(path, table.XLSXOptions{}, required...)
	default:
		return table.ReadCSV(path, required...)
	}
}

// firstOf returns the first non-empty value, for flag-over-config
// resolution.
func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ensureDir creates the directory for the given output path.
func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return eris.Wrapf(os.MkdirAll(dir, 0o755), "create output dir %s", dir)
}
