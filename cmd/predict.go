package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/chart"
	"github.com/sells-group/batchsight/internal/dataset"
	"github.com/sells-group/batchsight/internal/report"
	"github.com/sells-group/batchsight/internal/risk"
	"github.com/sells-group/batchsight/internal/store"
	"github.com/sells-group/batchsight/internal/table"
)

var (
	predictBatchCSV string
	predictCOACSV   string
	predictStrategy string
	predictModelDir string
	predictOutDir   string
	predictDateCol  string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score new batches for failure risk",
	Long: `Scores a batch file against one of three risk strategies:

  rule    fixed specification limits on component_A and avg_pH
  gmm     trained Gaussian mixture plus its cluster failure map
  logreg  trained logistic regression classifier

COA data, when provided, is left-joined on supplier_lot so unmatched
lots keep empty certificate fields. Scored rows are appended to the
cumulative history log and plotted as a risk trend.

Examples:
  batchsight predict --batch new_batches.csv
  batchsight predict --batch new_batches.csv --coa coa.csv --strategy gmm`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batchPath := firstOf(predictBatchCSV, cfg.Data.BatchCSV)
		if batchPath == "" {
			return eris.New("predict: batch input is required (--batch or data.batch_csv)")
		}
		strategy := risk.Method(firstOf(predictStrategy, cfg.Risk.Strategy))
		modelDir := firstOf(predictModelDir, cfg.Data.ModelDir)
		outDir := firstOf(predictOutDir, cfg.Data.OutputDir)
		if err := ensureDir(outDir); err != nil {
			return err
		}

		t, err := loadInput(batchPath, dataset.KeyBatchID)
		if err != nil {
			return eris.Wrap(err, "predict: load batch input")
		}

		coaPath := firstOf(predictCOACSV, cfg.Data.COACSV)
		if coaPath != "" {
			coa, err := loadInput(coaPath, dataset.KeySupplierLot)
			if err != nil {
				return eris.Wrap(err, "predict: load coa data")
			}
			t, err = dataset.MergeCOA(t, coa)
			if err != nil {
				return err
			}
		}

		rec := startRun(ctx, "predict", map[string]any{
			"input":    batchPath,
			"strategy": string(strategy),
			"rows":     t.Len(),
		}, t.Len())

		if err := scoreTable(t, strategy, modelDir); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}

		scoredPath := filepath.Join(outDir, "scored_batches.csv")
		trendPath := filepath.Join(outDir, "risk_trend.png")
		artifacts := []string{scoredPath}

		if err := report.SaveTable(t, scoredPath, true); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}

		histCols := historyColumns(t, strategy)
		if err := dataset.AppendHistory(t, cfg.Data.HistoryLog, histCols); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		artifacts = append(artifacts, cfg.Data.HistoryLog)

		if err := writeTrendChart(t, strategy, trendPath); err != nil {
			zap.L().Warn("predict: trend chart skipped", zap.Error(err))
		} else {
			artifacts = append(artifacts, trendPath)
		}

		rec.finish(store.RunStatusComplete, t.Len(), artifacts)

		flagCol := risk.RiskFlagColumn(strategy)
		var flagged int
		for i := 0; i < t.Len(); i++ {
			if v, _ := t.Value(i, flagCol); v == "true" {
				flagged++
			}
		}
		fmt.Printf("Scored %d batches with strategy %s; %d flagged.\n", t.Len(), strategy, flagged)
		fmt.Printf("Scored table: %s\nHistory log:  %s\n", scoredPath, cfg.Data.HistoryLog)
		return nil
	},
}

// scoreTable attaches p_failure and risk_flag columns for the chosen
// strategy, loading trained artifacts when the strategy needs them.
func scoreTable(t *table.Table, strategy risk.Method, modelDir string) error {
	switch strategy {
	case risk.MethodRule:
		return risk.ApplyRule(t)

	case risk.MethodGMM:
		art, err := risk.LoadArtifact(risk.ArtifactPath(modelDir, risk.GMMArtifactFile))
		if err != nil {
			return err
		}
		cm, err := risk.LoadClusterMap(risk.ArtifactPath(modelDir, risk.ClusterMapFile))
		if err != nil {
			return err
		}
		return risk.Apply(t, art, risk.ApplyOptions{
			Method:        risk.MethodGMM,
			Features:      art.Features,
			FlagThreshold: cfg.Risk.FlagThreshold,
			ClusterMap:    cm,
		})

	case risk.MethodLogReg:
		art, err := risk.LoadArtifact(risk.ArtifactPath(modelDir, risk.LogRegArtifactFile))
		if err != nil {
			return err
		}
		return risk.Apply(t, art, risk.ApplyOptions{
			Method:        risk.MethodLogReg,
			Features:      art.Features,
			FlagThreshold: cfg.Risk.FlagThreshold,
		})

	default:
		return eris.Errorf("predict: unknown strategy %q (want rule, gmm or logreg)", strategy)
	}
}

// historyColumns picks what goes into the cumulative log: the batch
// key, the date column when present, the score columns, and the gmm
// cluster assignment when scored by the mixture.
func historyColumns(t *table.Table, strategy risk.Method) []string {
	cols := []string{dataset.KeyBatchID}
	if t.HasColumn(predictDateCol) {
		cols = append(cols, predictDateCol)
	}
	for _, f := range cfg.Risk.Features {
		if t.HasColumn(f) {
			cols = append(cols, f)
		}
	}
	if strategy == risk.MethodGMM && t.HasColumn(risk.ColGMMCluster) {
		cols = append(cols, risk.ColGMMCluster)
	}
	return append(cols, risk.PFailureColumn(strategy), risk.RiskFlagColumn(strategy))
}

func writeTrendChart(t *table.Table, strategy risk.Method, path string) error {
	if !t.HasColumn(predictDateCol) {
		return eris.Errorf("no %q column for trend chart", predictDateCol)
	}
	points := make([]chart.TrendPoint, 0, t.Len())
	pCol := risk.PFailureColumn(strategy)
	fCol := risk.RiskFlagColumn(strategy)
	for i := 0; i < t.Len(); i++ {
		date, err := t.Time(i, predictDateCol)
		if err != nil {
			return err
		}
		p, err := t.Float(i, pCol)
		if err != nil {
			return err
		}
		flag, _ := t.Value(i, fCol)
		points = append(points, chart.TrendPoint{Date: date, PFailure: p, Flagged: flag == "true"})
	}
	return chart.RiskTrend(points, path, chart.TrendOptions{Threshold: cfg.Risk.FlagThreshold})
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictBatchCSV, "batch", "", "batch CSV or XLSX to score (overrides config)")
	f.StringVar(&predictCOACSV, "coa", "", "COA data CSV to left-join on supplier_lot (overrides config)")
	f.StringVar(&predictStrategy, "strategy", "", "scoring strategy: rule, gmm or logreg (overrides config)")
	f.StringVar(&predictModelDir, "model-dir", "", "directory holding trained artifacts (overrides config)")
	f.StringVar(&predictOutDir, "output-dir", "", "output directory (overrides config)")
	f.StringVar(&predictDateCol, "date-column", "date", "date column for the risk trend chart")

	rootCmd.AddCommand(predictCmd)
}
