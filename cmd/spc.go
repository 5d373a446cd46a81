package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/chart"
	"github.com/sells-group/batchsight/internal/report"
	"github.com/sells-group/batchsight/internal/stats"
	"github.com/sells-group/batchsight/internal/store"
)

var (
	spcInput     string
	spcColumn    string
	spcMethod    string
	spcThreshold float64
	spcOutDir    string
)

var spcCmd = &cobra.Command{
	Use:   "spc",
	Short: "SPC summary for one measurement column",
	Long: `Computes mean, standard deviation and three-sigma control limits for
a numeric column of a CSV or XLSX file, flags outliers (z-score or
IQR), and writes a flagged-data CSV plus a control chart PNG.

Examples:
  # Default z-score detection at 3 sigma
  batchsight spc --input thickness.csv --column Thickness_nm

  # IQR fences at 1.5x
  batchsight spc --input thickness.csv --column Thickness_nm --method iqr --threshold 1.5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		column := spcColumn
		if column == "" {
			column = cfg.SPC.ValueColumn
		}
		if column == "" {
			return eris.New("spc: no value column configured (--column or spc.value_column)")
		}
		method := spcMethod
		if method == "" {
			method = cfg.SPC.OutlierMethod
		}
		threshold := spcThreshold
		if threshold == 0 {
			threshold = cfg.SPC.OutlierThreshold
		}
		outDir := spcOutDir
		if outDir == "" {
			outDir = cfg.Data.OutputDir
		}
		if err := ensureDir(outDir); err != nil {
			return err
		}

		t, err := loadInput(spcInput, column)
		if err != nil {
			return eris.Wrap(err, "spc: load input")
		}
		values, err := t.FloatColumn(column)
		if err != nil {
			return eris.Wrap(err, "spc: read values")
		}

		rec := startRun(ctx, "spc", map[string]any{
			"input":     spcInput,
			"column":    column,
			"method":    method,
			"threshold": threshold,
		}, len(values))

		metrics, err := stats.SPCMetrics(values)
		if err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		outliers, err := stats.DetectOutliers(values, stats.OutlierMethod(method), threshold)
		if err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}

		flaggedPath := filepath.Join(outDir, "flagged_data.csv")
		chartPath := filepath.Join(outDir, "control_chart.png")
		if err := report.WriteFlagged(values, outliers, flaggedPath); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		if err := chart.ControlChart(values, metrics, outliers, chartPath); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}

		var flagged int
		for _, bad := range outliers {
			if bad {
				flagged++
			}
		}
		rec.finish(store.RunStatusComplete, len(values), []string{flaggedPath, chartPath})

		zap.L().Info("spc: complete",
			zap.Int("samples", len(values)),
			zap.Int("outliers", flagged),
		)
		fmt.Printf("Summary Statistics (%s):\n", column)
		fmt.Printf("  mean: %.3f\n  std:  %.3f\n  min:  %.3f\n  max:  %.3f\n  UCL:  %.3f\n  LCL:  %.3f\n",
			metrics.Mean, metrics.Std, metrics.Min, metrics.Max, metrics.UCL, metrics.LCL)
		fmt.Printf("Outliers detected: %d\n", flagged)
		return nil
	},
}

func init() {
	f := spcCmd.Flags()
	f.StringVar(&spcInput, "input", "", "input CSV or XLSX file (required)")
	f.StringVar(&spcColumn, "column", "", "numeric column to analyze (overrides config)")
	f.StringVar(&spcMethod, "method", "", "outlier method: zscore or iqr (overrides config)")
	f.Float64Var(&spcThreshold, "threshold", 0, "outlier threshold (overrides config)")
	f.StringVar(&spcOutDir, "output-dir", "", "output directory (overrides config)")
	_ = spcCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(spcCmd)
}
