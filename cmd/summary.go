package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/batchsight/internal/dataset"
	"github.com/sells-group/batchsight/internal/report"
	"github.com/sells-group/batchsight/internal/store"
)

var (
	summaryBatchCSV  string
	summaryQCCSV     string
	summaryCOACSV    string
	summaryStatusCol string
	summaryTitle     string
	summaryOutDir    string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Merge batch, QC and COA tables into a Markdown report",
	Long: `Left-joins QC results and COA data onto the batch log so no batch is
dropped, then writes a Markdown report with one section per batch and
header counts of aborted and missing-status batches.

Example:
  batchsight summary --batch batch_log.csv --qc qc_data.csv --coa coa.csv --status-column status`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batchPath := firstOf(summaryBatchCSV, cfg.Data.BatchCSV)
		qcPath := firstOf(summaryQCCSV, cfg.Data.QCCSV)
		coaPath := firstOf(summaryCOACSV, cfg.Data.COACSV)
		if batchPath == "" || qcPath == "" || coaPath == "" {
			return eris.New("summary: batch, qc and coa inputs are all required (flags or config)")
		}
		outDir := firstOf(summaryOutDir, cfg.Data.OutputDir)
		if err := ensureDir(outDir); err != nil {
			return err
		}

		batch, err := loadInput(batchPath, dataset.KeyBatchID, dataset.KeySupplierLot)
		if err != nil {
			return eris.Wrap(err, "summary: load batch log")
		}
		qc, err := loadInput(qcPath, dataset.KeyBatchID)
		if err != nil {
			return eris.Wrap(err, "summary: load qc results")
		}
		coa, err := loadInput(coaPath, dataset.KeySupplierLot)
		if err != nil {
			return eris.Wrap(err, "summary: load coa data")
		}

		// Summary keeps every batch, matched or not.
		merged, err := dataset.Merge(batch, qc, coa, dataset.MergeOptions{QCJoin: dataset.JoinLeft})
		if err != nil {
			return err
		}

		rec := startRun(ctx, "summary", map[string]any{
			"batch": batchPath,
			"rows":  merged.Len(),
		}, batch.Len())

		reportPath := filepath.Join(outDir, "batch_summary.md")
		if err := report.WriteSummary(merged, reportPath, report.SummaryOptions{
			Title:     summaryTitle,
			StatusCol: summaryStatusCol,
		}); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		rec.finish(store.RunStatusComplete, merged.Len(), []string{reportPath})

		fmt.Printf("Wrote summary for %d batches to %s\n", merged.Len(), reportPath)
		return nil
	},
}

func init() {
	f := summaryCmd.Flags()
	f.StringVar(&summaryBatchCSV, "batch", "", "batch log CSV (overrides config)")
	f.StringVar(&summaryQCCSV, "qc", "", "QC results CSV (overrides config)")
	f.StringVar(&summaryCOACSV, "coa", "", "COA data CSV (overrides config)")
	f.StringVar(&summaryStatusCol, "status-column", "status", "status column for aborted/missing counts")
	f.StringVar(&summaryTitle, "title", "", "report title")
	f.StringVar(&summaryOutDir, "output-dir", "", "output directory (overrides config)")

	rootCmd.AddCommand(summaryCmd)
}
