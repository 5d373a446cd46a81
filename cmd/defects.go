package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/batchsight/internal/chart"
	"github.com/sells-group/batchsight/internal/dataset"
	"github.com/sells-group/batchsight/internal/store"
)

var (
	defectsInput  string
	defectsOutDir string
)

var defectsCmd = &cobra.Command{
	Use:   "defects",
	Short: "Render a spatial defect map from wafer inspection data",
	Long: `Reads a defect inspection CSV (x, y, type, severity) and plots
defect positions colored by type.

Example:
  batchsight defects --input wafer_defects.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input := firstOf(defectsInput, cfg.Data.DefectsCSV)
		if input == "" {
			return eris.New("defects: input is required (--input or data.defects_csv)")
		}
		outDir := firstOf(defectsOutDir, cfg.Data.OutputDir)
		if err := ensureDir(outDir); err != nil {
			return err
		}

		defects, err := dataset.LoadDefects(input)
		if err != nil {
			return err
		}

		rec := startRun(ctx, "defects", map[string]any{
			"input": input,
		}, len(defects))

		mapPath := filepath.Join(outDir, "defect_map.png")
		if err := chart.SpatialMap(defects, mapPath); err != nil {
			rec.finish(store.RunStatusFailed, 0, nil)
			return err
		}
		rec.finish(store.RunStatusComplete, len(defects), []string{mapPath})

		types := dataset.DefectTypes(defects)
		fmt.Printf("Plotted %d defects across %d types to %s\n", len(defects), len(types), mapPath)
		return nil
	},
}

func init() {
	f := defectsCmd.Flags()
	f.StringVar(&defectsInput, "input", "", "defect inspection CSV (overrides config)")
	f.StringVar(&defectsOutDir, "output-dir", "", "output directory (overrides config)")

	rootCmd.AddCommand(defectsCmd)
}
