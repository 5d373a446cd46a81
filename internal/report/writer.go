package report

import (
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/table"
)

// WriteFlagged exports a measurement series with its outlier flags as
// a two-column CSV (value, outlier).
func WriteFlagged(values []float64, flags []bool, path string) error {
	if len(values) != len(flags) {
		return eris.Errorf("report: %d values but %d flags", len(values), len(flags))
	}
	t := table.New("value", "outlier")
	for i, v := range values {
		row := []string{
			strconv.FormatFloat(v, 'g', -1, 64),
			strconv.FormatBool(flags[i]),
		}
		if err := t.Append(row); err != nil {
			return err
		}
	}
	return t.WriteCSV(path)
}

// SaveTable writes a table to CSV, honoring the overwrite flag. When
// overwrite is false and the file exists, the export is skipped with a
// warning instead of clobbering the previous run's output.
func SaveTable(t *table.Table, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			zap.L().Warn("report: output exists and overwrite is disabled, skipping",
				zap.String("path", path),
			)
			return nil
		}
	}
	return t.WriteCSV(path)
}
