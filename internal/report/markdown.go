// Package report renders batch summaries to Markdown and flagged data
// to CSV.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/table"
)

// SummaryOptions configures the Markdown batch summary.
type SummaryOptions struct {
	Title     string // default "Batch Summary Report"
	BatchCol  string // section key column, default batch_id
	StatusCol string // optional status column for aborted/missing counts
}

// WriteSummary renders one H2 section per row with a bullet per field,
// preceded by header totals. When a status column is configured, rows
// whose status contains "abort" (case-insensitive) and rows with an
// empty status are counted in the header.
func WriteSummary(t *table.Table, path string, opts SummaryOptions) error {
	if opts.Title == "" {
		opts.Title = "Batch Summary Report"
	}
	if opts.BatchCol == "" {
		opts.BatchCol = "batch_id"
	}
	if err := t.RequireColumns(opts.BatchCol); err != nil {
		return eris.Wrap(err, "report: summary")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", opts.Title)
	fmt.Fprintf(&b, "- **total_batches**: %d\n", t.Len())

	if opts.StatusCol != "" && t.HasColumn(opts.StatusCol) {
		var aborted, missing int
		for i := 0; i < t.Len(); i++ {
			status, _ := t.Value(i, opts.StatusCol)
			switch {
			case status == "":
				missing++
			case strings.Contains(strings.ToLower(status), "abort"):
				aborted++
			}
		}
		fmt.Fprintf(&b, "- **aborted**: %d\n", aborted)
		fmt.Fprintf(&b, "- **missing_status**: %d\n", missing)
	}
	b.WriteString("\n")

	cols := t.Columns()
	for i := 0; i < t.Len(); i++ {
		id, _ := t.Value(i, opts.BatchCol)
		fmt.Fprintf(&b, "## %s\n\n", id)
		for _, c := range cols {
			if c == opts.BatchCol {
				continue
			}
			v, _ := t.Value(i, c)
			if v == "" {
				v = "n/a"
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", c, v)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrapf(err, "report: write summary %s", path)
	}
	zap.L().Info("report: wrote summary",
		zap.String("path", path),
		zap.Int("batches", t.Len()),
	)
	return nil
}
