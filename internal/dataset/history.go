package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/table"
)

// AppendHistory appends the named columns of t to the cumulative CSV
// log at path, creating the file when absent. Existing rows are read
// back, the new rows concatenated, and the whole file rewritten.
//
// There is no deduplication on batch_id: scoring the same batch twice
// produces two history rows. Concurrent runs against the same log are
// last-writer-wins; nothing here takes a lock.
func AppendHistory(t *table.Table, path string, columns []string) error {
	newRows, err := t.Project(columns...)
	if err != nil {
		return eris.Wrap(err, "history: project columns")
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if err := newRows.WriteCSV(path); err != nil {
			return eris.Wrap(err, "history: create log")
		}
		zap.L().Info("history: created log",
			zap.String("path", path),
			zap.Int("rows", newRows.Len()),
		)
		return nil
	}

	existing, err := table.ReadCSV(path)
	if err != nil {
		return eris.Wrap(err, "history: read existing log")
	}

	combined, err := concat(existing, newRows)
	if err != nil {
		return eris.Wrap(err, "history: concat")
	}
	if err := combined.WriteCSV(path); err != nil {
		return eris.Wrap(err, "history: rewrite log")
	}

	zap.L().Info("history: appended",
		zap.String("path", path),
		zap.Int("new_rows", newRows.Len()),
		zap.Int("total_rows", combined.Len()),
	)
	return nil
}

// concat stacks b under a. The combined header is a's columns followed
// by any of b's columns a lacks; absent cells stay empty.
func concat(a, b *table.Table) (*table.Table, error) {
	cols := a.Columns()
	for _, c := range b.Columns() {
		if !a.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	out := table.New(cols...)
	for _, src := range []*table.Table{a, b} {
		for i := 0; i < src.Len(); i++ {
			cells := make([]string, len(cols))
			for j, c := range cols {
				if v, ok := src.Value(i, c); ok {
					cells[j] = v
				}
			}
			if err := out.Append(cells); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
