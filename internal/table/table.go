// Package table provides an in-memory column-ordered table for batch
// analytics data, with CSV and XLSX ingestion.
package table

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Table holds rows of string cells under an ordered header. Empty cells
// represent missing values (e.g. unmatched join keys).
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates an empty table with the given column order.
func New(cols ...string) *Table {
	t := &Table{cols: append([]string(nil), cols...), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		t.index[c] = i
	}
	return t
}

// Columns returns the header in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Append adds a row. The row must have exactly one cell per column.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.cols) {
		return eris.Errorf("table: row has %d cells, want %d", len(row), len(t.cols))
	}
	t.rows = append(t.rows, append([]string(nil), row...))
	return nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Value returns the cell at (row, col). The second return is false when
// the column does not exist.
func (t *Table) Value(row int, col string) (string, bool) {
	j, ok := t.index[col]
	if !ok {
		return "", false
	}
	return t.rows[row][j], true
}

// Float parses the cell at (row, col) as a float64. An empty cell is a
// missing value and returns an error.
func (t *Table) Float(row int, col string) (float64, error) {
	s, ok := t.Value(row, col)
	if !ok {
		return 0, eris.Errorf("table: no column %q", col)
	}
	if s == "" {
		return 0, eris.Errorf("table: missing value in column %q row %d", col, row)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "table: parse %q in column %q", s, col)
	}
	return v, nil
}

// FloatColumn parses an entire column as float64s.
func (t *Table) FloatColumn(col string) ([]float64, error) {
	if !t.HasColumn(col) {
		return nil, eris.Errorf("table: no column %q", col)
	}
	out := make([]float64, t.Len())
	for i := range t.rows {
		v, err := t.Float(i, col)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Time parses the cell at (row, col) as a date. Accepts RFC 3339 and
// plain YYYY-MM-DD values.
func (t *Table) Time(row int, col string) (time.Time, error) {
	s, ok := t.Value(row, col)
	if !ok {
		return time.Time{}, eris.Errorf("table: no column %q", col)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, eris.Errorf("table: unparseable date %q in column %q", s, col)
}

// SetColumn attaches or replaces a derived column. vals must have one
// entry per row.
func (t *Table) SetColumn(name string, vals []string) error {
	if len(vals) != t.Len() {
		return eris.Errorf("table: column %q has %d values, want %d", name, len(vals), t.Len())
	}
	if j, ok := t.index[name]; ok {
		for i := range t.rows {
			t.rows[i][j] = vals[i]
		}
		return nil
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], vals[i])
	}
	return nil
}

// SetFloatColumn attaches a derived float column.
func (t *Table) SetFloatColumn(name string, vals []float64) error {
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return t.SetColumn(name, cells)
}

// SetBoolColumn attaches a derived bool column rendered as true/false.
func (t *Table) SetBoolColumn(name string, vals []bool) error {
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = strconv.FormatBool(v)
	}
	return t.SetColumn(name, cells)
}

// Project returns a new table restricted to the named columns, in the
// given order. Unknown columns are a validation error, never silently
// dropped.
func (t *Table) Project(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, ok := t.index[c]
		if !ok {
			return nil, eris.Errorf("table: project: no column %q", c)
		}
		idx[i] = j
	}
	out := New(cols...)
	for _, row := range t.rows {
		cells := make([]string, len(cols))
		for i, j := range idx {
			cells[i] = row[j]
		}
		out.rows = append(out.rows, cells)
	}
	return out, nil
}

// RequireColumns validates that every named column is present.
func (t *Table) RequireColumns(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("table: missing required columns %v", missing)
	}
	return nil
}
