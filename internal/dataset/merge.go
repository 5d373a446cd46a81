// Package dataset joins batch, QC and COA tables and maintains the
// cumulative batch history log.
package dataset

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/table"
)

// Join key columns shared across the three source tables.
const (
	KeyBatchID     = "batch_id"
	KeySupplierLot = "supplier_lot"
)

// JoinType selects how the batch table joins against QC results.
// Training flows historically used an inner join, summary flows a left
// join; the choice is explicit configuration here.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
)

// MergeOptions configures the three-way merge.
type MergeOptions struct {
	QCJoin JoinType // join type for batch against QC (default inner)
}

// Merge joins batch with qc on batch_id, then the result with coa on
// supplier_lot. The COA join is always left: unmatched supplier lots
// keep empty certificate fields and never drop rows. Each batch row
// contributes at most one output row; duplicate keys on the right side
// resolve to the first occurrence.
func Merge(batch, qc, coa *table.Table, opts MergeOptions) (*table.Table, error) {
	if opts.QCJoin == "" {
		opts.QCJoin = JoinInner
	}
	if opts.QCJoin != JoinInner && opts.QCJoin != JoinLeft {
		return nil, eris.Errorf("dataset: unknown qc join type %q (want inner or left)", opts.QCJoin)
	}

	merged, err := join(batch, qc, KeyBatchID, opts.QCJoin)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: merge batch with qc")
	}
	merged, err = join(merged, coa, KeySupplierLot, JoinLeft)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: merge with coa")
	}

	zap.L().Info("dataset: merged",
		zap.Int("batch_rows", batch.Len()),
		zap.Int("merged_rows", merged.Len()),
		zap.String("qc_join", string(opts.QCJoin)),
	)
	return merged, nil
}

// MergeCOA left-joins COA data into t on supplier_lot. Scoring flows
// use this when no QC results exist yet for the batches at hand.
func MergeCOA(t, coa *table.Table) (*table.Table, error) {
	merged, err := join(t, coa, KeySupplierLot, JoinLeft)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: merge with coa")
	}
	return merged, nil
}

// join merges right into left on the named key column. Right-side
// columns other than the key are appended to the output header; on a
// left join, unmatched keys produce empty cells.
func join(left, right *table.Table, key string, jt JoinType) (*table.Table, error) {
	if !left.HasColumn(key) {
		return nil, eris.Errorf("dataset: left table has no key column %q", key)
	}
	if !right.HasColumn(key) {
		return nil, eris.Errorf("dataset: right table has no key column %q", key)
	}

	var rightCols []string
	for _, c := range right.Columns() {
		if c != key && !left.HasColumn(c) {
			rightCols = append(rightCols, c)
		}
	}

	// First occurrence wins so each left row maps to at most one right row.
	lookup := make(map[string][]string, right.Len())
	for i := 0; i < right.Len(); i++ {
		k, _ := right.Value(i, key)
		if _, seen := lookup[k]; seen {
			continue
		}
		cells := make([]string, len(rightCols))
		for j, c := range rightCols {
			cells[j], _ = right.Value(i, c)
		}
		lookup[k] = cells
	}

	out := table.New(append(left.Columns(), rightCols...)...)
	for i := 0; i < left.Len(); i++ {
		k, _ := left.Value(i, key)
		match, ok := lookup[k]
		if !ok {
			if jt == JoinInner {
				continue
			}
			match = make([]string, len(rightCols))
		}
		if err := out.Append(append(left.Row(i), match...)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
