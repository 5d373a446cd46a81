package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/batchsight/internal/table"
)

func makeBatch(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("batch_id", "supplier_lot", "component_A")
	for _, row := range [][]string{
		{"B001", "L01", "0.72"},
		{"B002", "L02", "0.65"},
		{"B003", "L03", "0.80"},
	} {
		require.NoError(t, tbl.Append(row))
	}
	return tbl
}

func makeQC(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("batch_id", "viability_pct")
	for _, row := range [][]string{
		{"B001", "85"},
		{"B003", "55"},
	} {
		require.NoError(t, tbl.Append(row))
	}
	return tbl
}

func makeCOA(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("supplier_lot", "purity")
	for _, row := range [][]string{
		{"L01", "99.2"},
		{"L02", "98.7"},
	} {
		require.NoError(t, tbl.Append(row))
	}
	return tbl
}

func TestMergeInner(t *testing.T) {
	merged, err := Merge(makeBatch(t), makeQC(t), makeCOA(t), MergeOptions{QCJoin: JoinInner})
	require.NoError(t, err)

	// Inner join drops B002, which has no QC row.
	assert.Equal(t, 2, merged.Len())
	id, _ := merged.Value(0, "batch_id")
	assert.Equal(t, "B001", id)

	// COA join is left: B003's lot L03 has no certificate, cells stay empty.
	purity, _ := merged.Value(1, "purity")
	assert.Equal(t, "", purity)
}

func TestMergeLeft(t *testing.T) {
	merged, err := Merge(makeBatch(t), makeQC(t), makeCOA(t), MergeOptions{QCJoin: JoinLeft})
	require.NoError(t, err)

	// Left join keeps every batch row.
	assert.Equal(t, 3, merged.Len())
	v, _ := merged.Value(1, "viability_pct")
	assert.Equal(t, "", v)
}

func TestMergeDefaultsToInner(t *testing.T) {
	merged, err := Merge(makeBatch(t), makeQC(t), makeCOA(t), MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Len())
}

func TestMergeUnknownJoin(t *testing.T) {
	_, err := Merge(makeBatch(t), makeQC(t), makeCOA(t), MergeOptions{QCJoin: "outer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outer")
}

func TestMergeMissingKeyColumn(t *testing.T) {
	qc := table.New("not_batch_id", "viability_pct")
	_, err := Merge(makeBatch(t), qc, makeCOA(t), MergeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_id")
}

func TestMergeDuplicateRightKeys(t *testing.T) {
	qc := table.New("batch_id", "viability_pct")
	require.NoError(t, qc.Append([]string{"B001", "85"}))
	require.NoError(t, qc.Append([]string{"B001", "20"}))

	merged, err := Merge(makeBatch(t), qc, makeCOA(t), MergeOptions{QCJoin: JoinInner})
	require.NoError(t, err)

	// Each left row maps to at most one output row; first occurrence wins.
	assert.Equal(t, 1, merged.Len())
	v, _ := merged.Value(0, "viability_pct")
	assert.Equal(t, "85", v)
}

func TestMergeCOA(t *testing.T) {
	merged, err := MergeCOA(makeBatch(t), makeCOA(t))
	require.NoError(t, err)

	assert.Equal(t, 3, merged.Len())
	purity, _ := merged.Value(0, "purity")
	assert.Equal(t, "99.2", purity)
	purity, _ = merged.Value(2, "purity")
	assert.Equal(t, "", purity)
}
