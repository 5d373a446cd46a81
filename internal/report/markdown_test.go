package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/batchsight/internal/table"
)

func summaryInput(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("batch_id", "status", "viability_pct")
	for _, row := range [][]string{
		{"B001", "complete", "85"},
		{"B002", "Aborted", "40"},
		{"B003", "", ""},
	} {
		require.NoError(t, tbl.Append(row))
	}
	return tbl
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, WriteSummary(summaryInput(t), path, SummaryOptions{StatusCol: "status"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "# Batch Summary Report")
	assert.Contains(t, md, "- **total_batches**: 3")
	assert.Contains(t, md, "- **aborted**: 1")
	assert.Contains(t, md, "- **missing_status**: 1")
	assert.Contains(t, md, "## B001")
	assert.Contains(t, md, "- **viability_pct**: 85")
	// Empty cells render as n/a.
	assert.Contains(t, md, "- **viability_pct**: n/a")
}

func TestWriteSummaryCustomTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, WriteSummary(summaryInput(t), path, SummaryOptions{Title: "Week 12 Batches"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "# Week 12 Batches")
	// No status column configured, no status counts.
	assert.NotContains(t, md, "aborted")
}

func TestWriteSummaryMissingBatchColumn(t *testing.T) {
	tbl := table.New("not_batch_id")
	require.NoError(t, tbl.Append([]string{"x"}))
	err := WriteSummary(tbl, filepath.Join(t.TempDir(), "s.md"), SummaryOptions{})
	require.Error(t, err)
}
