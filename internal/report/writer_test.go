package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/batchsight/internal/table"
)

func TestWriteFlagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flagged.csv")
	require.NoError(t, WriteFlagged([]float64{1.5, 99}, []bool{false, true}, path))

	back, err := table.ReadCSV(path, "value", "outlier")
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())

	v, _ := back.Value(1, "outlier")
	assert.Equal(t, "true", v)
}

func TestWriteFlaggedLengthMismatch(t *testing.T) {
	err := WriteFlagged([]float64{1, 2}, []bool{true}, filepath.Join(t.TempDir(), "f.csv"))
	require.Error(t, err)
}

func TestSaveTableOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	first := table.New("a")
	require.NoError(t, first.Append([]string{"1"}))
	require.NoError(t, SaveTable(first, path, false))

	second := table.New("a")
	require.NoError(t, second.Append([]string{"2"}))

	// Without overwrite, the existing file survives.
	require.NoError(t, SaveTable(second, path, false))
	back, err := table.ReadCSV(path)
	require.NoError(t, err)
	v, _ := back.Value(0, "a")
	assert.Equal(t, "1", v)

	// With overwrite it is replaced.
	require.NoError(t, SaveTable(second, path, true))
	back, err = table.ReadCSV(path)
	require.NoError(t, err)
	v, _ = back.Value(0, "a")
	assert.Equal(t, "2", v)
}
