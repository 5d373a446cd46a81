package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeTestWorkbook(t, "Sheet1", [][]string{
		{"batch_id", "thickness"},
		{"B001", "102.5"},
		{"B002", "98.1"},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{}, "batch_id", "thickness")
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	v, _ := tbl.Value(1, "thickness")
	assert.Equal(t, "98.1", v)
}

func TestReadXLSXByName(t *testing.T) {
	path := writeTestWorkbook(t, "Measurements", [][]string{
		{"x"},
		{"1"},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{SheetName: "Measurements"})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
}

func TestReadXLSXShortRows(t *testing.T) {
	path := writeTestWorkbook(t, "Sheet1", [][]string{
		{"a", "b", "c"},
		{"1", "2"},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	v, _ := tbl.Value(0, "c")
	assert.Equal(t, "", v)
}

func TestReadXLSXMissingRequired(t *testing.T) {
	path := writeTestWorkbook(t, "Sheet1", [][]string{
		{"a"},
		{"1"},
	})

	_, err := ReadXLSX(path, XLSXOptions{}, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
}
