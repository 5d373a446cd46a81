package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defects.csv")
	data := "x,y,type,severity\n1.5,2.5,scratch,3\n-0.5,4.0,particle,1\n2.0,2.0,scratch,2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	defects, err := LoadDefects(path)
	require.NoError(t, err)
	require.Len(t, defects, 3)

	assert.Equal(t, Defect{X: 1.5, Y: 2.5, Type: "scratch", Severity: 3}, defects[0])
	assert.Equal(t, "particle", defects[1].Type)
}

func TestLoadDefectsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defects.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y,type\n1,2,scratch\n"), 0o644))

	_, err := LoadDefects(path)
	require.Error(t, err)
}

func TestDefectTypes(t *testing.T) {
	defects := []Defect{
		{Type: "scratch"},
		{Type: "particle"},
		{Type: "scratch"},
		{Type: "void"},
	}
	assert.Equal(t, []string{"scratch", "particle", "void"}, DefectTypes(defects))
}
