package dataset

import (
	"encoding/csv"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Defect is one spatially located defect observation from an
// inspection export.
type Defect struct {
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Type     string  `csv:"type"`
	Severity float64 `csv:"severity"`
}

// LoadDefects reads a defect map CSV. All four columns (x, y, type,
// severity) are required.
func LoadDefects(path string) ([]Defect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "defects: open %s", path)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, eris.Wrapf(err, "defects: read header of %s", path)
	}
	dec.DisallowMissingColumns = true

	var defects []Defect
	if err := dec.Decode(&defects); err != nil {
		return nil, eris.Wrapf(err, "defects: decode %s", path)
	}

	zap.L().Info("defects: loaded",
		zap.String("path", path),
		zap.Int("rows", len(defects)),
	)
	return defects, nil
}

// DefectTypes returns the distinct defect types in first-seen order.
func DefectTypes(defects []Defect) []string {
	seen := make(map[string]bool)
	var types []string
	for _, d := range defects {
		if !seen[d.Type] {
			seen[d.Type] = true
			types = append(types, d.Type)
		}
	}
	return types
}
