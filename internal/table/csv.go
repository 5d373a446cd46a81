package table

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // comment character (0 = none)
	TrimSpace bool
}

// ReadCSV reads a headered CSV file into a Table. Missing required
// columns are a validation error; the caller decides whether that is
// terminal for the run.
func ReadCSV(path string, required ...string) (*Table, error) {
	return ReadCSVWith(path, CSVOptions{TrimSpace: true}, required...)
}

// ReadCSVWith reads a headered CSV file with explicit parser options.
func ReadCSVWith(path string, opts CSVOptions, required ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()

	t, err := ParseCSV(f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: parse %s", path)
	}
	if err := t.RequireColumns(required...); err != nil {
		return nil, eris.Wrapf(err, "csv: %s", path)
	}

	zap.L().Info("csv: loaded",
		zap.String("path", path),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// ParseCSV reads headered CSV data from r into a Table.
func ParseCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty input, no header")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	if opts.TrimSpace {
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
	}

	t := New(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if opts.TrimSpace {
			for i := range record {
				record[i] = strings.TrimSpace(record[i])
			}
		}
		// Pad short rows so ragged exports still load; extra cells are
		// a hard error because they silently shift columns.
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		}
		if err := t.Append(record); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes the table to path, overwriting any existing file.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.cols); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "csv: flush %s", path)
	}

	zap.L().Info("csv: saved",
		zap.String("path", path),
		zap.Int("rows", t.Len()),
	)
	return nil
}
