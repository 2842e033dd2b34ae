package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Matrix is a vectorized data set: one row per record, one column per
// vocabulary token, with the labels kept alongside.
type Matrix struct {
	Columns []string
	Rows    []Vector
	Labels  []dataset.Label
}

// NewMatrix vectorizes records with vocab.
func NewMatrix(records []dataset.Record, vocab *Vocabulary) *Matrix {
	return &Matrix{
		Columns: vocab.Tokens(),
		Rows:    TransformAll(dataset.Texts(records), vocab),
		Labels:  dataset.Labels(records),
	}
}

// WriteCSV writes the matrix with the token columns first and a trailing
// sentiment column.
func (m *Matrix) WriteCSV(path string) error {
	if len(m.Rows) != len(m.Labels) {
		return fmt.Errorf("matrix has %d rows but %d labels: %w", len(m.Rows), len(m.Labels), internalerr.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append(append([]string(nil), m.Columns...), dataset.ColumnSentiment)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	row := make([]string, len(header))
	for i, vec := range m.Rows {
		if len(vec) != len(m.Columns) {
			return fmt.Errorf("row %d has width %d, want %d: %w", i, len(vec), len(m.Columns), internalerr.ErrInvalidInput)
		}
		for j, c := range vec {
			row[j] = strconv.Itoa(c)
		}
		row[len(row)-1] = m.Labels[i].String()
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadMatrixCSV reads a matrix written by WriteCSV. The last column is
// taken as the label.
func ReadMatrixCSV(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, internalerr.ErrDataIngestion, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w: %w", path, internalerr.ErrDataIngestion, err)
	}
	if len(header) == 0 || header[len(header)-1] != dataset.ColumnSentiment {
		return nil, fmt.Errorf("%s: last column must be %q: %w", path, dataset.ColumnSentiment, internalerr.ErrDataIngestion)
	}

	m := &Matrix{Columns: header[:len(header)-1]}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w: %w", path, line, internalerr.ErrDataIngestion, err)
		}
		vec := make(Vector, len(m.Columns))
		for j := range vec {
			c, err := strconv.Atoi(rec[j])
			if err != nil || c < 0 {
				return nil, fmt.Errorf("%s line %d column %q: bad count %q: %w", path, line, m.Columns[j], rec[j], internalerr.ErrDataIngestion)
			}
			vec[j] = c
		}
		label, err := dataset.ParseLabel(rec[len(rec)-1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w: %w", path, line, internalerr.ErrDataIngestion, err)
		}
		m.Rows = append(m.Rows, vec)
		m.Labels = append(m.Labels, label)
	}
	return m, nil
}
