package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Column names of the record CSV files.
const (
	ColumnSentiment = "sentiment"
	ColumnContent   = "content"
)

// WriteCSV writes records to path as "sentiment,content" rows, creating the
// parent directory when needed.
func WriteCSV(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{ColumnSentiment, ColumnContent}); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.Label.String(), r.Text}); err != nil {
			return fmt.Errorf("write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV reads records written by WriteCSV.
func ReadCSV(path string) ([]Record, error) {
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
	cols, err := columnIndex(header, ColumnSentiment, ColumnContent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w: %w", path, line, internalerr.ErrDataIngestion, err)
		}
		label, err := ParseLabel(row[cols[0]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w: %w", path, line, internalerr.ErrDataIngestion, err)
		}
		records = append(records, Record{Text: row[cols[1]], Label: label})
	}
	return records, nil
}

// columnIndex resolves the position of each wanted column in header.
func columnIndex(header []string, wanted ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	out := make([]int, len(wanted))
	for i, name := range wanted {
		idx, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q: %w", name, internalerr.ErrDataIngestion)
		}
		out[i] = idx
	}
	return out, nil
}
