// Package ingest reads the labeled tweet dataset from a local CSV file or an
// http(s) URL and turns it into sentiment records.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cognicore/emodetect/internal/htmltext"
	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Source dataset columns.
const (
	ColumnTweetID   = "tweet_id"
	ColumnSentiment = "sentiment"
	ColumnContent   = "content"
)

// DefaultTimeout bounds a remote dataset download.
const DefaultTimeout = 30 * time.Second

// Options controls how rows become records.
type Options struct {
	StripHTML bool
	Client    *http.Client // nil uses a client with DefaultTimeout
}

// Stats summarizes one ingestion.
type Stats struct {
	Rows       int
	Filtered   int // sentiment outside the accepted pair
	Duplicates int
	Kept       int
}

// Load reads the dataset at source, which is a file path or an http(s) URL.
func Load(ctx context.Context, source string, opts Options) ([]dataset.Record, Stats, error) {
	rc, err := open(ctx, source, opts.Client)
	if err != nil {
		return nil, Stats{}, err
	}
	defer rc.Close()

	records, stats, err := Read(rc, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", source, err)
	}
	return records, stats, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func open(ctx context.Context, source string, client *http.Client) (io.ReadCloser, error) {
	if source == "" {
		return nil, fmt.Errorf("empty data source: %w", internalerr.ErrDataIngestion)
	}
	if !isURL(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w: %w", source, internalerr.ErrDataIngestion, err)
		}
		return f, nil
	}

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w: %w", source, internalerr.ErrDataIngestion, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", source, internalerr.ErrDataIngestion, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d: %w", source, resp.StatusCode, internalerr.ErrDataIngestion)
	}
	return resp.Body, nil
}

// Read parses a dataset CSV. The tweet_id column must be present but is
// discarded. Rows whose sentiment is neither "sadness" nor "happiness" are
// filtered out, and exact duplicates are removed.
func Read(r io.Reader, opts Options) ([]dataset.Record, Stats, error) {
	var stats Stats
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w: %w", internalerr.ErrDataIngestion, err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{ColumnTweetID, ColumnSentiment, ColumnContent} {
		if _, ok := pos[col]; !ok {
			return nil, stats, fmt.Errorf("missing column %q: %w", col, internalerr.ErrDataIngestion)
		}
	}
	sentCol, textCol := pos[ColumnSentiment], pos[ColumnContent]
	width := max(sentCol, textCol) + 1

	var records []dataset.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w: %w", line, internalerr.ErrDataIngestion, err)
		}
		stats.Rows++
		if len(row) < width {
			log.Printf("Warning: skipping short row at line %d (%d fields)", line, len(row))
			stats.Filtered++
			continue
		}
		label, ok := dataset.LabelFromSentiment(strings.TrimSpace(row[sentCol]))
		if !ok {
			stats.Filtered++
			continue
		}
		text := row[textCol]
		if opts.StripHTML {
			text = htmltext.Strip(text)
		}
		records = append(records, dataset.Record{Text: text, Label: label})
	}

	deduped := dataset.Deduplicate(records)
	stats.Duplicates = len(records) - len(deduped)
	stats.Kept = len(deduped)
	return deduped, stats, nil
}
