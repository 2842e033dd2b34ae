package dataset

import (
	"fmt"
	"strings"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Label is the binary sentiment class.
type Label int

const (
	Negative Label = 0 // "sadness"
	Positive Label = 1 // "happiness"
)

// Source sentiment names accepted at ingestion.
const (
	SentimentNegative = "sadness"
	SentimentPositive = "happiness"
)

// LabelFromSentiment maps an ingested sentiment name to a label. Any other
// sentiment is reported as not accepted.
func LabelFromSentiment(sentiment string) (Label, bool) {
	switch sentiment {
	case SentimentNegative:
		return Negative, true
	case SentimentPositive:
		return Positive, true
	}
	return 0, false
}

// ParseLabel parses the encoded form written to CSV ("0" or "1").
func ParseLabel(s string) (Label, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return Negative, nil
	case "1":
		return Positive, nil
	}
	return 0, fmt.Errorf("label %q: %w", s, internalerr.ErrInvalidInput)
}

// String returns the encoded form.
func (l Label) String() string {
	if l == Positive {
		return "1"
	}
	return "0"
}

// Sentiment returns the source sentiment name of the label.
func (l Label) Sentiment() string {
	if l == Positive {
		return SentimentPositive
	}
	return SentimentNegative
}

// Record is one labeled text. The same type carries raw and normalized
// text; stages never modify a record in place, they return new slices.
type Record struct {
	Text  string
	Label Label
}

// TokenCount returns the number of whitespace-separated tokens.
func (r Record) TokenCount() int {
	return len(strings.Fields(r.Text))
}

// Texts returns the text of every record.
func Texts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

// Labels returns the label of every record.
func Labels(records []Record) []Label {
	out := make([]Label, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}

// Deduplicate removes exact (text, label) duplicates, keeping the first
// occurrence.
func Deduplicate(records []Record) []Record {
	seen := make(map[Record]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DropShort returns the records with at least minTokens tokens.
// minTokens <= 0 keeps everything.
func DropShort(records []Record, minTokens int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if minTokens > 0 && r.TokenCount() < minTokens {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DropEmpty returns the records whose text has at least one token.
func DropEmpty(records []Record) []Record {
	return DropShort(records, 1)
}

// CountLabels returns how many records carry each label.
func CountLabels(records []Record) (negative, positive int) {
	for _, r := range records {
		if r.Label == Positive {
			positive++
		} else {
			negative++
		}
	}
	return negative, positive
}
