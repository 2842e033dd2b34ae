// Package analytics aggregates token statistics over labeled normalized text
// and ranks tokens that carry little label information.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/cognicore/emodetect/pkg/emodetect/classifier"
	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
)

// Analyzer aggregates document-level token/label stats.
type Analyzer struct {
	totalDocs   int64
	labelDocs   [2]int64
	tokenDF     map[string]int64
	tokenLabels map[string]*[2]int64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		tokenDF:     make(map[string]int64),
		tokenLabels: make(map[string]*[2]int64),
	}
}

// Process consumes one record. Repeated tokens count once per document.
func (a *Analyzer) Process(r dataset.Record) {
	a.totalDocs++
	a.labelDocs[r.Label]++

	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(r.Text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		a.tokenDF[tok]++
		counts := a.tokenLabels[tok]
		if counts == nil {
			counts = new([2]int64)
			a.tokenLabels[tok] = counts
		}
		counts[r.Label]++
	}
}

// TokenStat describes one token across the corpus.
type TokenStat struct {
	Token        string  `json:"token"`
	DF           int64   `json:"df"`
	DFPercent    float64 `json:"df_percent"`
	IDF          float64 `json:"idf"`
	Positive     int64   `json:"positive"`
	Negative     int64   `json:"negative"`
	LabelEntropy float64 `json:"label_entropy"` // bits, 1 means evenly split
}

// Stats is a snapshot of the aggregated counts.
type Stats struct {
	TotalDocs int64       `json:"total_docs"`
	Positive  int64       `json:"positive"`
	Negative  int64       `json:"negative"`
	Tokens    []TokenStat `json:"-"`
}

// Snapshot returns per-token statistics ordered by descending DF, then token.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		TotalDocs: a.totalDocs,
		Negative:  a.labelDocs[dataset.Negative],
		Positive:  a.labelDocs[dataset.Positive],
		Tokens:    make([]TokenStat, 0, len(a.tokenDF)),
	}
	if a.totalDocs == 0 {
		return s
	}
	for tok, df := range a.tokenDF {
		counts := a.tokenLabels[tok]
		s.Tokens = append(s.Tokens, TokenStat{
			Token:        tok,
			DF:           df,
			DFPercent:    100 * float64(df) / float64(a.totalDocs),
			IDF:          math.Log(float64(a.totalDocs) / (1 + float64(df))),
			Negative:     counts[dataset.Negative],
			Positive:     counts[dataset.Positive],
			LabelEntropy: entropy(counts[dataset.Negative], counts[dataset.Positive]),
		})
	}
	sort.Slice(s.Tokens, func(i, j int) bool {
		if s.Tokens[i].DF != s.Tokens[j].DF {
			return s.Tokens[i].DF > s.Tokens[j].DF
		}
		return s.Tokens[i].Token < s.Tokens[j].Token
	})
	return s
}

func entropy(a, b int64) float64 {
	total := float64(a + b)
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range []int64{a, b} {
		p := float64(c) / total
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

// Thresholds select stopword candidates.
type Thresholds struct {
	MinDFPercent    float64 // token must appear in at least this share of documents
	MinLabelEntropy float64 // and be split this evenly between labels
}

// DefaultThresholds flags tokens in at least 5% of documents whose label
// split is close to even.
func DefaultThresholds() Thresholds {
	return Thresholds{MinDFPercent: 5, MinLabelEntropy: 0.95}
}

// StopwordCandidates returns frequent tokens that say little about the
// label, best candidates first.
func (s Stats) StopwordCandidates(t Thresholds) []TokenStat {
	var out []TokenStat
	for _, ts := range s.Tokens {
		if ts.DFPercent >= t.MinDFPercent && ts.LabelEntropy >= t.MinLabelEntropy {
			out = append(out, ts)
		}
	}
	return out
}

// Weight is a vocabulary token with its model coefficient.
type Weight struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// TopWeights returns the k most positive and k most negative coefficients.
func TopWeights(vocab *features.Vocabulary, m *classifier.Model, k int) (positive, negative []Weight) {
	all := make([]Weight, vocab.Len())
	for i := range all {
		all[i] = Weight{Token: vocab.Token(i), Weight: m.Weights[i]}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Weight > all[j].Weight })

	for _, w := range all {
		if len(positive) == k || w.Weight <= 0 {
			break
		}
		positive = append(positive, w)
	}
	for i := len(all) - 1; i >= 0; i-- {
		if len(negative) == k || all[i].Weight >= 0 {
			break
		}
		negative = append(negative, all[i])
	}
	return positive, negative
}
