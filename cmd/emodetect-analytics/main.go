package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/emodetect/pkg/emodetect/analytics"
	"github.com/cognicore/emodetect/pkg/emodetect/bundle"
	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/textnorm"
)

type report struct {
	TotalDocs          int64                 `json:"total_docs"`
	Positive           int64                 `json:"positive"`
	Negative           int64                 `json:"negative"`
	HighDFTokens       []analytics.TokenStat `json:"high_df_tokens"`
	StopwordCandidates []analytics.TokenStat `json:"stopword_candidates"`
	PositiveWeights    []analytics.Weight    `json:"positive_weights,omitempty"`
	NegativeWeights    []analytics.Weight    `json:"negative_weights,omitempty"`
}

func main() {
	var (
		input      = flag.String("input", "data/interim/train.csv", "Normalized records CSV")
		bundlePath = flag.String("bundle", "", "Optional: inference bundle to report model weights from")
		limit      = flag.Int("limit", 20, "Maximum entries per list")
		minDF      = flag.Float64("min-df", analytics.DefaultThresholds().MinDFPercent, "Stopword candidate minimum document share (percent)")
		minEntropy = flag.Float64("min-entropy", analytics.DefaultThresholds().MinLabelEntropy, "Stopword candidate minimum label entropy (bits)")
		stopsOut   = flag.String("stopwords-out", "", "Optional: write the default stop-words plus all candidates to this YAML file")
	)
	flag.Parse()

	records, err := dataset.ReadCSV(*input)
	if err != nil {
		log.Fatalf("load records: %v", err)
	}

	analyzer := analytics.NewAnalyzer()
	for _, r := range records {
		analyzer.Process(r)
	}
	stats := analyzer.Snapshot()

	candidates := stats.StopwordCandidates(analytics.Thresholds{
		MinDFPercent:    *minDF,
		MinLabelEntropy: *minEntropy,
	})
	rep := report{
		TotalDocs:          stats.TotalDocs,
		Positive:           stats.Positive,
		Negative:           stats.Negative,
		HighDFTokens:       truncate(stats.Tokens, *limit),
		StopwordCandidates: truncate(candidates, *limit),
	}

	if *stopsOut != "" {
		base, err := textnorm.DefaultStopwords()
		if err != nil {
			log.Fatalf("load default stopwords: %v", err)
		}
		extra := make([]string, len(candidates))
		for i, c := range candidates {
			extra[i] = c.Token
		}
		stops := base.With(extra...)
		if err := stops.Save(*stopsOut); err != nil {
			log.Fatalf("write stopwords: %v", err)
		}
		log.Printf("Wrote %d stop-words (%d new) to %s", stops.Len(), stops.Len()-base.Len(), *stopsOut)
	}

	if *bundlePath != "" {
		b, err := bundle.Load(*bundlePath)
		if err != nil {
			log.Fatalf("load bundle: %v", err)
		}
		rep.PositiveWeights, rep.NegativeWeights = analytics.TopWeights(b.Vocabulary, b.Model, *limit)
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

func truncate(stats []analytics.TokenStat, limit int) []analytics.TokenStat {
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
