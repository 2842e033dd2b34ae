package analytics

import (
	"math"
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/classifier"
	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
)

func corpus() []dataset.Record {
	return []dataset.Record{
		{Text: "day happy happy", Label: dataset.Positive},
		{Text: "day fun", Label: dataset.Positive},
		{Text: "day sad", Label: dataset.Negative},
		{Text: "day sad tired", Label: dataset.Negative},
	}
}

func TestSnapshot(t *testing.T) {
	a := NewAnalyzer()
	for _, r := range corpus() {
		a.Process(r)
	}
	s := a.Snapshot()

	if s.TotalDocs != 4 || s.Positive != 2 || s.Negative != 2 {
		t.Errorf("totals = %+v", s)
	}
	if s.Tokens[0].Token != "day" || s.Tokens[0].DF != 4 || s.Tokens[0].DFPercent != 100 {
		t.Errorf("first token = %+v", s.Tokens[0])
	}
	if math.Abs(s.Tokens[0].LabelEntropy-1) > 1e-12 {
		t.Errorf("day entropy = %v, want 1", s.Tokens[0].LabelEntropy)
	}

	byToken := map[string]TokenStat{}
	for _, ts := range s.Tokens {
		byToken[ts.Token] = ts
	}
	happy := byToken["happy"]
	if happy.DF != 1 || happy.Positive != 1 || happy.LabelEntropy != 0 {
		t.Errorf("happy counted per document, got %+v", happy)
	}
	if byToken["sad"].Negative != 2 {
		t.Errorf("sad = %+v", byToken["sad"])
	}
}

func TestStopwordCandidates(t *testing.T) {
	a := NewAnalyzer()
	for _, r := range corpus() {
		a.Process(r)
	}
	got := a.Snapshot().StopwordCandidates(DefaultThresholds())
	if len(got) != 1 || got[0].Token != "day" {
		t.Errorf("candidates = %+v, want only day", got)
	}
}

func TestEmptySnapshot(t *testing.T) {
	s := NewAnalyzer().Snapshot()
	if s.TotalDocs != 0 || len(s.Tokens) != 0 {
		t.Errorf("empty snapshot = %+v", s)
	}
}

func TestTopWeights(t *testing.T) {
	vocab := features.NewVocabulary([]string{"day", "happy", "sad"}, 0)
	m := &classifier.Model{Weights: []float64{0, 1.5, -2}}

	pos, neg := TopWeights(vocab, m, 5)
	if len(pos) != 1 || pos[0].Token != "happy" {
		t.Errorf("positive = %+v", pos)
	}
	if len(neg) != 1 || neg[0].Token != "sad" {
		t.Errorf("negative = %+v", neg)
	}
}
