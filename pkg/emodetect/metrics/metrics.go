package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Scorer is what the evaluator needs from a fitted classifier.
type Scorer interface {
	Predict(v features.Vector) dataset.Label
	Probability(v features.Vector) float64
}

// Report holds the evaluation metrics of one run. The positive label is
// the target class for precision and recall.
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	AUC       float64 `json:"auc"`
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0.
func (r Report) F1() float64 {
	if r.Precision+r.Recall == 0 {
		return 0
	}
	return 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
}

// Map returns the metrics keyed by name, the shape the run tracker logs.
func (r Report) Map() map[string]float64 {
	return map[string]float64{
		"accuracy":  r.Accuracy,
		"precision": r.Precision,
		"recall":    r.Recall,
		"auc":       r.AUC,
	}
}

// Evaluate scores m on held-out vectors. Labels must contain both classes,
// otherwise AUC is undefined and ErrMetricsComputation is returned.
func Evaluate(m Scorer, vectors []features.Vector, labels []dataset.Label) (Report, error) {
	if len(vectors) != len(labels) {
		return Report{}, fmt.Errorf("%d vectors but %d labels: %w", len(vectors), len(labels), internalerr.ErrInvalidInput)
	}
	if len(labels) == 0 {
		return Report{}, fmt.Errorf("empty evaluation set: %w", internalerr.ErrMetricsComputation)
	}

	predicted := make([]dataset.Label, len(vectors))
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		predicted[i] = m.Predict(v)
		scores[i] = m.Probability(v)
	}

	auc, err := AUC(labels, scores)
	if err != nil {
		return Report{}, err
	}
	c := Confusion(labels, predicted)
	return Report{
		Accuracy:  c.Accuracy(),
		Precision: c.Precision(),
		Recall:    c.Recall(),
		AUC:       auc,
	}, nil
}

// ConfusionMatrix counts outcomes with Positive as the target class.
type ConfusionMatrix struct {
	TP, FP, TN, FN int
}

// Confusion tallies predicted against true labels.
func Confusion(truth, predicted []dataset.Label) ConfusionMatrix {
	var c ConfusionMatrix
	for i := range truth {
		switch {
		case truth[i] == dataset.Positive && predicted[i] == dataset.Positive:
			c.TP++
		case truth[i] == dataset.Negative && predicted[i] == dataset.Positive:
			c.FP++
		case truth[i] == dataset.Negative:
			c.TN++
		default:
			c.FN++
		}
	}
	return c
}

// Accuracy is the share of exact matches.
func (c ConfusionMatrix) Accuracy() float64 {
	total := c.TP + c.FP + c.TN + c.FN
	if total == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(total)
}

// Precision is TP/(TP+FP), 0 when nothing was predicted positive.
func (c ConfusionMatrix) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall is TP/(TP+FN), 0 when there are no positives.
func (c ConfusionMatrix) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// AUC computes the area under the ROC curve as the normalized Mann-Whitney
// statistic. Tied scores share their average rank.
func AUC(labels []dataset.Label, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return 0, fmt.Errorf("%d labels but %d scores: %w", len(labels), len(scores), internalerr.ErrInvalidInput)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	var nPos, nNeg int
	var rankSumPos float64
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && scores[order[end]] == scores[order[start]] {
			end++
		}
		// ranks are 1-based; the tie group [start,end) shares the mean rank
		avgRank := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			if labels[order[k]] == dataset.Positive {
				nPos++
				rankSumPos += avgRank
			} else {
				nNeg++
			}
		}
		start = end
	}

	if nPos == 0 || nNeg == 0 {
		return 0, fmt.Errorf("ROC AUC needs both classes, got %d positive and %d negative: %w",
			nPos, nNeg, internalerr.ErrMetricsComputation)
	}
	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// Thresholds are the minimum acceptable metric values. Zero disables a check.
type Thresholds struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// CheckThresholds returns an error naming every metric below its minimum.
func CheckThresholds(r Report, t Thresholds) error {
	var failed []string
	check := func(name string, got, floor float64) {
		if floor > 0 && got < floor {
			failed = append(failed, fmt.Sprintf("%s %.4f < %.4f", name, got, floor))
		}
	}
	check("accuracy", r.Accuracy, t.Accuracy)
	check("precision", r.Precision, t.Precision)
	check("recall", r.Recall, t.Recall)
	check("f1", r.F1(), t.F1)
	if len(failed) > 0 {
		return fmt.Errorf("metrics below threshold: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Save writes the report as indented JSON.
func (r Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read metrics %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("parse metrics %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	return r, nil
}
