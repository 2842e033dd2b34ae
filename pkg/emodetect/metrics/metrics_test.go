package metrics

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// stubScorer predicts positive when the first feature is set and scores by
// the first feature's count.
type stubScorer struct{}

func (stubScorer) Predict(v features.Vector) dataset.Label {
	if v[0] > 0 {
		return dataset.Positive
	}
	return dataset.Negative
}

func (stubScorer) Probability(v features.Vector) float64 {
	return float64(v[0]) / 10
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAUCKnownValue(t *testing.T) {
	labels := []dataset.Label{dataset.Negative, dataset.Negative, dataset.Positive, dataset.Positive}
	scores := []float64{0.1, 0.4, 0.35, 0.8}

	got, err := AUC(labels, scores)
	if err != nil {
		t.Fatalf("AUC: %v", err)
	}
	if !approx(got, 0.75) {
		t.Errorf("AUC = %v, want 0.75", got)
	}
}

func TestAUCTies(t *testing.T) {
	labels := []dataset.Label{dataset.Negative, dataset.Positive, dataset.Negative, dataset.Positive}
	scores := []float64{0.5, 0.5, 0.5, 0.5}

	got, err := AUC(labels, scores)
	if err != nil {
		t.Fatalf("AUC: %v", err)
	}
	if !approx(got, 0.5) {
		t.Errorf("all-tied AUC = %v, want 0.5", got)
	}

	// one positive above a tie of one positive and one negative
	labels = []dataset.Label{dataset.Negative, dataset.Positive, dataset.Positive}
	scores = []float64{0.2, 0.2, 0.9}
	got, err = AUC(labels, scores)
	if err != nil {
		t.Fatalf("AUC: %v", err)
	}
	if !approx(got, 0.75) {
		t.Errorf("partial tie AUC = %v, want 0.75", got)
	}
}

func TestAUCPerfectAndInverted(t *testing.T) {
	labels := []dataset.Label{dataset.Negative, dataset.Positive}
	if got, _ := AUC(labels, []float64{0.1, 0.9}); !approx(got, 1) {
		t.Errorf("perfect AUC = %v", got)
	}
	if got, _ := AUC(labels, []float64{0.9, 0.1}); !approx(got, 0) {
		t.Errorf("inverted AUC = %v", got)
	}
}

func TestAUCSingleClass(t *testing.T) {
	labels := []dataset.Label{dataset.Positive, dataset.Positive}
	if _, err := AUC(labels, []float64{0.2, 0.8}); !errors.Is(err, internalerr.ErrMetricsComputation) {
		t.Errorf("expected ErrMetricsComputation, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	vectors := []features.Vector{{3}, {0}, {1}, {0}, {2}}
	labels := []dataset.Label{
		dataset.Positive, dataset.Negative, dataset.Negative, dataset.Positive, dataset.Positive,
	}
	// predicted: 1 0 1 0 1 -> TP=2 FP=1 TN=1 FN=1
	r, err := Evaluate(stubScorer{}, vectors, labels)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !approx(r.Accuracy, 0.6) {
		t.Errorf("accuracy = %v, want 0.6", r.Accuracy)
	}
	if !approx(r.Precision, 2.0/3) {
		t.Errorf("precision = %v, want 2/3", r.Precision)
	}
	if !approx(r.Recall, 2.0/3) {
		t.Errorf("recall = %v, want 2/3", r.Recall)
	}
	for name, v := range r.Map() {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v out of [0,1]", name, v)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	if _, err := Evaluate(stubScorer{}, nil, nil); !errors.Is(err, internalerr.ErrMetricsComputation) {
		t.Errorf("empty: expected ErrMetricsComputation, got %v", err)
	}
	vectors := []features.Vector{{1}, {2}}
	if _, err := Evaluate(stubScorer{}, vectors, []dataset.Label{dataset.Positive}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("mismatch: expected ErrInvalidInput, got %v", err)
	}
	same := []dataset.Label{dataset.Negative, dataset.Negative}
	if _, err := Evaluate(stubScorer{}, vectors, same); !errors.Is(err, internalerr.ErrMetricsComputation) {
		t.Errorf("single class: expected ErrMetricsComputation, got %v", err)
	}
}

func TestZeroDenominators(t *testing.T) {
	c := Confusion(
		[]dataset.Label{dataset.Negative, dataset.Negative},
		[]dataset.Label{dataset.Negative, dataset.Negative},
	)
	if c.Precision() != 0 || c.Recall() != 0 {
		t.Errorf("expected zero precision and recall, got %v %v", c.Precision(), c.Recall())
	}
	if c.Accuracy() != 1 {
		t.Errorf("accuracy = %v, want 1", c.Accuracy())
	}
	if (Report{}).F1() != 0 {
		t.Error("F1 of zero report should be 0")
	}
}

func TestCheckThresholds(t *testing.T) {
	r := Report{Accuracy: 0.8, Precision: 0.5, Recall: 1, AUC: 0.9}
	if err := CheckThresholds(r, Thresholds{Accuracy: 0.7}); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
	if err := CheckThresholds(r, Thresholds{}); err != nil {
		t.Errorf("zero thresholds should pass: %v", err)
	}
	err := CheckThresholds(r, Thresholds{Precision: 0.6, F1: 0.9})
	if err == nil {
		t.Fatal("expected threshold failure")
	}
	for _, name := range []string{"precision", "f1"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should name %s", err, name)
		}
	}
}

func TestReportSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "metrics.json")
	r := Report{Accuracy: 0.75, Precision: 0.7, Recall: 0.8, AUC: 0.82}
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != r {
		t.Errorf("Load = %+v, want %+v", got, r)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("missing: expected ErrArtifactLoad, got %v", err)
	}
}
