package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Model is a fitted logistic classifier. It carries no vocabulary; vectors
// passed to it must come from the vocabulary it was trained against.
// A Model is not modified after training and is safe for concurrent reads.
type Model struct {
	Weights    []float64 `json:"weights"`
	Intercept  float64   `json:"intercept"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
}

// Width returns the number of features the model expects.
func (m *Model) Width() int {
	return len(m.Weights)
}

// Decision returns w·v + b. v must have the model's width.
func (m *Model) Decision(v features.Vector) float64 {
	z := m.Intercept
	for i, c := range v {
		if c != 0 {
			z += m.Weights[i] * float64(c)
		}
	}
	return z
}

// Probability returns the positive-class probability of v.
func (m *Model) Probability(v features.Vector) float64 {
	return sigmoid(m.Decision(v))
}

// Predict returns Positive when the decision value is above zero.
func (m *Model) Predict(v features.Vector) dataset.Label {
	if m.Decision(v) > 0 {
		return dataset.Positive
	}
	return dataset.Negative
}

// Validate checks that the model is structurally usable.
func (m *Model) Validate() error {
	if len(m.Weights) == 0 {
		return fmt.Errorf("model has no weights: %w", internalerr.ErrArtifactLoad)
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("model weight %d is %v: %w", i, w, internalerr.ErrArtifactLoad)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("model intercept is %v: %w", m.Intercept, internalerr.ErrArtifactLoad)
	}
	return nil
}

// Save writes the model to path as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// LoadModel reads a model written by Save.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}
