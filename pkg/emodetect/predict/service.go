// Package predict serves single-text emotion predictions from a trained
// bundle.
package predict

import (
	"fmt"

	"github.com/cognicore/emodetect/pkg/emodetect/bundle"
	"github.com/cognicore/emodetect/pkg/emodetect/classifier"
	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/textnorm"
)

// Prediction is the outcome for one input text.
type Prediction struct {
	Label       dataset.Label `json:"result"`
	RawText     string        `json:"text"`
	Normalized  string        `json:"normalized"`
	Probability float64       `json:"probability"`
}

// Service composes normalize, transform and classify. Nothing is mutated
// after construction, so one Service may be shared across goroutines.
type Service struct {
	norm  *textnorm.Normalizer
	vocab *features.Vocabulary
	model *classifier.Model
	runID string
}

// New builds a service from a validated bundle.
func New(b *bundle.Bundle) (*Service, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	norm, err := b.NewNormalizer()
	if err != nil {
		return nil, err
	}
	return &Service{norm: norm, vocab: b.Vocabulary, model: b.Model, runID: b.RunID}, nil
}

// Load reads the bundle at path and builds a service from it.
func Load(path string) (*Service, error) {
	b, err := bundle.Load(path)
	if err != nil {
		return nil, err
	}
	s, err := New(b)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", path, err)
	}
	return s, nil
}

// Predict classifies raw text. Unknown words are ignored; text that
// normalizes to nothing is decided by the intercept alone.
func (s *Service) Predict(raw string) Prediction {
	normalized := s.norm.Normalize(raw)
	v := features.Transform(normalized, s.vocab)
	return Prediction{
		Label:       s.model.Predict(v),
		RawText:     raw,
		Normalized:  normalized,
		Probability: s.model.Probability(v),
	}
}

// RunID identifies the training run that produced the bundle, if recorded.
func (s *Service) RunID() string {
	return s.runID
}

// VocabularySize returns the feature width.
func (s *Service) VocabularySize() int {
	return s.vocab.Len()
}
