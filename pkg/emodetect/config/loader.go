package config

import (
	"fmt"

	"github.com/cognicore/emodetect/pkg/emodetect/classifier"
	"github.com/cognicore/emodetect/pkg/emodetect/metrics"
	"github.com/cognicore/emodetect/pkg/emodetect/textnorm"
)

// Components are the pipeline collaborators built from Params.
type Components struct {
	Normalizer *textnorm.Normalizer
	Classifier classifier.Params
	Thresholds metrics.Thresholds
}

// Build loads the normalizer resources named in p and converts the numeric
// sections into the types the pipeline packages take.
func (p *Params) Build() (*Components, error) {
	comp := &Components{
		Classifier: classifier.Params{
			C:       p.ModelBuilding.C,
			MaxIter: p.ModelBuilding.MaxIter,
			Tol:     p.ModelBuilding.Tol,
		},
		Thresholds: metrics.Thresholds{
			Accuracy:  p.Evaluation.MinAccuracy,
			Precision: p.Evaluation.MinPrecision,
			Recall:    p.Evaluation.MinRecall,
			F1:        p.Evaluation.MinF1,
		},
	}

	norm, err := textnorm.Load(p.Preprocessing.StopwordsPath, p.Preprocessing.LemmasPath)
	if err != nil {
		return nil, fmt.Errorf("load normalizer resources: %w", err)
	}
	comp.Normalizer = norm
	return comp, nil
}
