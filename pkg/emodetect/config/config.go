package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Params mirrors params.yaml.
type Params struct {
	DataIngestion      DataIngestion      `yaml:"data_ingestion"`
	Preprocessing      Preprocessing      `yaml:"preprocessing"`
	FeatureEngineering FeatureEngineering `yaml:"feature_engineering"`
	ModelBuilding      ModelBuilding      `yaml:"model_building"`
	Evaluation         Evaluation         `yaml:"evaluation"`
	Tracking           Tracking           `yaml:"tracking"`
}

// DataIngestion configures where the dataset comes from and how it is split.
type DataIngestion struct {
	Source    string  `yaml:"source"`
	TestSize  float64 `yaml:"test_size"`
	Seed      int64   `yaml:"seed"`
	StripHTML bool    `yaml:"strip_html"`
}

// Preprocessing configures text normalization.
type Preprocessing struct {
	MinTokens     int    `yaml:"min_tokens"`
	StopwordsPath string `yaml:"stopwords_path"`
	LemmasPath    string `yaml:"lemmas_path"`
	Workers       int    `yaml:"workers"`
}

// FeatureEngineering configures the bag-of-words vocabulary.
type FeatureEngineering struct {
	MaxFeatures int `yaml:"max_features"`
}

// ModelBuilding holds the classifier hyperparameters.
type ModelBuilding struct {
	C       float64 `yaml:"c"`
	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`
}

// Evaluation holds minimum acceptable metrics. Zero disables a check.
type Evaluation struct {
	MinAccuracy  float64 `yaml:"min_accuracy"`
	MinPrecision float64 `yaml:"min_precision"`
	MinRecall    float64 `yaml:"min_recall"`
	MinF1        float64 `yaml:"min_f1"`
}

// Tracking configures the local model registry. An empty DBPath disables it.
type Tracking struct {
	DBPath     string `yaml:"db_path"`
	Experiment string `yaml:"experiment"`
	ModelName  string `yaml:"model_name"`
}

// Defaults for optional keys.
const (
	DefaultSeed       = 42
	DefaultWorkers    = 4
	DefaultTol        = 1e-4
	DefaultExperiment = "dvc-pipeline"
	DefaultModelName  = "emotion_detection"
)

// Load reads and validates params.yaml.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params %s: %w: %w", path, internalerr.ErrConfig, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("params %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes YAML params, fills defaults and validates. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Parse(data []byte) (*Params, error) {
	p := &Params{
		DataIngestion: DataIngestion{Seed: DefaultSeed},
		Preprocessing: Preprocessing{Workers: DefaultWorkers},
		ModelBuilding: ModelBuilding{Tol: DefaultTol},
		Tracking:      Tracking{Experiment: DefaultExperiment, ModelName: DefaultModelName},
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty params: %w", internalerr.ErrConfig)
		}
		return nil, fmt.Errorf("parse params: %w: %w", internalerr.ErrConfig, err)
	}
	// an explicit zero or negative worker count means sequential
	if p.Preprocessing.Workers < 1 {
		p.Preprocessing.Workers = 1
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks required keys and value ranges. It never modifies p.
func (p *Params) Validate() error {
	if p.DataIngestion.TestSize <= 0 || p.DataIngestion.TestSize >= 1 {
		return fmt.Errorf("data_ingestion.test_size %v must be in (0,1): %w", p.DataIngestion.TestSize, internalerr.ErrConfig)
	}
	if p.FeatureEngineering.MaxFeatures <= 0 {
		return fmt.Errorf("feature_engineering.max_features %d must be positive: %w", p.FeatureEngineering.MaxFeatures, internalerr.ErrConfig)
	}
	if p.ModelBuilding.C <= 0 {
		return fmt.Errorf("model_building.c %v must be positive: %w", p.ModelBuilding.C, internalerr.ErrConfig)
	}
	if p.ModelBuilding.MaxIter <= 0 {
		return fmt.Errorf("model_building.max_iter %d must be positive: %w", p.ModelBuilding.MaxIter, internalerr.ErrConfig)
	}
	if p.ModelBuilding.Tol <= 0 {
		return fmt.Errorf("model_building.tol %v must be positive: %w", p.ModelBuilding.Tol, internalerr.ErrConfig)
	}
	if p.Preprocessing.MinTokens < 0 {
		return fmt.Errorf("preprocessing.min_tokens %d is negative: %w", p.Preprocessing.MinTokens, internalerr.ErrConfig)
	}
	for name, v := range map[string]float64{
		"min_accuracy":  p.Evaluation.MinAccuracy,
		"min_precision": p.Evaluation.MinPrecision,
		"min_recall":    p.Evaluation.MinRecall,
		"min_f1":        p.Evaluation.MinF1,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("evaluation.%s %v must be in [0,1]: %w", name, v, internalerr.ErrConfig)
		}
	}
	if p.Tracking.DBPath != "" && p.Tracking.ModelName == "" {
		return fmt.Errorf("tracking.model_name is required when tracking is enabled: %w", internalerr.ErrConfig)
	}
	return nil
}
