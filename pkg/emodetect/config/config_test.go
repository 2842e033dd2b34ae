package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

const minimal = `data_ingestion:
  test_size: 0.2
feature_engineering:
  max_features: 1000
model_building:
  c: 1.0
  max_iter: 100
`

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	p, err := Load(writeParams(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.DataIngestion.TestSize != 0.2 || p.FeatureEngineering.MaxFeatures != 1000 {
		t.Errorf("required keys not read: %+v", p)
	}
	if p.DataIngestion.Seed != DefaultSeed {
		t.Errorf("seed = %d, want %d", p.DataIngestion.Seed, DefaultSeed)
	}
	if p.Preprocessing.Workers != DefaultWorkers {
		t.Errorf("workers = %d, want %d", p.Preprocessing.Workers, DefaultWorkers)
	}
	if p.ModelBuilding.Tol != DefaultTol {
		t.Errorf("tol = %v, want %v", p.ModelBuilding.Tol, DefaultTol)
	}
	if p.Tracking.Experiment != DefaultExperiment || p.Tracking.ModelName != DefaultModelName {
		t.Errorf("tracking defaults = %+v", p.Tracking)
	}
	if p.Tracking.DBPath != "" {
		t.Error("tracking should be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	content := minimal + `evaluation:
  min_accuracy: 0.6
preprocessing:
  min_tokens: 3
  workers: 8
tracking:
  db_path: runs.db
`
	p, err := Load(writeParams(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Evaluation.MinAccuracy != 0.6 || p.Preprocessing.MinTokens != 3 || p.Preprocessing.Workers != 8 {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.Tracking.DBPath != "runs.db" || p.Tracking.ModelName != DefaultModelName {
		t.Errorf("tracking = %+v", p.Tracking)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"missing test_size": `feature_engineering:
  max_features: 10
model_building:
  c: 1
  max_iter: 10
`,
		"test_size one": `data_ingestion:
  test_size: 1
feature_engineering:
  max_features: 10
model_building:
  c: 1
  max_iter: 10
`,
		"missing max_features": `data_ingestion:
  test_size: 0.2
model_building:
  c: 1
  max_iter: 10
`,
		"negative c": `data_ingestion:
  test_size: 0.2
feature_engineering:
  max_features: 10
model_building:
  c: -1
  max_iter: 10
`,
		"unknown key":  minimal + "extra: true\n",
		"bad type":     minimal + "evaluation:\n  min_f1: high\n",
		"threshold":    minimal + "evaluation:\n  min_f1: 1.5\n",
		"empty":        "",
		"not yaml map": "- a\n- b\n",
	}
	for name, content := range cases {
		if _, err := Load(writeParams(t, content)); !errors.Is(err, internalerr.ErrConfig) {
			t.Errorf("%s: expected ErrConfig, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, internalerr.ErrConfig) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrConfig wrapping ErrNotExist, got %v", err)
	}
}

func TestBuild(t *testing.T) {
	p, err := Parse([]byte(minimal + "evaluation:\n  min_recall: 0.5\n"))
	if err != nil {
		t.Fatal(err)
	}
	comp, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if comp.Normalizer == nil {
		t.Fatal("normalizer not built")
	}
	if got := comp.Normalizer.Normalize("I am so happy today"); got != "happy today" {
		t.Errorf("Normalize = %q", got)
	}
	if comp.Classifier.C != 1 || comp.Classifier.MaxIter != 100 {
		t.Errorf("classifier params = %+v", comp.Classifier)
	}
	if comp.Thresholds.Recall != 0.5 {
		t.Errorf("thresholds = %+v", comp.Thresholds)
	}

	p.Preprocessing.StopwordsPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := p.Build(); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("missing stopwords: expected ErrArtifactLoad, got %v", err)
	}
}

func TestParseClampsWorkers(t *testing.T) {
	for _, workers := range []string{"0", "-3"} {
		p, err := Parse([]byte(minimal + "preprocessing:\n  workers: " + workers + "\n"))
		if err != nil {
			t.Fatalf("workers %s: %v", workers, err)
		}
		if p.Preprocessing.Workers != 1 {
			t.Errorf("workers %s: got %d, want 1", workers, p.Preprocessing.Workers)
		}
	}
}

func TestValidateLeavesParamsUntouched(t *testing.T) {
	p := Params{
		DataIngestion:      DataIngestion{TestSize: 0.2},
		FeatureEngineering: FeatureEngineering{MaxFeatures: 10},
		ModelBuilding:      ModelBuilding{C: 1, MaxIter: 10, Tol: DefaultTol},
	}
	before := p
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !reflect.DeepEqual(p, before) {
		t.Errorf("Validate modified params: got %+v, want %+v", p, before)
	}
	if p.Preprocessing.Workers != 0 {
		t.Errorf("workers = %d, want 0 left as given", p.Preprocessing.Workers)
	}
}
