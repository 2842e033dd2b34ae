package pipeline

import "path/filepath"

// Layout resolves artifact paths under a project root.
type Layout struct {
	Root string
}

func (l Layout) join(parts ...string) string {
	return filepath.Join(append([]string{l.Root}, parts...)...)
}

func (l Layout) RawTrain() string       { return l.join("data", "raw", "train.csv") }
func (l Layout) RawTest() string        { return l.join("data", "raw", "test.csv") }
func (l Layout) InterimTrain() string   { return l.join("data", "interim", "train.csv") }
func (l Layout) InterimTest() string    { return l.join("data", "interim", "test.csv") }
func (l Layout) ProcessedTrain() string { return l.join("data", "processed", "train_bow.csv") }
func (l Layout) ProcessedTest() string  { return l.join("data", "processed", "test_bow.csv") }
func (l Layout) Vectorizer() string     { return l.join("models", "vectorizer.json") }
func (l Layout) Model() string          { return l.join("models", "model.json") }
func (l Layout) Bundle() string         { return l.join("models", "bundle.json") }
// RunBundle is the immutable bundle copy registered for a tracked run.
func (l Layout) RunBundle(runID string) string {
	return l.join("models", "runs", runID, "bundle.json")
}

func (l Layout) Metrics() string        { return l.join("reports", "metrics.json") }
func (l Layout) ModelInfo() string      { return l.join("reports", "model_info.json") }
