package internalerr

import "errors"

// Sentinel errors shared by the pipeline stages. Callers wrap them with
// fmt.Errorf("...: %w", err) and branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConfig       = errors.New("invalid configuration")

	// ErrArtifactLoad marks a missing or structurally invalid persisted
	// artifact (vectorizer, model, bundle, resource file).
	ErrArtifactLoad = errors.New("artifact load failed")

	// ErrDataIngestion marks an unreadable source or a schema mismatch.
	ErrDataIngestion = errors.New("data ingestion failed")

	// ErrConvergence is non-fatal: the model returned alongside it is usable.
	ErrConvergence = errors.New("solver did not converge")

	// ErrMetricsComputation marks a metric that is undefined for the given labels.
	ErrMetricsComputation = errors.New("metric undefined")
)
