// Package registry tracks training runs and the model versions registered
// from them, the way a remote experiment tracker would, but in a local
// database.
package registry

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Store is the registry interface. Implementations must be safe for
// concurrent use.
type Store interface {
	Close() error

	// Runs
	StartRun(ctx context.Context, experiment string, params map[string]string) (Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	LogMetrics(ctx context.Context, runID string, metrics map[string]float64) error

	// Model versions
	RegisterModel(ctx context.Context, name, runID, source string) (ModelVersion, error)
	GetVersion(ctx context.Context, name string, version int) (ModelVersion, error)
	ListVersions(ctx context.Context, name string) ([]ModelVersion, error)
	UpdateDescription(ctx context.Context, name string, version int, description string) error
	SetTag(ctx context.Context, name string, version int, key, value string) error
	TransitionStage(ctx context.Context, name string, version int, stage Stage, archiveExisting bool) (ModelVersion, error)

	// Aliases
	SetAlias(ctx context.Context, name, alias string, version int) error
	DeleteAlias(ctx context.Context, name, alias string) error
	GetByAlias(ctx context.Context, name, alias string) (ModelVersion, error)
}

// Stage is the lifecycle stage of a model version.
type Stage string

const (
	StageNone       Stage = "None"
	StageStaging    Stage = "Staging"
	StageProduction Stage = "Production"
	StageArchived   Stage = "Archived"
)

// ParseStage accepts a stage name in any case.
func ParseStage(s string) (Stage, error) {
	for _, st := range []Stage{StageNone, StageStaging, StageProduction, StageArchived} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q: %w", s, internalerr.ErrInvalidInput)
}

// Run is one pipeline execution.
type Run struct {
	ID         string
	Experiment string
	StartedAt  time.Time
	Params     map[string]string
	Metrics    map[string]float64
}

// ModelVersion is one registered model artifact.
type ModelVersion struct {
	Name        string
	Version     int
	RunID       string
	Source      string // artifact path
	Stage       Stage
	Description string
	Tags        map[string]string
	Aliases     []string
	CreatedAt   time.Time
}

// IDs generates lexically sortable run IDs. It is safe for concurrent use.
type IDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDs creates a run ID generator.
func NewIDs() *IDs {
	return &IDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a fresh ID stamped with t.
func (g *IDs) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// ValidRunID reports whether id looks like an ID produced by IDs.
func ValidRunID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// CheckName rejects empty model or alias names.
func CheckName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty %s name: %w", kind, internalerr.ErrInvalidInput)
	}
	return nil
}
