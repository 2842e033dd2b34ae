package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
	"github.com/cognicore/emodetect/pkg/emodetect/registry"
)

type versionKey struct {
	name    string
	version int
}

type aliasKey struct {
	name  string
	alias string
}

// Store is an in-memory implementation of registry.Store for tests and
// single-process runs that do not need persistence.
type Store struct {
	mu       sync.RWMutex
	ids      *registry.IDs
	runs     map[string]registry.Run
	versions map[versionKey]registry.ModelVersion
	latest   map[string]int
	aliases  map[aliasKey]int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:      registry.NewIDs(),
		runs:     make(map[string]registry.Run),
		versions: make(map[versionKey]registry.ModelVersion),
		latest:   make(map[string]int),
		aliases:  make(map[aliasKey]int),
	}
}

// Close implements registry.Store.
func (s *Store) Close() error { return nil }

// StartRun implements registry.Store.
func (s *Store) StartRun(ctx context.Context, experiment string, params map[string]string) (registry.Run, error) {
	if err := registry.CheckName("experiment", experiment); err != nil {
		return registry.Run{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	run := registry.Run{
		ID:         s.ids.New(now),
		Experiment: experiment,
		StartedAt:  now,
		Params:     make(map[string]string, len(params)),
		Metrics:    map[string]float64{},
	}
	for k, v := range params {
		run.Params[k] = v
	}
	s.runs[run.ID] = run
	return copyRun(run), nil
}

// GetRun implements registry.Store.
func (s *Store) GetRun(ctx context.Context, id string) (registry.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return registry.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(run), nil
}

// LogMetrics implements registry.Store.
func (s *Store) LogMetrics(ctx context.Context, runID string, metrics map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	for k, v := range metrics {
		run.Metrics[k] = v
	}
	return nil
}

// RegisterModel implements registry.Store.
func (s *Store) RegisterModel(ctx context.Context, name, runID, source string) (registry.ModelVersion, error) {
	if err := registry.CheckName("model", name); err != nil {
		return registry.ModelVersion{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID != "" {
		if _, ok := s.runs[runID]; !ok {
			return registry.ModelVersion{}, fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
		}
	}
	s.latest[name]++
	mv := registry.ModelVersion{
		Name:      name,
		Version:   s.latest[name],
		RunID:     runID,
		Source:    source,
		Stage:     registry.StageNone,
		Tags:      map[string]string{},
		CreatedAt: time.Now().UTC(),
	}
	s.versions[versionKey{name, mv.Version}] = mv
	return s.withAliases(mv), nil
}

// GetVersion implements registry.Store.
func (s *Store) GetVersion(ctx context.Context, name string, version int) (registry.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mv, err := s.lookup(name, version)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	return s.withAliases(mv), nil
}

// ListVersions implements registry.Store.
func (s *Store) ListVersions(ctx context.Context, name string) ([]registry.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []registry.ModelVersion
	for k, mv := range s.versions {
		if k.name == name {
			out = append(out, s.withAliases(mv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// UpdateDescription implements registry.Store.
func (s *Store) UpdateDescription(ctx context.Context, name string, version int, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mv, err := s.lookup(name, version)
	if err != nil {
		return err
	}
	mv.Description = description
	s.versions[versionKey{name, version}] = mv
	return nil
}

// SetTag implements registry.Store.
func (s *Store) SetTag(ctx context.Context, name string, version int, key, value string) error {
	if err := registry.CheckName("tag", key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	mv, err := s.lookup(name, version)
	if err != nil {
		return err
	}
	mv.Tags[key] = value
	return nil
}

// TransitionStage implements registry.Store.
func (s *Store) TransitionStage(ctx context.Context, name string, version int, stage registry.Stage, archiveExisting bool) (registry.ModelVersion, error) {
	if _, err := registry.ParseStage(string(stage)); err != nil {
		return registry.ModelVersion{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	mv, err := s.lookup(name, version)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	if archiveExisting && (stage == registry.StageStaging || stage == registry.StageProduction) {
		for k, other := range s.versions {
			if k.name == name && k.version != version && other.Stage == stage {
				other.Stage = registry.StageArchived
				s.versions[k] = other
			}
		}
	}
	mv.Stage = stage
	s.versions[versionKey{name, version}] = mv
	return s.withAliases(mv), nil
}

// SetAlias implements registry.Store.
func (s *Store) SetAlias(ctx context.Context, name, alias string, version int) error {
	if err := registry.CheckName("alias", alias); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name, version); err != nil {
		return err
	}
	s.aliases[aliasKey{name, alias}] = version
	return nil
}

// DeleteAlias implements registry.Store.
func (s *Store) DeleteAlias(ctx context.Context, name, alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.aliases, aliasKey{name, alias})
	return nil
}

// GetByAlias implements registry.Store.
func (s *Store) GetByAlias(ctx context.Context, name, alias string) (registry.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.aliases[aliasKey{name, alias}]
	if !ok {
		return registry.ModelVersion{}, fmt.Errorf("model %s alias %q: %w", name, alias, internalerr.ErrNotFound)
	}
	mv, err := s.lookup(name, version)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	return s.withAliases(mv), nil
}

func (s *Store) lookup(name string, version int) (registry.ModelVersion, error) {
	mv, ok := s.versions[versionKey{name, version}]
	if !ok {
		return registry.ModelVersion{}, fmt.Errorf("model %s version %d: %w", name, version, internalerr.ErrNotFound)
	}
	return mv, nil
}

// withAliases returns a copy of mv carrying its current aliases. Callers
// hold the lock.
func (s *Store) withAliases(mv registry.ModelVersion) registry.ModelVersion {
	tags := make(map[string]string, len(mv.Tags))
	for k, v := range mv.Tags {
		tags[k] = v
	}
	mv.Tags = tags
	mv.Aliases = nil
	for k, v := range s.aliases {
		if k.name == mv.Name && v == mv.Version {
			mv.Aliases = append(mv.Aliases, k.alias)
		}
	}
	sort.Strings(mv.Aliases)
	return mv
}

func copyRun(r registry.Run) registry.Run {
	params := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	metrics := make(map[string]float64, len(r.Metrics))
	for k, v := range r.Metrics {
		metrics[k] = v
	}
	r.Params, r.Metrics = params, metrics
	return r
}
