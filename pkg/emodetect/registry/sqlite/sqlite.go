package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
	"github.com/cognicore/emodetect/pkg/emodetect/registry"
)

// sqliteStore implements registry.Store using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *registry.IDs
	now func() time.Time
}

// OpenSQLite opens a SQLite registry with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (registry.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:  db,
		ids: registry.NewIDs(),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	experiment TEXT NOT NULL,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_params (
	run_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY(run_id, key),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_metrics (
	run_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY(run_id, key),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_versions (
	name TEXT NOT NULL,
	version INTEGER NOT NULL,
	run_id TEXT,
	source TEXT NOT NULL,
	stage TEXT NOT NULL DEFAULT 'None',
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	PRIMARY KEY(name, version)
);

CREATE TABLE IF NOT EXISTS model_version_tags (
	name TEXT NOT NULL,
	version INTEGER NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY(name, version, key),
	FOREIGN KEY(name, version) REFERENCES model_versions(name, version) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_aliases (
	name TEXT NOT NULL,
	alias TEXT NOT NULL,
	version INTEGER NOT NULL,
	PRIMARY KEY(name, alias),
	FOREIGN KEY(name, version) REFERENCES model_versions(name, version) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_model_versions_stage ON model_versions(name, stage);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// StartRun records a new run with its parameters
func (s *sqliteStore) StartRun(ctx context.Context, experiment string, params map[string]string) (registry.Run, error) {
	if err := registry.CheckName("experiment", experiment); err != nil {
		return registry.Run{}, err
	}
	started := s.now()
	run := registry.Run{
		ID:         s.ids.New(started),
		Experiment: experiment,
		StartedAt:  started,
		Params:     copyParams(params),
		Metrics:    map[string]float64{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return registry.Run{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, experiment, started_at) VALUES(?, ?, ?)`,
		run.ID, experiment, formatTime(started)); err != nil {
		return registry.Run{}, fmt.Errorf("insert run: %w", err)
	}
	for k, v := range params {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_params(run_id, key, value) VALUES(?, ?, ?)`, run.ID, k, v); err != nil {
			return registry.Run{}, fmt.Errorf("insert param %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return registry.Run{}, err
	}
	return run, nil
}

// GetRun loads a run with its params and metrics
func (s *sqliteStore) GetRun(ctx context.Context, id string) (registry.Run, error) {
	var run registry.Run
	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, experiment, started_at FROM runs WHERE id = ?`, id).Scan(&run.ID, &run.Experiment, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return registry.Run{}, err
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return registry.Run{}, err
	}

	run.Params = map[string]string{}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM run_params WHERE run_id = ?`, id)
	if err != nil {
		return registry.Run{}, err
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return registry.Run{}, err
		}
		run.Params[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return registry.Run{}, err
	}

	run.Metrics = map[string]float64{}
	rows, err = s.db.QueryContext(ctx, `SELECT key, value FROM run_metrics WHERE run_id = ?`, id)
	if err != nil {
		return registry.Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return registry.Run{}, err
		}
		run.Metrics[k] = v
	}
	return run, rows.Err()
}

// LogMetrics records metric values for a run, overwriting earlier values
func (s *sqliteStore) LogMetrics(ctx context.Context, runID string, metrics map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := runExists(ctx, tx, runID); err != nil {
		return err
	}
	for k, v := range metrics {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO run_metrics(run_id, key, value) VALUES(?, ?, ?)
ON CONFLICT(run_id, key) DO UPDATE SET value = excluded.value`, runID, k, v); err != nil {
			return fmt.Errorf("log metric %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// RegisterModel creates the next version of name
func (s *sqliteStore) RegisterModel(ctx context.Context, name, runID, source string) (registry.ModelVersion, error) {
	if err := registry.CheckName("model", name); err != nil {
		return registry.ModelVersion{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	defer tx.Rollback()

	if runID != "" {
		if err := runExists(ctx, tx, runID); err != nil {
			return registry.ModelVersion{}, err
		}
	}

	var version int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = ?`, name).Scan(&version); err != nil {
		return registry.ModelVersion{}, err
	}
	created := s.now()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO model_versions(name, version, run_id, source, stage, created_at)
VALUES(?, ?, ?, ?, ?, ?)`, name, version, runID, source, string(registry.StageNone), formatTime(created)); err != nil {
		return registry.ModelVersion{}, fmt.Errorf("insert model version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return registry.ModelVersion{}, err
	}

	return registry.ModelVersion{
		Name:      name,
		Version:   version,
		RunID:     runID,
		Source:    source,
		Stage:     registry.StageNone,
		Tags:      map[string]string{},
		CreatedAt: created,
	}, nil
}

// GetVersion loads one model version with its tags and aliases
func (s *sqliteStore) GetVersion(ctx context.Context, name string, version int) (registry.ModelVersion, error) {
	var mv registry.ModelVersion
	var runID sql.NullString
	var stage, created string
	err := s.db.QueryRowContext(ctx, `
SELECT name, version, run_id, source, stage, description, created_at
FROM model_versions WHERE name = ? AND version = ?`, name, version).
		Scan(&mv.Name, &mv.Version, &runID, &mv.Source, &stage, &mv.Description, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.ModelVersion{}, fmt.Errorf("model %s version %d: %w", name, version, internalerr.ErrNotFound)
	}
	if err != nil {
		return registry.ModelVersion{}, err
	}
	mv.RunID = runID.String
	mv.Stage = registry.Stage(stage)
	if mv.CreatedAt, err = parseTime(created); err != nil {
		return registry.ModelVersion{}, err
	}

	mv.Tags = map[string]string{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM model_version_tags WHERE name = ? AND version = ?`, name, version)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return registry.ModelVersion{}, err
		}
		mv.Tags[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return registry.ModelVersion{}, err
	}

	mv.Aliases, err = s.loadStringColumn(ctx,
		`SELECT alias FROM model_aliases WHERE name = ? AND version = ? ORDER BY alias`, name, version)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	return mv, nil
}

// ListVersions returns every version of name in ascending order
func (s *sqliteStore) ListVersions(ctx context.Context, name string) ([]registry.ModelVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM model_versions WHERE name = ? ORDER BY version`, name)
	if err != nil {
		return nil, err
	}
	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, err
		}
		versions = append(versions, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]registry.ModelVersion, 0, len(versions))
	for _, v := range versions {
		mv, err := s.GetVersion(ctx, name, v)
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, nil
}

// UpdateDescription replaces the description of a version
func (s *sqliteStore) UpdateDescription(ctx context.Context, name string, version int, description string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE model_versions SET description = ? WHERE name = ? AND version = ?`, description, name, version)
	if err != nil {
		return err
	}
	return expectOne(res, name, version)
}

// SetTag sets or replaces one tag on a version
func (s *sqliteStore) SetTag(ctx context.Context, name string, version int, key, value string) error {
	if err := registry.CheckName("tag", key); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := versionExists(ctx, tx, name, version); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO model_version_tags(name, version, key, value) VALUES(?, ?, ?, ?)
ON CONFLICT(name, version, key) DO UPDATE SET value = excluded.value`, name, version, key, value); err != nil {
		return err
	}
	return tx.Commit()
}

// TransitionStage moves a version to stage. With archiveExisting, other
// versions already in that stage are moved to Archived in the same
// transaction.
func (s *sqliteStore) TransitionStage(ctx context.Context, name string, version int, stage registry.Stage, archiveExisting bool) (registry.ModelVersion, error) {
	if _, err := registry.ParseStage(string(stage)); err != nil {
		return registry.ModelVersion{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return registry.ModelVersion{}, err
	}
	defer tx.Rollback()

	if err := versionExists(ctx, tx, name, version); err != nil {
		return registry.ModelVersion{}, err
	}
	if archiveExisting && (stage == registry.StageStaging || stage == registry.StageProduction) {
		if _, err := tx.ExecContext(ctx,
			`UPDATE model_versions SET stage = ? WHERE name = ? AND stage = ? AND version != ?`,
			string(registry.StageArchived), name, string(stage), version); err != nil {
			return registry.ModelVersion{}, fmt.Errorf("archive existing: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE model_versions SET stage = ? WHERE name = ? AND version = ?`, string(stage), name, version); err != nil {
		return registry.ModelVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return registry.ModelVersion{}, err
	}
	return s.GetVersion(ctx, name, version)
}

// SetAlias points alias at version, moving it if it already exists
func (s *sqliteStore) SetAlias(ctx context.Context, name, alias string, version int) error {
	if err := registry.CheckName("alias", alias); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := versionExists(ctx, tx, name, version); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO model_aliases(name, alias, version) VALUES(?, ?, ?)
ON CONFLICT(name, alias) DO UPDATE SET version = excluded.version`, name, alias, version); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAlias removes alias; deleting a missing alias is not an error
func (s *sqliteStore) DeleteAlias(ctx context.Context, name, alias string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM model_aliases WHERE name = ? AND alias = ?`, name, alias)
	return err
}

// GetByAlias resolves alias to its model version
func (s *sqliteStore) GetByAlias(ctx context.Context, name, alias string) (registry.ModelVersion, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM model_aliases WHERE name = ? AND alias = ?`, name, alias).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.ModelVersion{}, fmt.Errorf("model %s alias %q: %w", name, alias, internalerr.ErrNotFound)
	}
	if err != nil {
		return registry.ModelVersion{}, err
	}
	return s.GetVersion(ctx, name, version)
}

func runExists(ctx context.Context, tx *sql.Tx, runID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	return err
}

func versionExists(ctx context.Context, tx *sql.Tx, name string, version int) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM model_versions WHERE name = ? AND version = ?`, name, version).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("model %s version %d: %w", name, version, internalerr.ErrNotFound)
	}
	return err
}

func expectOne(res sql.Result, name string, version int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("model %s version %d: %w", name, version, internalerr.ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
