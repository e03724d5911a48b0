package persistence

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// Registry is an optional secondary index over run directories, backed
// by a pure-Go SQLite database (SPEC_FULL.md domain stack). The
// filesystem remains the sole source of truth per §4.2 — Registry only
// accelerates findLatestResumableRun for installations with many
// thousands of historical run directories, where a directory scan plus
// per-run JSON parse becomes the bottleneck. Every record here is
// derivable by re-scanning the artifact base directory, so a missing
// or corrupt registry database is never fatal: callers fall back to
// FindLatestResumableRun.
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (creating if necessary) the SQLite index file at
// path and ensures its schema exists.
func OpenRegistry(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, reachc.New(reachc.CodeInternal, "failed to open run registry database").WithCause(err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	run_dir TEXT NOT NULL,
	current_state TEXT NOT NULL,
	last_saved TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, reachc.New(reachc.CodeInternal, "failed to initialize run registry schema").WithCause(err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error { return r.db.Close() }

// Upsert records or updates one run's latest known state. Called by
// the Orchestrator alongside every C2 Save so the index never drifts
// far from disk truth.
func (r *Registry) Upsert(runID, runDir string, doc StateDocument) error {
	_, err := r.db.Exec(
		`INSERT INTO runs (run_id, run_dir, current_state, last_saved, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
		   current_state = excluded.current_state,
		   last_saved = excluded.last_saved,
		   updated_at = excluded.updated_at`,
		runID, runDir, string(doc.Context.CurrentState), doc.LastSaved, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return reachc.New(reachc.CodeInternal, "failed to upsert run registry record").WithCause(err)
	}
	return nil
}

// RegistryHit is one row of a candidate lookup.
type RegistryHit struct {
	RunID        string
	RunDir       string
	CurrentState string
}

// LatestNonTerminal returns the most recently updated run directory
// whose last known state was not COMPLETE or FAILED, or (false) if the
// index has no such row — the caller then falls back to
// FindLatestResumableRun's full directory scan.
func (r *Registry) LatestNonTerminal() (RegistryHit, bool, error) {
	row := r.db.QueryRow(
		`SELECT run_id, run_dir, current_state FROM runs
		 WHERE current_state NOT IN ('COMPLETE', 'FAILED')
		 ORDER BY updated_at DESC LIMIT 1`,
	)
	var hit RegistryHit
	if err := row.Scan(&hit.RunID, &hit.RunDir, &hit.CurrentState); err != nil {
		if err == sql.ErrNoRows {
			return RegistryHit{}, false, nil
		}
		return RegistryHit{}, false, reachc.New(reachc.CodeInternal, "failed to query run registry").WithCause(err)
	}
	return hit, true, nil
}
