// Package history keeps suite runs and scenario results in sqlite.
// Reports are appended after each run, reading is for the cli listing and flaky scenario stats.
package history

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/umputun/loginprobe/app/scenario"
)

// Run is a stored suite run
type Run struct {
	ID        int64         `db:"id"`
	StartedAt time.Time     `db:"-"`
	Started   int64         `db:"started_at"` // unix ms
	Duration  time.Duration `db:"duration"`
	Passed    int           `db:"passed"`
	Failed    int           `db:"failed"`
	Skipped   int           `db:"skipped"`
	Host      string        `db:"host"`
}

// Result is a stored scenario result
type Result struct {
	RunID      int64         `db:"run_id"`
	ScenarioID string        `db:"scenario_id"`
	Name       string        `db:"name"`
	State      string        `db:"state"`
	Error      string        `db:"error"`
	Reason     string        `db:"reason"`
	Duration   time.Duration `db:"duration"`
	Screenshot string        `db:"screenshot"`
	Attempts   int           `db:"attempts"`
}

// Stat of a scenario over the stored runs
type Stat struct {
	ScenarioID string `db:"scenario_id"`
	Runs       int    `db:"runs"`
	Failed     int    `db:"failed"`
	Retried    int    `db:"retried"` // passed after more than one attempt
}

// Flaky is true if scenario both failed or needed retries and passed
func (s Stat) Flaky() bool { return s.Failed+s.Retried > 0 && s.Failed < s.Runs }

// SQLite store of runs
type SQLite struct {
	db *sqlx.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		host TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		run_id INTEGER NOT NULL,
		scenario_id TEXT NOT NULL,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL,
		screenshot TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_results_scenario_id ON results(scenario_id)`,
}

// NewSQLite opens or creates the database and its schema
func NewSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create history schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// Save stores the report with all results, returns run id
func (s *SQLite) Save(ctx context.Context, host string, started time.Time, rep scenario.Report) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `INSERT INTO runs (started_at, duration, passed, failed, skipped, host)
		VALUES (?, ?, ?, ?, ?, ?)`, started.UnixMilli(), int64(rep.Duration), rep.Passed, rep.Failed, rep.Skipped, host)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, r := range rep.Results {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO results
			(run_id, scenario_id, name, state, error, reason, duration, screenshot, attempts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, runID, r.ID, r.Name, r.State.String(), errMsg, r.Reason,
			int64(r.Duration), r.Screenshot, r.Attempts); err != nil {
			return 0, fmt.Errorf("failed to save result %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	log.Printf("[DEBUG] run %d saved with %d results", runID, len(rep.Results))
	return runID, nil
}

// Runs returns last runs, newest first
func (s *SQLite) Runs(ctx context.Context, limit int) ([]Run, error) {
	runs := []Run{}
	if err := s.db.SelectContext(ctx, &runs, `SELECT id, started_at, duration, passed, failed, skipped, host
		FROM runs ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}
	for i := range runs {
		runs[i].StartedAt = time.UnixMilli(runs[i].Started)
	}
	return runs, nil
}

// Results returns results of the run in scenario order
func (s *SQLite) Results(ctx context.Context, runID int64) ([]Result, error) {
	res := []Result{}
	if err := s.db.SelectContext(ctx, &res, `SELECT run_id, scenario_id, name, state, error, reason, duration,
		screenshot, attempts FROM results WHERE run_id = ? ORDER BY rowid`, runID); err != nil {
		return nil, fmt.Errorf("failed to load results of run %d: %w", runID, err)
	}
	return res, nil
}

// Stats aggregates results of the last runs per scenario, skipped results are not counted
func (s *SQLite) Stats(ctx context.Context, lastRuns int) ([]Stat, error) {
	stats := []Stat{}
	err := s.db.SelectContext(ctx, &stats, `SELECT scenario_id, COUNT(*) AS runs,
		SUM(CASE WHEN state = 'failed' THEN 1 ELSE 0 END) AS failed,
		SUM(CASE WHEN state = 'passed' AND attempts > 1 THEN 1 ELSE 0 END) AS retried
		FROM results
		WHERE state != 'skipped' AND run_id IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)
		GROUP BY scenario_id ORDER BY scenario_id`, lastRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

// Close the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
