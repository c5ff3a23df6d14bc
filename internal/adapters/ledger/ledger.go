// Package ledger records stage runs and their per-match outcomes in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/epvprep/internal/domain/types"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	ok          INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX runs_started_at ON runs (started_at DESC);
CREATE TABLE match_outcomes (
	run_id      TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	match_id    TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	events_in   INTEGER NOT NULL,
	events_out  INTEGER NOT NULL,
	counters    TEXT NOT NULL DEFAULT '{}',
	duration_ms INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);
`

// Run is one row of the runs table.
type Run struct {
	ID        string
	Stage     types.Stage
	StartedAt time.Time
	Duration  time.Duration
	OK        int
	Skipped   int
	Failed    int
	Error     string
}

// Ledger is an append-only audit trail of stage runs.
type Ledger struct {
	db   *sql.DB
	path string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open initializes or connects to the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path}
	if err := l.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Record stores a stage report and the error that ended the run, if any.
func (l *Ledger) Record(ctx context.Context, report *types.StageReport, runErr error) error {
	if report.RunID == "" {
		return fmt.Errorf("%w: empty run id", ErrInvalidRun)
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, stage, started_at, duration_ms, ok, skipped, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		string(report.Stage),
		report.StartedAt.UnixMilli(),
		report.Duration.Milliseconds(),
		report.Count(types.StatusOK),
		report.Count(types.StatusSkipped),
		report.Count(types.StatusFailed),
		errText(runErr),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_outcomes
		 (run_id, seq, match_id, status, reason, events_in, events_out, counters, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range report.Matches {
		counters, err := json.Marshal(nonNilCounters(m.Counters))
		if err != nil {
			return fmt.Errorf("encode counters for %s: %w", m.MatchID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, i, m.MatchID, string(m.Status), m.Reason,
			m.EventsIn, m.EventsOut, string(counters), m.Duration.Milliseconds(), errText(m.Err),
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", m.MatchID, err)
		}
	}
	return tx.Commit()
}

// Runs returns the most recent runs first, up to limit. A limit below 1
// returns every run.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, stage, started_at, duration_ms, ok, skipped, failed, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r         Run
			stage     string
			startedMS int64
			durMS     int64
		)
		if err := rows.Scan(&r.ID, &stage, &startedMS, &durMS, &r.OK, &r.Skipped, &r.Failed, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Stage = types.Stage(stage)
		r.StartedAt = time.UnixMilli(startedMS)
		r.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcomes returns the per-match outcomes of a run in report order.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]types.MatchResult, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT match_id, status, reason, events_in, events_out, counters, duration_ms, error
		 FROM match_outcomes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []types.MatchResult
	for rows.Next() {
		var (
			m        types.MatchResult
			status   string
			counters string
			durMS    int64
			errMsg   string
		)
		if err := rows.Scan(&m.MatchID, &status, &m.Reason, &m.EventsIn, &m.EventsOut, &counters, &durMS, &errMsg); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		m.Status = types.Status(status)
		m.Duration = time.Duration(durMS) * time.Millisecond
		if err := json.Unmarshal([]byte(counters), &m.Counters); err != nil {
			return nil, fmt.Errorf("decode counters for %s: %w", m.MatchID, err)
		}
		if errMsg != "" {
			m.Err = recordedError(errMsg)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// recordedError is an error read back from the ledger.
type recordedError string

func (e recordedError) Error() string { return string(e) }

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func nonNilCounters(c map[string]int) map[string]int {
	if c == nil {
		return map[string]int{}
	}
	return c
}
