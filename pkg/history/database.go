package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB stores scaffold runs in a local SQLite file.
type DB struct {
	db *sql.DB
}

// Open creates/opens the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h := &DB{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return h, nil
}

func (h *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER,
		blueprint TEXT NOT NULL,
		target TEXT,
		options TEXT,
		files INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		dry_run BOOLEAN DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_blueprint ON runs(blueprint);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Save inserts or replaces a run.
func (h *DB) Save(r Run) error {
	optionsJSON, err := json.Marshal(r.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO runs (
		id, started_at, duration_ms, blueprint, target, options,
		files, skipped, failures, status, error, dry_run
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = h.db.Exec(query,
		r.ID, r.StartedAt.UTC(), r.Duration.Milliseconds(), r.Blueprint, r.Target,
		string(optionsJSON), r.Files, r.Skipped, r.Failures, string(r.Status),
		r.Error, r.DryRun,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (h *DB) Recent(limit int) ([]Run, error) {
	query := `
	SELECT id, started_at, duration_ms, blueprint, target, options,
		files, skipped, failures, status, error, dry_run
	FROM runs ORDER BY started_at DESC LIMIT ?
	`

	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMs sql.NullInt64
		var target, optionsJSON, errMsg sql.NullString
		var status string

		err := rows.Scan(
			&r.ID, &r.StartedAt, &durationMs, &r.Blueprint, &target, &optionsJSON,
			&r.Files, &r.Skipped, &r.Failures, &status, &errMsg, &r.DryRun,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if durationMs.Valid {
			r.Duration = time.Duration(durationMs.Int64) * time.Millisecond
		}
		if optionsJSON.Valid && optionsJSON.String != "" {
			if err := json.Unmarshal([]byte(optionsJSON.String), &r.Options); err != nil {
				return nil, fmt.Errorf("failed to decode options of run %s: %w", r.ID, err)
			}
		}
		r.Target = target.String
		r.Error = errMsg.String
		r.Status = Status(status)

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Stats returns per-blueprint run counts, most used first.
func (h *DB) Stats() ([]BlueprintStat, error) {
	query := `
	SELECT blueprint, COUNT(*) AS runs,
		COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed,
		MAX(started_at) AS last_run
	FROM runs WHERE dry_run = 0
	GROUP BY blueprint ORDER BY runs DESC, blueprint
	`

	rows, err := h.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var stats []BlueprintStat
	for rows.Next() {
		var s BlueprintStat
		var lastRun string
		if err := rows.Scan(&s.Blueprint, &s.Runs, &s.Completed, &lastRun); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		s.LastRun = parseTimestamp(lastRun)
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// Prune deletes runs that started before cutoff.
func (h *DB) Prune(cutoff time.Time) (int64, error) {
	res, err := h.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

func (h *DB) Close() error {
	return h.db.Close()
}

// parseTimestamp handles aggregate results, which go-sqlite3 returns as
// text rather than time.Time.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
