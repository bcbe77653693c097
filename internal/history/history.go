// Package history is an optional, demo-only persistence layer for search
// outcomes, grounded on the teacher's internal/db SQLite wrapper
// (open-with-pragmas, migrate-on-open, logger.Success on ready). It is
// never imported by the core search packages — persistence is an
// explicit non-goal there — and exists solely so the demo CLI (main.go)
// can record a history of past runs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"pathfx/internal/logger"
)

// Store wraps a SQLite database recording past search outcomes.
type Store struct {
	sql *sql.DB
	log *logger.Logger
}

// Open opens (or creates) the SQLite database at path and runs
// migrations.
func Open(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Default()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	s := &Store{sql: sqlDB, log: log}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	s.log.Success("opened search history store at %s", path)
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.sql.Close() }

func (s *Store) migrate() error {
	_, err := s.sql.Exec(`
		CREATE TABLE IF NOT EXISTS search_outcomes (
			search_id        TEXT PRIMARY KEY,
			source_currency  TEXT NOT NULL,
			target_currency  TEXT NOT NULL,
			recorded_at      TEXT NOT NULL,
			path_count       INTEGER NOT NULL,
			best_cost        TEXT,
			expansions_used  INTEGER NOT NULL,
			guard_breached   INTEGER NOT NULL
		);
	`)
	return err
}

// Outcome summarizes one search run for persistence.
type Outcome struct {
	SearchID        string
	SourceCurrency  string
	TargetCurrency  string
	RecordedAt      time.Time
	PathCount       int
	BestCost        string
	ExpansionsUsed  int
	GuardBreached   bool
}

// Record persists one search outcome.
func (s *Store) Record(o Outcome) error {
	_, err := s.sql.Exec(
		`INSERT OR REPLACE INTO search_outcomes
			(search_id, source_currency, target_currency, recorded_at, path_count, best_cost, expansions_used, guard_breached)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.SearchID, o.SourceCurrency, o.TargetCurrency, o.RecordedAt.Format(time.RFC3339),
		o.PathCount, o.BestCost, o.ExpansionsUsed, boolToInt(o.GuardBreached),
	)
	return err
}

// Recent returns the most recently recorded outcomes, newest first,
// limited to n rows.
func (s *Store) Recent(n int) ([]Outcome, error) {
	rows, err := s.sql.Query(
		`SELECT search_id, source_currency, target_currency, recorded_at, path_count, best_cost, expansions_used, guard_breached
		 FROM search_outcomes ORDER BY recorded_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var recordedAt string
		var breached int
		if err := rows.Scan(&o.SearchID, &o.SourceCurrency, &o.TargetCurrency, &recordedAt, &o.PathCount, &o.BestCost, &o.ExpansionsUsed, &breached); err != nil {
			return nil, err
		}
		o.GuardBreached = breached != 0
		if t, err := time.Parse(time.RFC3339, recordedAt); err == nil {
			o.RecordedAt = t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
