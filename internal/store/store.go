// Package store handles SQLite persistence of timer history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/pomo/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for phase history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS phases (
			id INTEGER PRIMARY KEY,
			ended_at TEXT NOT NULL,
			phase TEXT NOT NULL,
			duration_s INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_phases_ended_at ON phases(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertPhase stores a fired phase boundary.
func (s *Store) InsertPhase(ctx context.Context, ev model.PhaseEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO phases (ended_at, phase, duration_s) VALUES (?, ?, ?)`,
		ev.EndedAt.UTC().Format(time.RFC3339Nano),
		ev.Phase.String(),
		ev.DurationS,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPhases returns recorded phases in chronological order.
func (s *Store) ListPhases(ctx context.Context, cfg model.HistoryConfig) ([]model.PhaseEvent, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, phase, duration_s
		FROM phases
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.PhaseEvent
	for rows.Next() {
		var ev model.PhaseEvent
		var endedAt, phase string
		if err := rows.Scan(&ev.ID, &endedAt, &phase, &ev.DurationS); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		ev.EndedAt = parsed
		ev.Phase = model.PhaseWork
		if phase == model.PhaseBreak.String() {
			ev.Phase = model.PhaseBreak
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
