// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/attendo/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store keeps settings durably and counters for a session that expires
// sessionTTL after its last change.
type Store struct {
	db         *sql.DB
	sessionTTL time.Duration
	now        func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, sessionTTL time.Duration) (*Store, error) {
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be > 0")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, sessionTTL: sessionTTL, now: time.Now}
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
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			required_percentage REAL,
			classes_per_day INTEGER NOT NULL,
			days_per_week INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS counters (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			session_id TEXT NOT NULL,
			present REAL,
			total REAL,
			started_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings returns the stored settings, if any.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, bool, error) {
	var required sql.NullFloat64
	var settings model.Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT required_percentage, classes_per_day, days_per_week FROM settings WHERE id = 1`,
	).Scan(&required, &settings.ClassesPerDay, &settings.DaysPerWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, false, nil
	}
	if err != nil {
		return model.Settings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}
	if !required.Valid {
		return model.Settings{}, false, fmt.Errorf("stored required percentage is null")
	}
	settings.RequiredPercentage = required.Float64
	return settings, true, nil
}

// SaveSettings stores the settings.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (id, required_percentage, classes_per_day, days_per_week, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			required_percentage = excluded.required_percentage,
			classes_per_day = excluded.classes_per_day,
			days_per_week = excluded.days_per_week,
			updated_at = excluded.updated_at`,
		settings.RequiredPercentage,
		settings.ClassesPerDay,
		settings.DaysPerWeek,
		s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// LoadCounters returns the counters of the live session. An expired session
// is dropped and reported as absent.
func (s *Store) LoadCounters(ctx context.Context) (model.Counters, bool, error) {
	row, ok, err := s.loadCounterRow(ctx, s.db)
	if err != nil || !ok {
		return model.Counters{}, false, err
	}
	if s.expired(row.session.UpdatedAt) {
		if err := s.ClearCounters(ctx); err != nil {
			return model.Counters{}, false, err
		}
		return model.Counters{}, false, nil
	}
	if !row.present.Valid || !row.total.Valid {
		return model.Counters{}, false, fmt.Errorf("stored counters are null")
	}
	return model.Counters{Present: row.present.Float64, Total: row.total.Float64}, true, nil
}

// SaveCounters stores the counters, starting a new session when the previous
// one is missing or expired.
func (s *Store) SaveCounters(ctx context.Context, c model.Counters) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	now := s.now()
	row, ok, err := s.loadCounterRow(ctx, tx)
	if err != nil {
		return err
	}
	session := row.session
	if !ok || s.expired(session.UpdatedAt) {
		session = model.SessionInfo{ID: uuid.NewString(), StartedAt: now}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO counters (id, session_id, present, total, started_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			present = excluded.present,
			total = excluded.total,
			started_at = excluded.started_at,
			updated_at = excluded.updated_at`,
		session.ID,
		c.Present,
		c.Total,
		session.StartedAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save counters: %w", err)
	}
	return tx.Commit()
}

// ClearCounters ends the current session.
func (s *Store) ClearCounters(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM counters`); err != nil {
		return fmt.Errorf("failed to clear counters: %w", err)
	}
	return nil
}

// Session describes the live counters session, if any.
func (s *Store) Session(ctx context.Context) (model.SessionInfo, bool, error) {
	row, ok, err := s.loadCounterRow(ctx, s.db)
	if err != nil || !ok || s.expired(row.session.UpdatedAt) {
		return model.SessionInfo{}, false, err
	}
	row.session.ExpiresAt = row.session.UpdatedAt.Add(s.sessionTTL)
	return row.session, true, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type counterRow struct {
	session model.SessionInfo
	present sql.NullFloat64
	total   sql.NullFloat64
}

func (s *Store) loadCounterRow(ctx context.Context, q queryer) (counterRow, bool, error) {
	var row counterRow
	var startedAt, updatedAt string
	err := q.QueryRowContext(ctx,
		`SELECT session_id, present, total, started_at, updated_at FROM counters WHERE id = 1`,
	).Scan(&row.session.ID, &row.present, &row.total, &startedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return counterRow{}, false, nil
	}
	if err != nil {
		return counterRow{}, false, fmt.Errorf("failed to load counters: %w", err)
	}
	if row.session.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return counterRow{}, false, fmt.Errorf("failed to parse session start: %w", err)
	}
	if row.session.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return counterRow{}, false, fmt.Errorf("failed to parse session update: %w", err)
	}
	return row, true, nil
}

func (s *Store) expired(updatedAt time.Time) bool {
	return s.now().Sub(updatedAt) > s.sessionTTL
}
