// Package store provides SQLite persistence for analysis history, the dog
// profile and user feedback.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/canisense/internal/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Store handles SQLite persistence.
// All methods are safe for concurrent use via the internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at dbPath, creating tables if they don't exist.
// ":memory:" opens an in-memory database that lives until Close.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	} else if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id          TEXT PRIMARY KEY,
		created_at  INTEGER NOT NULL,
		state       TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		confidence  REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at DESC);

	CREATE TABLE IF NOT EXISTS profile (
		id     INTEGER PRIMARY KEY CHECK (id = 1),
		name   TEXT NOT NULL DEFAULT '',
		age    INTEGER NOT NULL DEFAULT 0,
		energy INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS feedback (
		analysis_id TEXT PRIMARY KEY,
		created_at  INTEGER NOT NULL,
		correct     INTEGER NOT NULL,
		comment     TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveHistory inserts or replaces a history entry
func (s *Store) SaveHistory(ctx context.Context, e model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		return errors.New("history entry without id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO history (id, created_at, state, explanation, confidence)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Date.UnixMilli(), string(e.State), e.Explanation, e.Confidence)
	if err != nil {
		return fmt.Errorf("save history %s: %w", e.ID, err)
	}
	return nil
}

// GetHistory returns one history entry by id
func (s *Store) GetHistory(ctx context.Context, id string) (model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, state, explanation, confidence
		FROM history WHERE id = ?
	`, id)
	e, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryEntry{}, fmt.Errorf("history %s: %w", id, ErrNotFound)
	}
	return e, err
}

// RecentHistory returns up to n entries, newest first
func (s *Store) RecentHistory(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentHistory(ctx, n)
}

func (s *Store) recentHistory(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, state, explanation, confidence
		FROM history
		ORDER BY created_at DESC, id
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(sc scanner) (model.HistoryEntry, error) {
	var (
		e       model.HistoryEntry
		created int64
		state   string
	)
	if err := sc.Scan(&e.ID, &created, &state, &e.Explanation, &e.Confidence); err != nil {
		return model.HistoryEntry{}, err
	}
	e.Date = time.UnixMilli(created).UTC()
	e.State = model.SyntheticState(state)
	return e, nil
}

// LoadProfile returns the stored profile, or the zero profile when none
// has been saved
func (s *Store) LoadProfile(ctx context.Context) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadProfile(ctx)
}

func (s *Store) loadProfile(ctx context.Context) (model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowContext(ctx, `SELECT name, age, energy FROM profile WHERE id = 1`).
		Scan(&p.Name, &p.Age, &p.Energy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, nil
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// SaveProfile replaces the stored profile
func (s *Store) SaveProfile(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, name, age, energy) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, age = excluded.age, energy = excluded.energy
	`, p.Name, p.Age, p.Energy)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// SaveFeedback records the user's verdict on a past analysis.
// Returns ErrNotFound if the analysis id is unknown.
func (s *Store) SaveFeedback(ctx context.Context, f model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM history WHERE id = ?`, f.AnalysisID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("analysis %s: %w", f.AnalysisID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO feedback (analysis_id, created_at, correct, comment)
		VALUES (?, ?, ?, ?)
	`, f.AnalysisID, f.Timestamp.UnixMilli(), boolToInt(f.Correct), f.Comment)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

// GetFeedback returns the feedback left on an analysis
func (s *Store) GetFeedback(ctx context.Context, analysisID string) (model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		f       model.Feedback
		created int64
		correct int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT analysis_id, created_at, correct, comment FROM feedback WHERE analysis_id = ?
	`, analysisID).Scan(&f.AnalysisID, &created, &correct, &f.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Feedback{}, fmt.Errorf("feedback %s: %w", analysisID, ErrNotFound)
	}
	if err != nil {
		return model.Feedback{}, fmt.Errorf("load feedback: %w", err)
	}
	f.Timestamp = time.UnixMilli(created).UTC()
	f.Correct = correct != 0
	return f, nil
}

// Snapshot reads the recent history and profile in one consistent view
func (s *Store) Snapshot(ctx context.Context, recent int) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.recentHistory(ctx, recent)
	if err != nil {
		return model.Snapshot{}, err
	}
	profile, err := s.loadProfile(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Recent: entries, Profile: profile}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
