// Package sqlite persists profile snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// Store implements domain.SnapshotStore on SQLite. One row per profile, the
// whole snapshot as a JSON document.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL for better concurrency between the request path and the
	// fire-and-forget writers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS profile_snapshots (
		profile_id TEXT PRIMARY KEY,
		snapshot   TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load reads a profile snapshot. A missing row or a malformed document is
// "no data yet", never an error.
func (s *Store) Load(ctx context.Context, id domain.ProfileID) (*domain.ProfileSnapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM profile_snapshots WHERE profile_id = ?`, string(id),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", domain.ErrPersistenceFailure, err)
	}

	var snap domain.ProfileSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		observability.Logger().Warn("malformed snapshot, starting empty",
			"profile_id", id, "error", err)
		return nil, nil
	}
	return &snap, nil
}

func (s *Store) Save(ctx context.Context, id domain.ProfileID, snap *domain.ProfileSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", domain.ErrPersistenceFailure, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile_snapshots (profile_id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, string(id), string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: save snapshot: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}

// Profiles lists every profile with stored data.
func (s *Store) Profiles(ctx context.Context) ([]domain.ProfileID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile_id FROM profile_snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", domain.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	var out []domain.ProfileID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan profile: %v", domain.ErrPersistenceFailure, err)
		}
		out = append(out, domain.ProfileID(id))
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
