// Copyright Marco Kaiser, 2025. All rights reserved.

package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// SQLite persists finalized result sets across process runs. It honors
// the same contract as Memory; any database error degrades to a cache
// miss or a dropped store with a logged warning, never a failed fetch.
type SQLite struct {
	db      *sql.DB
	enabled bool
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewSQLite opens or creates the cache database at cfg.Path, creating
// the schema if needed.
func NewSQLite(cfg types.CacheConfig, logger zerolog.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &SQLite{
		db:      db,
		enabled: cfg.Enabled,
		ttl:     cfg.TTL(),
		now:     time.Now,
		logger:  logger.With().Str("component", "cache").Logger(),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		key        TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		complete   INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`)
	return err
}

// Get implements Store. Stale rows are deleted on lookup.
func (s *SQLite) Get(key Key) (Entry, bool) {
	if !s.enabled {
		return Entry{}, false
	}

	k := key.String()
	var (
		payload   string
		complete  bool
		createdAt string
	)
	err := s.db.QueryRow(
		`SELECT payload, complete, created_at FROM results WHERE key = ?`, k,
	).Scan(&payload, &complete, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache read failed, treating as miss")
		return Entry{}, false
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil || s.now().Sub(created) > s.ttl {
		if _, err := s.db.Exec(`DELETE FROM results WHERE key = ?`, k); err != nil {
			s.logger.Warn().Err(err).Msg("could not delete stale cache row")
		}
		return Entry{}, false
	}

	var papers []types.Paper
	if err := json.Unmarshal([]byte(payload), &papers); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt cache payload, treating as miss")
		return Entry{}, false
	}
	return Entry{Papers: papers, Complete: complete}, true
}

// Put implements Store. The row is written in one statement, so readers
// see either the prior entry or the new one.
func (s *SQLite) Put(key Key, entry Entry) {
	if !s.enabled {
		return
	}

	payload, err := json.Marshal(entry.Papers)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not encode cache payload")
		return
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO results (key, payload, complete, created_at) VALUES (?, ?, ?, ?)`,
		key.String(), string(payload), entry.Complete, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache write failed, result not stored")
	}
}

// Close implements Store.
func (s *SQLite) Close() error { return s.db.Close() }
