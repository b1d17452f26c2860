// Copyright Marco Kaiser, 2025. All rights reserved.

// Package cache memoizes finalized result sets so recently-seen queries
// do not re-poll the agent. Entries carry the completeness flag of the
// poll run that produced them and expire after a configured TTL.
package cache

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// Key identifies one cacheable fetch. Two requests differing in any
// field must never share an entry.
type Key struct {
	Query           string
	MaxResults      int
	Complete        bool
	SortByRelevance bool
	Enrich          bool
}

// String returns the deterministic storage key. Query text is normalized
// (lowercased, whitespace collapsed) so trivially different spellings of
// the same query share an entry.
func (k Key) String() string {
	return fmt.Sprintf("q=%s|max=%d|complete=%t|sorted=%t|enriched=%t",
		normalizeQuery(k.Query), k.MaxResults, k.Complete, k.SortByRelevance, k.Enrich)
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Entry is a finalized result set. Only sets the poller judged complete,
// or explicitly marked best-effort on timeout, are ever stored.
type Entry struct {
	Papers   []types.Paper `json:"papers"`
	Complete bool          `json:"complete"`
}

// Store is the result-cache contract. Implementations must be safe for
// concurrent use from multiple in-flight fetches.
type Store interface {
	// Get returns the cached entry for key if present and fresh.
	Get(key Key) (Entry, bool)

	// Put stores entry under key with the current timestamp, replacing
	// any prior entry.
	Put(key Key, entry Entry)

	// Close releases backend resources.
	Close() error
}

// New builds the store selected by cfg.Backend. A SQLite store that
// fails to open degrades to the in-memory store with a logged warning
// rather than failing the fetcher.
func New(cfg types.CacheConfig, logger zerolog.Logger) Store {
	if cfg.Backend == types.CacheSQLite {
		s, err := NewSQLite(cfg, logger)
		if err == nil {
			return s
		}
		logger.Warn().Err(err).Str("path", cfg.Path).
			Msg("sqlite cache unavailable, falling back to memory")
	}
	return NewMemory(cfg)
}
