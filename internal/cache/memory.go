// Copyright Marco Kaiser, 2025. All rights reserved.

package cache

import (
	"sync"
	"time"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// Memory is the in-process result cache: a mutex-guarded map with TTL
// expiry enforced on read. Entries are stored whole, so a Get racing a
// Put sees either the old or the new entry, never a partial one.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	enabled bool
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	entry     Entry
	createdAt time.Time
}

// NewMemory builds an in-memory store from cfg. When caching is disabled
// Get always misses and Put is a no-op.
func NewMemory(cfg types.CacheConfig) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		enabled: cfg.Enabled,
		ttl:     cfg.TTL(),
		now:     time.Now,
	}
}

// Get implements Store. Stale entries are discarded on lookup.
func (m *Memory) Get(key Key) (Entry, bool) {
	if !m.enabled {
		return Entry{}, false
	}

	k := key.String()
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[k]
	if !ok {
		return Entry{}, false
	}
	if m.now().Sub(e.createdAt) > m.ttl {
		delete(m.entries, k)
		return Entry{}, false
	}
	return e.entry, true
}

// Put implements Store.
func (m *Memory) Put(key Key, entry Entry) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.String()] = memoryEntry{entry: entry, createdAt: m.now()}
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
