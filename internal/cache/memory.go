package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxEntries bounds a Memory created with a non-positive limit.
const DefaultMaxEntries = 4096

type entry struct {
	value   string
	expires time.Time
}

// Memory is an in-process Store holding at most maxEntries values. Expired
// entries are dropped by Sweep, by a full Set, or when read.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{entries: map[string]entry{}, maxEntries: maxEntries, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, ok := m.entries[key]; ok && !m.now().Before(cur.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.sweepLocked(now)
		if len(m.entries) >= m.maxEntries {
			m.evictOldestLocked()
		}
	}
	m.entries[key] = entry{value: value, expires: now.Add(ttl)}
}

// Sweep removes expired entries and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

// RunJanitor sweeps every interval until ctx is done.
func (m *Memory) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("memory cache sweep")
			}
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// evictOldestLocked drops the entry closest to expiry.
func (m *Memory) evictOldestLocked() {
	var (
		oldest string
		first  = true
		at     time.Time
	)
	for k, e := range m.entries {
		if first || e.expires.Before(at) {
			oldest, at, first = k, e.expires, false
		}
	}
	if !first {
		delete(m.entries, oldest)
	}
}
