package cache

import (
	"context"
	"sync"
	"time"
)

// memoryStore is the default in-process cache backend
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-process cache. Entries older than ttl count as
// misses; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.Invalidate(ctx, key)
		return nil, false
	}

	return entry.value, true
}

func (m *memoryStore) Set(ctx context.Context, key string, value []byte) {
	entry := memoryEntry{value: value}
	if m.ttl > 0 {
		entry.expiresAt = time.Now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}

func (m *memoryStore) Invalidate(ctx context.Context, keys ...string) {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
