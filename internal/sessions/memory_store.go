package sessions

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// development. It is not shared between processes.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[string]memoryEntry), now: time.Now}
}

// WithClock replaces the store's time source. Intended for tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *MemoryStore) Put(ctx context.Context, subject, value string, ttl time.Duration) error {
	if err := checkPut(subject, ttl); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[subject] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, subject string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.store[subject]
	now := m.now()
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !now.Before(e.expiresAt) {
		m.mu.Lock()
		// only evict if no newer Put replaced it meanwhile
		if cur, still := m.store[subject]; still && cur == e {
			delete(m.store, subject)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Delete(ctx context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, subject)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Len returns the number of entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}
