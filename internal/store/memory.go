package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt int64
}

// Memory is an in-process Backend. Data is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, visitorID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[visitorID][key]
	if !ok || expired(m.now(), e.expiresAt) {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *Memory) Put(_ context.Context, visitorID, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.entries[visitorID]
	if !ok {
		values = make(map[string]memoryEntry)
		m.entries[visitorID] = values
	}
	values[key] = memoryEntry{value: stored, expiresAt: expiry(m.now(), ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, visitorID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries[visitorID], key)
	if len(m.entries[visitorID]) == 0 {
		delete(m.entries, visitorID)
	}
	return nil
}

func (m *Memory) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var count int64
	for visitorID, values := range m.entries {
		for key, e := range values {
			if expired(now, e.expiresAt) {
				delete(values, key)
				count++
			}
		}
		if len(values) == 0 {
			delete(m.entries, visitorID)
		}
	}
	return count, nil
}

func (m *Memory) Close() error {
	return nil
}
