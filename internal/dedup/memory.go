package dedup

import (
	"context"
	"sync"
)

// memoryStore is the default session-scoped backing: keys live only as
// long as the process.
type memoryStore struct {
	mu     sync.Mutex
	byKey  map[string]string // key -> day
	closed bool
}

func NewMemory() Store {
	return &memoryStore{byKey: map[string]string{}}
}

func (m *memoryStore) Seen(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.byKey[key]
	return ok, nil
}

func (m *memoryStore) Mark(ctx context.Context, key string, day string) error {
	if key == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.byKey[key] = day
	return nil
}

func (m *memoryStore) PruneBefore(ctx context.Context, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for k, d := range m.byKey {
		// "YYYY-MM-DD" sorts lexicographically in date order.
		if d < day {
			delete(m.byKey, k)
		}
	}
	return nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.byKey = map[string]string{}
	return nil
}
