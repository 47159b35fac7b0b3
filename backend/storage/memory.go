package storage

import (
	"errors"
	"sync"
)

// Memory is an in-process Backend used by tests and local development.
// The mutex only guards against the Fiber test server hitting the map from
// another goroutine; there is no cross-process coordination.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte

	failWrites bool
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return errors.New("storage: write quota exceeded")
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.slots[key] = stored
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
	return nil
}

// FailWrites toggles write failures so tests can exercise the degraded
// persistence path.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failWrites = fail
}
