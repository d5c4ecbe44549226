package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MockStore is an in-memory implementation of Store for testing.
type MockStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	puts   int
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the value under key.
func (m *MockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores a copy of value under key.
func (m *MockStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	m.puts++
	return nil
}

// Delete removes key.
func (m *MockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns the stored keys sorted.
func (m *MockStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Puts reports how many writes the store has received.
func (m *MockStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
