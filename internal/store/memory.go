package store

import (
	"maps"
	"sync"

	"ohv-go/internal/ohv"
)

// MemoryStore is an in-memory implementation of the TrackingStore interface.
// Nothing is persisted, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	src   map[string]string
	cache map[string]string
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		src:   make(map[string]string),
		cache: make(map[string]string),
	}
}

func (m *MemoryStore) Sources() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.src), nil
}

func (m *MemoryStore) Source(path string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.src[path]
	return v, ok, nil
}

func (m *MemoryStore) SetSource(path, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src[path] = version
	return nil
}

func (m *MemoryStore) CacheHash(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.cache[key]
	return h, ok, nil
}

func (m *MemoryStore) SetCacheHash(key, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = hash
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Compile-time check that MemoryStore implements ohv.TrackingStore interface
var _ ohv.TrackingStore = (*MemoryStore)(nil)
