package cache

import (
	"fmt"
	"sync"

	"ohv-go/internal/ohv"
)

// MemoryCache is an in-memory implementation of the BlobCache interface.
// It is useful for testing and for runs that must not touch the cache directory.
// This implementation is safe for concurrent use.
type MemoryCache struct {
	blobs map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{blobs: make(map[string][]byte)}
}

// Get returns a copy of the cached blob for key.
func (m *MemoryCache) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, ohv.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data under key.
func (m *MemoryCache) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Compile-time check that MemoryCache implements ohv.BlobCache interface
var _ ohv.BlobCache = (*MemoryCache)(nil)
