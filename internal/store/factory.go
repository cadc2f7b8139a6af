package store

import (
	"fmt"
	"path/filepath"

	"ohv-go/internal/config"
	"ohv-go/internal/ohv"
)

// NewStoreFromConfig creates a TrackingStore implementation based on the store config type.
// Persistent stores live directly in cacheRoot.
func NewStoreFromConfig(cfg config.StoreConfig, cacheRoot string) (ohv.TrackingStore, error) {
	switch cfg.Type {
	case "", "json":
		if cacheRoot == "" {
			return nil, fmt.Errorf("cache_root required for json store")
		}
		return NewJSONStore(cacheRoot), nil
	case "sqlite":
		if cacheRoot == "" {
			return nil, fmt.Errorf("cache_root required for sqlite store")
		}
		s, err := NewSQLiteStore(filepath.Join(cacheRoot, SQLiteFileName))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
