package cache

import (
	"fmt"
	"path/filepath"

	"ohv-go/internal/config"
	"ohv-go/internal/ohv"
)

// NewCacheFromConfig creates a BlobCache implementation based on the cache config type.
// Filesystem blobs live under <cacheRoot>/raw.
func NewCacheFromConfig(cfg config.CacheConfig, cacheRoot string) (ohv.BlobCache, error) {
	switch cfg.Type {
	case "", "filesystem":
		if cacheRoot == "" {
			return nil, fmt.Errorf("filesystem cache requires cache_root to be set")
		}
		return NewFileSystemCache(filepath.Join(cacheRoot, "raw"))
	case "memory":
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
