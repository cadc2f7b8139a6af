package ohv

// TrackingStore is the durable record of which tracked path is pinned to which
// origin version, and which cached remote blobs are known-good.
//
// Implementations rewrite their persisted form on every mutation. There is no
// cross-process coordination: concurrent runs against the same store race and
// the last write wins.
type TrackingStore interface {
	// Sources returns a copy of the path -> origin version map.
	Sources() (map[string]string, error)

	// Source returns the origin version recorded for path.
	// ok is false when the path is not tracked.
	Source(path string) (version string, ok bool, err error)

	// SetSource records the origin version for path and persists the store.
	SetSource(path, version string) error

	// CacheHash returns the content hash recorded for a cache key.
	// ok is false when nothing has been fetched for the key.
	CacheHash(key string) (hash string, ok bool, err error)

	// SetCacheHash records the content hash for a cache key and persists the store.
	SetCacheHash(key, hash string) error

	// Close releases any resources held by the store.
	Close() error
}
