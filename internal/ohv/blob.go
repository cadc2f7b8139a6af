package ohv

// BlobCache holds raw remote content keyed by cache key ("<version>/<path>").
// Blobs are mirrored verbatim; trust is decided by the TrackingStore's
// recorded hash, never by the cache itself.
type BlobCache interface {
	// Get returns the cached blob for key. Returns an error wrapping
	// ErrNotFound when no blob exists.
	Get(key string) ([]byte, error)

	// Put stores (or overwrites) the blob for key.
	Put(key string, data []byte) error
}
