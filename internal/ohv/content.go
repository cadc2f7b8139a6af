package ohv

import (
	"context"
	"errors"
	"fmt"
	"path"
)

// ContentCache answers "what did version V of this path look like".
// Concrete versions are served from the blob cache when the recorded hash
// still matches, and fetched from the remote otherwise. The pseudo-version
// "local" reads the working copy.
type ContentCache struct {
	store  TrackingStore
	blobs  BlobCache
	remote Remote
	src    WorkTree
	prefix string
	logger Logger
}

// NewContentCache creates a ContentCache. Working copies live at prefix/<path>
// inside src.
func NewContentCache(store TrackingStore, blobs BlobCache, remote Remote, src WorkTree, prefix string, logger Logger) *ContentCache {
	return &ContentCache{
		store:  store,
		blobs:  blobs,
		remote: remote,
		src:    src,
		prefix: prefix,
		logger: logger,
	}
}

// LocalPath returns the working-tree path of a tracked path.
func (c *ContentCache) LocalPath(p string) string {
	if c.prefix == "" {
		return p
	}
	return path.Join(c.prefix, p)
}

// Read returns the content of p at version.
func (c *ContentCache) Read(ctx context.Context, p, version string) (string, error) {
	if version == LocalVersion {
		data, err := c.src.ReadFile(c.LocalPath(p))
		if err != nil {
			return "", fmt.Errorf("reading working copy of %s: %w", p, err)
		}
		return string(data), nil
	}

	key := CacheKey(version, p)

	cached, err := c.blobs.Get(key)
	switch {
	case err == nil:
		recorded, ok, err := c.store.CacheHash(key)
		if err != nil {
			return "", fmt.Errorf("looking up cache entry %s: %w", key, err)
		}
		if ok && recorded == ContentHash(cached) {
			c.logger.Debug("cache hit", "key", key)
			return string(cached), nil
		}
		c.logger.Info("cached content changed, refetching", "key", key)
	case errors.Is(err, ErrNotFound):
		c.logger.Debug("cache miss", "key", key)
	default:
		c.logger.Warn("cached content unreadable, refetching", "key", key, "error", err)
	}

	data, err := c.remote.Fetch(ctx, version, p)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", key, err)
	}

	if err := c.store.SetCacheHash(key, ContentHash(data)); err != nil {
		return "", fmt.Errorf("recording cache entry %s: %w", key, err)
	}
	if err := c.blobs.Put(key, data); err != nil {
		return "", fmt.Errorf("caching %s: %w", key, err)
	}

	c.logger.Info("fetched from remote", "key", key, "size", len(data))
	return string(data), nil
}
