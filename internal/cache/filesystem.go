package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"ohv-go/internal/ohv"
)

// FileSystemCache is a billy-backed implementation of the BlobCache interface.
// Blobs mirror the fetched remote content verbatim:
//
//	<root>/
//	  <version>/
//	    <path>     (raw content of <path> at <version>)
type FileSystemCache struct {
	fs billy.Filesystem
}

// NewFileSystemCache creates a cache rooted at root on the real filesystem.
func NewFileSystemCache(root string) (*FileSystemCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return NewFileSystemCacheFrom(osfs.New(root)), nil
}

// NewFileSystemCacheFrom wraps an existing billy filesystem, such as memfs in tests.
func NewFileSystemCacheFrom(fs billy.Filesystem) *FileSystemCache {
	return &FileSystemCache{fs: fs}
}

// Get returns the cached blob for key.
func (c *FileSystemCache) Get(key string) ([]byte, error) {
	f, err := c.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", key, ohv.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Put stores data under key using an atomic write (temp file + rename).
func (c *FileSystemCache) Put(key string, data []byte) error {
	dir := path.Dir(key)
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := util.TempFile(c.fs, dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			c.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := c.fs.Rename(tmpPath, key); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemCache implements ohv.BlobCache interface
var _ ohv.BlobCache = (*FileSystemCache)(nil)
