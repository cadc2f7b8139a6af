package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"ohv-go/internal/ohv"
)

// Tree is a WorkTree over a go-billy filesystem. Paths are slash-separated
// and relative to the filesystem root; the chroot keeps them from escaping it.
type Tree struct {
	fs billy.Filesystem
}

// NewOSTree creates a Tree rooted at dir on the real filesystem.
// The directory does not need to exist yet; it is created on first write.
func NewOSTree(dir string) *Tree {
	return NewTree(osfs.New(dir))
}

// NewMemoryTree creates an empty in-memory Tree. Useful for tests.
func NewMemoryTree() *Tree {
	return NewTree(memfs.New())
}

// NewTree wraps an existing billy filesystem.
func NewTree(fs billy.Filesystem) *Tree {
	return &Tree{fs: fs}
}

// Root returns the root of the underlying filesystem ("/" for memory trees).
func (t *Tree) Root() string {
	return t.fs.Root()
}

// ReadFile returns the content of the file at p.
func (t *Tree) ReadFile(p string) ([]byte, error) {
	info, err := t.fs.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ohv.ErrNotFound, p)
		}
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ohv.ErrNotFound, p)
	}

	f, err := t.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// WriteFile writes data to p, creating parent directories as needed.
func (t *Tree) WriteFile(p string, data []byte) error {
	if dir := path.Dir(p); dir != "." {
		if err := t.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(t.fs, p, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// Exists reports whether a regular file exists at p.
func (t *Tree) Exists(p string) (bool, error) {
	info, err := t.fs.Stat(p)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", p, err)
	}
}

// Compile-time check that Tree implements ohv.WorkTree interface
var _ ohv.WorkTree = (*Tree)(nil)
