package testutil

import (
	"testing"

	"ohv-go/internal/fs"
)

// NewTestTree creates an in-memory tree pre-populated with files (path -> content).
func NewTestTree(t *testing.T, files map[string]string) *fs.Tree {
	t.Helper()

	tree := fs.NewMemoryTree()
	for p, content := range files {
		if err := tree.WriteFile(p, []byte(content)); err != nil {
			t.Fatalf("seeding %s: %v", p, err)
		}
	}
	return tree
}

// ReadString reads p from tree, failing the test if it is absent.
func ReadString(t *testing.T, tree *fs.Tree, p string) string {
	t.Helper()

	data, err := tree.ReadFile(p)
	if err != nil {
		t.Fatalf("reading %s: %v", p, err)
	}
	return string(data)
}
