package testutil

import (
	"testing"

	"ohv-go/internal/cache"
	"ohv-go/internal/fs"
	"ohv-go/internal/ohv"
	"ohv-go/internal/patch"
	"ohv-go/internal/store"
)

// TestPrefix is the working-tree prefix used by NewTestEnv.
const TestPrefix = "vendor/upstream"

// TestEnv bundles a Service with direct handles on its in-memory collaborators.
type TestEnv struct {
	Store   *store.MemoryStore
	Blobs   *cache.MemoryCache
	Remote  *StubRemote
	Src     *fs.Tree
	Build   *fs.Tree
	Service *ohv.Service
}

// NewTestEnv creates a Service over memory-backed store, cache and trees,
// with working copies under TestPrefix.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithStore(t, store.NewMemoryStore())
}

// NewTestEnvWithStore is NewTestEnv with a caller-supplied tracking store.
// The MemoryStore handle is nil unless st is one.
func NewTestEnvWithStore(t *testing.T, st ohv.TrackingStore) *TestEnv {
	t.Helper()

	env := &TestEnv{
		Blobs:  cache.NewMemoryCache(),
		Remote: NewStubRemote(),
		Src:    fs.NewMemoryTree(),
		Build:  fs.NewMemoryTree(),
	}
	if ms, ok := st.(*store.MemoryStore); ok {
		env.Store = ms
	}
	env.Service = ohv.NewService(st, env.Blobs, env.Remote, env.Src, env.Build, TestPrefix, patch.New(), ohv.NewNopLogger())

	t.Cleanup(func() {
		st.Close()
	})
	return env
}

// LocalPath returns the working-tree location of a tracked path.
func (e *TestEnv) LocalPath(p string) string {
	return TestPrefix + "/" + p
}
