package testutil

import (
	"context"
	"net/http"
	"path"
	"sync"

	"ohv-go/internal/ohv"
)

// StubRemote is an in-memory ohv.Remote that counts fetches.
// Unknown files fail with a 404 *ohv.RemoteFetchError.
type StubRemote struct {
	mu    sync.Mutex
	files map[string]string
	calls map[string]int
	fail  map[string]error
}

func NewStubRemote() *StubRemote {
	return &StubRemote{
		files: make(map[string]string),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func remoteKey(version, p string) string {
	return path.Join(version, p)
}

// Set publishes content for p at version.
func (r *StubRemote) Set(version, p, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[remoteKey(version, p)] = content
}

// FailWith makes every fetch of p at version return err.
func (r *StubRemote) FailWith(version, p string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[remoteKey(version, p)] = err
}

// Calls returns how many times p at version was fetched.
func (r *StubRemote) Calls(version, p string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[remoteKey(version, p)]
}

// TotalCalls returns the number of fetches across all files.
func (r *StubRemote) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *StubRemote) Fetch(ctx context.Context, version, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := remoteKey(version, p)
	r.calls[key]++

	if err, ok := r.fail[key]; ok {
		return nil, err
	}
	content, ok := r.files[key]
	if !ok {
		return nil, &ohv.RemoteFetchError{Location: "stub://" + key, StatusCode: http.StatusNotFound, Body: "404: Not Found"}
	}
	return []byte(content), nil
}

// Compile-time check
var _ ohv.Remote = (*StubRemote)(nil)
