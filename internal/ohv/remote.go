package ohv

import "context"

// Remote fetches upstream file content at a concrete version.
// A failure to obtain the content must be reported as a *RemoteFetchError.
type Remote interface {
	Fetch(ctx context.Context, version, path string) ([]byte, error)
}
