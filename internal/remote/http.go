package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"ohv-go/internal/ohv"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPRemote fetches raw upstream files over HTTP(S) from
// <baseURL><owner>/<repo>/<version>/<remoteRoot>/<path>.
// No timeout or retry is applied; cancellation comes from ctx.
type HTTPRemote struct {
	client     *http.Client
	baseURL    string
	owner      string
	repo       string
	remoteRoot string
}

// NewHTTPRemote creates an HTTP remote. A nil client uses http.DefaultClient.
func NewHTTPRemote(client *http.Client, baseURL, owner, repo, remoteRoot string) *HTTPRemote {
	if client == nil {
		client = http.DefaultClient
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPRemote{
		client:     client,
		baseURL:    baseURL,
		owner:      owner,
		repo:       repo,
		remoteRoot: remoteRoot,
	}
}

// URL returns the location of path at version.
func (r *HTTPRemote) URL(version, p string) string {
	return r.baseURL + r.owner + "/" + r.repo + "/" + path.Join(version, r.remoteRoot, p)
}

// Fetch downloads the file. Any non-2xx status is a *ohv.RemoteFetchError.
func (r *HTTPRemote) Fetch(ctx context.Context, version, p string) ([]byte, error) {
	url := r.URL(version, p)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: url, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ohv.RemoteFetchError{
			Location:   url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return data, nil
}

// Compile-time check that HTTPRemote implements ohv.Remote interface
var _ ohv.Remote = (*HTTPRemote)(nil)
