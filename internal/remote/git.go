package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"ohv-go/internal/ohv"
)

// GitRemote reads upstream files straight out of a git repository.
// A version is any revision git understands: tag, branch, or commit hash.
type GitRemote struct {
	repo       *git.Repository
	remoteRoot string
	mu         sync.Mutex
}

// NewGitRemote wraps an already opened repository.
func NewGitRemote(repo *git.Repository, remoteRoot string) *GitRemote {
	return &GitRemote{repo: repo, remoteRoot: remoteRoot}
}

// OpenGitRemote opens the repository at localPath, or, when localPath is
// empty, clones url into memory.
func OpenGitRemote(ctx context.Context, localPath, url, remoteRoot string, progress io.Writer) (*GitRemote, error) {
	if localPath != "" {
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return nil, fmt.Errorf("opening git repository %s: %w", localPath, err)
		}
		return NewGitRemote(repo, remoteRoot), nil
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:      url,
		Tags:     git.AllTags,
		Progress: progress,
	})
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: url, Err: fmt.Errorf("cloning: %w", err)}
	}
	return NewGitRemote(repo, remoteRoot), nil
}

func (r *GitRemote) resolve(version string) (*plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(version))
	if err == nil {
		return hash, nil
	}
	// branches of a clone only exist as remote-tracking refs
	if alt, altErr := r.repo.ResolveRevision(plumbing.Revision("origin/" + version)); altErr == nil {
		return alt, nil
	}
	return nil, err
}

// Fetch returns the file blob at version.
func (r *GitRemote) Fetch(ctx context.Context, version, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := path.Join(r.remoteRoot, p)
	location := version + ":" + name

	hash, err := r.resolve(version)
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: location, StatusCode: http.StatusNotFound, Err: fmt.Errorf("resolving revision: %w", err)}
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: location, Err: fmt.Errorf("loading commit: %w", err)}
	}

	file, err := commit.File(name)
	if err != nil {
		status := 0
		if errors.Is(err, object.ErrFileNotFound) {
			status = http.StatusNotFound
		}
		return nil, &ohv.RemoteFetchError{Location: location, StatusCode: status, Err: err}
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, &ohv.RemoteFetchError{Location: location, Err: fmt.Errorf("reading blob: %w", err)}
	}
	return []byte(contents), nil
}

// Compile-time check that GitRemote implements ohv.Remote interface
var _ ohv.Remote = (*GitRemote)(nil)
