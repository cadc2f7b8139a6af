package ohv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an expected file (working copy, cached blob) is absent.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by an exclusive checkout when the working copy is present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidVersion is returned when "local" is used where a concrete version is required.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidPath is returned for tracked paths that are absolute or escape their root.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotTracked is returned when migrating a path that has no recorded origin version.
	ErrNotTracked = errors.New("path is not tracked")
)

// RemoteFetchError reports a non-success response from a remote content provider.
// It is fatal for the whole run; nothing is retried.
type RemoteFetchError struct {
	Location   string // URL, bucket key or git revision that was requested
	StatusCode int    // HTTP-style status; 0 when the provider has none
	Body       string // excerpt of the response body, if any
	Err        error
}

func (e *RemoteFetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote fetch failed: %s", e.Location)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// PatchConflictError reports that at least one hunk of a local customization
// could not be relocated onto the target content.
type PatchConflictError struct {
	Path   string
	From   string
	To     string
	Failed []int // indices of hunks that did not apply
	Total  int
}

func (e *PatchConflictError) Error() string {
	return fmt.Sprintf("patch conflict migrating %s from %s to %s: %d of %d hunks failed %v",
		e.Path, e.From, e.To, len(e.Failed), e.Total, e.Failed)
}

// StoreInitError reports a tracking document that exists but cannot be parsed.
// Unlike an absent document, this must not be silently replaced.
type StoreInitError struct {
	Path string
	Err  error
}

func (e *StoreInitError) Error() string {
	return fmt.Sprintf("tracking store %s is unreadable: %v", e.Path, e.Err)
}

func (e *StoreInitError) Unwrap() error { return e.Err }
