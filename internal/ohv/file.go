package ohv

import (
	"context"
	"errors"
	"fmt"

	"ohv-go/internal/patch"
)

// SourceFile binds the per-path operations (read, checkout, diff, migrate)
// for a single tracked path.
type SourceFile struct {
	path   string
	cache  *ContentCache
	store  TrackingStore
	src    WorkTree
	engine *patch.Engine
	logger Logger
}

// MigrateResult is the outcome of migrating one path.
type MigrateResult struct {
	Path    string
	From    string
	To      string
	Content string
	Hunks   int // number of hunks replayed onto the target content
}

// Path returns the tracked path this binding operates on.
func (f *SourceFile) Path() string {
	return f.path
}

// Read returns the content of the file at version ("local" for the working copy).
func (f *SourceFile) Read(ctx context.Context, version string) (string, error) {
	return f.cache.Read(ctx, f.path, version)
}

// Checkout ensures the working copy exists, fetching it at version when absent.
// When the working copy is present, failIfExists selects between
// ErrAlreadyExists and a no-op. A working copy that exists but cannot be read
// aborts the checkout rather than being overwritten. Only a fresh checkout
// records the origin version.
func (f *SourceFile) Checkout(ctx context.Context, version string, failIfExists bool) error {
	if version == LocalVersion {
		return fmt.Errorf("checkout %s: %w: %q is not a checkout source", f.path, ErrInvalidVersion, version)
	}

	_, err := f.Read(ctx, LocalVersion)
	if err == nil {
		if failIfExists {
			return fmt.Errorf("checkout %s: %w: %s", f.path, ErrAlreadyExists, f.cache.LocalPath(f.path))
		}
		f.logger.Debug("working copy present, skipping checkout", "path", f.path)
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checkout %s: %w", f.path, err)
	}

	content, err := f.Read(ctx, version)
	if err != nil {
		return fmt.Errorf("checkout %s: %w", f.path, err)
	}

	if err := f.src.WriteFile(f.cache.LocalPath(f.path), []byte(content)); err != nil {
		return fmt.Errorf("writing working copy of %s: %w", f.path, err)
	}

	if err := f.store.SetSource(f.path, version); err != nil {
		return fmt.Errorf("recording origin of %s: %w", f.path, err)
	}

	f.logger.Info("checked out", "path", f.path, "version", version)
	return nil
}

// Touch is a non-exclusive Checkout: it ensures the file is present.
func (f *SourceFile) Touch(ctx context.Context, version string) error {
	return f.Checkout(ctx, version, false)
}

// Diff returns the edits turning the content at from into the content at to.
// Either side may be "local".
func (f *SourceFile) Diff(ctx context.Context, from, to string) ([]patch.Edit, error) {
	fromText, err := f.Read(ctx, from)
	if err != nil {
		return nil, err
	}
	toText, err := f.Read(ctx, to)
	if err != nil {
		return nil, err
	}
	return f.engine.Diff(fromText, toText), nil
}

// DiffText returns the serialized patch turning from into to.
func (f *SourceFile) DiffText(ctx context.Context, from, to string) (string, error) {
	edits, err := f.Diff(ctx, from, to)
	if err != nil {
		return "", err
	}
	return f.engine.ToText(f.engine.Make(edits)), nil
}

// Migrate replays the local customization (origin -> working copy) onto the
// content at target. The delta is always derived from the origin version, so
// migrating to different targets never depends on earlier migrations.
// Any hunk that fails to apply, or whose region target also changed, aborts
// with *PatchConflictError and no content.
func (f *SourceFile) Migrate(ctx context.Context, origin, target string) (*MigrateResult, error) {
	if origin == target {
		content, err := f.Read(ctx, LocalVersion)
		if err != nil {
			return nil, err
		}
		return &MigrateResult{Path: f.path, From: origin, To: target, Content: content}, nil
	}

	originText, err := f.Read(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("computing local changes of %s: %w", f.path, err)
	}
	localText, err := f.Read(ctx, LocalVersion)
	if err != nil {
		return nil, fmt.Errorf("computing local changes of %s: %w", f.path, err)
	}
	targetText, err := f.Read(ctx, target)
	if err != nil {
		return nil, err
	}

	result := f.engine.Rebase(originText, localText, targetText)
	hunks := len(result.Outcomes)
	if !result.OK() {
		conflict := &PatchConflictError{
			Path:   f.path,
			From:   origin,
			To:     target,
			Failed: result.Failed(),
			Total:  hunks,
		}
		f.logger.Error("migration conflict", "path", f.path, "from", origin, "to", target, "failed", len(conflict.Failed), "hunks", hunks)
		return nil, conflict
	}

	f.logger.Info("migrated", "path", f.path, "from", origin, "to", target, "hunks", hunks)
	return &MigrateResult{
		Path:    f.path,
		From:    origin,
		To:      target,
		Content: result.Content,
		Hunks:   hunks,
	}, nil
}
