package ohv

import (
	"context"
	"fmt"
	"path"
	"sort"

	"ohv-go/internal/patch"
)

// Service is the orchestration layer: it owns the tracking store and hands
// per-path SourceFile bindings out to the CLI, and drives whole-project migrations.
type Service struct {
	store  TrackingStore
	cache  *ContentCache
	src    WorkTree
	build  WorkTree
	engine *patch.Engine
	logger Logger
}

// NewService creates a Service with the provided dependencies.
// src is the project source tree (working copies live at prefix/<path>);
// build receives migrated snapshots at <version>/<path>.
func NewService(store TrackingStore, blobs BlobCache, remote Remote, src, build WorkTree, prefix string, engine *patch.Engine, logger Logger) *Service {
	if engine == nil {
		engine = patch.New()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{
		store:  store,
		cache:  NewContentCache(store, blobs, remote, src, prefix, logger),
		src:    src,
		build:  build,
		engine: engine,
		logger: logger,
	}
}

// Ref returns the binding for a tracked path.
func (s *Service) Ref(p string) (*SourceFile, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	return &SourceFile{
		path:   cleaned,
		cache:  s.cache,
		store:  s.store,
		src:    s.src,
		engine: s.engine,
		logger: s.logger,
	}, nil
}

// Touch ensures p is checked out, fetching it at version if absent.
func (s *Service) Touch(ctx context.Context, p, version string) error {
	f, err := s.Ref(p)
	if err != nil {
		return err
	}
	return f.Touch(ctx, version)
}

// Checkout fetches p at version into the working tree, failing with
// ErrAlreadyExists if the working copy is already present.
func (s *Service) Checkout(ctx context.Context, p, version string) error {
	f, err := s.Ref(p)
	if err != nil {
		return err
	}
	return f.Checkout(ctx, version, true)
}

// DiffText returns the serialized patch for p between two versions.
func (s *Service) DiffText(ctx context.Context, p, from, to string) (string, error) {
	f, err := s.Ref(p)
	if err != nil {
		return "", err
	}
	return f.DiffText(ctx, from, to)
}

// MigrateFile migrates a single tracked path from its recorded origin to target
// without writing anything.
func (s *Service) MigrateFile(ctx context.Context, p, target string) (*MigrateResult, error) {
	f, err := s.Ref(p)
	if err != nil {
		return nil, err
	}
	origin, ok, err := s.store.Source(f.Path())
	if err != nil {
		return nil, fmt.Errorf("looking up origin of %s: %w", f.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("migrate %s: %w", f.Path(), ErrNotTracked)
	}
	return f.Migrate(ctx, origin, target)
}

// Migrate migrates every tracked path to target, in path order, and writes
// each result to <target>/<path> in the build area. The first failure aborts
// the run; snapshots already written for earlier paths are left in place.
// Neither the working tree nor the recorded origin versions are modified.
func (s *Service) Migrate(ctx context.Context, target string) ([]*MigrateResult, error) {
	if target == LocalVersion {
		return nil, fmt.Errorf("migrate: %w: %q is not a migration target", ErrInvalidVersion, target)
	}

	sources, err := s.store.Sources()
	if err != nil {
		return nil, fmt.Errorf("loading tracked files: %w", err)
	}

	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	s.logger.Info("migration started", "target", target, "files", len(paths))

	results := make([]*MigrateResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		f, err := s.Ref(p)
		if err != nil {
			return results, err
		}

		res, err := f.Migrate(ctx, sources[p], target)
		if err != nil {
			return results, err
		}

		out := path.Join(target, f.Path())
		if err := s.build.WriteFile(out, []byte(res.Content)); err != nil {
			return results, fmt.Errorf("writing build snapshot %s: %w", out, err)
		}
		results = append(results, res)
	}

	s.logger.Info("migration complete", "target", target, "files", len(results))
	return results, nil
}

// FileStatus describes one tracked path.
type FileStatus struct {
	Path          string
	OriginVersion string
	Present       bool // working copy exists
}

// Status lists every tracked path in path order.
func (s *Service) Status() ([]*FileStatus, error) {
	sources, err := s.store.Sources()
	if err != nil {
		return nil, fmt.Errorf("loading tracked files: %w", err)
	}

	statuses := make([]*FileStatus, 0, len(sources))
	for p, version := range sources {
		present, err := s.src.Exists(s.cache.LocalPath(p))
		if err != nil {
			return nil, fmt.Errorf("checking working copy of %s: %w", p, err)
		}
		statuses = append(statuses, &FileStatus{Path: p, OriginVersion: version, Present: present})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Path < statuses[j].Path })
	return statuses, nil
}
