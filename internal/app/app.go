package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"ohv-go/internal/cache"
	"ohv-go/internal/config"
	"ohv-go/internal/fs"
	"ohv-go/internal/ohv"
	"ohv-go/internal/patch"
	"ohv-go/internal/remote"
	"ohv-go/internal/store"
)

// migrationChecker is implemented by stores with a versioned schema.
type migrationChecker interface {
	CheckMigrations() error
}

// locatedStore is implemented by stores backed by a single file.
type locatedStore interface {
	Path() string
}

// OHVApp is the application layer between the CLI and the ohv Service.
// It constructs all dependencies from config, records the run in the log,
// and releases the tracking store on Close.
type OHVApp struct {
	cfg     *config.Config
	store   ohv.TrackingStore
	service *ohv.Service
	op      *Operation
	logger  *slogAdapter
	logFile *os.File
	clock   Clock
}

// NewOHVApp creates a fully wired OHVApp from the given config.
// operation identifies the CLI command being run (e.g. "touch", "migrate").
// The caller must call Close when done.
func NewOHVApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*OHVApp, error) {
	return newOHVApp(ctx, cfg, operation, parameters, os.Stderr, RealClock{}, UUIDGenerator{})
}

func newOHVApp(ctx context.Context, cfg *config.Config, operation, parameters string, stderr io.Writer, clock Clock, ids IDGenerator) (*OHVApp, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	runID := ids.New()
	logger, logFile, err := newLogger(cfg.LogDir, runID, stderr, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	st, err := store.NewStoreFromConfig(cfg.Store, cfg.CacheRoot)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating tracking store: %w", err)
	}

	if mc, ok := st.(migrationChecker); ok {
		if err := mc.CheckMigrations(); err != nil {
			st.Close()
			logFile.Close()
			return nil, fmt.Errorf("checking tracking store schema: %w", err)
		}
	}
	if ls, ok := st.(locatedStore); ok {
		adapter.Debug("tracking store opened", "type", cfg.Store.Type, "path", ls.Path())
	}

	blobs, err := cache.NewCacheFromConfig(cfg.Cache, cfg.CacheRoot)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating blob cache: %w", err)
	}

	// clone progress goes to the log file only
	rem, err := remote.NewRemoteFromConfig(ctx, cfg, logFile)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating remote: %w", err)
	}

	engine := patch.NewWithOptions(patch.Options{
		MatchThreshold:  cfg.Patch.MatchThreshold,
		MatchDistance:   cfg.Patch.MatchDistance,
		DeleteThreshold: cfg.Patch.DeleteThreshold,
		Margin:          cfg.Patch.Margin,
	})

	src, build := fs.NewOSTree(cfg.SrcRoot), fs.NewOSTree(cfg.BuildRoot)
	adapter.Debug("working trees", "src", src.Root(), "build", build.Root(), "prefix", cfg.Prefix)
	svc := ohv.NewService(st, blobs, rem, src, build, cfg.Prefix, engine, adapter)

	op := NewOperation(runID, operation, parameters, clock.Now())
	adapter.Info("operation started", "operation", op.Name, "parameters", op.Parameters)

	return &OHVApp{
		cfg:     cfg,
		store:   st,
		service: svc,
		op:      op,
		logger:  adapter,
		logFile: logFile,
		clock:   clock,
	}, nil
}

// record marks the operation failed when err is non-nil and passes err through.
func (a *OHVApp) record(err error) error {
	if err != nil {
		a.op.Fail()
	}
	return err
}

// Touch ensures path is checked out, fetching it at version if absent.
func (a *OHVApp) Touch(ctx context.Context, path, version string) error {
	return a.record(a.service.Touch(ctx, path, version))
}

// Migrate rebuilds every tracked file against version into the build root.
func (a *OHVApp) Migrate(ctx context.Context, version string) ([]*ohv.MigrateResult, error) {
	results, err := a.service.Migrate(ctx, version)
	return results, a.record(err)
}

// MigrateFile migrates a single tracked path to version without writing
// anything, returning the content the build area would receive.
func (a *OHVApp) MigrateFile(ctx context.Context, path, version string) (*ohv.MigrateResult, error) {
	result, err := a.service.MigrateFile(ctx, path, version)
	return result, a.record(err)
}

// Diff returns the patch text for path between two versions.
func (a *OHVApp) Diff(ctx context.Context, path, from, to string) (string, error) {
	text, err := a.service.DiffText(ctx, path, from, to)
	return text, a.record(err)
}

// Status lists every tracked file.
func (a *OHVApp) Status() ([]*ohv.FileStatus, error) {
	statuses, err := a.service.Status()
	return statuses, a.record(err)
}

// Close logs the end of the operation and closes all resources.
func (a *OHVApp) Close() error {
	var firstErr error

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing tracking store: %w", err)
		a.op.Fail()
	}

	args := []any{
		"operation", a.op.Name,
		"status", a.op.Status,
		"elapsed", a.op.Elapsed(a.clock.Now()),
	}
	if a.op.Failed() {
		a.logger.Error("operation finished", args...)
	} else {
		a.logger.Info("operation finished", args...)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
