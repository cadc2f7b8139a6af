package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ohv-go/internal/config"
	"ohv-go/internal/ohv"
	"ohv-go/internal/testutil"
)

// upstream serves /acme/widget/<version>/<file> from a map.
func upstream(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[strings.TrimPrefix(r.URL.Path, "/acme/widget/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.NewConfig("acme", "widget")
	cfg.BaseURL = baseURL + "/"
	cfg.Prefix = "third_party"
	cfg.LogDir = filepath.Join(root, "log")
	if err := cfg.ResolvePaths(root); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, operation string) (*OHVApp, *bytes.Buffer) {
	t.Helper()
	var stderr bytes.Buffer
	a, err := newOHVApp(context.Background(), cfg, operation, "", &stderr, testutil.FixedClock(), testutil.NewStubIDGenerator())
	if err != nil {
		t.Fatalf("newOHVApp() failed: %v", err)
	}
	return a, &stderr
}

func TestOHVApp_TouchEditMigrate(t *testing.T) {
	srv := upstream(t, map[string]string{
		"v1/lib/a.txt": "a\nb\nc\n",
		"v2/lib/a.txt": "a\nb\nc\nd\n",
	})
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	a, stderr := newTestApp(t, cfg, "touch")
	if err := a.Touch(ctx, "lib/a.txt", "v1"); err != nil {
		t.Fatalf("Touch() failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if !strings.Contains(stderr.String(), "\tid-1\toperation finished\toperation=touch\tstatus=success") {
		t.Errorf("run log = %q", stderr.String())
	}

	local := filepath.Join(cfg.SrcRoot, "third_party", "lib", "a.txt")
	if err := os.WriteFile(local, []byte("a\nX\nc\n"), 0644); err != nil {
		t.Fatalf("editing working copy: %v", err)
	}

	// the tracking document and raw blob survive between runs
	for _, p := range []string{
		filepath.Join(cfg.CacheRoot, "src-lock.json"),
		filepath.Join(cfg.CacheRoot, "raw", "v1", "lib", "a.txt"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}

	a, _ = newTestApp(t, cfg, "migrate")
	defer a.Close()

	results, err := a.Migrate(ctx, "v2")
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Migrate() results = %d", len(results))
	}

	got, err := os.ReadFile(filepath.Join(cfg.BuildRoot, "v2", "lib", "a.txt"))
	if err != nil {
		t.Fatalf("reading build snapshot: %v", err)
	}
	if string(got) != "a\nX\nc\nd\n" {
		t.Errorf("build snapshot = %q", got)
	}

	statuses, err := a.Status()
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if len(statuses) != 1 || statuses[0].OriginVersion != "v1" || !statuses[0].Present {
		t.Errorf("Status() = %+v", statuses)
	}

	diff, err := a.Diff(ctx, "lib/a.txt", "v1", ohv.LocalVersion)
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}
	if !strings.HasPrefix(diff, "@@ -") {
		t.Errorf("Diff() = %q", diff)
	}
}

func TestOHVApp_FailureMarksOperation(t *testing.T) {
	srv := upstream(t, nil)
	cfg := testConfig(t, srv.URL)

	a, stderr := newTestApp(t, cfg, "touch")
	err := a.Touch(context.Background(), "missing.txt", "v1")

	var fetchErr *ohv.RemoteFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Touch() error = %v, want *ohv.RemoteFetchError", err)
	}
	if !a.op.Failed() {
		t.Error("operation not marked failed")
	}

	a.Close()
	if !strings.Contains(stderr.String(), "\tERROR\tid-1\toperation finished\toperation=touch\tstatus=error") {
		t.Errorf("run log = %q", stderr.String())
	}
}

func TestOHVApp_MigrateFile(t *testing.T) {
	srv := upstream(t, map[string]string{
		"v1/a.txt": "a\nb\nc\n",
		"v2/a.txt": "a\nb\nc\nd\n",
	})
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	a, _ := newTestApp(t, cfg, "migrate")
	defer a.Close()

	if err := a.Touch(ctx, "a.txt", "v1"); err != nil {
		t.Fatalf("Touch() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.SrcRoot, "third_party", "a.txt"), []byte("a\nX\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := a.MigrateFile(ctx, "a.txt", "v2")
	if err != nil {
		t.Fatalf("MigrateFile() failed: %v", err)
	}
	if res.Content != "a\nX\nc\nd\n" || res.From != "v1" {
		t.Errorf("MigrateFile() = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(cfg.BuildRoot, "v2")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run wrote to the build area: %v", err)
	}

	if _, err := a.MigrateFile(ctx, "untracked.txt", "v2"); !errors.Is(err, ohv.ErrNotTracked) {
		t.Errorf("MigrateFile(untracked) error = %v, want ErrNotTracked", err)
	}
	if !a.op.Failed() {
		t.Error("operation not marked failed")
	}
}

func TestOHVApp_LogLevel(t *testing.T) {
	tests := []struct {
		level       string
		wantDebug   bool
		wantStarted bool
	}{
		{level: "debug", wantDebug: true, wantStarted: true},
		{level: "info", wantDebug: false, wantStarted: true},
		{level: "error", wantDebug: false, wantStarted: false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			srv := upstream(t, map[string]string{"v1/a.txt": "one\n"})
			cfg := testConfig(t, srv.URL)
			cfg.LogLevel = tt.level

			a, stderr := newTestApp(t, cfg, "touch")
			if err := a.Touch(context.Background(), "a.txt", "v1"); err != nil {
				t.Fatalf("Touch() failed: %v", err)
			}
			a.Close()

			out := stderr.String()
			if got := strings.Contains(out, "\tDEBUG\t"); got != tt.wantDebug {
				t.Errorf("debug lines on stderr = %v, want %v: %q", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "operation started"); got != tt.wantStarted {
				t.Errorf("info lines on stderr = %v, want %v: %q", got, tt.wantStarted, out)
			}

			// the run log file keeps everything
			data, err := os.ReadFile(filepath.Join(cfg.LogDir, LogFileName))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "\tDEBUG\tid-1\tworking trees\t") {
				t.Errorf("run log file = %q, want debug lines", data)
			}
		})
	}
}

func TestOHVApp_SQLiteStore(t *testing.T) {
	srv := upstream(t, map[string]string{"v1/a.txt": "one\n"})
	cfg := testConfig(t, srv.URL)
	cfg.Store.Type = "sqlite"

	a, _ := newTestApp(t, cfg, "touch")
	if err := a.Touch(context.Background(), "a.txt", "v1"); err != nil {
		t.Fatalf("Touch() failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.CacheRoot, "src-lock.db")); err != nil {
		t.Errorf("sqlite store not created: %v", err)
	}
}

func TestOHVApp_MalformedStore(t *testing.T) {
	srv := upstream(t, map[string]string{"v1/a.txt": "one\n"})
	cfg := testConfig(t, srv.URL)

	if err := os.MkdirAll(cfg.CacheRoot, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.CacheRoot, "src-lock.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	a, _ := newTestApp(t, cfg, "touch")
	defer a.Close()

	err := a.Touch(context.Background(), "a.txt", "v1")
	var initErr *ohv.StoreInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("Touch() error = %v, want *ohv.StoreInitError", err)
	}
}

func TestOHVApp_SQLiteSchemaAhead(t *testing.T) {
	srv := upstream(t, map[string]string{"v1/a.txt": "one\n"})
	cfg := testConfig(t, srv.URL)
	cfg.Store.Type = "sqlite"

	a, _ := newTestApp(t, cfg, "touch")
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.CacheRoot, "src-lock.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_migrations SET version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	_, err = newOHVApp(context.Background(), cfg, "touch", "", nil, testutil.FixedClock(), testutil.NewStubIDGenerator())
	var initErr *ohv.StoreInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("newOHVApp() error = %v, want *ohv.StoreInitError", err)
	}
}

func TestNewOHVApp_BadConfig(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	cfg.Remote.Type = "carrier-pigeon"

	_, err := newOHVApp(context.Background(), cfg, "status", "", nil, testutil.FixedClock(), testutil.NewStubIDGenerator())
	if err == nil {
		t.Fatal("newOHVApp() with unknown remote succeeded")
	}
}
