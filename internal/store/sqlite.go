package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ohv-go/internal/ohv"
	"ohv-go/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteFileName is the name of the sqlite tracking database inside the cache root.
const SQLiteFileName = "src-lock.db"

// SQLiteStore implements the TrackingStore interface using SQLite.
// Each mutation is committed immediately.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) a tracking database at path and
// brings its schema up to date. path can be ":memory:".
// A file that is not a usable database yields *ohv.StoreInitError.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &ohv.StoreInitError{Path: path, Err: err}
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, &ohv.StoreInitError{Path: path, Err: err}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Sources() (map[string]string, error) {
	rows, err := s.db.Query("SELECT path, origin_version FROM tracked_files")
	if err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, v string
		if err := rows.Scan(&p, &v); err != nil {
			return nil, fmt.Errorf("scanning tracked file: %w", err)
		}
		out[p] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Source(path string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT origin_version FROM tracked_files WHERE path = ?", path).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("finding tracked file: %w", err)
	}
	return v, true, nil
}

func (s *SQLiteStore) SetSource(path, version string) error {
	_, err := s.db.Exec(`INSERT INTO tracked_files (path, origin_version) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET origin_version = excluded.origin_version`, path, version)
	if err != nil {
		return fmt.Errorf("recording tracked file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CacheHash(key string) (string, bool, error) {
	var h string
	err := s.db.QueryRow("SELECT content_hash FROM cache_entries WHERE cache_key = ?", key).Scan(&h)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("finding cache entry: %w", err)
	}
	return h, true, nil
}

func (s *SQLiteStore) SetCacheHash(key, hash string) error {
	_, err := s.db.Exec(`INSERT INTO cache_entries (cache_key, content_hash) VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET content_hash = excluded.content_hash`, key, hash)
	if err != nil {
		return fmt.Errorf("recording cache entry: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Compile-time check that SQLiteStore implements ohv.TrackingStore interface
var _ ohv.TrackingStore = (*SQLiteStore)(nil)

// CheckMigrations verifies the schema is at the version this binary expects.
// A schema that is dirty, missing or out of step yields *ohv.StoreInitError.
func (s *SQLiteStore) CheckMigrations() error {
	if err := migrations.CheckDBMigrationStatus(s.db); err != nil {
		return &ohv.StoreInitError{Path: s.path, Err: err}
	}
	return nil
}
