// Package migrations carries the tracking database schema and brings a
// database up to it.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

var (
	ErrUnversioned = errors.New("schema has no version")
	ErrDirty       = errors.New("schema is dirty, an earlier migration did not finish")
	ErrBehind      = errors.New("schema is older than this binary")
	ErrAhead       = errors.New("schema is newer than this binary")
)

// Status is where a database schema stands against the embedded migrations.
type Status struct {
	Version uint // 0 when the database was never migrated
	Latest  uint
	Dirty   bool
}

// Err is nil for a current, clean schema and otherwise wraps one of the
// Err* sentinels.
func (s Status) Err() error {
	switch {
	case s.Dirty:
		return fmt.Errorf("%w (version %d)", ErrDirty, s.Version)
	case s.Version == 0:
		return ErrUnversioned
	case s.Version < s.Latest:
		return fmt.Errorf("%w: version %d, latest %d", ErrBehind, s.Version, s.Latest)
	case s.Version > s.Latest:
		return fmt.Errorf("%w: version %d, latest %d", ErrAhead, s.Version, s.Latest)
	}
	return nil
}

// Latest returns the highest migration version embedded in the binary.
func Latest() (uint, error) {
	entries, err := fs.ReadDir(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("listing migrations: %w", err)
	}

	var latest uint
	for _, e := range entries {
		m, err := source.Parse(e.Name())
		if err != nil {
			return 0, fmt.Errorf("parsing migration %s: %w", e.Name(), err)
		}
		latest = max(latest, m.Version)
	}
	return latest, nil
}

// ReadStatus reports the schema version recorded in db.
func ReadStatus(db *sql.DB) (Status, error) {
	latest, err := Latest()
	if err != nil {
		return Status{}, err
	}

	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}
	// m is not closed: that would close the caller's db

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("reading schema version: %w", err)
	}
	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

// CheckDBMigrationStatus returns nil when db is at the latest schema.
func CheckDBMigrationStatus(db *sql.DB) error {
	st, err := ReadStatus(db)
	if err != nil {
		return err
	}
	return st.Err()
}

// MigrateUp brings db to the latest schema. A dirty schema, or one written
// by a newer binary, is left alone and reported.
func MigrateUp(db *sql.DB) error {
	st, err := ReadStatus(db)
	if err != nil {
		return err
	}
	if st.Dirty || st.Version > st.Latest {
		return st.Err()
	}
	if st.Version == st.Latest {
		return nil
	}

	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating schema from version %d: %w", st.Version, err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("opening sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
