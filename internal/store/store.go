// Package store is the embedded SQLite metadata store for the music library.
//
// A Store owns exactly one live connection to MusicDatabase.db3. The
// connection is opened on first use, the schema is created when the file is
// missing, and every statement runs on that single connection, so all work
// is serialized. Failures are logged with the offending SQL and returned
// wrapped with one of the util.Err* kinds; nothing panics.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/afero"
	_ "modernc.org/sqlite" // SQLite driver
)

// Options configures a Store
type Options struct {
	// Dir is the directory holding MusicDatabase.db3
	Dir string

	// Settings are the behavioural flags read once at construction.
	// Defaults apply when nil.
	Settings *settings.Settings

	// Fs is used for the directory, existence and legacy-backup steps.
	// Defaults to the OS filesystem.
	Fs afero.Fs

	// OpenDB opens the SQL handle for a database path. Defaults to the
	// modernc SQLite driver.
	OpenDB func(path string) (*sql.DB, error)
}

// Store represents the music library database
type Store struct {
	mu       sync.Mutex
	dir      string
	fs       afero.Fs
	openDB   func(string) (*sql.DB, error)
	settings *settings.Settings

	db      *sql.DB
	conn    *sql.Conn
	opened  bool
	created bool

	tx        *sql.Tx
	txChanges int64
}

// New constructs a Store without touching the disk. The connection is
// opened by the first operation that needs it.
func New(opts Options) *Store {
	if opts.Settings == nil {
		opts.Settings = settings.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.OpenDB == nil {
		opts.OpenDB = openSQLite
	}
	return &Store{
		dir:      opts.Dir,
		fs:       opts.Fs,
		openDB:   opts.OpenDB,
		settings: opts.Settings,
	}
}

// Open constructs a Store and runs the open sequence immediately, so that
// open, creation and version errors surface here rather than on first use.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := New(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// Path returns the location of the backing file
func (s *Store) Path() string {
	return filepath.Join(s.dir, DatabaseFileName)
}

// Settings returns the flags the store was constructed with. LastImport is
// reset to the sentinel when the database file had to be created.
func (s *Store) Settings() *settings.Settings {
	return s.settings
}

// Created reports whether this store created the database file, which also
// reset the import watermark in Settings.
func (s *Store) Created() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

// Close releases the connection. An open transaction is rolled back.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

// SQLiteVersion returns the SQLite library version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}

	var result string
	if err := s.target().QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: integrity check: %w", util.ErrQuery, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: integrity check: %s", util.ErrCorrupt, result)
	}
	return nil
}
