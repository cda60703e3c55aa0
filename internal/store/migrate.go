package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/afero"
)

// open runs the full open sequence: directory, legacy backup, connection,
// pragmas, schema creation for a new file, version check.
func (s *Store) open(ctx context.Context) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		util.WarnLog("MusicDatabase: cannot create %s: %v", s.dir, err)
	}

	path := s.Path()
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", util.ErrOpen, path, err)
	}

	created := false
	if !exists {
		util.InfoLog("MusicDatabase: %s does not exist, creating a new database", path)
		backupLegacy(s.fs, s.dir)
		s.settings.ResetLastImport()
		created = true
	}

	if err := s.connect(ctx); err != nil {
		return err
	}

	if created {
		if err := s.createSchema(ctx); err != nil {
			s.closeLocked()
			if rmErr := s.fs.Remove(path); rmErr != nil {
				util.WarnLog("MusicDatabase: cannot remove partial database %s: %v", path, rmErr)
			}
			return fmt.Errorf("%w: creating tables: %w", util.ErrOpen, err)
		}
		util.SuccessLog("MusicDatabase: created %s (schema version %d)", path, SchemaVersion)
		s.created = true
	}

	if err := s.checkVersion(ctx); err != nil {
		return err
	}

	s.opened = true
	util.DebugLog("MusicDatabase: opened %s", path)
	return nil
}

// backupLegacy moves a predecessor database out of the way. An existing
// backup is never overwritten.
func backupLegacy(fs afero.Fs, dir string) bool {
	legacy := filepath.Join(dir, LegacyFileName)
	backup := filepath.Join(dir, LegacyBackupName)

	if ok, _ := afero.Exists(fs, legacy); !ok {
		return false
	}
	if ok, _ := afero.Exists(fs, backup); ok {
		util.WarnLog("MusicDatabase: %s already exists, leaving %s in place", backup, legacy)
		return false
	}
	if err := fs.Rename(legacy, backup); err != nil {
		util.WarnLog("MusicDatabase: cannot back up %s: %v", legacy, err)
		return false
	}
	util.InfoLog("MusicDatabase: moved legacy database to %s", backup)
	return true
}

// createSchema runs every catalog statement. A failing statement is logged
// and the rest still run; the collected failures are returned together.
func (s *Store) createSchema(ctx context.Context) error {
	var errs []error
	for _, stmt := range schemaStatements {
		if _, err := s.conn.ExecContext(ctx, stmt.sql, stmt.args...); err != nil {
			util.ErrorLog("MusicDatabase: Exception creating %s: %v\n%s", stmt.name, err, stmt.sql)
			errs = append(errs, fmt.Errorf("%s: %w", stmt.name, err))
		}
	}
	return errors.Join(errs...)
}

// checkVersion compares the stored schema version against SchemaVersion
func (s *Store) checkVersion(ctx context.Context) error {
	var value string
	err := s.conn.QueryRowContext(ctx,
		"SELECT Value FROM Configuration WHERE Parameter = ?", versionParameter).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: no schema version in %s", util.ErrCorrupt, s.Path())
	}
	if err != nil {
		return fmt.Errorf("%w: reading schema version: %w", util.ErrCorrupt, err)
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: schema version %q is not a number", util.ErrCorrupt, value)
	}
	if version != SchemaVersion {
		return s.migrate(ctx, version, SchemaVersion)
	}
	return nil
}

// migrate upgrades a database from one schema version to another. Only one
// version exists so far, so there is nothing to run.
func (s *Store) migrate(ctx context.Context, from, to int) error {
	util.WarnLog("MusicDatabase: schema version %d found, expected %d; no migration defined", from, to)
	return nil
}
