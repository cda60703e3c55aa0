package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/musicdb/internal/util"
)

// execer is satisfied by both the pinned *sql.Conn and an open *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ensureOpen returns with a usable connection, running the open sequence
// when the store has not been opened yet or was reset by Reopen.
// Callers hold s.mu.
func (s *Store) ensureOpen(ctx context.Context) error {
	if s.opened && s.conn != nil {
		return nil
	}
	if err := s.open(ctx); err != nil {
		util.ErrorLog("MusicDatabase: open failed: %v", err)
		s.closeLocked()
		return err
	}
	return nil
}

// connect opens the SQL handle, pins its single connection and applies the
// connection pragmas. A failing pragma is logged and skipped.
func (s *Store) connect(ctx context.Context) error {
	db, err := s.openDB(s.Path())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", util.ErrOpen, s.Path(), err)
	}

	// One connection, never recycled: transactions are bound to it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: %s: %w", util.ErrOpen, s.Path(), err)
	}
	s.db = db
	s.conn = conn

	for _, pragma := range connectionPragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			util.ErrorLog("MusicDatabase: Exception executing: %s\n%v", pragma, err)
		}
	}
	return nil
}

// target is where statements run: the open transaction, else the connection
func (s *Store) target() execer {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// Reopen discards the connection and any transaction on it. The next
// operation runs the full open sequence again.
func (s *Store) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reopenLocked()
}

func (s *Store) reopenLocked() {
	util.WarnLog("MusicDatabase: reopening database connection")
	s.closeLocked()
}

func (s *Store) closeLocked() error {
	var firstErr error
	if s.tx != nil {
		// Releases the connection; SQLite discards the work on close anyway
		s.tx.Rollback()
		s.tx = nil
		s.txChanges = 0
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.conn = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.db = nil
	}
	s.opened = false
	return firstErr
}
