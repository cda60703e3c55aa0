package store

import (
	"context"
	"fmt"

	"github.com/franz/musicdb/internal/util"
)

// Begin opens a transaction on the store's connection. Exec and Query run
// inside it until Commit or Rollback. Nested transactions are refused.
func (s *Store) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	return s.beginLocked(ctx)
}

func (s *Store) beginLocked(ctx context.Context) error {
	if s.tx != nil {
		util.WarnLog("MusicDatabase: BeginTransaction called inside a transaction")
		return fmt.Errorf("%w: transaction already active", util.ErrTransaction)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		util.ErrorLog("MusicDatabase: BeginTransaction: %v", err)
		return fmt.Errorf("%w: begin: %w", util.ErrTransaction, err)
	}
	s.tx = tx
	s.txChanges = 0
	return nil
}

// Commit makes the transaction's changes durable. A failed commit resets the
// connection; the changes are lost and the next operation reopens.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Store) commitLocked() error {
	if s.tx == nil {
		return fmt.Errorf("%w: commit without transaction", util.ErrTransaction)
	}

	tx, changes := s.tx, s.txChanges
	s.tx = nil
	s.txChanges = 0

	if err := tx.Commit(); err != nil {
		util.ErrorLog("MusicDatabase: Commit failed: %v", err)
		s.reopenLocked()
		return fmt.Errorf("%w: commit: %w", util.ErrTransaction, err)
	}
	util.DebugLog("MusicDatabase: Commit completed, %d rows affected", changes)
	return nil
}

// Rollback discards the transaction's changes. A failed rollback resets the
// connection the same way a failed commit does.
func (s *Store) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbackLocked()
}

func (s *Store) rollbackLocked() error {
	if s.tx == nil {
		return fmt.Errorf("%w: rollback without transaction", util.ErrTransaction)
	}

	tx := s.tx
	s.tx = nil
	s.txChanges = 0

	if err := tx.Rollback(); err != nil {
		util.ErrorLog("MusicDatabase: Rollback failed: %v", err)
		s.reopenLocked()
		return fmt.Errorf("%w: rollback: %w", util.ErrTransaction, err)
	}
	util.DebugLog("MusicDatabase: Rollback completed")
	return nil
}

// InTransaction reports whether a transaction is open
func (s *Store) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Changes returns the rows affected so far by the open transaction
func (s *Store) Changes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txChanges
}

// WithTransaction runs fn inside a transaction, committing when it returns
// nil and rolling back otherwise. fn must use the store's public methods.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Begin(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if rbErr := s.Rollback(); rbErr != nil {
			util.WarnLog("MusicDatabase: rollback after error: %v", rbErr)
		}
		return err
	}
	return s.Commit()
}
