package store

import (
	"context"
	"errors"
	"testing"

	"github.com/franz/musicdb/internal/util"
)

func countShares(t *testing.T, s *Store) int64 {
	t.Helper()
	rs, err := s.Query(context.Background(), "SELECT COUNT(*) AS n FROM Share")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return rs.Int(0, "n")
}

func TestCommitMakesChangesVisible(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if !s.InTransaction() {
		t.Fatal("expected an active transaction")
	}
	for _, name := range []string{"/a", "/b", "/c"} {
		if err := s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", name); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if s.Changes() != 3 {
		t.Errorf("Changes() = %d, want 3", s.Changes())
	}
	// Reads inside the transaction see its own writes
	if n := countShares(t, s); n != 3 {
		t.Errorf("in-transaction count = %d", n)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if s.InTransaction() {
		t.Error("transaction still active after commit")
	}

	s.Reopen()
	if n := countShares(t, s); n != 3 {
		t.Errorf("committed rows after reopen = %d, want 3", n)
	}
}

func TestRollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", "/a"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if n := countShares(t, s); n != 0 {
		t.Errorf("rolled back rows visible: %d", n)
	}
}

func TestTransactionGuards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	if err := s.Commit(); !errors.Is(err, util.ErrTransaction) {
		t.Errorf("commit without transaction: got %v", err)
	}
	if err := s.Rollback(); !errors.Is(err, util.ErrTransaction) {
		t.Errorf("rollback without transaction: got %v", err)
	}

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", "/a"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Begin(ctx); !errors.Is(err, util.ErrTransaction) {
		t.Errorf("nested begin: got %v", err)
	}
	// The outer transaction is untouched by the refused begin
	if !s.InTransaction() {
		t.Fatal("outer transaction lost")
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if n := countShares(t, s); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", "/a"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if n := countShares(t, s); n != 0 {
		t.Errorf("failed transaction left %d rows", n)
	}

	err = s.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", "/b")
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if n := countShares(t, s); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestCommitFailureReopens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	// Deferred foreign keys make the violation surface at COMMIT
	if err := s.Exec(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
		t.Fatalf("pragma failed: %v", err)
	}
	err := s.Exec(ctx, "INSERT INTO Song (IdFolder, IdAlbum, FileName, Title) VALUES (?, ?, ?, ?)",
		999, 999, "dangling.mp3", "Dangling")
	if err != nil {
		t.Fatalf("deferred insert failed early: %v", err)
	}

	if err := s.Commit(); !errors.Is(err, util.ErrTransaction) {
		t.Fatalf("expected ErrTransaction from commit, got %v", err)
	}
	if s.InTransaction() {
		t.Error("transaction still active after failed commit")
	}
	if s.opened {
		t.Error("failed commit should reset the connection")
	}

	rs, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM Song")
	if err != nil {
		t.Fatalf("query after failed commit: %v", err)
	}
	if rs.Int(0, "n") != 0 {
		t.Errorf("failed commit left %d songs", rs.Int(0, "n"))
	}
}
