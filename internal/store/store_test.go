package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/afero"
)

func newTestStore(t *testing.T, dir string, cfg *settings.Settings) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Dir: dir, Settings: cfg})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "database")

	cfg := settings.Default()
	cfg.LastImport = time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)

	s := newTestStore(t, dir, cfg)

	if _, err := os.Stat(filepath.Join(dir, DatabaseFileName)); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if !s.Created() {
		t.Error("expected Created() after creating a new file")
	}
	if !cfg.LastImport.Equal(settings.LastImportSentinel()) {
		t.Errorf("expected lastImport reset to sentinel, got %v", cfg.LastImport)
	}

	for _, stmt := range schemaStatements {
		if stmt.args != nil {
			continue
		}
		rs, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM sqlite_master WHERE name = ?", stmt.name)
		if err != nil {
			t.Fatalf("failed to query sqlite_master: %v", err)
		}
		if rs.Int(0, "n") != 1 {
			t.Errorf("expected %s to exist", stmt.name)
		}
	}

	rs, err := s.Query(ctx, "SELECT Value FROM Configuration WHERE Parameter = 'Version'")
	if err != nil {
		t.Fatalf("failed to read version: %v", err)
	}
	if rs.Len() != 1 || rs.Value(0, "Value") != "1" {
		t.Errorf("expected exactly one Version row with value 1, got %v", rs.Rows)
	}
}

func TestConnectionPragmas(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	tests := []struct {
		pragma   string
		expected string
	}{
		{"PRAGMA foreign_keys", "1"},
		{"PRAGMA synchronous", "0"},
		{"PRAGMA page_size", "8192"},
		{"PRAGMA auto_vacuum", "0"},
		{"PRAGMA encoding", "UTF-8"},
	}

	for _, tt := range tests {
		rs, err := s.Query(ctx, tt.pragma)
		if err != nil {
			t.Fatalf("%s failed: %v", tt.pragma, err)
		}
		if got := rs.Rows[0][0]; got != tt.expected {
			t.Errorf("%s = %q, want %q", tt.pragma, got, tt.expected)
		}
	}
}

func TestReopenPreservesRows(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Options{Dir: dir})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", "/music"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	s.Close()

	cfg := settings.Default()
	watermark := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	cfg.LastImport = watermark

	s = newTestStore(t, dir, cfg)
	if s.Created() {
		t.Error("existing database reported as created")
	}
	if !cfg.LastImport.Equal(watermark) {
		t.Errorf("lastImport reset on an existing database: %v", cfg.LastImport)
	}

	rs, err := s.Query(ctx, "SELECT ShareName FROM Share")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rs.Len() != 1 || rs.Value(0, "ShareName") != "/music" {
		t.Errorf("expected the share to survive reopening, got %v", rs.Rows)
	}
}

func TestCreateSchemaTwiceKeepsData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	if err := s.Exec(ctx, "INSERT INTO Share (ShareName) VALUES (?)", "/music"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	s.mu.Lock()
	err := s.createSchema(ctx)
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("re-running the schema failed: %v", err)
	}

	rs, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM Configuration WHERE Parameter = 'Version'")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rs.Int(0, "n") != 1 {
		t.Errorf("expected one Version row, got %d", rs.Int(0, "n"))
	}

	rs, err = s.Query(ctx, "SELECT COUNT(*) AS n FROM Share")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rs.Int(0, "n") != 1 {
		t.Errorf("expected share row preserved, got %d", rs.Int(0, "n"))
	}
}

func TestBackupLegacy(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/db"
	legacy := filepath.Join(dir, LegacyFileName)
	backup := filepath.Join(dir, LegacyBackupName)

	if backupLegacy(fs, dir) {
		t.Error("backup reported without a legacy file")
	}

	afero.WriteFile(fs, legacy, []byte("legacy"), 0644)
	if !backupLegacy(fs, dir) {
		t.Fatal("expected legacy file to be backed up")
	}
	if ok, _ := afero.Exists(fs, legacy); ok {
		t.Error("legacy file still present after backup")
	}
	if data, _ := afero.ReadFile(fs, backup); string(data) != "legacy" {
		t.Errorf("backup content = %q", data)
	}

	// A second legacy file must not replace the first backup
	afero.WriteFile(fs, legacy, []byte("newer"), 0644)
	if backupLegacy(fs, dir) {
		t.Error("existing backup was overwritten")
	}
	if data, _ := afero.ReadFile(fs, backup); string(data) != "legacy" {
		t.Errorf("backup content changed to %q", data)
	}
	if ok, _ := afero.Exists(fs, legacy); !ok {
		t.Error("legacy file should be left in place")
	}
}

func TestOpenBacksUpLegacyDatabase(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LegacyFileName), []byte("v12"), 0644); err != nil {
		t.Fatal(err)
	}

	newTestStore(t, dir, nil)

	if _, err := os.Stat(filepath.Join(dir, LegacyBackupName)); err != nil {
		t.Errorf("legacy backup missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LegacyFileName)); !os.IsNotExist(err) {
		t.Errorf("legacy file should have been moved, stat err = %v", err)
	}
}

func TestVersionCheck(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		wantErr error
	}{
		{"missing", "DELETE FROM Configuration WHERE Parameter = 'Version'", util.ErrCorrupt},
		{"not a number", "UPDATE Configuration SET Value = 'abc' WHERE Parameter = 'Version'", util.ErrCorrupt},
		{"older version", "UPDATE Configuration SET Value = '0' WHERE Parameter = 'Version'", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			s, err := Open(ctx, Options{Dir: dir})
			if err != nil {
				t.Fatalf("failed to open store: %v", err)
			}
			if err := s.Exec(ctx, tt.stmt); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			s.Close()

			s, err = Open(ctx, Options{Dir: dir})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected open to succeed, got %v", err)
				}
				s.Close()
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLazyReopen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	s.Reopen()
	if s.opened {
		t.Fatal("Reopen should reset the connection")
	}

	rs, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM Configuration")
	if err != nil {
		t.Fatalf("query after Reopen failed: %v", err)
	}
	if rs.Int(0, "n") != 1 {
		t.Errorf("unexpected configuration rows: %d", rs.Int(0, "n"))
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir(), nil)

	err := s.Exec(ctx, "INSERT INTO Folder (IdShare, FolderName) VALUES (?, ?)", 999, "Rock")
	if !errors.Is(err, util.ErrWrite) {
		t.Errorf("expected ErrWrite for a dangling folder, got %v", err)
	}
}

func TestCheckIntegrity(t *testing.T) {
	s := newTestStore(t, t.TempDir(), nil)
	if err := s.CheckIntegrity(context.Background()); err != nil {
		t.Errorf("integrity check failed: %v", err)
	}
	if SQLiteVersion() == "" {
		t.Error("expected an SQLite version")
	}
}
