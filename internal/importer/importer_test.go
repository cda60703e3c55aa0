package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/musicdb/internal/music"
	"github.com/franz/musicdb/internal/report"
	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/store"
)

// fakeLibrary records saved songs and drops a transaction's songs when it
// fails
type fakeLibrary struct {
	saved  []*music.Song
	failOn string
	txs    int
}

func (f *fakeLibrary) SaveSong(ctx context.Context, shareRoot string, song *music.Song) (int64, error) {
	if filepath.Base(song.FileName) == f.failOn {
		return 0, errors.New("constraint failed")
	}
	f.saved = append(f.saved, song)
	return int64(len(f.saved)), nil
}

func (f *fakeLibrary) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txs++
	staged := len(f.saved)
	if err := fn(ctx); err != nil {
		f.saved = f.saved[:staged]
		return err
	}
	return nil
}

// makeShare creates empty files below a temporary share root
func makeShare(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestImportIntoStore(t *testing.T) {
	ctx := context.Background()
	share := makeShare(t,
		"Artist/Album/01 - Track One.mp3",
		"Artist/Album/02 - Track Two.FLAC",
		"Artist/single.m4a",
		"README.txt",
		"cover.jpg",
	)

	cfg := settings.Default()
	cfg.TreatFolderAsAlbum = true

	db, err := store.Open(ctx, store.Options{Dir: t.TempDir(), Settings: cfg})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	imp := New(&Config{Library: db, Settings: cfg, Concurrency: 2, BatchSize: 2})
	result, err := imp.Import(ctx, share)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Found != 3 || result.Imported != 3 || result.Failed != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	song, err := db.SongByPath(ctx, share, filepath.Join(share, "Artist", "Album", "01 - Track One.mp3"))
	if err != nil {
		t.Fatalf("imported song not found: %v", err)
	}
	if song.Title != "01 - Track One" {
		t.Errorf("title = %q, want the file name", song.Title)
	}
	if song.Album != "Album" {
		t.Errorf("album = %q, want the folder name", song.Album)
	}
	if song.FileType != "mp3" {
		t.Errorf("file type = %q", song.FileType)
	}

	// A second run updates rows in place
	if _, err := imp.Import(ctx, share); err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	rs, err := db.Query(ctx, "SELECT COUNT(*) AS n FROM Song")
	if err != nil {
		t.Fatal(err)
	}
	if rs.Int(0, "n") != 3 {
		t.Errorf("expected 3 songs after reimport, got %d", rs.Int(0, "n"))
	}
}

func TestImportBatchesAndRollback(t *testing.T) {
	ctx := context.Background()
	share := makeShare(t, "a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3")

	lib := &fakeLibrary{failOn: "c.mp3"}
	imp := New(&Config{Library: lib, BatchSize: 2})

	result, err := imp.Import(ctx, share)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if lib.txs != 3 {
		t.Errorf("expected 3 batch transactions, got %d", lib.txs)
	}
	// The batch holding c.mp3 (c and d) is rolled back as a whole
	if result.Imported != 3 || result.Failed != 2 || len(result.Errors) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	var names []string
	for _, s := range lib.saved {
		names = append(names, filepath.Base(s.FileName))
	}
	if len(names) != 3 || names[0] != "a.mp3" || names[1] != "b.mp3" || names[2] != "e.mp3" {
		t.Errorf("saved songs = %v", names)
	}
	if result.Err() == nil {
		t.Error("expected Err() to report the failed batch")
	}
}

func TestImportSinceLastImport(t *testing.T) {
	ctx := context.Background()
	share := makeShare(t, "old.mp3", "new.mp3")

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)
	if err := os.Chtimes(filepath.Join(share, "old.mp3"), old, old); err != nil {
		t.Fatal(err)
	}

	cfg := settings.Default()
	cfg.UpdateSinceLastImport = true
	cfg.LastImport = time.Date(2021, 1, 1, 0, 0, 0, 0, time.Local)

	lib := &fakeLibrary{}
	result, err := New(&Config{Library: lib, Settings: cfg}).Import(ctx, share)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Found != 2 || result.Unchanged != 1 || result.Imported != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(lib.saved) != 1 || filepath.Base(lib.saved[0].FileName) != "new.mp3" {
		t.Errorf("expected only new.mp3 to import")
	}
}

func TestImportDateAdded(t *testing.T) {
	ctx := context.Background()
	mtime := time.Date(2019, 5, 4, 3, 2, 1, 0, time.Local)
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	tests := []struct {
		mode     settings.DateAddedMode
		expected time.Time
	}{
		{settings.DateAddedImport, started},
		{settings.DateAddedCreation, mtime},
		{settings.DateAddedModified, mtime},
	}

	for _, tt := range tests {
		share := makeShare(t, "song.mp3")
		if err := os.Chtimes(filepath.Join(share, "song.mp3"), mtime, mtime); err != nil {
			t.Fatal(err)
		}

		cfg := settings.Default()
		cfg.DateAdded = tt.mode

		lib := &fakeLibrary{}
		imp := New(&Config{Library: lib, Settings: cfg, Now: func() time.Time { return started }})
		if _, err := imp.Import(ctx, share); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if len(lib.saved) != 1 {
			t.Fatalf("expected one song, got %d", len(lib.saved))
		}
		if got := lib.saved[0].DateTimeModified; !got.Equal(tt.expected) {
			t.Errorf("mode %d: DateAdded = %v, want %v", tt.mode, got, tt.expected)
		}
	}
}

func TestImportMissingShare(t *testing.T) {
	imp := New(&Config{Library: &fakeLibrary{}})
	if _, err := imp.Import(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing share")
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Björk \x00", "Björk"},
		{"Bjo\u0308rk", "Bj\u00f6rk"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := clean(tt.input); got != tt.expected {
			t.Errorf("clean(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestImportWalkErrorsCountAsFailures(t *testing.T) {
	ctx := context.Background()
	share := makeShare(t, "a.mp3", "locked/b.mp3")

	lib := &fakeLibrary{}
	imp := New(&Config{Library: lib})
	imp.walk = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if d != nil && d.IsDir() && d.Name() == "locked" {
				fn(path, d, fs.ErrPermission)
				return filepath.SkipDir
			}
			return fn(path, d, err)
		})
	}

	result, err := imp.Import(ctx, share)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Imported != 1 || result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if !errors.Is(result.Err(), fs.ErrPermission) {
		t.Errorf("expected the access error to be reported, got %v", result.Err())
	}
	if result.Complete() {
		t.Error("a run that could not read a folder must not be complete")
	}
}

func TestResultComplete(t *testing.T) {
	if !(&Result{Found: 3, Imported: 3}).Complete() {
		t.Error("clean run should be complete")
	}
	if (&Result{Failed: 1}).Complete() {
		t.Error("failed files make a run incomplete")
	}
	if (&Result{Errors: []error{errors.New("stat failed")}}).Complete() {
		t.Error("recorded errors make a run incomplete")
	}
}

func TestImportEventLog(t *testing.T) {
	ctx := context.Background()
	share := makeShare(t, "a.mp3", "b.mp3", "c.mp3")

	events, err := report.NewEventLogger(t.TempDir(), report.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	lib := &fakeLibrary{failOn: "c.mp3"}
	imp := New(&Config{Library: lib, BatchSize: 2, Events: events})
	if _, err := imp.Import(ctx, share); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	events.Close()

	f, err := os.Open(events.Path())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	counts := map[report.EventType]int{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e report.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad event line: %v", err)
		}
		counts[e.Event]++
	}

	// Empty files carry no tags, so each read is logged as a warning
	if counts[report.EventRead] != 3 {
		t.Errorf("expected 3 read events, got %d", counts[report.EventRead])
	}
	if counts[report.EventImport] != 2 || counts[report.EventRollback] != 1 {
		t.Errorf("unexpected event counts: %v", counts)
	}
}
