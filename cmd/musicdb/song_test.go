package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/musicdb/internal/music"
	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
)

func sampleSong(share string) *music.Song {
	song := music.NewSong()
	song.FileName = filepath.Join(share, "Queen", "01 - Bohemian Rhapsody.mp3")
	song.Title = "Bohemian Rhapsody"
	song.SetArtist("Queen")
	song.Album = "A Night at the Opera"
	song.SetDuration(354)
	song.SetTrack(11)
	song.SetTrackTotal(12)
	return song
}

func TestResolveSong(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	share := filepath.Join(dir, "music")

	db, err := store.Open(ctx, store.Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	song := sampleSong(share)
	id, err := db.SaveSong(ctx, share, song)
	if err != nil {
		t.Fatalf("SaveSong failed: %v", err)
	}

	byID, err := resolveSong(ctx, db, "", "1")
	if err != nil || byID.ID != id {
		t.Fatalf("lookup by id = %v, %v", byID, err)
	}

	byPath, err := resolveSong(ctx, db, share, song.FileName)
	if err != nil || byPath.Title != "Bohemian Rhapsody" {
		t.Fatalf("lookup by path = %v, %v", byPath, err)
	}

	if _, err := resolveSong(ctx, db, "", song.FileName); err == nil {
		t.Error("expected an error for a path without --share")
	}
	if _, err := resolveSong(ctx, db, "", "99"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown id, got %v", err)
	}
}

func TestPrintSong(t *testing.T) {
	song := sampleSong("/music")
	song.ID = 7
	song.TimesPlayed = 3

	tests := []struct {
		format string
		want   []string
	}{
		{"short", []string{"Bohemian Rhapsody - Queen (A Night at the Opera)"}},
		{"scrobble", []string{"Queen - Bohemian Rhapsody [5:54] (played: 3 times)"}},
		{"tab", []string{"Queen\tBohemian Rhapsody\tA Night at the Opera\t354\t"}},
		{"m3u", []string{"#EXTM3U", "#EXTINF:354,Queen - Bohemian Rhapsody", "/music/Queen/01 - Bohemian Rhapsody.mp3"}},
		{"details", []string{"Title", "Bohemian Rhapsody", "11/12", "5:54", "Times played"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printSong(&buf, song, tt.format); err != nil {
				t.Fatalf("printSong failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output lacks %q:\n%s", want, buf.String())
				}
			}
		})
	}

	if err := printSong(&bytes.Buffer{}, song, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestPrintSongDetails_OmitsEmpty(t *testing.T) {
	song := music.NewSong()
	song.Title = "Untagged"

	var buf bytes.Buffer
	printSongDetails(&buf, song)

	out := buf.String()
	if strings.Contains(out, "Album") || strings.Contains(out, "Last played") || strings.Contains(out, "Favorite") {
		t.Errorf("empty fields printed:\n%s", out)
	}
}
