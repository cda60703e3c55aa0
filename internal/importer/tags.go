package importer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/franz/musicdb/internal/music"
	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/util"
	"golang.org/x/text/unicode/norm"
)

// readSong builds the song record for one file. Files without readable tags
// still import, titled after their file name; tagged reports whether any
// were found.
func readSong(ctx context.Context, path string, info fs.FileInfo, cfg *settings.Settings, policy util.RetryPolicy, importTime time.Time) (song *music.Song, tagged bool, err error) {
	song = music.NewSong()
	song.FileName = path
	song.FileType = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	f, err := util.OpenWithRetry(ctx, policy, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		util.DebugLog("No tags in %s: %v", path, err)
	} else {
		applyTags(song, m)
		tagged = true
	}

	if song.Title == "" {
		song.Title = clean(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if song.Album == "" && cfg.TreatFolderAsAlbum {
		song.Album = clean(filepath.Base(filepath.Dir(path)))
	}

	switch cfg.DateAdded {
	case settings.DateAddedCreation, settings.DateAddedModified:
		// Creation time is not portable; the last write time stands in for it
		song.DateTimeModified = info.ModTime()
	default:
		song.DateTimeModified = importTime
	}
	return song, tagged, nil
}

func applyTags(song *music.Song, m tag.Metadata) {
	song.SetArtist(clean(m.Artist()))
	song.AlbumArtist = clean(m.AlbumArtist())
	song.Album = clean(m.Album())
	song.Title = clean(m.Title())
	song.Genre = clean(m.Genre())
	song.Composer = clean(m.Composer())
	song.Lyrics = clean(m.Lyrics())
	song.Comment = clean(m.Comment())
	song.Codec = string(m.FileType())
	song.SetYear(m.Year())

	track, trackTotal := m.Track()
	song.SetTrack(track)
	song.SetTrackTotal(trackTotal)

	disc, discTotal := m.Disc()
	song.SetDiscID(disc)
	song.SetDiscTotal(discTotal)

	raw := m.Raw()
	song.Conductor = clean(rawString(raw, "TPE3", "CONDUCTOR", "conductor"))
	song.Copyright = clean(rawString(raw, "TCOP", "COPYRIGHT", "cprt"))
	song.Grouping = clean(rawString(raw, "TIT1", "GROUPING", "\xa9grp"))
	song.ArtistSort = clean(rawString(raw, "TSOP", "ARTISTSORT", "soar"))
	song.AlbumArtistSort = clean(rawString(raw, "TSO2", "ALBUMARTISTSORT", "soaa"))
	song.AlbumSort = clean(rawString(raw, "TSOA", "ALBUMSORT", "soal"))
	song.TitleSort = clean(rawString(raw, "TSOT", "TITLESORT", "sonm"))
	song.ComposerSort = clean(rawString(raw, "TSOC", "COMPOSERSORT", "soco"))
	song.MusicBrainzArtistID = rawString(raw, "MUSICBRAINZ_ARTISTID")
	song.MusicBrainzReleaseID = rawString(raw, "MUSICBRAINZ_ALBUMID")
	song.MusicBrainzReleaseArtistID = rawString(raw, "MUSICBRAINZ_ALBUMARTISTID")
	song.MusicBrainzReleaseTrackID = rawString(raw, "MUSICBRAINZ_RELEASETRACKID")
	song.MusicBrainzReleaseCountry = rawString(raw, "RELEASECOUNTRY")
	song.MusicBrainzReleaseStatus = rawString(raw, "RELEASESTATUS", "MUSICBRAINZ_ALBUMSTATUS")
	song.MusicBrainzReleaseType = rawString(raw, "RELEASETYPE", "MUSICBRAINZ_ALBUMTYPE")
	song.ReplayGainTrack = rawString(raw, "REPLAYGAIN_TRACK_GAIN")
	song.ReplayGainTrackPeak = rawString(raw, "REPLAYGAIN_TRACK_PEAK")
	song.ReplayGainAlbum = rawString(raw, "REPLAYGAIN_ALBUM_GAIN")
	song.ReplayGainAlbumPeak = rawString(raw, "REPLAYGAIN_ALBUM_PEAK")
}

// rawString returns the first key present in the raw tag map as text
func rawString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		val, ok := raw[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case string:
			if v != "" {
				return v
			}
		case []string:
			if len(v) > 0 {
				return strings.Join(v, "; ")
			}
		case *tag.Comm:
			if v != nil && v.Text != "" {
				return v.Text
			}
		}
	}
	return ""
}

// clean trims tag text and brings it to NFC so equal names compare equal
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(strings.Trim(s, "\x00")))
}
