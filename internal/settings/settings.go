// Package settings reads the behavioural flags the music store consumes.
//
// Values come from a viper instance (config file, environment, flags). Every
// key has a documented default that applies when the key is missing or its
// value does not parse; loading never fails.
package settings

import (
	"strings"
	"time"

	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/viper"
)

// Keys consumed by the store and the importer
const (
	KeyTreatFolderAsAlbum        = "musicfiles.treatFolderAsAlbum"
	KeyExtractThumbs             = "musicfiles.extractthumbs"
	KeyUseFolderThumbs           = "musicfiles.useFolderThumbs"
	KeyUseAllImages              = "musicfiles.useAllImages"
	KeyCreateMissingFolderThumbs = "musicfiles.createMissingFolderThumbs"
	KeyCreateArtistThumbs        = "musicfiles.createartistthumbs"
	KeyCreateGenreThumbs         = "musicfiles.creategenrethumbs"
	KeyExtensions                = "music.extensions"
	KeyStripArtistPrefixes       = "musicfiles.stripartistprefixes"
	KeyArtistPrefixes            = "musicfiles.artistprefixes"
	KeyDateAdded                 = "musicfiles.dateadded"
	KeyUpdateSinceLastImport     = "musicfiles.updateSinceLastImport"
	KeyLastImport                = "musicfiles.lastImport"
)

// LastImportLayout parses musicfiles.lastImport
// (year-month-day hour:minute:second, no zero padding required).
const LastImportLayout = "2006-1-2 15:4:5"

// LastImportFormat is how the watermark is written back. It is fully zero
// padded and still parses with LastImportLayout.
const LastImportFormat = "2006-01-02 15:04:05"

// DefaultExtensions is the built-in list used when music.extensions is unset
const DefaultExtensions = ".mp3,.wma,.ogg,.opus,.flac,.fla,.wav,.m4a,.m4p,.mp4,.aac,.wv,.ape,.mpc,.aif,.aiff"

// DefaultArtistPrefixes are moved to the end of artist sort names
const DefaultArtistPrefixes = "The, Les, Die"

// DateAddedMode selects which timestamp becomes a song's DateAdded
type DateAddedMode int

const (
	DateAddedImport   DateAddedMode = iota // time of import
	DateAddedCreation                      // file creation time
	DateAddedModified                      // file last-write time
)

// LastImportSentinel forces a full rescan. It is the default watermark and
// is restored whenever the database is freshly created.
func LastImportSentinel() time.Time {
	return time.Date(1900, time.January, 1, 0, 0, 0, 0, time.Local)
}

// Settings is a snapshot of the store's behavioural flags
type Settings struct {
	TreatFolderAsAlbum        bool
	ExtractThumbs             bool
	UseFolderThumbs           bool
	UseAllImages              bool
	CreateMissingFolderThumbs bool
	CreateArtistThumbs        bool
	CreateGenreThumbs         bool
	Extensions                []string
	StripArtistPrefixes       bool
	ArtistPrefixes            []string
	DateAdded                 DateAddedMode
	UpdateSinceLastImport     bool
	LastImport                time.Time
}

// Default returns the settings used when no source provides any key
func Default() *Settings {
	return Load(viper.New())
}

// Load reads all keys from v once. Dependent defaults follow the key they
// derive from: useAllImages defaults to useFolderThumbs and
// createMissingFolderThumbs defaults to treatFolderAsAlbum.
func Load(v *viper.Viper) *Settings {
	s := &Settings{}
	s.TreatFolderAsAlbum = util.ConfigBool(v, KeyTreatFolderAsAlbum, false)
	s.ExtractThumbs = util.ConfigBool(v, KeyExtractThumbs, true)
	s.UseFolderThumbs = util.ConfigBool(v, KeyUseFolderThumbs, true)
	s.UseAllImages = util.ConfigBool(v, KeyUseAllImages, s.UseFolderThumbs)
	s.CreateMissingFolderThumbs = util.ConfigBool(v, KeyCreateMissingFolderThumbs, s.TreatFolderAsAlbum)
	s.CreateArtistThumbs = util.ConfigBool(v, KeyCreateArtistThumbs, false)
	s.CreateGenreThumbs = util.ConfigBool(v, KeyCreateGenreThumbs, true)
	s.Extensions = ParseExtensions(util.ConfigString(v, KeyExtensions, DefaultExtensions))
	s.StripArtistPrefixes = util.ConfigBool(v, KeyStripArtistPrefixes, false)
	s.ArtistPrefixes = splitList(util.ConfigString(v, KeyArtistPrefixes, DefaultArtistPrefixes))
	s.DateAdded = DateAddedMode(util.ConfigInt(v, KeyDateAdded, 0))
	s.UpdateSinceLastImport = util.ConfigBool(v, KeyUpdateSinceLastImport, false)
	s.LastImport = util.ConfigTime(v, KeyLastImport, LastImportLayout, LastImportSentinel())
	return s
}

// ResetLastImport restores the watermark sentinel
func (s *Settings) ResetLastImport() {
	s.LastImport = LastImportSentinel()
}

// SupportsExtension reports whether ext (with leading dot, any case) is in
// the configured extension list
func (s *Settings) SupportsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range s.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// SaveLastImport records t as the new watermark in v and, when v was loaded
// from a file, writes the file back.
func SaveLastImport(v *viper.Viper, t time.Time) error {
	v.Set(KeyLastImport, FormatLastImport(t))
	if v.ConfigFileUsed() == "" {
		return nil
	}
	return v.WriteConfig()
}

// FormatLastImport renders t the way the watermark is stored
func FormatLastImport(t time.Time) string {
	return t.Format(LastImportFormat)
}

// ParseExtensions splits a comma separated extension list, lowercases it and
// adds missing leading dots.
func ParseExtensions(raw string) []string {
	var exts []string
	for _, e := range splitList(raw) {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
