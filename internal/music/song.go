// Package music holds the in-memory song record the store persists.
//
// Normalization happens when a value is assigned, never when it is written:
// the numeric setters clamp negatives to zero, SetYear widens two-digit years
// and SetArtist cleans up track-number prefixes and bracket noise.
package music

import (
	"strings"
	"time"
	"unicode"
)

// Status is the scrobble submit-queue state of a song
type Status int

const (
	StatusInit Status = iota
	StatusLoaded
	StatusCached
	StatusQueued
	StatusSubmitted
	StatusShort
)

// Source records who suggested the track
type Source int

const (
	SourceUser           Source = iota // chosen by the user
	SourceBroadcast                    // non-personalised broadcast
	SourceRecommendation               // personalised recommendation other than Last.fm
	SourceLastFM                       // Last.fm, validated by AuthToken
	SourceUnknown
)

// Action is a submit action attached to a play
type Action int

const (
	ActionNone Action = iota
	ActionLove
	ActionBan
	ActionSkip
)

// Song is one track's metadata.
//
// Fields with normalization rules are unexported and reached through
// accessor pairs; everything else is a plain field.
type Song struct {
	ID         int64
	FileName   string
	ArtistSort string

	AlbumArtist     string
	AlbumArtistSort string
	Album           string
	AlbumSort       string
	AmazonID        string
	Genre           string
	Grouping        string
	Composer        string
	ComposerSort    string
	Copyright       string
	Conductor       string
	Title           string
	TitleSort       string

	TimesPlayed      int
	Rating           int
	Favorite         bool
	DateTimeModified time.Time // DateAdded column
	DateTimePlayed   time.Time // last play, UTC

	Lyrics      string
	Comment     string
	FileType    string
	Codec       string
	BitRateMode string
	BPM         int
	BitRate     int
	Channels    int
	SampleRate  int

	MusicBrainzArtistID        string
	MusicBrainzDiscID          string
	MusicBrainzReleaseArtistID string
	MusicBrainzReleaseCountry  string
	MusicBrainzReleaseID       string
	MusicBrainzReleaseStatus   string
	MusicBrainzReleaseTrackID  string
	MusicBrainzReleaseType     string
	MusicIPID                  string

	ReplayGainTrack     string
	ReplayGainTrackPeak string
	ReplayGainAlbum     string
	ReplayGainAlbumPeak string

	// Scrobbling state; never persisted by the store
	ScrobbleStatus Status
	URL            string
	WebImage       string
	LastFMMatch    string
	Source         Source
	AuthToken      string
	ScrobbleAction Action

	artist     string
	track      int
	trackTotal int
	duration   int
	year       int
	resumeAt   int
	disc       int
	discTotal  int
}

// NewSong returns a song with every field at its default. ID is -1 until the
// song has been stored.
func NewSong() *Song {
	return &Song{ID: -1}
}

// Clone returns an independent copy. Song holds no reference types, so a
// value copy shares nothing with the receiver.
func (s *Song) Clone() *Song {
	c := *s
	return &c
}

// Clear resets every field to its NewSong default in place
func (s *Song) Clear() {
	*s = Song{ID: -1}
}

// Artist returns the cleaned performer name
func (s *Song) Artist() string { return s.artist }

// SetArtist stores name after cleanup. A leading "NN. " track number is
// dropped, everything before the first '[' (when it is not the first
// character) is dropped, and surrounding whitespace is trimmed. The rules
// are applied until the value no longer changes, so assigning the result
// again is a no-op.
func (s *Song) SetArtist(name string) {
	for {
		cleaned := cleanArtist(name)
		if cleaned == name {
			break
		}
		name = cleaned
	}
	s.artist = name
}

func cleanArtist(name string) string {
	r := []rune(name)
	if len(r) > 4 && unicode.IsDigit(r[0]) && unicode.IsDigit(r[1]) && r[2] == '.' && r[3] == ' ' {
		name = string(r[4:])
	}
	if pos := strings.Index(name, "["); pos > 0 {
		name = name[pos:]
	}
	return strings.TrimSpace(name)
}

// Track returns the track number
func (s *Song) Track() int { return s.track }

// SetTrack stores n, clamping negatives to zero
func (s *Song) SetTrack(n int) { s.track = clamp(n) }

// TrackTotal returns the number of tracks on the album
func (s *Song) TrackTotal() int { return s.trackTotal }

// SetTrackTotal stores n, clamping negatives to zero
func (s *Song) SetTrackTotal(n int) { s.trackTotal = clamp(n) }

// Duration returns the length in whole seconds
func (s *Song) Duration() int { return s.duration }

// SetDuration stores seconds, clamping negatives to zero
func (s *Song) SetDuration(seconds int) { s.duration = clamp(seconds) }

// ResumeAt returns the resume position in seconds
func (s *Song) ResumeAt() int { return s.resumeAt }

// SetResumeAt stores seconds, clamping negatives to zero
func (s *Song) SetResumeAt(seconds int) { s.resumeAt = clamp(seconds) }

// DiscID returns the disc number
func (s *Song) DiscID() int { return s.disc }

// SetDiscID stores n, clamping negatives to zero
func (s *Song) SetDiscID(n int) { s.disc = clamp(n) }

// DiscTotal returns the number of discs
func (s *Song) DiscTotal() int { return s.discTotal }

// SetDiscTotal stores n, clamping negatives to zero
func (s *Song) SetDiscTotal(n int) { s.discTotal = clamp(n) }

// Year returns the release year
func (s *Song) Year() int { return s.year }

// SetYear stores y. Negative years become 0, years 1..99 are read as 19xx,
// anything else is kept.
func (s *Song) SetYear(y int) {
	switch {
	case y < 0:
		y = 0
	case y > 0 && y < 100:
		y += 1900
	}
	s.year = y
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
