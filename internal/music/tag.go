package music

import "time"

// Tag is the flat tag-metadata view of a song handed to tag writers and
// players.
type Tag struct {
	Title           string
	TitleSort       string
	Artist          string
	ArtistSort      string
	AlbumArtist     string
	AlbumArtistSort string
	HasAlbumArtist  bool
	Album           string
	AlbumSort       string
	Genre           string
	Grouping        string
	Composer        string
	ComposerSort    string
	Conductor       string
	Copyright       string
	AmazonID        string
	Comment         string
	Lyrics          string

	Track       int
	TrackTotal  int
	DiscID      int
	DiscTotal   int
	Duration    int
	Year        int
	Rating      int
	TimesPlayed int

	ReplayGainTrack     string
	ReplayGainTrackPeak string
	ReplayGainAlbum     string
	ReplayGainAlbumPeak string

	MusicBrainzArtistID        string
	MusicBrainzDiscID          string
	MusicBrainzReleaseArtistID string
	MusicBrainzReleaseCountry  string
	MusicBrainzReleaseID       string
	MusicBrainzReleaseStatus   string
	MusicBrainzReleaseTrackID  string
	MusicBrainzReleaseType     string
	MusicIPID                  string

	DateTimeModified time.Time
	DateTimePlayed   time.Time

	FileType    string
	Codec       string
	BitRateMode string
	BPM         int
	BitRate     int
	Channels    int
	SampleRate  int
}

// ItemType classifies a playlist entry
type ItemType int

const (
	ItemUnknown ItemType = iota
	ItemAudio
)

// PlaylistItem is a playable entry built from a song
type PlaylistItem struct {
	Type        ItemType
	FileName    string
	Description string
	Duration    int
	Tag         Tag
}

// ToTag projects the song onto a Tag
func (s *Song) ToTag() Tag {
	return Tag{
		Title:           s.Title,
		TitleSort:       s.TitleSort,
		Artist:          s.artist,
		ArtistSort:      s.ArtistSort,
		AlbumArtist:     s.AlbumArtist,
		AlbumArtistSort: s.AlbumArtistSort,
		HasAlbumArtist:  s.AlbumArtist != "",
		Album:           s.Album,
		AlbumSort:       s.AlbumSort,
		Genre:           s.Genre,
		Grouping:        s.Grouping,
		Composer:        s.Composer,
		ComposerSort:    s.ComposerSort,
		Conductor:       s.Conductor,
		Copyright:       s.Copyright,
		AmazonID:        s.AmazonID,
		Comment:         s.Comment,
		Lyrics:          s.Lyrics,

		Track:       s.track,
		TrackTotal:  s.trackTotal,
		DiscID:      s.disc,
		DiscTotal:   s.discTotal,
		Duration:    s.duration,
		Year:        s.year,
		Rating:      s.Rating,
		TimesPlayed: s.TimesPlayed,

		ReplayGainTrack:     s.ReplayGainTrack,
		ReplayGainTrackPeak: s.ReplayGainTrackPeak,
		ReplayGainAlbum:     s.ReplayGainAlbum,
		ReplayGainAlbumPeak: s.ReplayGainAlbumPeak,

		MusicBrainzArtistID:        s.MusicBrainzArtistID,
		MusicBrainzDiscID:          s.MusicBrainzDiscID,
		MusicBrainzReleaseArtistID: s.MusicBrainzReleaseArtistID,
		MusicBrainzReleaseCountry:  s.MusicBrainzReleaseCountry,
		MusicBrainzReleaseID:       s.MusicBrainzReleaseID,
		MusicBrainzReleaseStatus:   s.MusicBrainzReleaseStatus,
		MusicBrainzReleaseTrackID:  s.MusicBrainzReleaseTrackID,
		MusicBrainzReleaseType:     s.MusicBrainzReleaseType,
		MusicIPID:                  s.MusicIPID,

		DateTimeModified: s.DateTimeModified,
		DateTimePlayed:   s.DateTimePlayed,

		FileType:    s.FileType,
		Codec:       s.Codec,
		BitRateMode: s.BitRateMode,
		BPM:         s.BPM,
		BitRate:     s.BitRate,
		Channels:    s.Channels,
		SampleRate:  s.SampleRate,
	}
}

// ToPlaylistItem wraps the song as an audio playlist entry
func (s *Song) ToPlaylistItem() PlaylistItem {
	return PlaylistItem{
		Type:        ItemAudio,
		FileName:    s.FileName,
		Description: s.Title,
		Duration:    s.duration,
		Tag:         s.ToTag(),
	}
}
