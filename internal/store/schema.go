package store

import "strconv"

// SchemaVersion is the DDL shape this package creates and expects to find in
// the Configuration table.
const SchemaVersion = 1

const (
	// DatabaseFileName is the backing file inside the database directory
	DatabaseFileName = "MusicDatabase.db3"

	// LegacyFileName is the incompatible predecessor layout
	LegacyFileName = "MusicDatabaseV12.db3"

	// LegacyBackupName is where a legacy file is moved before a new
	// database is created
	LegacyBackupName = "MusicDatabaseV12-backup.db3"

	versionParameter = "Version"
)

// connectionPragmas are applied to every new connection. encoding and
// page_size only take effect before the first table is created.
var connectionPragmas = []string{
	`PRAGMA encoding = "UTF-8"`,
	"PRAGMA cache_size = 4096",
	"PRAGMA page_size = 8192",
	"PRAGMA synchronous = OFF",
	"PRAGMA auto_vacuum = 0",
	"PRAGMA foreign_keys = ON",
}

type schemaStatement struct {
	name string
	sql  string
	args []any
}

// schemaStatements lists the schema in dependency order: every table is
// created after the tables it references.
var schemaStatements = []schemaStatement{
	{name: "Configuration", sql: `
CREATE TABLE IF NOT EXISTS Configuration (
  Parameter TEXT NOT NULL UNIQUE,
  Value TEXT NOT NULL
)`},
	{name: "Configuration.Version", sql: `INSERT OR IGNORE INTO Configuration (Parameter, Value) VALUES (?, ?)`,
		args: []any{versionParameter, strconv.Itoa(SchemaVersion)}},

	// Music shares (library root folders)
	{name: "Share", sql: `
CREATE TABLE IF NOT EXISTS Share (
  Id INTEGER PRIMARY KEY,
  ShareName TEXT NOT NULL
)`},

	{name: "Folder", sql: `
CREATE TABLE IF NOT EXISTS Folder (
  Id INTEGER PRIMARY KEY,
  IdShare INTEGER NOT NULL,
  FolderName TEXT NOT NULL,
  FOREIGN KEY (IdShare) REFERENCES Share(Id)
)`},

	// One table for performers, album artists, composers and conductors
	{name: "Artist", sql: `
CREATE TABLE IF NOT EXISTS Artist (
  Id INTEGER PRIMARY KEY,
  ArtistName TEXT NOT NULL,
  ArtistSortName TEXT NOT NULL
)`},
	{name: "IdxArtist_ArtistName", sql: `CREATE INDEX IF NOT EXISTS IdxArtist_ArtistName ON Artist(ArtistName ASC)`},

	{name: "Album", sql: `
CREATE TABLE IF NOT EXISTS Album (
  Id INTEGER PRIMARY KEY,
  AlbumName TEXT NOT NULL,
  AlbumSortName TEXT NOT NULL,
  Year INTEGER
)`},
	{name: "IdxAlbum_AlbumName", sql: `CREATE INDEX IF NOT EXISTS IdxAlbum_AlbumName ON Album(AlbumName ASC)`},

	{name: "Genre", sql: `
CREATE TABLE IF NOT EXISTS Genre (
  Id INTEGER PRIMARY KEY,
  GenreName TEXT NOT NULL
)`},
	{name: "IdxGenre_GenreName", sql: `CREATE INDEX IF NOT EXISTS IdxGenre_GenreName ON Genre(GenreName ASC)`},

	// One row per physical file; FileName is relative to Share + Folder
	{name: "Song", sql: `
CREATE TABLE IF NOT EXISTS Song (
  Id INTEGER PRIMARY KEY,
  IdFolder INTEGER NOT NULL,
  IdAlbum INTEGER NOT NULL,
  FileName TEXT NOT NULL,
  Title TEXT NOT NULL,
  TitleSort TEXT,
  Track INTEGER,
  TrackCount INTEGER,
  Disc INTEGER,
  DiscCount INTEGER,
  Duration INTEGER,
  Year INTEGER,
  TimesPlayed INTEGER,
  Rating INTEGER,
  Favorite INTEGER,
  ResumeAt INTEGER,
  Lyrics TEXT,
  Comment TEXT,
  Copyright TEXT,
  AmazonId TEXT,
  Grouping TEXT,
  MusicBrainzArtistId TEXT,
  MusicBrainzDiscId TEXT,
  MusicBrainzReleaseArtistId TEXT,
  MusicBrainzReleaseCountry TEXT,
  MusicBrainzReleaseId TEXT,
  MusicBrainzReleaseStatus TEXT,
  MusicBrainzReleaseTrackId TEXT,
  MusicBrainzReleaseType TEXT,
  MusicIpid TEXT,
  ReplayGainTrack TEXT,
  ReplayGainTrackPeak TEXT,
  ReplayGainAlbum TEXT,
  ReplayGainAlbumPeak TEXT,
  FileType TEXT,
  Codec TEXT,
  BitRateMode TEXT,
  BPM INTEGER,
  BitRate INTEGER,
  Channels INTEGER,
  SampleRate INTEGER,
  DateLastPlayed TIMESTAMP,
  DateAdded TIMESTAMP,
  FOREIGN KEY (IdFolder) REFERENCES Folder(Id),
  FOREIGN KEY (IdAlbum) REFERENCES Album(Id)
)`},
	{name: "IdxSong_FileName", sql: `CREATE INDEX IF NOT EXISTS IdxSong_FileName ON Song(FileName ASC)`},

	// Role junctions. Each role gets its own table so a song can carry the
	// same artist as performer and composer without ambiguity.
	{name: "AlbumArtist", sql: `
CREATE TABLE IF NOT EXISTS AlbumArtist (
  IdArtist INTEGER NOT NULL REFERENCES Artist(Id),
  IdAlbum INTEGER NOT NULL REFERENCES Album(Id),
  PRIMARY KEY (IdArtist, IdAlbum)
)`},
	{name: "ArtistSong", sql: `
CREATE TABLE IF NOT EXISTS ArtistSong (
  IdArtist INTEGER NOT NULL REFERENCES Artist(Id),
  IdSong INTEGER NOT NULL REFERENCES Song(Id),
  PRIMARY KEY (IdArtist, IdSong)
)`},
	{name: "GenreSong", sql: `
CREATE TABLE IF NOT EXISTS GenreSong (
  IdGenre INTEGER NOT NULL REFERENCES Genre(Id),
  IdSong INTEGER NOT NULL REFERENCES Song(Id),
  PRIMARY KEY (IdGenre, IdSong)
)`},
	{name: "ComposerSong", sql: `
CREATE TABLE IF NOT EXISTS ComposerSong (
  IdComposer INTEGER NOT NULL REFERENCES Artist(Id),
  IdSong INTEGER NOT NULL REFERENCES Song(Id),
  PRIMARY KEY (IdComposer, IdSong)
)`},
	{name: "ConductorSong", sql: `
CREATE TABLE IF NOT EXISTS ConductorSong (
  IdConductor INTEGER NOT NULL REFERENCES Artist(Id),
  IdSong INTEGER NOT NULL REFERENCES Song(Id),
  PRIMARY KEY (IdConductor, IdSong)
)`},

	// Album and artist biographies fetched from online sources
	{name: "albuminfo", sql: `
CREATE TABLE IF NOT EXISTS albuminfo (
  idAlbumInfo INTEGER PRIMARY KEY AUTOINCREMENT,
  strAlbum TEXT,
  strArtist TEXT,
  strAlbumArtist TEXT,
  iYear INTEGER,
  idGenre INTEGER,
  strTones TEXT,
  strStyles TEXT,
  strReview TEXT,
  strImage TEXT,
  strTracks TEXT,
  iRating INTEGER
)`},
	{name: "artistinfo", sql: `
CREATE TABLE IF NOT EXISTS artistinfo (
  idArtistInfo INTEGER PRIMARY KEY AUTOINCREMENT,
  strArtist TEXT,
  strBorn TEXT,
  strYearsActive TEXT,
  strGenres TEXT,
  strTones TEXT,
  strStyles TEXT,
  strInstruments TEXT,
  strImage TEXT,
  strAMGBio TEXT,
  strAlbums TEXT,
  strCompilations TEXT,
  strSingles TEXT,
  strMisc TEXT
)`},
	{name: "idxalbuminfo_strAlbum", sql: `CREATE INDEX IF NOT EXISTS idxalbuminfo_strAlbum ON albuminfo(strAlbum ASC)`},
	{name: "idxalbuminfo_strArtist", sql: `CREATE INDEX IF NOT EXISTS idxalbuminfo_strArtist ON albuminfo(strArtist ASC)`},
	{name: "idxalbuminfo_idGenre", sql: `CREATE INDEX IF NOT EXISTS idxalbuminfo_idGenre ON albuminfo(idGenre ASC)`},
	{name: "idxartistinfo_strArtist", sql: `CREATE INDEX IF NOT EXISTS idxartistinfo_strArtist ON artistinfo(strArtist ASC)`},

	// Scrobbler accounts and radio preferences
	{name: "scrobbleusers", sql: `
CREATE TABLE IF NOT EXISTS scrobbleusers (
  idScrobbleUser INTEGER PRIMARY KEY,
  strUsername TEXT,
  strPassword TEXT
)`},
	{name: "scrobblesettings", sql: `
CREATE TABLE IF NOT EXISTS scrobblesettings (
  idScrobbleSettings INTEGER PRIMARY KEY,
  idScrobbleUser INTEGER,
  iAddArtists INTEGER,
  iAddTracks INTEGER,
  iNeighbourMode INTEGER,
  iRandomness INTEGER,
  iScrobbleDefault INTEGER,
  iSubmitOn INTEGER,
  iDebugLog INTEGER,
  iOfflineMode INTEGER,
  iPlaylistLimit INTEGER,
  iPreferCount INTEGER,
  iRememberStartArtist INTEGER,
  iAnnounce INTEGER
)`},
	{name: "scrobblemode", sql: `
CREATE TABLE IF NOT EXISTS scrobblemode (
  idScrobbleMode INTEGER PRIMARY KEY,
  idScrobbleUser INTEGER,
  iSortID INTEGER,
  strModeName TEXT
)`},
	{name: "scrobbletags", sql: `
CREATE TABLE IF NOT EXISTS scrobbletags (
  idScrobbleTag INTEGER PRIMARY KEY,
  idScrobbleMode INTEGER,
  iSortID INTEGER,
  strTagName TEXT
)`},
}

// libraryTables are the tables reported by Stats
var libraryTables = []string{
	"Share", "Folder", "Artist", "Album", "Genre", "Song",
	"AlbumArtist", "ArtistSong", "GenreSong", "ComposerSong", "ConductorSong",
}
