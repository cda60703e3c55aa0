package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/musicdb/internal/music"
	"github.com/franz/musicdb/internal/util"
)

// TableCount is the number of rows in one library table
type TableCount struct {
	Table string
	Rows  int64
}

// locked runs fn with the store locked and the connection open
func (s *Store) locked(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	return fn()
}

// lookupOrInsert returns the Id found by lookup, running insert when there
// is none
func (s *Store) lookupOrInsert(ctx context.Context, lookup string, lookupArgs []any, insert string, insertArgs []any) (int64, error) {
	var id int64
	err := s.target().QueryRowContext(ctx, lookup, lookupArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		util.ErrorLog("MusicDatabase: Exception executing: %s\n%v", lookup, err)
		return 0, fmt.Errorf("%w: %w", util.ErrQuery, err)
	}
	return s.lastInsertID(ctx, insert, insertArgs...)
}

// ShareID returns the Id of the share rooted at root, adding it when new
func (s *Store) ShareID(ctx context.Context, root string) (id int64, err error) {
	err = s.locked(ctx, func() error {
		id, err = s.shareID(ctx, root)
		return err
	})
	return id, err
}

func (s *Store) shareID(ctx context.Context, root string) (int64, error) {
	root = filepath.Clean(root)
	return s.lookupOrInsert(ctx,
		"SELECT Id FROM Share WHERE ShareName = ?", []any{root},
		"INSERT INTO Share (ShareName) VALUES (?)", []any{root})
}

// FolderID returns the Id of a folder inside a share. folder is relative to
// the share root, "" for the root itself.
func (s *Store) FolderID(ctx context.Context, shareID int64, folder string) (id int64, err error) {
	err = s.locked(ctx, func() error {
		id, err = s.folderID(ctx, shareID, folder)
		return err
	})
	return id, err
}

func (s *Store) folderID(ctx context.Context, shareID int64, folder string) (int64, error) {
	return s.lookupOrInsert(ctx,
		"SELECT Id FROM Folder WHERE IdShare = ? AND FolderName = ?", []any{shareID, folder},
		"INSERT INTO Folder (IdShare, FolderName) VALUES (?, ?)", []any{shareID, folder})
}

// ArtistID returns the Id of the named artist, adding it when new. The sort
// name has its leading article moved to the end when prefix stripping is on.
func (s *Store) ArtistID(ctx context.Context, name string) (id int64, err error) {
	err = s.locked(ctx, func() error {
		id, err = s.artistID(ctx, name, "")
		return err
	})
	return id, err
}

func (s *Store) artistID(ctx context.Context, name, sortName string) (int64, error) {
	if sortName == "" {
		sortName = name
		if s.settings.StripArtistPrefixes {
			sortName = music.SortName(name, s.settings.ArtistPrefixes)
		}
	}
	return s.lookupOrInsert(ctx,
		"SELECT Id FROM Artist WHERE ArtistName = ?", []any{name},
		"INSERT INTO Artist (ArtistName, ArtistSortName) VALUES (?, ?)", []any{name, sortName})
}

// AlbumID returns the Id of an album. Albums with the same name by different
// album artists are distinct; albumArtistID 0 means unknown.
func (s *Store) AlbumID(ctx context.Context, name string, albumArtistID int64, year int) (id int64, err error) {
	err = s.locked(ctx, func() error {
		id, err = s.albumID(ctx, name, "", albumArtistID, year)
		return err
	})
	return id, err
}

func (s *Store) albumID(ctx context.Context, name, sortName string, albumArtistID int64, year int) (int64, error) {
	if sortName == "" {
		sortName = name
	}

	var (
		lookup string
		args   []any
	)
	if albumArtistID > 0 {
		lookup = `SELECT a.Id FROM Album a JOIN AlbumArtist aa ON aa.IdAlbum = a.Id
WHERE a.AlbumName = ? AND aa.IdArtist = ?`
		args = []any{name, albumArtistID}
	} else {
		lookup = `SELECT Id FROM Album WHERE AlbumName = ? AND Id NOT IN (SELECT IdAlbum FROM AlbumArtist)`
		args = []any{name}
	}

	id, err := s.lookupOrInsert(ctx, lookup, args,
		"INSERT INTO Album (AlbumName, AlbumSortName, Year) VALUES (?, ?, ?)",
		[]any{name, sortName, nullInt(year)})
	if err != nil {
		return 0, err
	}
	if albumArtistID > 0 {
		if _, err := s.exec(ctx, "INSERT OR IGNORE INTO AlbumArtist (IdArtist, IdAlbum) VALUES (?, ?)", albumArtistID, id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GenreID returns the Id of the named genre, adding it when new
func (s *Store) GenreID(ctx context.Context, name string) (id int64, err error) {
	err = s.locked(ctx, func() error {
		id, err = s.genreID(ctx, name)
		return err
	})
	return id, err
}

func (s *Store) genreID(ctx context.Context, name string) (int64, error) {
	return s.lookupOrInsert(ctx,
		"SELECT Id FROM Genre WHERE GenreName = ?", []any{name},
		"INSERT INTO Genre (GenreName) VALUES (?)", []any{name})
}

// SaveSong stores song, which must live below shareRoot. A song already
// stored under the same folder and file name is updated in place and keeps
// its play statistics. The write runs in its own transaction unless one is
// already open. song.ID is set on success.
func (s *Store) SaveSong(ctx context.Context, shareRoot string, song *music.Song) (id int64, err error) {
	err = s.locked(ctx, func() error {
		ownTx := s.tx == nil
		if ownTx {
			if err := s.beginLocked(ctx); err != nil {
				return err
			}
		}

		id, err = s.saveSong(ctx, shareRoot, song)
		if !ownTx {
			return err
		}
		if err != nil {
			if rbErr := s.rollbackLocked(); rbErr != nil {
				util.WarnLog("MusicDatabase: rollback after error: %v", rbErr)
			}
			return err
		}
		return s.commitLocked()
	})
	if err != nil {
		return 0, err
	}
	song.ID = id
	return id, nil
}

func (s *Store) saveSong(ctx context.Context, shareRoot string, song *music.Song) (int64, error) {
	folder, file, err := splitSharePath(shareRoot, song.FileName)
	if err != nil {
		return 0, err
	}

	shareID, err := s.shareID(ctx, shareRoot)
	if err != nil {
		return 0, err
	}
	folderID, err := s.folderID(ctx, shareID, folder)
	if err != nil {
		return 0, err
	}

	albumArtists := music.SplitMulti(song.AlbumArtist)
	var albumArtistIDs []int64
	for i, name := range albumArtists {
		sortName := ""
		if i == 0 {
			sortName = song.AlbumArtistSort
		}
		aid, err := s.artistID(ctx, name, sortName)
		if err != nil {
			return 0, err
		}
		albumArtistIDs = append(albumArtistIDs, aid)
	}

	var primaryArtist int64
	if len(albumArtistIDs) > 0 {
		primaryArtist = albumArtistIDs[0]
	}
	albumID, err := s.albumID(ctx, song.Album, song.AlbumSort, primaryArtist, song.Year())
	if err != nil {
		return 0, err
	}
	for _, aid := range albumArtistIDs[min(1, len(albumArtistIDs)):] {
		if _, err := s.exec(ctx, "INSERT OR IGNORE INTO AlbumArtist (IdArtist, IdAlbum) VALUES (?, ?)", aid, albumID); err != nil {
			return 0, err
		}
	}

	columns, values := songColumns(song, folderID, albumID, file)

	var songID int64
	err = s.target().QueryRowContext(ctx,
		"SELECT Id FROM Song WHERE IdFolder = ? AND FileName = ?", folderID, file).Scan(&songID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stats := []string{"TimesPlayed", "Rating", "Favorite", "ResumeAt", "DateLastPlayed", "DateAdded"}
		statValues := []any{song.TimesPlayed, song.Rating, boolInt(song.Favorite), song.ResumeAt(),
			timeValue(song.DateTimePlayed), timeValue(song.DateTimeModified)}
		columns = append(columns, stats...)
		values = append(values, statValues...)

		stmt := fmt.Sprintf("INSERT INTO Song (%s) VALUES (%s)",
			strings.Join(columns, ", "), placeholders(len(columns)))
		songID, err = s.lastInsertID(ctx, stmt, values...)
		if err != nil {
			return 0, err
		}
	case err != nil:
		return 0, fmt.Errorf("%w: %w", util.ErrQuery, err)
	default:
		sets := make([]string, len(columns))
		for i, c := range columns {
			sets[i] = c + " = ?"
		}
		sets = append(sets, "DateAdded = COALESCE(DateAdded, ?)")
		values = append(values, timeValue(song.DateTimeModified), songID)

		stmt := fmt.Sprintf("UPDATE Song SET %s WHERE Id = ?", strings.Join(sets, ", "))
		if _, err := s.exec(ctx, stmt, values...); err != nil {
			return 0, err
		}
	}

	if err := s.linkSong(ctx, songID, song); err != nil {
		return 0, err
	}
	return songID, nil
}

// roleLink describes one junction table between Song and a name table
type roleLink struct {
	table  string
	column string
	value  func(*music.Song) string
	genre  bool
}

var roleLinks = []roleLink{
	{table: "ArtistSong", column: "IdArtist", value: (*music.Song).Artist},
	{table: "GenreSong", column: "IdGenre", value: func(s *music.Song) string { return s.Genre }, genre: true},
	{table: "ComposerSong", column: "IdComposer", value: func(s *music.Song) string { return s.Composer }},
	{table: "ConductorSong", column: "IdConductor", value: func(s *music.Song) string { return s.Conductor }},
}

// linkSong replaces the song's role links with the names on song
func (s *Store) linkSong(ctx context.Context, songID int64, song *music.Song) error {
	for _, link := range roleLinks {
		if _, err := s.exec(ctx, "DELETE FROM "+link.table+" WHERE IdSong = ?", songID); err != nil {
			return err
		}

		for _, name := range music.SplitMulti(link.value(song)) {
			var (
				id  int64
				err error
			)
			switch {
			case link.genre:
				id, err = s.genreID(ctx, name)
			case link.table == "ArtistSong" && name == song.Artist():
				id, err = s.artistID(ctx, name, song.ArtistSort)
			case link.table == "ComposerSong" && name == song.Composer:
				id, err = s.artistID(ctx, name, song.ComposerSort)
			default:
				id, err = s.artistID(ctx, name, "")
			}
			if err != nil {
				return err
			}

			stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, IdSong) VALUES (?, ?)", link.table, link.column)
			if _, err := s.exec(ctx, stmt, id, songID); err != nil {
				return err
			}
		}
	}
	return nil
}

// songColumns returns the metadata columns written on both insert and update
func songColumns(song *music.Song, folderID, albumID int64, file string) ([]string, []any) {
	columns := []string{
		"IdFolder", "IdAlbum", "FileName", "Title", "TitleSort",
		"Track", "TrackCount", "Disc", "DiscCount", "Duration", "Year",
		"Lyrics", "Comment", "Copyright", "AmazonId", "Grouping",
		"MusicBrainzArtistId", "MusicBrainzDiscId", "MusicBrainzReleaseArtistId",
		"MusicBrainzReleaseCountry", "MusicBrainzReleaseId", "MusicBrainzReleaseStatus",
		"MusicBrainzReleaseTrackId", "MusicBrainzReleaseType", "MusicIpid",
		"ReplayGainTrack", "ReplayGainTrackPeak", "ReplayGainAlbum", "ReplayGainAlbumPeak",
		"FileType", "Codec", "BitRateMode", "BPM", "BitRate", "Channels", "SampleRate",
	}
	values := []any{
		folderID, albumID, file, song.Title, song.TitleSort,
		song.Track(), song.TrackTotal(), song.DiscID(), song.DiscTotal(), song.Duration(), song.Year(),
		song.Lyrics, song.Comment, song.Copyright, song.AmazonID, song.Grouping,
		song.MusicBrainzArtistID, song.MusicBrainzDiscID, song.MusicBrainzReleaseArtistID,
		song.MusicBrainzReleaseCountry, song.MusicBrainzReleaseID, song.MusicBrainzReleaseStatus,
		song.MusicBrainzReleaseTrackID, song.MusicBrainzReleaseType, song.MusicIPID,
		song.ReplayGainTrack, song.ReplayGainTrackPeak, song.ReplayGainAlbum, song.ReplayGainAlbumPeak,
		song.FileType, song.Codec, song.BitRateMode, song.BPM, song.BitRate, song.Channels, song.SampleRate,
	}
	return columns, values
}

// songQuery reads one song with its folder, share and album. Multi-value
// roles are joined from the junction tables in insertion order.
const songQuery = `
SELECT s.*, sh.ShareName, f.FolderName, al.AlbumName, al.AlbumSortName,
  (SELECT group_concat(ArtistName, ' | ') FROM (SELECT a.ArtistName FROM ArtistSong j JOIN Artist a ON a.Id = j.IdArtist WHERE j.IdSong = s.Id ORDER BY j.rowid)) AS Artists,
  (SELECT a.ArtistSortName FROM ArtistSong j JOIN Artist a ON a.Id = j.IdArtist WHERE j.IdSong = s.Id ORDER BY j.rowid LIMIT 1) AS ArtistSort,
  (SELECT group_concat(ArtistName, ' | ') FROM (SELECT a.ArtistName FROM AlbumArtist j JOIN Artist a ON a.Id = j.IdArtist WHERE j.IdAlbum = s.IdAlbum ORDER BY j.rowid)) AS AlbumArtists,
  (SELECT a.ArtistSortName FROM AlbumArtist j JOIN Artist a ON a.Id = j.IdArtist WHERE j.IdAlbum = s.IdAlbum ORDER BY j.rowid LIMIT 1) AS AlbumArtistSort,
  (SELECT group_concat(GenreName, ' | ') FROM (SELECT g.GenreName FROM GenreSong j JOIN Genre g ON g.Id = j.IdGenre WHERE j.IdSong = s.Id ORDER BY j.rowid)) AS Genres,
  (SELECT group_concat(ArtistName, ' | ') FROM (SELECT a.ArtistName FROM ComposerSong j JOIN Artist a ON a.Id = j.IdComposer WHERE j.IdSong = s.Id ORDER BY j.rowid)) AS Composers,
  (SELECT a.ArtistSortName FROM ComposerSong j JOIN Artist a ON a.Id = j.IdComposer WHERE j.IdSong = s.Id ORDER BY j.rowid LIMIT 1) AS ComposerSort,
  (SELECT group_concat(ArtistName, ' | ') FROM (SELECT a.ArtistName FROM ConductorSong j JOIN Artist a ON a.Id = j.IdConductor WHERE j.IdSong = s.Id ORDER BY j.rowid)) AS Conductors
FROM Song s
JOIN Folder f ON f.Id = s.IdFolder
JOIN Share sh ON sh.Id = f.IdShare
JOIN Album al ON al.Id = s.IdAlbum`

// SongByPath reads back the song stored for the file at path below
// shareRoot. It returns util.ErrNotFound when there is none.
func (s *Store) SongByPath(ctx context.Context, shareRoot, path string) (song *music.Song, err error) {
	folder, file, err := splitSharePath(shareRoot, path)
	if err != nil {
		return nil, err
	}

	err = s.locked(ctx, func() error {
		rs, err := s.query(ctx, songQuery+"\nWHERE sh.ShareName = ? AND f.FolderName = ? AND s.FileName = ?",
			filepath.Clean(shareRoot), folder, file)
		if err != nil {
			return err
		}
		if rs.Empty() {
			return fmt.Errorf("%w: song %s", util.ErrNotFound, path)
		}
		song = songFromRow(rs, 0)
		return nil
	})
	return song, err
}

// SongByID reads back a stored song by its Id
func (s *Store) SongByID(ctx context.Context, id int64) (song *music.Song, err error) {
	err = s.locked(ctx, func() error {
		rs, err := s.query(ctx, songQuery+"\nWHERE s.Id = ?", id)
		if err != nil {
			return err
		}
		if rs.Empty() {
			return fmt.Errorf("%w: song %d", util.ErrNotFound, id)
		}
		song = songFromRow(rs, 0)
		return nil
	})
	return song, err
}

func songFromRow(rs *ResultSet, row int) *music.Song {
	v := func(col string) string { return rs.Value(row, col) }
	n := func(col string) int { return int(rs.Int(row, col)) }

	song := music.NewSong()
	song.ID = rs.Int(row, "Id")
	song.FileName = filepath.Join(v("ShareName"), filepath.FromSlash(v("FolderName")), v("FileName"))
	song.Title = v("Title")
	song.TitleSort = v("TitleSort")
	song.SetArtist(v("Artists"))
	song.ArtistSort = v("ArtistSort")
	song.AlbumArtist = v("AlbumArtists")
	song.AlbumArtistSort = v("AlbumArtistSort")
	song.Album = v("AlbumName")
	song.AlbumSort = v("AlbumSortName")
	song.Genre = v("Genres")
	song.Composer = v("Composers")
	song.ComposerSort = v("ComposerSort")
	song.Conductor = v("Conductors")

	song.SetTrack(n("Track"))
	song.SetTrackTotal(n("TrackCount"))
	song.SetDiscID(n("Disc"))
	song.SetDiscTotal(n("DiscCount"))
	song.SetDuration(n("Duration"))
	song.SetYear(n("Year"))
	song.SetResumeAt(n("ResumeAt"))
	song.TimesPlayed = n("TimesPlayed")
	song.Rating = n("Rating")
	song.Favorite = n("Favorite") != 0
	song.DateTimePlayed = parseTime(v("DateLastPlayed"))
	song.DateTimeModified = parseTime(v("DateAdded"))

	song.Lyrics = v("Lyrics")
	song.Comment = v("Comment")
	song.Copyright = v("Copyright")
	song.AmazonID = v("AmazonId")
	song.Grouping = v("Grouping")
	song.MusicBrainzArtistID = v("MusicBrainzArtistId")
	song.MusicBrainzDiscID = v("MusicBrainzDiscId")
	song.MusicBrainzReleaseArtistID = v("MusicBrainzReleaseArtistId")
	song.MusicBrainzReleaseCountry = v("MusicBrainzReleaseCountry")
	song.MusicBrainzReleaseID = v("MusicBrainzReleaseId")
	song.MusicBrainzReleaseStatus = v("MusicBrainzReleaseStatus")
	song.MusicBrainzReleaseTrackID = v("MusicBrainzReleaseTrackId")
	song.MusicBrainzReleaseType = v("MusicBrainzReleaseType")
	song.MusicIPID = v("MusicIpid")
	song.ReplayGainTrack = v("ReplayGainTrack")
	song.ReplayGainTrackPeak = v("ReplayGainTrackPeak")
	song.ReplayGainAlbum = v("ReplayGainAlbum")
	song.ReplayGainAlbumPeak = v("ReplayGainAlbumPeak")
	song.FileType = v("FileType")
	song.Codec = v("Codec")
	song.BitRateMode = v("BitRateMode")
	song.BPM = n("BPM")
	song.BitRate = n("BitRate")
	song.Channels = n("Channels")
	song.SampleRate = n("SampleRate")
	return song
}

// MarkPlayed counts one play of the song at the given time
func (s *Store) MarkPlayed(ctx context.Context, songID int64, at time.Time) error {
	return s.updateSong(ctx, songID,
		"UPDATE Song SET TimesPlayed = COALESCE(TimesPlayed, 0) + 1, DateLastPlayed = ? WHERE Id = ?",
		timeValue(at), songID)
}

// SetRating stores the user rating, clamped to 0..5
func (s *Store) SetRating(ctx context.Context, songID int64, rating int) error {
	rating = max(0, min(rating, 5))
	return s.updateSong(ctx, songID, "UPDATE Song SET Rating = ? WHERE Id = ?", rating, songID)
}

// SetFavorite flags or unflags the song as a favorite
func (s *Store) SetFavorite(ctx context.Context, songID int64, favorite bool) error {
	return s.updateSong(ctx, songID, "UPDATE Song SET Favorite = ? WHERE Id = ?", boolInt(favorite), songID)
}

// SetResumeAt stores the resume position; negative positions become 0
func (s *Store) SetResumeAt(ctx context.Context, songID int64, seconds int) error {
	return s.updateSong(ctx, songID, "UPDATE Song SET ResumeAt = ? WHERE Id = ?", max(0, seconds), songID)
}

func (s *Store) updateSong(ctx context.Context, songID int64, stmt string, args ...any) error {
	return s.locked(ctx, func() error {
		n, err := s.exec(ctx, stmt, args...)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: song %d", util.ErrNotFound, songID)
		}
		return nil
	})
}

// Stats returns the row count of every library table
func (s *Store) Stats(ctx context.Context) (counts []TableCount, err error) {
	err = s.locked(ctx, func() error {
		for _, table := range libraryTables {
			rs, err := s.query(ctx, "SELECT COUNT(*) AS n FROM "+table)
			if err != nil {
				return err
			}
			counts = append(counts, TableCount{Table: table, Rows: rs.Int(0, "n")})
		}
		return nil
	})
	return counts, err
}

// splitSharePath returns the folder of path relative to shareRoot (slash
// separated, "" for the root) and its file name
func splitSharePath(shareRoot, path string) (folder, file string, err error) {
	rel, err := filepath.Rel(filepath.Clean(shareRoot), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %s is not inside share %s", util.ErrWrite, path, shareRoot)
	}

	folder = filepath.ToSlash(filepath.Dir(rel))
	if folder == "." {
		folder = ""
	}
	return folder, filepath.Base(rel), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func timeValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(TimeLayout)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(TimeLayout, v, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
