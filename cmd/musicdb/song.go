package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/franz/musicdb/internal/music"
	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/cobra"
)

var songCmd = &cobra.Command{
	Use:   "song",
	Short: "Show a song or update its play statistics",
	Long: `Look up one song by its id or by its file path, or record plays, ratings,
favorites and resume points for it.

Paths are resolved against the share given with --share.`,
}

var songShowCmd = &cobra.Command{
	Use:   "show <id|path>",
	Short: "Show a song's stored metadata",
	Example: `  musicdb song show 42
  musicdb song show --share /mnt/music "/mnt/music/Queen/01 - Bohemian Rhapsody.mp3"
  musicdb song show --format m3u 42`,
	Args: cobra.ExactArgs(1),
	RunE: runSongShow,
}

var songPlayedCmd = &cobra.Command{
	Use:   "played <id|path>",
	Short: "Count a play of the song now",
	Args:  cobra.ExactArgs(1),
	RunE: songUpdate(func(ctx context.Context, db *store.Store, id int64, _ []string) error {
		return db.MarkPlayed(ctx, id, time.Now())
	}),
}

var songRateCmd = &cobra.Command{
	Use:   "rate <id|path> <0-5>",
	Short: "Set the song's rating",
	Args:  cobra.ExactArgs(2),
	RunE: songUpdate(func(ctx context.Context, db *store.Store, id int64, args []string) error {
		rating, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid rating %q", args[0])
		}
		return db.SetRating(ctx, id, rating)
	}),
}

var songFavoriteCmd = &cobra.Command{
	Use:   "favorite <id|path> <on|off>",
	Short: "Mark or unmark the song as a favorite",
	Args:  cobra.ExactArgs(2),
	RunE: songUpdate(func(ctx context.Context, db *store.Store, id int64, args []string) error {
		switch args[0] {
		case "on", "true", "1":
			return db.SetFavorite(ctx, id, true)
		case "off", "false", "0":
			return db.SetFavorite(ctx, id, false)
		}
		return fmt.Errorf("invalid favorite value %q (want on or off)", args[0])
	}),
}

var songResumeCmd = &cobra.Command{
	Use:   "resume <id|path> <seconds>",
	Short: "Store the position playback resumes from",
	Args:  cobra.ExactArgs(2),
	RunE: songUpdate(func(ctx context.Context, db *store.Store, id int64, args []string) error {
		seconds, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[0])
		}
		return db.SetResumeAt(ctx, id, seconds)
	}),
}

func init() {
	rootCmd.AddCommand(songCmd)
	songCmd.AddCommand(songShowCmd, songPlayedCmd, songRateCmd, songFavoriteCmd, songResumeCmd)

	songCmd.PersistentFlags().String("share", "", "share root that song paths are relative to")
	songShowCmd.Flags().String("format", "details", "output format: details, short, scrobble, tab or m3u")
}

// songUpdate wraps a play-statistics update in the lookup boilerplate. The
// update receives the arguments following the song.
func songUpdate(update func(ctx context.Context, db *store.Store, id int64, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		db, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		share, _ := cmd.Flags().GetString("share")
		song, err := resolveSong(ctx, db, share, args[0])
		if err != nil {
			return err
		}
		if err := update(ctx, db, song.ID, args[1:]); err != nil {
			return err
		}
		util.SuccessLog("Updated %s", song.ShortString())
		return nil
	}
}

func runSongShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	share, _ := cmd.Flags().GetString("share")
	song, err := resolveSong(ctx, db, share, args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return printSong(os.Stdout, song, format)
}

// resolveSong finds a song by numeric id, or by path below share
func resolveSong(ctx context.Context, db *store.Store, share, arg string) (*music.Song, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return db.SongByID(ctx, id)
	}
	if share == "" {
		return nil, fmt.Errorf("--share is required to look up %s by path", arg)
	}
	path, err := filepath.Abs(arg)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(share)
	if err != nil {
		return nil, err
	}
	return db.SongByPath(ctx, root, path)
}

func printSong(w io.Writer, song *music.Song, format string) error {
	switch format {
	case "short":
		fmt.Fprintln(w, song.ShortString())
	case "scrobble":
		fmt.Fprintln(w, song.ScrobbleString())
	case "tab":
		fmt.Fprintln(w, song.String())
	case "m3u":
		item := song.ToPlaylistItem()
		fmt.Fprintln(w, "#EXTM3U")
		fmt.Fprintf(w, "#EXTINF:%d,%s - %s\n", item.Duration, item.Tag.Artist, item.Description)
		fmt.Fprintln(w, item.FileName)
	case "details":
		printSongDetails(w, song)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func printSongDetails(w io.Writer, song *music.Song) {
	tag := song.ToTag()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(key string, value any) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case int:
			if v == 0 {
				return
			}
		case time.Time:
			if v.IsZero() {
				return
			}
			value = v.Local().Format(store.TimeLayout)
		}
		fmt.Fprintf(tw, "%s\t%v\n", key, value)
	}

	row("Id", strconv.FormatInt(song.ID, 10))
	row("File", song.FileName)
	row("Title", tag.Title)
	row("Artist", tag.Artist)
	if tag.HasAlbumArtist {
		row("Album artist", tag.AlbumArtist)
	}
	row("Album", tag.Album)
	row("Genre", tag.Genre)
	row("Composer", tag.Composer)
	row("Conductor", tag.Conductor)
	row("Year", tag.Year)
	if tag.Track > 0 {
		row("Track", fmt.Sprintf("%d/%d", tag.Track, tag.TrackTotal))
	}
	if tag.DiscID > 0 {
		row("Disc", fmt.Sprintf("%d/%d", tag.DiscID, tag.DiscTotal))
	}
	if tag.Duration > 0 {
		row("Duration", music.FormatDuration(tag.Duration))
	}
	row("Codec", tag.Codec)
	row("Rating", tag.Rating)
	row("Times played", tag.TimesPlayed)
	if song.Favorite {
		row("Favorite", "yes")
	}
	if song.ResumeAt() > 0 {
		row("Resume at", music.FormatDuration(song.ResumeAt()))
	}
	row("Added", tag.DateTimeModified)
	row("Last played", tag.DateTimePlayed)
	tw.Flush()
}
