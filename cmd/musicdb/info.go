package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database status and run diagnostic checks",
	Long: `Show where the database lives and check that it can be used.

This command checks:
- SQLite library version
- Database file accessibility, schema version and integrity
- Row counts of the library tables
- Legacy database backups

A missing database is reported, not created.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runInfo(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("db-dir")

	results := []checkResult{
		checkSQLite(),
		checkDatabase(context.Background(), dir, settings.Load(viper.GetViper())),
		checkLegacy(dir),
	}

	hasErrors := false
	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.InfoLog("%s", line)
		}
	}

	if hasErrors {
		return fmt.Errorf("database checks failed")
	}
	return nil
}

// checkSQLite verifies the SQLite library is usable
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase opens an existing database and reports its state
func checkDatabase(ctx context.Context, dir string, cfg *settings.Settings) checkResult {
	path := filepath.Join(dir, store.DatabaseFileName)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				warning: true,
				message: fmt.Sprintf("%s (will be created on first use)", path),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", path),
		}
	}

	db, err := store.Open(ctx, store.Options{Dir: dir, Settings: cfg})
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", path, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(ctx); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	version, err := db.StoredVersion(ctx)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: err.Error(),
		}
	}

	counts, err := db.Stats(ctx)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot count rows: %v", err),
		}
	}

	var songs, artists, albums int64
	for _, c := range counts {
		switch c.Table {
		case "Song":
			songs = c.Rows
		case "Artist":
			artists = c.Rows
		case "Album":
			albums = c.Rows
		}
	}

	return checkResult{
		name:    "Database",
		warning: version != store.SchemaVersion,
		message: fmt.Sprintf("%s (%s, schema v%d, %s songs, %s artists, %s albums)",
			path, humanize.Bytes(uint64(info.Size())), version,
			humanize.Comma(songs), humanize.Comma(artists), humanize.Comma(albums)),
	}
}

// checkLegacy reports predecessor databases left in the directory
func checkLegacy(dir string) checkResult {
	for _, name := range []string{store.LegacyFileName, store.LegacyBackupName} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		return checkResult{
			name:    "Legacy database",
			warning: name == store.LegacyFileName,
			message: fmt.Sprintf("%s (%s, modified %s)", path,
				humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime())),
		}
	}
	return checkResult{name: "Legacy database", message: "none"}
}
