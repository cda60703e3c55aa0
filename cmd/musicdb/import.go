package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/musicdb/internal/importer"
	"github.com/franz/musicdb/internal/report"
	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import <share>",
	Short: "Import the audio files below a share into the database",
	Long: `Walk a share (a library root folder) and store the tags of every file
whose extension is listed in music.extensions.

Tags are read in parallel and written in batches, one transaction per batch.
A batch that fails to write is rolled back and the import continues with the
next one. With musicfiles.updateSinceLastImport only files changed after
musicfiles.lastImport are read; a successful run moves the watermark.

Shares on NFS or SMB mounts are detected and read with fewer workers and
with retries for transient network errors. Use --network to override.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", 8, "number of concurrent tag readers")
	importCmd.Flags().Int("batch-size", 100, "songs written per transaction")
	importCmd.Flags().String("network", "auto", "network share tuning: auto, on or off")
	importCmd.Flags().String("event-log", "", "directory for a JSONL event log of the run")
	importCmd.Flags().String("event-level", "info", "minimum event level: debug, info, warning, error")
	importCmd.Flags().String("report", "", "write a Markdown summary of the run to this file")
	viper.BindPFlag("concurrency", importCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("batch-size", importCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("network", importCmd.Flags().Lookup("network"))
	viper.BindPFlag("event-log", importCmd.Flags().Lookup("event-log"))
	viper.BindPFlag("event-level", importCmd.Flags().Lookup("event-level"))
}

// parseNetworkMode maps the --network flag to Tune's override
func parseNetworkMode(mode string) (*bool, error) {
	switch mode {
	case "", "auto":
		return nil, nil
	case "on", "true":
		on := true
		return &on, nil
	case "off", "false":
		off := false
		return &off, nil
	}
	return nil, fmt.Errorf("invalid --network value %q (want auto, on or off)", mode)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	share := args[0]

	if _, err := os.Stat(share); os.IsNotExist(err) {
		return fmt.Errorf("share does not exist: %s", share)
	}
	networkMode, err := parseNetworkMode(viper.GetString("network"))
	if err != nil {
		return err
	}

	db, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var events *report.EventLogger
	if dir := viper.GetString("event-log"); dir != "" {
		events, err = report.NewEventLogger(dir, report.ParseLevel(viper.GetString("event-level")))
		if err != nil {
			return err
		}
		defer events.Close()
		util.InfoLog("Event log: %s", events.Path())
	}

	tuning := importer.Tune(share, networkMode, viper.GetInt("concurrency"))
	imp := importer.New(&importer.Config{
		Library:     db,
		Settings:    cfg,
		Concurrency: tuning.Concurrency,
		BatchSize:   viper.GetInt("batch-size"),
		Retry:       tuning.Retry,
		Events:      events,
	})

	result, err := imp.Import(ctx, share)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := writeImportReport(ctx, db, path, share, tuning, events, result); err != nil {
			util.WarnLog("Failed to write report: %v", err)
		} else {
			util.InfoLog("Report written to %s", path)
		}
	}

	if !result.Complete() {
		util.WarnLog("%d files failed to import (%d errors); the watermark was not moved",
			result.Failed, len(result.Errors))
		return nil
	}
	if err := settings.SaveLastImport(viper.GetViper(), result.StartedAt); err != nil {
		util.WarnLog("Failed to save %s: %v", settings.KeyLastImport, err)
	}
	return nil
}

func writeImportReport(ctx context.Context, db *store.Store, path, share string, tuning *importer.Tuning, events *report.EventLogger, result *importer.Result) error {
	tables, err := db.Stats(ctx)
	if err != nil {
		return err
	}

	summary := &report.ImportSummary{
		GeneratedAt:  time.Now(),
		Duration:     time.Since(result.StartedAt),
		Share:        share,
		Mount:        tuning.Mount.String(),
		DatabasePath: db.Path(),
		EventLogPath: events.Path(),
		Found:        result.Found,
		Imported:     result.Imported,
		Unchanged:    result.Unchanged,
		Failed:       result.Failed,
		Tables:       tables,
		TopErrors:    report.SummarizeErrors(result.Errors, 10),
	}
	if abs, err := filepath.Abs(share); err == nil {
		summary.Share = abs
	}
	if info, err := os.Stat(db.Path()); err == nil {
		summary.DatabaseSize = info.Size()
	}
	return report.WriteMarkdownReport(summary, path)
}
