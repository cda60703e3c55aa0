// Package importer walks a music share and stores every supported file's
// tags in the library database.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/franz/musicdb/internal/music"
	"github.com/franz/musicdb/internal/report"
	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
)

// Library is the part of the store the importer writes through
type Library interface {
	SaveSong(ctx context.Context, shareRoot string, song *music.Song) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Importer reads tags concurrently and writes songs one batch per
// transaction
type Importer struct {
	library     Library
	settings    *settings.Settings
	concurrency int
	batchSize   int
	retry       util.RetryPolicy
	events      *report.EventLogger
	now         func() time.Time
	walk        func(root string, fn fs.WalkDirFunc) error
}

// Config holds importer configuration
type Config struct {
	Library     Library
	Settings    *settings.Settings
	Concurrency int
	BatchSize   int
	Retry       util.RetryPolicy    // file open retries, see Tune
	Events      *report.EventLogger // optional JSONL event log
	Now         func() time.Time
}

// New creates a new Importer
func New(cfg *Config) *Importer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Settings == nil {
		cfg.Settings = settings.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Importer{
		library:     cfg.Library,
		settings:    cfg.Settings,
		concurrency: cfg.Concurrency,
		batchSize:   cfg.BatchSize,
		retry:       cfg.Retry,
		events:      cfg.Events,
		now:         cfg.Now,
		walk:        filepath.WalkDir,
	}
}

// Result represents an import run
type Result struct {
	Found     int
	Imported  int
	Unchanged int
	Failed    int
	Errors    []error
	StartedAt time.Time
}

type candidate struct {
	path string
	info fs.FileInfo
}

type readResult struct {
	path   string
	song   *music.Song
	tagged bool
	err    error
}

// Import stores every supported file below shareRoot. With
// updateSinceLastImport only files written after the watermark are read.
// A batch whose write fails is rolled back as a whole; the run continues
// with the next batch. StartedAt is the value to record as the new
// watermark.
func (im *Importer) Import(ctx context.Context, shareRoot string) (*Result, error) {
	result := &Result{StartedAt: im.now()}

	shareRoot, err := filepath.Abs(shareRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid share %s: %w", shareRoot, err)
	}
	util.InfoLog("Starting import of: %s", shareRoot)

	files, err := im.discover(ctx, shareRoot, result)
	if err != nil {
		return result, err
	}
	if len(files) == 0 {
		util.InfoLog("No files to import")
		return result, nil
	}

	bar := newProgressBar(len(files))

	for start := 0; start < len(files); start += im.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+im.batchSize, len(files))
		im.importBatch(ctx, shareRoot, files[start:end], result)
		if bar != nil {
			bar.Add(end - start)
		}
	}

	if bar != nil {
		bar.Finish()
	}

	util.SuccessLog("Import complete: %d found, %d imported, %d unchanged, %d failed",
		result.Found, result.Imported, result.Unchanged, result.Failed)
	return result, nil
}

// discover walks the share and returns the files to import, sorted by path
func (im *Importer) discover(ctx context.Context, shareRoot string, result *Result) ([]candidate, error) {
	if info, err := os.Stat(shareRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("share %s is not a directory", shareRoot)
	}

	var files []candidate
	walkErr := im.walk(shareRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			im.events.LogError(path, err)
			return nil
		}
		if d.IsDir() || !im.settings.SupportsExtension(filepath.Ext(path)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("stat %s: %w", path, err))
			im.events.LogError(path, err)
			return nil
		}
		result.Found++

		if im.settings.UpdateSinceLastImport && !info.ModTime().After(im.settings.LastImport) {
			result.Unchanged++
			im.events.LogUnchanged(path, info.ModTime())
			return nil
		}
		files = append(files, candidate{path: path, info: info})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk error: %w", walkErr)
	}

	util.InfoLog("Found %d audio files, %d to import", result.Found, len(files))
	return files, nil
}

// importBatch reads the batch's tags in parallel and writes the songs in a
// single transaction
func (im *Importer) importBatch(ctx context.Context, shareRoot string, batch []candidate, result *Result) {
	p := pool.NewWithResults[readResult]().WithContext(ctx).WithMaxGoroutines(im.concurrency)
	for _, c := range batch {
		c := c
		p.Go(func(ctx context.Context) (readResult, error) {
			song, tagged, err := readSong(ctx, c.path, c.info, im.settings, im.retry, result.StartedAt)
			return readResult{path: c.path, song: song, tagged: tagged, err: err}, nil
		})
	}
	reads, _ := p.Wait()
	sort.Slice(reads, func(i, j int) bool { return reads[i].path < reads[j].path })

	var songs []*music.Song
	for _, r := range reads {
		codec := ""
		if r.song != nil {
			codec = r.song.Codec
		}
		im.events.LogRead(r.path, codec, r.tagged, r.err)
		if r.err != nil {
			util.ErrorLog("Failed to read %s: %v", r.path, r.err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", r.path, r.err))
			continue
		}
		songs = append(songs, r.song)
	}
	if len(songs) == 0 {
		return
	}

	start := time.Now()
	err := im.library.WithTransaction(ctx, func(ctx context.Context) error {
		for _, song := range songs {
			if _, err := im.library.SaveSong(ctx, shareRoot, song); err != nil {
				return fmt.Errorf("%s: %w", song.FileName, err)
			}
		}
		return nil
	})
	if err != nil {
		util.ErrorLog("Batch of %d songs rolled back: %v", len(songs), err)
		im.events.LogRollback(len(songs), time.Since(start), err)
		result.Failed += len(songs)
		result.Errors = append(result.Errors, err)
		return
	}
	for _, song := range songs {
		im.events.LogImport(song.FileName, song.ID, song.Title, song.Artist(), song.Album)
	}
	result.Imported += len(songs)
	util.DebugLog("Imported batch of %d songs", len(songs))
}

func newProgressBar(total int) *progressbar.ProgressBar {
	if !util.IsTerminal(os.Stdout.Fd()) || util.IsQuiet() {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionSetWidth(util.ProgressBarWidth()),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Complete reports whether every file below the share was reached and
// stored. Only a complete run may move the import watermark; files an
// incomplete run missed would otherwise fall behind it for good.
func (r *Result) Complete() bool {
	return r.Failed == 0 && len(r.Errors) == 0
}

// Err returns the run's errors joined, or nil
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}
