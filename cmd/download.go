package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ymde/internal/formatter"
	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/normalize"
	"github.com/desertthunder/ymde/internal/repositories"
	"github.com/desertthunder/ymde/internal/shared"
	"github.com/desertthunder/ymde/internal/sources"
	"github.com/desertthunder/ymde/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Download runs the engine over the configured source and prints the summary.
//
// Per-job failures do not fail the command; configuration errors and interrupts do.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	return r.download(ctx, cmd, cmd.Bool("tui"))
}

func (r *Runner) download(ctx context.Context, cmd *cli.Command, interactive bool) error {
	r.applyDownloadFlags(cmd)
	if err := r.config.Validate(); err != nil {
		return err
	}

	if interactive {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger("./tmp/ymde-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		fileLogger.SetLevel(r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	playlists, err := r.loadPlaylists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		r.writePlain("No playlists with usable tracks found.\n")
		return nil
	}

	root := r.config.Library.Root
	index, _, err := library.Build(ctx, root, library.BuildOptions{Logger: r.logger})
	if err != nil {
		return fmt.Errorf("failed to index library: %w", err)
	}

	runID := shared.GenerateID()
	opts, err := tasks.OptionsFromConfig(r.config, runID)
	if err != nil {
		return err
	}

	media := r.mediaClient()
	deps := tasks.Deps{Index: index, Fetcher: media, Trimmer: r.trimmerFor()}
	if r.config.Fallback.Enabled {
		deps.Searcher = media
	}

	engine, err := tasks.NewEngine(deps, opts, r.logger)
	if err != nil {
		return err
	}
	if opts.RateLimit != "" {
		r.logger.Info("transfer ceiling", "rate", opts.RateLimit, "cookies", opts.Cookies != "")
	}

	run := models.NewRun(r.config.Source.Mode, root)
	run.SetID(runID)

	var summary *models.Summary
	var runErr error
	if interactive {
		summary, runErr = r.runInteractive(ctx, engine, playlists)
	} else {
		summary, runErr = r.runPlain(ctx, engine, playlists)
	}
	if summary == nil {
		return runErr
	}

	r.writePlain("\n%s\n", formatter.RenderSummary(summary))
	for _, f := range summary.Failures() {
		r.writePlain("  ✗ %s [%s]: %s\n", f.Track.Label(), f.Reason, f.Detail)
	}

	if path := cmd.String("report"); path != "" {
		format, err := formatter.WriteReport(summary, path)
		if err != nil {
			r.logger.Error("failed to write report", "path", path, "error", err)
		} else {
			r.writePlain("Report (%s) written to %s\n", format, path)
		}
	}

	if !summary.DryRun {
		run.SetStartedAt(summary.StartedAt)
		if err := r.recordRun(run, summary); err != nil {
			r.logger.Warn("run history not recorded", "error", err)
		}
	}

	if cmd.Bool("like") && !summary.DryRun && runErr == nil {
		if err := r.markFavorites(ctx, tasks.TargetsFromSummary(summary)); err != nil {
			r.logger.Warn("favorites not marked", "error", err)
		}
	}

	return runErr
}

// applyDownloadFlags overrides config values with the flags that were set.
func (r *Runner) applyDownloadFlags(cmd *cli.Command) {
	cfg := r.config

	if path := cmd.StringArg("path"); path != "" {
		cfg.Source.Path = path
	}
	if cmd.IsSet("mode") {
		cfg.Source.Mode = cmd.String("mode")
	}
	if cmd.IsSet("output-dir") {
		cfg.Library.Root = cmd.String("output-dir")
	}
	if cmd.IsSet("audio-format") {
		cfg.Download.AudioFormat = cmd.String("audio-format")
	}
	if cmd.IsSet("quality") {
		cfg.Download.AudioQuality = cmd.String("quality")
	}
	if cmd.IsSet("concurrency") {
		cfg.Download.Concurrency = cmd.Int("concurrency")
	}
	if cmd.IsSet("prefer-youtube-music") {
		cfg.Download.PreferMusicHost = cmd.Bool("prefer-youtube-music")
	}
	if cmd.IsSet("write-m3u") {
		cfg.Library.WritePlaylists = cmd.Bool("write-m3u")
	}
	if cmd.IsSet("rate-limit") {
		cfg.Download.RateLimit = cmd.String("rate-limit")
	}
	if cmd.IsSet("sleep") {
		cfg.Download.Sleep = cmd.String("sleep")
	}
	if cmd.IsSet("max-starts") {
		cfg.Download.MaxStartsPerSecond = cmd.Float("max-starts")
	}
	if cmd.IsSet("cookies") {
		cfg.Download.Cookies = cmd.String("cookies")
	}
	if cmd.IsSet("strip-suffix") {
		cfg.Source.StripSuffix = cmd.Bool("strip-suffix")
	}
	if cmd.IsSet("trim") {
		cfg.Trim.Enabled = cmd.Bool("trim")
	}
	if cmd.IsSet("fallback") {
		cfg.Fallback.Enabled = cmd.Bool("fallback")
	}
	if cmd.IsSet("dry-run") {
		cfg.Download.DryRun = cmd.Bool("dry-run")
	}
}

// loadPlaylists reads the configured source and normalizes it.
func (r *Runner) loadPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var raw []models.RawPlaylist

	switch r.config.Source.Mode {
	case shared.ModeLiked:
		doc, err := sources.ExportLiked(ctx, r.mediaClient(), r.config.Source.LikedName)
		if err != nil {
			return nil, err
		}
		raw = append(raw, doc.RawPlaylist(sources.LikedPlaylistURL))
	default:
		loaded, err := sources.LoadTakeout(r.config.Source.Path, r.logger)
		if err != nil {
			return nil, err
		}
		raw = loaded
	}

	playlists, stats := normalize.Normalize(raw, normalize.Options{
		StripSuffix:     r.config.Source.StripSuffix,
		Suffix:          r.config.Source.Suffix,
		PreferMusicHost: r.config.Download.PreferMusicHost,
		Logger:          r.logger,
	})
	r.logger.Info("tracks normalized", "playlists", stats.Playlists, "tracks", stats.Tracks,
		"dropped", stats.Dropped, "collapsed", stats.Collapsed)
	return playlists, nil
}

// runPlain prints progress lines while the engine runs.
func (r *Runner) runPlain(ctx context.Context, engine *tasks.Engine, playlists []models.Playlist) (*models.Summary, error) {
	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch {
			case update.Phase == tasks.Schedule:
				r.writePlain("%s\n\n", update.Message)
			case update.Phase.Outcome():
				r.writePlain("%s\n", update.Message)
			case update.Phase == tasks.Search, update.Phase == tasks.Emit:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	summary, err := engine.Run(ctx, progressCh, playlists)
	close(progressCh)
	<-done

	if errors.Is(err, shared.ErrCancelled) {
		r.writePlainln("Interrupted: in-flight jobs were finished or cleaned up, the rest were not started.")
	}
	return summary, err
}

// recordRun stores the run and its job results in the history database.
func (r *Runner) recordRun(run *models.Run, summary *models.Summary) error {
	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	if err := repo.Create(run); err != nil {
		return err
	}

	var records []models.JobRecord
	for _, p := range summary.Playlists {
		for _, res := range p.Results {
			records = append(records, models.NewJobRecord(run.ID(), res))
		}
	}
	if err := repo.AddResults(run.ID(), records); err != nil {
		return err
	}

	run.Finish(summary.Totals, summary.FinishedAt)
	if err := repo.Update(run); err != nil {
		return err
	}

	r.logger.Info("run recorded", "run", run.ID(), "sequence", run.Sequence(), "jobs", len(records))
	return nil
}
