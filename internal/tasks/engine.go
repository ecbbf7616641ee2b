package tasks

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
)

// Options configures one engine run. Derived policy values are resolved before the run starts.
type Options struct {
	RunID  string
	Layout library.Layout

	Concurrency     int
	Delay           shared.DelayPolicy // between job starts on one worker
	StartsPerSecond float64            // global start ceiling, 0 for none

	AudioFormat   string
	AudioQuality  string
	RateLimit     string // resolved transfer ceiling, "" for none
	SleepRequests float64
	Retries       int
	Cookies       string

	DryRun         bool
	WritePlaylists bool
	Fallback       FallbackOptions
}

// OptionsFromConfig resolves the delay policy and transfer ceiling from a validated config.
func OptionsFromConfig(cfg *shared.Config, runID string) (Options, error) {
	delay, err := shared.ParseDelay(cfg.Download.Sleep)
	if err != nil {
		return Options{}, err
	}

	rateLimit, err := shared.ResolveRateLimit(cfg.Download.RateLimit, cfg.HasCookies())
	if err != nil {
		return Options{}, err
	}

	var cookies string
	if cfg.HasCookies() {
		cookies = cfg.Download.Cookies
	}

	return Options{
		RunID: runID,
		Layout: library.Layout{
			Root:         cfg.Library.Root,
			PlaylistsDir: cfg.Library.PlaylistsDir,
			Absolute:     cfg.Library.AbsolutePaths,
		},
		Concurrency:     cfg.Download.Concurrency,
		Delay:           delay,
		StartsPerSecond: cfg.Download.MaxStartsPerSecond,
		AudioFormat:     cfg.Download.AudioFormat,
		AudioQuality:    cfg.Download.AudioQuality,
		RateLimit:       rateLimit,
		SleepRequests:   cfg.Download.SleepRequests,
		Retries:         cfg.Download.Retries,
		Cookies:         cookies,
		DryRun:          cfg.Download.DryRun,
		WritePlaylists:  cfg.Library.WritePlaylists,
		Fallback: FallbackOptions{
			Enabled:       cfg.Fallback.Enabled,
			MaxCandidates: cfg.Fallback.MaxCandidates,
			Threshold:     cfg.Fallback.Threshold,
			Tolerance:     time.Duration(cfg.Fallback.DurationTolerance) * time.Second,
		},
	}, nil
}

// Deps are the collaborators an [Engine] drives.
type Deps struct {
	Index    *library.Index
	Fetcher  services.Fetcher
	Searcher services.Searcher // required when fallback is enabled
	Trimmer  services.Trimmer  // nil disables trimming
}

// Engine schedules download jobs over playlists and reports the outcome.
type Engine struct {
	index    *library.Index
	fetcher  services.Fetcher
	searcher services.Searcher
	trimmer  services.Trimmer
	opts     Options
	logger   *log.Logger

	place func(src, dst string) error
	stamp func(path, id string) error
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	total     int
	completed atomic.Int64
}

// NewEngine validates deps and opts and returns a ready engine.
func NewEngine(d Deps, opts Options, logger *log.Logger) (*Engine, error) {
	switch {
	case d.Index == nil:
		return nil, fmt.Errorf("%w: library index", shared.ErrMissingArgument)
	case d.Fetcher == nil:
		return nil, fmt.Errorf("%w: fetcher", shared.ErrMissingArgument)
	case opts.Layout.Root == "":
		return nil, fmt.Errorf("%w: library root", shared.ErrMissingArgument)
	case opts.Fallback.Enabled && d.Searcher == nil:
		return nil, fmt.Errorf("%w: fallback enabled without a searcher", shared.ErrInvalidConfig)
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RunID == "" {
		opts.RunID = shared.GenerateID()
	}
	if opts.Fallback.MaxCandidates < 1 {
		opts.Fallback.MaxCandidates = 1
	}

	return &Engine{
		index:    d.Index,
		fetcher:  d.Fetcher,
		searcher: d.Searcher,
		trimmer:  d.Trimmer,
		opts:     opts,
		logger:   logger,
		place:    library.Place,
		stamp:    library.StampSourceID,
		sleep:    sleepContext,
		now:      time.Now,
	}, nil
}

// Options returns the resolved options.
func (e *Engine) Options() Options {
	return e.opts
}

// Run processes every track of playlists and emits their playlist files.
//
// Per-job failures are recorded in the summary. When ctx is cancelled, dispatch stops,
// in-flight jobs finish or abort cleanly, undispatched jobs are recorded as cancelled
// and the returned error wraps [shared.ErrCancelled]. The summary is always returned.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.Playlist) (*models.Summary, error) {
	summary := &models.Summary{RunID: e.opts.RunID, DryRun: e.opts.DryRun, StartedAt: e.now()}
	e.completed.Store(0)

	jobs, bounds := e.plan(playlists)
	e.total = len(jobs)
	e.logger.Info("scheduling", "run", e.opts.RunID, "playlists", len(playlists), "jobs", len(jobs),
		"workers", e.opts.Concurrency, "dry_run", e.opts.DryRun)
	e.sendProgress(progress, scheduleUpdate(len(jobs), len(playlists)))

	results := e.schedule(ctx, progress, jobs)

	if !e.opts.DryRun {
		if err := os.RemoveAll(e.opts.Layout.StagingRoot(e.opts.RunID)); err != nil {
			e.logger.Warn("failed to remove staging directory", "err", err)
		}
		e.removeEmptyStaging()
	}

	for i, pl := range playlists {
		ps := models.NewPlaylistSummary(pl.Name, results[bounds[i]:bounds[i+1]])
		e.emit(&ps)
		summary.Add(ps)
		e.sendProgress(progress, emitUpdate(i+1, len(playlists), ps))
	}

	summary.FinishedAt = e.now()
	e.sendProgress(progress, doneUpdate(summary))

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("%w: run interrupted: %v", shared.ErrCancelled, err)
	}
	return summary, nil
}

// plan creates one job per track, in playlist order. bounds[i]:bounds[i+1] are playlist i's jobs.
func (e *Engine) plan(playlists []models.Playlist) ([]*models.DownloadJob, []int) {
	var jobs []*models.DownloadJob
	bounds := make([]int, 0, len(playlists)+1)
	bounds = append(bounds, 0)
	for _, pl := range playlists {
		for _, t := range pl.Tracks {
			if t.Playlist == "" {
				t.Playlist = pl.Name
			}
			jobs = append(jobs, models.NewDownloadJob(fmt.Sprintf("%05d", len(jobs)+1), t))
		}
		bounds = append(bounds, len(jobs))
	}
	return jobs, bounds
}

func (e *Engine) removeEmptyStaging() {
	parent := e.opts.Layout.StagingRoot("")
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		_ = os.Remove(parent)
	}
}

func (e *Engine) step() int {
	return int(e.completed.Load())
}

// sendProgress sends a progress update to the channel if it's not nil.
//
// Uses non-blocking send to prevent blocking if channel is full or closed.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
