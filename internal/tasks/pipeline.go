package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/normalize"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// process drives one job from RESOLVING to a terminal state.
//
// Every claim taken here is either finalized or released before returning.
func (e *Engine) process(ctx context.Context, progress chan<- ProgressUpdate, job *models.DownloadJob) models.JobResult {
	for {
		job.State = models.StateResolving
		src := job.Source()

		keys := library.TrackKeys(src)
		if len(keys) == 0 {
			return e.fail(job, models.ReasonUnavailable, fmt.Errorf("%w: no usable source reference", shared.ErrMissingSource))
		}

		claim, dup := e.index.Claim(keys...)
		if dup != nil {
			job.State = models.StateSkipped
			return models.Skipped(job, dup.Key, dup.Entry.Path)
		}

		job.State = models.StateFetching
		job.Attempts++
		e.sendProgress(progress, fetchUpdate(e.step(), e.total, src))

		info, err := e.fetch(ctx, job, src)
		if err == nil {
			return e.finish(ctx, progress, job, claim, info)
		}

		e.index.Release(claim)
		e.cleanup(job)

		switch {
		case errors.Is(err, shared.ErrCancelled) || ctx.Err() != nil:
			return e.fail(job, models.ReasonCancelled, err)
		case !errors.Is(err, shared.ErrSourceUnavailable):
			return e.fail(job, models.ReasonFetch, err)
		case !e.opts.Fallback.Enabled || !job.CanSearch():
			return e.fail(job, models.ReasonUnavailable, err)
		}

		job.State = models.StateSearching
		e.sendProgress(progress, searchUpdate(e.step(), e.total, job.Track))

		repl, serr := e.searchReplacement(ctx, job)
		if serr != nil {
			if errors.Is(serr, shared.ErrCancelled) || ctx.Err() != nil {
				return e.fail(job, models.ReasonCancelled, serr)
			}
			return e.fail(job, models.ReasonUnavailable, fmt.Errorf("%w (%v)", serr, err))
		}
		job.Replace(repl)
	}
}

func (e *Engine) fetch(ctx context.Context, job *models.DownloadJob, src models.Track) (*services.MediaInfo, error) {
	req := services.FetchRequest{
		URL:           sourceURL(src),
		VideoID:       src.SourceID,
		OutputDir:     e.opts.Layout.StagingDir(e.opts.RunID, job.ID),
		AudioFormat:   e.opts.AudioFormat,
		AudioQuality:  e.opts.AudioQuality,
		RateLimit:     e.opts.RateLimit,
		SleepRequests: e.opts.SleepRequests,
		Retries:       e.opts.Retries,
		Cookies:       e.opts.Cookies,
	}
	if e.opts.DryRun {
		return e.fetcher.Probe(ctx, req)
	}
	return e.fetcher.Fetch(ctx, req)
}

func (e *Engine) searchReplacement(ctx context.Context, job *models.DownloadJob) (models.Track, error) {
	query := job.Track.SearchQuery()
	if query == "" {
		return models.Track{}, fmt.Errorf("%w: nothing to search for", shared.ErrNoCandidate)
	}

	cands, err := e.searcher.Search(ctx, query, e.opts.Fallback.MaxCandidates)
	if err != nil {
		if errors.Is(err, shared.ErrCancelled) {
			return models.Track{}, err
		}
		return models.Track{}, fmt.Errorf("%w: search failed: %v", shared.ErrNoCandidate, err)
	}

	best, score, ok := SelectCandidate(job.Track, cands, e.opts.Fallback)
	if !ok {
		return models.Track{}, fmt.Errorf("%w: %d candidates below %.2f", shared.ErrNoCandidate, len(cands), e.opts.Fallback.Threshold)
	}

	e.logger.Info("replacement found", "track", job.Track.Label(), "original", job.Track.SourceID,
		"replacement", best.ID, "title", best.Title, "score", fmt.Sprintf("%.2f", score))
	return replacementTrack(job.Track, best), nil
}

// finish trims, tags and places a fetched file, then finalizes the claim.
func (e *Engine) finish(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	job *models.DownloadJob,
	claim *library.Claim,
	info *services.MediaInfo,
) models.JobResult {
	src := job.Source()
	artist, title, dst := e.destination(job, info)
	key := claim.Keys()[0]
	entry := models.LibraryEntry{
		Path:      dst,
		SourceID:  src.SourceID,
		Title:     title,
		Artist:    artist,
		CreatedAt: e.now(),
	}

	if e.opts.DryRun {
		if err := e.index.Finalize(claim, entry); err != nil {
			return e.fail(job, models.ReasonIO, err)
		}
		job.State = models.StatePlaced
		return models.Placed(job, key, dst)
	}

	if e.trimmer != nil {
		job.State = models.StateTrimming
		e.sendProgress(progress, trimUpdate(e.step(), e.total, job.Track))
		if err := e.trimmer.Trim(ctx, info.Path, src.SourceID); err != nil {
			e.logger.Warn("trim failed, keeping untrimmed file", "track", job.Track.Label(), "err", err)
		}
	}

	job.State = models.StateTagging
	if err := e.stamp(info.Path, src.SourceID); err != nil {
		e.logger.Warn("failed to stamp source id", "path", info.Path, "err", err)
	}

	if err := e.place(info.Path, dst); err != nil {
		e.index.Release(claim)
		e.cleanup(job)
		return e.fail(job, models.ReasonIO, err)
	}
	e.cleanup(job)

	if err := e.index.Finalize(claim, entry); err != nil {
		return e.fail(job, models.ReasonIO, err)
	}
	job.State = models.StatePlaced
	return models.Placed(job, key, dst)
}

// destination derives artist, title and the final library path for a fetched source.
func (e *Engine) destination(job *models.DownloadJob, info *services.MediaInfo) (artist, title, path string) {
	t, src := job.Track, job.Source()

	artist = lo.CoalesceOrEmpty(
		strings.TrimSpace(t.Artist),
		strings.TrimSpace(info.Artist),
		normalize.CleanArtist(info.Uploader),
		normalize.CleanArtist(info.Channel),
	)
	title = lo.CoalesceOrEmpty(strings.TrimSpace(t.Title), strings.TrimSpace(info.DisplayTitle()), src.SourceID)
	album := lo.CoalesceOrEmpty(strings.TrimSpace(t.Album), strings.TrimSpace(info.Album), t.Playlist)

	ext := strings.TrimPrefix(filepath.Ext(info.Path), ".")
	ext = lo.CoalesceOrEmpty(ext, info.Ext, e.opts.AudioFormat)

	return artist, title, e.opts.Layout.TrackPath(artist, album, title, src.SourceID, ext)
}

func (e *Engine) cleanup(job *models.DownloadJob) {
	if e.opts.DryRun {
		return
	}
	if err := os.RemoveAll(e.opts.Layout.StagingDir(e.opts.RunID, job.ID)); err != nil {
		e.logger.Warn("failed to remove staging directory", "job", job.ID, "err", err)
	}
}

func (e *Engine) fail(job *models.DownloadJob, reason models.FailureReason, err error) models.JobResult {
	job.State = models.StateFailed
	return models.Failed(job, reason, err)
}

func sourceURL(t models.Track) string {
	if t.URL != "" {
		return t.URL
	}
	return watchURLPrefix + t.SourceID
}
