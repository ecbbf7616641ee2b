package tasks

import (
	"context"
	"math/rand/v2"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

type jobOutcome struct {
	idx int
	res models.JobResult
}

// schedule runs jobs on a bounded worker pool and returns results aligned with jobs.
//
// Completion order is arbitrary. Jobs never dispatched before cancellation are
// recorded as cancelled failures.
func (e *Engine) schedule(ctx context.Context, progress chan<- ProgressUpdate, jobs []*models.DownloadJob) []models.JobResult {
	results := make([]models.JobResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := min(e.opts.Concurrency, len(jobs))

	var limiter *rate.Limiter
	if e.opts.StartsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.opts.StartsPerSecond), 1)
	}

	queue := make(chan int)
	out := make(chan jobOutcome, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go e.worker(ctx, &wg, w, progress, jobs, queue, out, limiter)
	}

	go func() {
		defer close(queue)
		for i := range jobs {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case queue <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	done := make([]bool, len(jobs))
	for o := range out {
		results[o.idx] = o.res
		done[o.idx] = true
		e.record(progress, len(jobs), o.res)
	}

	for i, job := range jobs {
		if done[i] {
			continue
		}
		job.State = models.StateFailed
		results[i] = models.Failed(job, models.ReasonCancelled, shared.ErrCancelled)
		e.record(progress, len(jobs), results[i])
	}
	return results
}

// worker processes one job end-to-end before taking the next.
//
// The delay policy applies between jobs that reached the fetch operation.
func (e *Engine) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	id int,
	progress chan<- ProgressUpdate,
	jobs []*models.DownloadJob,
	queue <-chan int,
	out chan<- jobOutcome,
	limiter *rate.Limiter,
) {
	defer wg.Done()

	rng := rand.New(rand.NewPCG(uint64(id)+1, uint64(e.now().UnixNano())))
	fetched := false

	for idx := range queue {
		job := jobs[idx]

		if fetched && !e.opts.Delay.IsZero() {
			if err := e.sleep(ctx, e.opts.Delay.Next(rng)); err != nil {
				out <- jobOutcome{idx, e.cancelled(job, err)}
				continue
			}
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				out <- jobOutcome{idx, e.cancelled(job, err)}
				continue
			}
		}
		if err := ctx.Err(); err != nil {
			out <- jobOutcome{idx, e.cancelled(job, err)}
			continue
		}

		res := e.process(ctx, progress, job)
		fetched = job.Attempts > 0
		out <- jobOutcome{idx, res}
	}
}

func (e *Engine) cancelled(job *models.DownloadJob, err error) models.JobResult {
	job.State = models.StateFailed
	return models.Failed(job, models.ReasonCancelled, err)
}

// record logs a terminal result and forwards it as progress.
func (e *Engine) record(progress chan<- ProgressUpdate, total int, r models.JobResult) {
	step := int(e.completed.Add(1))
	label := r.Track.Label()

	switch {
	case r.Outcome == models.OutcomePlaced:
		kv := []any{"track", label, "path", r.Path}
		if r.Replacement != nil {
			kv = append(kv, "replacement", r.Replacement.SourceID)
		}
		e.logger.Info("placed", kv...)
	case r.Outcome == models.OutcomeSkipped:
		e.logger.Info("skipped duplicate", "track", label, "key", r.Key, "existing", r.Path)
	case r.Reason == models.ReasonCancelled:
		e.logger.Warn("cancelled", "track", label)
	default:
		e.logger.Error("failed", "track", label, "reason", r.Reason, "err", r.Detail)
	}

	e.sendProgress(progress, resultUpdate(step, total, r))
}
