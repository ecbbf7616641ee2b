package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/repositories"
	"github.com/desertthunder/ymde/internal/shared"
	"github.com/urfave/cli/v3"
)

type runView struct {
	ID          string             `json:"id"`
	Sequence    int                `json:"sequence"`
	Mode        string             `json:"mode"`
	LibraryRoot string             `json:"library_root"`
	Placed      int                `json:"placed"`
	Skipped     int                `json:"skipped"`
	Failed      int                `json:"failed"`
	Cancelled   int                `json:"cancelled"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
	Results     []models.JobRecord `json:"results,omitempty"`
}

func newRunView(run *models.Run) runView {
	c := run.Counts()
	return runView{
		ID:          run.ID(),
		Sequence:    run.Sequence(),
		Mode:        run.Mode(),
		LibraryRoot: run.LibraryRoot(),
		Placed:      c.Placed,
		Skipped:     c.Skipped,
		Failed:      c.Failed,
		Cancelled:   c.Cancelled,
		StartedAt:   run.StartedAt(),
		FinishedAt:  run.FinishedAt(),
	}
}

func (r *Runner) runRepository() (*repositories.RunRepository, func(), error) {
	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return repositories.NewRunRepository(db), func() { db.Close() }, nil
}

// HistoryList prints stored runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.runRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := repo.List(map[string]any{"limit": cmd.Int("limit"), "mode": cmd.String("mode")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded.\n")
		return nil
	}

	for _, run := range runs {
		c := run.Counts()
		status := "unfinished"
		if run.FinishedAt() != nil {
			status = run.Duration().Round(time.Second).String()
		}
		r.writePlain("#%-4d %s  %-7s placed=%d skipped=%d failed=%d  %s  %s\n",
			run.Sequence(), run.StartedAt().Format(time.DateTime), run.Mode(),
			c.Placed, c.Skipped, c.Failed, status, run.ID())
	}
	return nil
}

// HistoryShow prints one run and its job results. The argument is a run id or a sequence number.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("run")
	if ref == "" {
		return fmt.Errorf("%w: run id or sequence number", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.runRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	var run *models.Run
	if seq, convErr := strconv.Atoi(ref); convErr == nil {
		run, err = repo.GetBySequence(seq)
	} else {
		run, err = repo.Get(ref)
	}
	if err != nil {
		return err
	}

	var outcome string
	if cmd.Bool("failed") {
		outcome = models.OutcomeFailed.String()
	}
	results, err := repo.Results(run.ID(), outcome)
	if err != nil {
		return err
	}

	view := newRunView(run)
	view.Results = results
	if cmd.Bool("json") {
		return r.writeJSON(view, true)
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", view.Sequence, view.ID))
	r.writePlain("Mode:    %s\n", view.Mode)
	r.writePlain("Library: %s\n", view.LibraryRoot)
	r.writePlain("Started: %s\n", view.StartedAt.Format(time.DateTime))
	r.writePlain("Placed: %d  Skipped: %d  Failed: %d (cancelled %d)\n\n",
		view.Placed, view.Skipped, view.Failed, view.Cancelled)

	for _, rec := range results {
		line := fmt.Sprintf("%-7s %s #%d %s", rec.Outcome, rec.Playlist, rec.Position+1, rec.Title)
		if rec.ReplacementID != "" {
			line += fmt.Sprintf(" (replaced %s → %s)", rec.SourceID, rec.ReplacementID)
		}
		if rec.Reason != "" {
			line += fmt.Sprintf(" [%s] %s", rec.Reason, rec.Detail)
		}
		r.writePlain("%s\n", line)
	}
	return nil
}
