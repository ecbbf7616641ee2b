package tasks

import (
	"fmt"

	"github.com/desertthunder/ymde/internal/models"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Terminal jobs so far
	Total   int    // Jobs in the run
	Message string // Human-readable message for display
	Data    any    // [models.JobResult] for outcome phases, [models.PlaylistSummary] for Emit
}

// Operation phase enumeration
type Phase int

const (
	Schedule Phase = iota
	Fetch
	Search
	Trim
	Placed
	Skipped
	Failed
	Emit
	Done
)

func (p Phase) String() string {
	switch p {
	case Schedule:
		return "schedule"
	case Fetch:
		return "fetch"
	case Search:
		return "search"
	case Trim:
		return "trim"
	case Placed:
		return "placed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Emit:
		return "emit"
	case Done:
		return "done"
	default:
		return ""
	}
}

// Outcome reports whether p carries a terminal job result.
func (p Phase) Outcome() bool {
	return p == Placed || p == Skipped || p == Failed
}

func scheduleUpdate(total, playlists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Schedule,
		Total:   total,
		Message: fmt.Sprintf("Scheduling %d tracks from %d playlists...", total, playlists),
	}
}

func fetchUpdate(step, total int, t models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s...", t.Label()),
	}
}

func searchUpdate(step, total int, t models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Search,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching for a replacement of %s...", t.Label()),
	}
}

func trimUpdate(step, total int, t models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Trim,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Trimming %s...", t.Label()),
	}
}

func resultUpdate(step, total int, r models.JobResult) ProgressUpdate {
	u := ProgressUpdate{Step: step, Total: total, Data: r}
	label := r.Track.Label()
	switch r.Outcome {
	case models.OutcomePlaced:
		u.Phase = Placed
		u.Message = fmt.Sprintf("[%d/%d] ✓ %s", step, total, label)
	case models.OutcomeSkipped:
		u.Phase = Skipped
		u.Message = fmt.Sprintf("[%d/%d] = %s (already in library)", step, total, label)
	default:
		u.Phase = Failed
		u.Message = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, label, r.Reason)
	}
	return u
}

func emitUpdate(step, total int, p models.PlaylistSummary) ProgressUpdate {
	msg := fmt.Sprintf("Playlist %s: %d entries", p.Name, p.Entries)
	if p.Note != "" {
		msg = fmt.Sprintf("Playlist %s: %s", p.Name, p.Note)
	}
	return ProgressUpdate{Phase: Emit, Step: step, Total: total, Message: msg, Data: p}
}

func doneUpdate(s *models.Summary) ProgressUpdate {
	total := s.Totals.Total()
	return ProgressUpdate{
		Phase:   Done,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Done: %d placed, %d skipped, %d failed", s.Totals.Placed, s.Totals.Skipped, s.Totals.Failed),
		Data:    s,
	}
}
