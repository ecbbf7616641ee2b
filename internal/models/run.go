package models

import (
	"fmt"
	"time"
)

// Run is one persisted engine invocation.
type Run struct {
	id          string
	sequence    int
	mode        string
	libraryRoot string
	counts      Counts
	startedAt   time.Time
	finishedAt  *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewRun creates an unsaved run started now.
func NewRun(mode, libraryRoot string) *Run {
	now := time.Now()
	return &Run{mode: mode, libraryRoot: libraryRoot, startedAt: now, createdAt: now, updatedAt: now}
}

func (r *Run) ID() string { return r.id }
func (r *Run) Sequence() int { return r.sequence }
func (r *Run) Mode() string { return r.mode }
func (r *Run) LibraryRoot() string { return r.libraryRoot }
func (r *Run) Counts() Counts { return r.counts }
func (r *Run) StartedAt() time.Time { return r.startedAt }
func (r *Run) FinishedAt() *time.Time { return r.finishedAt }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetID(id string) { r.id = id }
func (r *Run) SetSequence(seq int) { r.sequence = seq }
func (r *Run) SetCounts(c Counts) { r.counts = c }
func (r *Run) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *Run) SetFinishedAt(t *time.Time) { r.finishedAt = t }
func (r *Run) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Finish records the final counts and completion time.
func (r *Run) Finish(c Counts, at time.Time) {
	r.counts = c
	r.finishedAt = &at
	r.updatedAt = at
}

// Duration is the elapsed run time, or zero while unfinished.
func (r *Run) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Validate checks required fields.
func (r *Run) Validate() error {
	if r.mode == "" {
		return fmt.Errorf("run mode is required")
	}
	if r.libraryRoot == "" {
		return fmt.Errorf("run library root is required")
	}
	if r.finishedAt != nil && r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}

// JobRecord is a stored [JobResult].
type JobRecord struct {
	ID            string
	RunID         string
	Playlist      string
	Position      int
	SourceID      string
	ReplacementID string
	Title         string
	Outcome       Outcome
	Reason        FailureReason
	Detail        string
	Path          string
	CreatedAt     time.Time
}

// NewJobRecord flattens r for storage under runID.
func NewJobRecord(runID string, r JobResult) JobRecord {
	rec := JobRecord{
		RunID:    runID,
		Playlist: r.Track.Playlist,
		Position: r.Track.Position,
		SourceID: r.Track.SourceID,
		Title:    r.Track.Title,
		Outcome:  r.Outcome,
		Reason:   r.Reason,
		Detail:   r.Detail,
		Path:     r.Path,
	}
	if r.Replacement != nil {
		rec.ReplacementID = r.Replacement.SourceID
	}
	return rec
}
