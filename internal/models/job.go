package models

import "fmt"

// JobState is a [DownloadJob]'s position in the pipeline.
type JobState int

const (
	StatePending JobState = iota
	StateResolving
	StateFetching
	StateSearching
	StateTrimming
	StateTagging
	StatePlaced
	StateSkipped
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateResolving:
		return "RESOLVING"
	case StateFetching:
		return "FETCHING"
	case StateSearching:
		return "SEARCHING"
	case StateTrimming:
		return "TRIMMING"
	case StateTagging:
		return "TAGGING"
	case StatePlaced:
		return "PLACED"
	case StateSkipped:
		return "SKIPPED_DUPLICATE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s JobState) Terminal() bool {
	return s == StatePlaced || s == StateSkipped || s == StateFailed
}

// Outcome classifies a terminal [JobResult].
type Outcome int

const (
	OutcomePlaced Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaced:
		return "placed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of [Outcome.String].
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "placed":
		return OutcomePlaced, nil
	case "skipped":
		return OutcomeSkipped, nil
	case "failed":
		return OutcomeFailed, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// FailureReason explains a failed job.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonUnavailable FailureReason = "unavailable"
	ReasonFetch       FailureReason = "fetch"
	ReasonIO          FailureReason = "io"
	ReasonCancelled   FailureReason = "cancelled"
)

// MaxReplacementHops bounds the fallback search to a single replacement per job.
const MaxReplacementHops = 1

// DownloadJob wraps one [Track] through the pipeline.
//
// A replacement only changes the source fetched; ordering still follows Track.Position.
type DownloadJob struct {
	ID          string
	Track       Track
	Replacement *Track
	State       JobState
	Attempts    int // fetch invocations
	Hops        int // replacement searches taken
}

// NewDownloadJob wraps t in a pending job.
func NewDownloadJob(id string, t Track) *DownloadJob {
	return &DownloadJob{ID: id, Track: t, State: StatePending}
}

// Source returns the track currently used for resolving and fetching.
func (j *DownloadJob) Source() Track {
	if j.Replacement != nil {
		return *j.Replacement
	}
	return j.Track
}

// CanSearch reports whether a replacement hop is still available.
func (j *DownloadJob) CanSearch() bool {
	return j.Hops < MaxReplacementHops
}

// Replace substitutes r as the fetch source and consumes a hop.
//
// Position and Playlist are carried over from the original track.
func (j *DownloadJob) Replace(r Track) {
	r.Playlist = j.Track.Playlist
	r.Position = j.Track.Position
	j.Replacement = &r
	j.Hops++
}

// JobResult is the terminal outcome of one job.
type JobResult struct {
	JobID       string
	Track       Track  // original track; ordering key
	Replacement *Track // set when the result came from a fallback hop
	Outcome     Outcome
	Path        string // placed or pre-existing file; empty while a claimant is still in flight
	Key         string // dedup key matched or recorded
	Reason      FailureReason
	Detail      string
}

// Placed builds a placed result for job j.
func Placed(j *DownloadJob, key, path string) JobResult {
	return JobResult{JobID: j.ID, Track: j.Track, Replacement: j.Replacement, Outcome: OutcomePlaced, Key: key, Path: path}
}

// Skipped builds a duplicate-skip result pointing at an existing (or pending) entry.
func Skipped(j *DownloadJob, key, existingPath string) JobResult {
	return JobResult{JobID: j.ID, Track: j.Track, Replacement: j.Replacement, Outcome: OutcomeSkipped, Key: key, Path: existingPath}
}

// Failed builds a failed result.
func Failed(j *DownloadJob, reason FailureReason, err error) JobResult {
	r := JobResult{JobID: j.ID, Track: j.Track, Replacement: j.Replacement, Outcome: OutcomeFailed, Reason: reason}
	if err != nil {
		r.Detail = err.Error()
	}
	return r
}

// SourceID returns the id of the source that produced the result.
func (r JobResult) SourceID() string {
	if r.Replacement != nil {
		return r.Replacement.SourceID
	}
	return r.Track.SourceID
}

// Counts tallies outcomes. Cancelled is a subset of Failed.
type Counts struct {
	Placed    int `json:"placed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Add records one result.
func (c *Counts) Add(r JobResult) {
	switch r.Outcome {
	case OutcomePlaced:
		c.Placed++
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeFailed:
		c.Failed++
		if r.Reason == ReasonCancelled {
			c.Cancelled++
		}
	}
}

// Merge adds o into c.
func (c *Counts) Merge(o Counts) {
	c.Placed += o.Placed
	c.Skipped += o.Skipped
	c.Failed += o.Failed
	c.Cancelled += o.Cancelled
}

// Total is the number of results recorded.
func (c Counts) Total() int {
	return c.Placed + c.Skipped + c.Failed
}
