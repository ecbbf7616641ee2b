package models

import (
	"sort"
	"time"
)

// PlaylistSummary holds one playlist's outcomes in track order.
type PlaylistSummary struct {
	Name    string
	Counts  Counts
	Results []JobResult // sorted by Track.Position

	File    string // playlist file path; empty when none was emitted
	Entries int    // references written to File
	Written bool   // false for simulated runs and suppressed playlists
	Note    string // why emission was skipped
}

// Summary aggregates a run per playlist and globally.
type Summary struct {
	RunID      string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Totals     Counts
	Playlists  []PlaylistSummary
}

// NewPlaylistSummary sorts results by position and tallies them.
func NewPlaylistSummary(name string, results []JobResult) PlaylistSummary {
	sorted := append([]JobResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Track.Position < sorted[j].Track.Position })

	ps := PlaylistSummary{Name: name, Results: sorted}
	for _, r := range sorted {
		ps.Counts.Add(r)
	}
	return ps
}

// Cancelled reports whether any job of the playlist was cancelled.
func (p PlaylistSummary) Cancelled() bool {
	return p.Counts.Cancelled > 0
}

// Add appends p and merges its counts into the totals.
func (s *Summary) Add(p PlaylistSummary) {
	s.Playlists = append(s.Playlists, p)
	s.Totals.Merge(p.Counts)
}

// Failures lists every failed result across playlists.
func (s *Summary) Failures() []JobResult {
	var out []JobResult
	for _, p := range s.Playlists {
		for _, r := range p.Results {
			if r.Outcome == OutcomeFailed {
				out = append(out, r)
			}
		}
	}
	return out
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
