package tasks

import (
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
)

const (
	titleWeight    = 0.7
	durationWeight = 0.3
)

// FallbackOptions configures the replacement search for unavailable sources.
type FallbackOptions struct {
	Enabled       bool
	MaxCandidates int
	Threshold     float64
	Tolerance     time.Duration
}

// Score rates how well c matches t, in [0, 1].
//
// Title similarity dominates; duration only contributes when both sides know it.
func Score(t models.Track, c services.Candidate, tolerance time.Duration) float64 {
	title := titleSimilarity(t, c.Title)
	if t.Duration <= 0 || c.Duration <= 0 {
		return title
	}
	dur := durationSimilarity(float64(t.Duration), c.Duration, tolerance.Seconds())
	return titleWeight*title + durationWeight*dur
}

func titleSimilarity(t models.Track, candidate string) float64 {
	want := shared.NormalizeText(t.Title)
	got := shared.NormalizeText(candidate)
	if want == "" || got == "" {
		return 0
	}

	best := similarity(want, got)
	if artist := shared.NormalizeText(t.Artist); artist != "" {
		if s := similarity(artist+" "+want, got); s > best {
			best = s
		}
	}
	return best
}

func similarity(a, b string) float64 {
	s, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(s)
}

// durationSimilarity is 1 within tolerance and falls linearly to 0 at four times the tolerance.
func durationSimilarity(want, got, tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = 1
	}
	diff := want - got
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= tolerance:
		return 1
	case diff >= 4*tolerance:
		return 0
	}
	return 1 - (diff-tolerance)/(3*tolerance)
}

// SelectCandidate returns the best candidate scoring at least opts.Threshold.
//
// The original source and candidates without an id are never selected.
func SelectCandidate(t models.Track, cands []services.Candidate, opts FallbackOptions) (services.Candidate, float64, bool) {
	var (
		best      services.Candidate
		bestScore float64
		found     bool
	)
	for _, c := range cands {
		if c.ID == "" || c.ID == t.SourceID {
			continue
		}
		s := Score(t, c, opts.Tolerance)
		if s >= opts.Threshold && s > bestScore {
			best, bestScore, found = c, s, true
		}
	}
	return best, bestScore, found
}

// replacementTrack keeps the original's descriptive fields so fuzzy keys and layout stay stable.
func replacementTrack(orig models.Track, c services.Candidate) models.Track {
	return models.Track{
		SourceID: c.ID,
		Title:    orig.Title,
		Artist:   orig.Artist,
		Album:    orig.Album,
		URL:      c.URL,
		Duration: int(c.Duration),
	}
}
