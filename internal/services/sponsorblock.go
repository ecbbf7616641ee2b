package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ymde/internal/shared"
)

// Segment is one SponsorBlock range, in seconds.
type Segment struct {
	Start    float64
	End      float64
	Category string
}

type sponsorSegment struct {
	Segment       []float64 `json:"segment"`
	Category      string    `json:"category"`
	VideoDuration float64   `json:"videoDuration"`
}

// sponsorBlockRPS is the request ceiling shared by every worker.
const sponsorBlockRPS = 5

// SponsorBlockTrimmer cuts SponsorBlock segments out of fetched files with ffmpeg.
type SponsorBlockTrimmer struct {
	apiURL     string
	categories []string
	ffmpeg     string
	client     *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	run        func(ctx context.Context, name string, args ...string) error
}

// NewSponsorBlockTrimmer creates a trimmer for the given categories.
func NewSponsorBlockTrimmer(apiURL string, categories []string, ffmpeg string, logger *log.Logger) *SponsorBlockTrimmer {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &SponsorBlockTrimmer{
		apiURL:     strings.TrimRight(apiURL, "/"),
		categories: categories,
		ffmpeg:     ffmpeg,
		client:     &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(sponsorBlockRPS), 2),
		logger:     logger,
		run: func(ctx context.Context, name string, args ...string) error {
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%w: %s", err, lastLine(string(out)))
			}
			return nil
		},
	}
}

// Segments fetches the skip segments for videoID and the reported media duration.
// A video unknown to SponsorBlock has no segments.
func (t *SponsorBlockTrimmer) Segments(ctx context.Context, videoID string) ([]Segment, float64, error) {
	cats, err := json.Marshal(t.categories)
	if err != nil {
		return nil, 0, err
	}
	q := url.Values{}
	q.Set("videoID", videoID)
	q.Set("categories", string(cats))

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.apiURL+"/api/skipSegments?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, nil
	case resp.StatusCode != http.StatusOK:
		return nil, 0, fmt.Errorf("%w: sponsorblock returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var raw []sponsorSegment
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var (
		segs     []Segment
		duration float64
	)
	for _, r := range raw {
		if len(r.Segment) != 2 || r.Segment[1] <= r.Segment[0] {
			continue
		}
		segs = append(segs, Segment{Start: r.Segment[0], End: r.Segment[1], Category: r.Category})
		if r.VideoDuration > duration {
			duration = r.VideoDuration
		}
	}
	return segs, duration, nil
}

// MergeSegments sorts segments and joins overlapping or touching ranges.
func MergeSegments(segs []Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}
	sorted := append([]Segment(nil), segs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Segment{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// KeptRanges returns the complement of segs within [0, duration].
// A zero duration leaves the final range open-ended (End < 0).
func KeptRanges(segs []Segment, duration float64) []Segment {
	var (
		kept   []Segment
		cursor float64
	)
	for _, s := range MergeSegments(segs) {
		if s.Start > cursor {
			kept = append(kept, Segment{Start: cursor, End: s.Start})
		}
		if s.End > cursor {
			cursor = s.End
		}
	}
	switch {
	case duration <= 0:
		kept = append(kept, Segment{Start: cursor, End: -1})
	case duration > cursor:
		kept = append(kept, Segment{Start: cursor, End: duration})
	}
	return kept
}

func trimFilter(kept []Segment) string {
	parts := make([]string, 0, len(kept)+1)
	labels := make([]string, 0, len(kept))
	for i, r := range kept {
		trim := "atrim=start=" + formatSeconds(r.Start)
		if r.End >= 0 {
			trim += ":end=" + formatSeconds(r.End)
		}
		label := "[a" + strconv.Itoa(i) + "]"
		parts = append(parts, "[0:a]"+trim+",asetpts=PTS-STARTPTS"+label)
		labels = append(labels, label)
	}
	parts = append(parts, strings.Join(labels, "")+"concat=n="+strconv.Itoa(len(kept))+":v=0:a=1[out]")
	return strings.Join(parts, ";")
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// Trim removes the configured segments from path, replacing it in place.
// A video with no segments is left untouched. Failures wrap [shared.ErrTrimFailed].
func (t *SponsorBlockTrimmer) Trim(ctx context.Context, path, videoID string) error {
	segs, duration, err := t.Segments(ctx, videoID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTrimFailed, err)
	}
	if len(segs) == 0 {
		t.logger.Debug("no segments", "id", videoID)
		return nil
	}

	kept := KeptRanges(segs, duration)
	if len(kept) == 0 {
		return fmt.Errorf("%w: segments cover the whole track", shared.ErrTrimFailed)
	}

	ext := filepath.Ext(path)
	tmp := strings.TrimSuffix(path, ext) + ".trim" + ext
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", path,
		"-filter_complex", trimFilter(kept),
		"-map", "[out]",
		"-map", "0:v?",
		"-c:v", "copy",
		"-map_metadata", "0",
		tmp,
	}

	if err := t.run(ctx, t.ffmpeg, args...); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %w: ffmpeg", shared.ErrTrimFailed, shared.ErrToolMissing)
		}
		return fmt.Errorf("%w: ffmpeg: %v", shared.ErrTrimFailed, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", shared.ErrTrimFailed, err)
	}

	t.logger.Info("trimmed", "id", videoID, "segments", len(MergeSegments(segs)))
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
