package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
)

type fakeFetcher struct {
	mu          sync.Mutex
	fetches     map[string]int
	probes      map[string]int
	unavailable map[string]bool
	failing     map[string]error
	delay       func(id string) time.Duration
	hook        func(ctx context.Context, id string) error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		fetches:     make(map[string]int),
		probes:      make(map[string]int),
		unavailable: make(map[string]bool),
		failing:     make(map[string]error),
	}
}

func (f *fakeFetcher) outcome(ctx context.Context, id string) error {
	if f.hook != nil {
		if err := f.hook(ctx, id); err != nil {
			return err
		}
	}
	if f.delay != nil {
		select {
		case <-time.After(f.delay(id)):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", shared.ErrCancelled, ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable[id] {
		return fmt.Errorf("%w: Video unavailable", shared.ErrSourceUnavailable)
	}
	return f.failing[id]
}

func (f *fakeFetcher) Fetch(ctx context.Context, req services.FetchRequest) (*services.MediaInfo, error) {
	f.mu.Lock()
	f.fetches[req.VideoID]++
	f.mu.Unlock()

	if err := f.outcome(ctx, req.VideoID); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(req.OutputDir, req.VideoID+"."+req.AudioFormat)
	if err := os.WriteFile(path, []byte("audio "+req.VideoID), 0644); err != nil {
		return nil, err
	}
	return &services.MediaInfo{ID: req.VideoID, Title: "Video " + req.VideoID, Ext: req.AudioFormat, Path: path}, nil
}

func (f *fakeFetcher) Probe(ctx context.Context, req services.FetchRequest) (*services.MediaInfo, error) {
	f.mu.Lock()
	f.probes[req.VideoID]++
	f.mu.Unlock()

	if err := f.outcome(ctx, req.VideoID); err != nil {
		return nil, err
	}
	return &services.MediaInfo{ID: req.VideoID, Title: "Video " + req.VideoID, Ext: req.AudioFormat}, nil
}

func (f *fakeFetcher) fetchCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}

func (f *fakeFetcher) totalFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.fetches {
		n += c
	}
	return n
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]services.Candidate
	err     error
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]services.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	cands := s.results[query]
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

type fakeTrimmer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (t *fakeTrimmer) Trim(ctx context.Context, path, videoID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, videoID)
	return t.err
}

func testOptions(root string) Options {
	return Options{
		RunID:          "run-test",
		Layout:         library.Layout{Root: root, PlaylistsDir: "Playlists"},
		Concurrency:    2,
		AudioFormat:    "m4a",
		WritePlaylists: true,
		Fallback: FallbackOptions{
			MaxCandidates: 5,
			Threshold:     0.8,
			Tolerance:     10 * time.Second,
		},
	}
}

func newTestEngine(t *testing.T, d Deps, opts Options) *Engine {
	t.Helper()
	if d.Index == nil {
		d.Index = library.NewIndex()
	}
	e, err := NewEngine(d, opts, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func resultFor(t *testing.T, s *models.Summary, playlist string, pos int) models.JobResult {
	t.Helper()
	for _, p := range s.Playlists {
		if p.Name != playlist {
			continue
		}
		for _, r := range p.Results {
			if r.Track.Position == pos {
				return r
			}
		}
	}
	t.Fatalf("no result for %s #%d", playlist, pos)
	return models.JobResult{}
}

var errBoom = errors.New("boom")
