package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
	"github.com/desertthunder/ymde/internal/tasks"
	th "github.com/desertthunder/ymde/internal/testing"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain feeds cmd results back into m until the run completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 100 && m.view != ResultView; i++ {
		if cmd == nil {
			t.Fatal("run ended without a completion message")
		}
		_, cmd = m.Update(cmd())
	}
	if m.view != ResultView {
		t.Fatalf("expected result view, got %d", m.view)
	}
}

func summaryFor(pls []models.Playlist, outcome models.Outcome) *models.Summary {
	s := &models.Summary{RunID: "run-test"}
	for _, pl := range pls {
		var results []models.JobResult
		for _, tr := range pl.Tracks {
			results = append(results, models.JobResult{Track: tr, Outcome: outcome})
		}
		s.Add(models.NewPlaylistSummary(pl.Name, results))
	}
	return s
}

func TestNavigation(t *testing.T) {
	pls := []models.Playlist{th.NewPlaylist("Mix", 1, 3), th.NewPlaylist("Chill", 10, 2)}
	m := NewModel(context.Background(), pls, nil, true)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != TrackListView || m.selected == nil || m.selected.Name != "Mix" {
		t.Fatalf("expected track list for Mix, got view %d", m.view)
	}
	if !strings.Contains(m.View(), "Title 1") {
		t.Error("expected track titles in the track list")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != ConfirmView {
		t.Fatalf("expected confirm view, got %d", m.view)
	}
	if v := m.View(); !strings.Contains(v, "Simulate 'Mix'") || !strings.Contains(v, "Tracks: 3") {
		t.Errorf("unexpected confirm view:\n%s", v)
	}

	m.Update(runes("n"))
	if m.view != TrackListView {
		t.Errorf("expected back to track list, got %d", m.view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m.Update(runes("d"))
	if m.view != ConfirmView || m.selected != nil {
		t.Fatalf("expected confirm for all playlists, got view %d", m.view)
	}
	if got := len(m.targets()); got != 2 {
		t.Errorf("expected 2 target playlists, got %d", got)
	}
	if !strings.Contains(m.View(), "Tracks: 5") {
		t.Error("expected total track count")
	}
}

func TestRunFlow(t *testing.T) {
	pls := []models.Playlist{th.NewPlaylist("Mix", 1, 2)}
	var got []models.Playlist
	run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate, playlists []models.Playlist) (*models.Summary, error) {
		got = playlists
		for i, tr := range playlists[0].Tracks {
			progress <- tasks.ProgressUpdate{
				Phase:   tasks.Placed,
				Step:    i + 1,
				Total:   len(playlists[0].Tracks),
				Message: fmt.Sprintf("placed %s", tr.Label()),
				Data:    models.JobResult{Track: tr, Outcome: models.OutcomePlaced},
			}
		}
		return summaryFor(playlists, models.OutcomePlaced), nil
	}

	m := NewModel(context.Background(), pls, run, false)
	m.Update(runes("d"))
	_, cmd := m.Update(runes("y"))
	if m.view != RunView {
		t.Fatalf("expected run view, got %d", m.view)
	}

	drain(t, m, cmd)

	if len(got) != 1 || got[0].Name != "Mix" {
		t.Errorf("expected the run to cover Mix, got %+v", got)
	}
	if m.Summary() == nil || m.Summary().Totals.Placed != 2 || m.Err() != nil {
		t.Errorf("unexpected result %+v %v", m.Summary(), m.Err())
	}
	if len(m.recent) != 2 {
		t.Errorf("expected 2 recent outcomes, got %d", len(m.recent))
	}
	if !strings.Contains(m.View(), "Run complete") {
		t.Errorf("unexpected result view:\n%s", m.View())
	}
}

func TestRunCancel(t *testing.T) {
	pls := []models.Playlist{th.NewPlaylist("Mix", 1, 2)}
	started := make(chan struct{})
	run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate, playlists []models.Playlist) (*models.Summary, error) {
		close(started)
		<-ctx.Done()
		return summaryFor(playlists, models.OutcomeFailed), fmt.Errorf("%w: run interrupted", shared.ErrCancelled)
	}

	m := NewModel(context.Background(), pls, run, false)
	m.Update(runes("d"))
	_, cmd := m.Update(runes("y"))
	<-started

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.cancelling {
		t.Fatal("expected cancelling state")
	}
	if !strings.Contains(m.View(), "Cancelling") {
		t.Error("expected cancelling notice")
	}

	drain(t, m, cmd)

	if m.Err() == nil || m.Summary() == nil {
		t.Fatalf("expected interrupted summary, got %+v %v", m.Summary(), m.Err())
	}
	v := m.View()
	if !strings.Contains(v, "Run interrupted") || !strings.Contains(v, "2 tracks failed") {
		t.Errorf("unexpected result view:\n%s", v)
	}
}

func TestRecentIsBounded(t *testing.T) {
	m := NewModel(context.Background(), nil, nil, false)
	for i := range recentLines + 5 {
		m.pushRecent(tasks.ProgressUpdate{Phase: tasks.Skipped, Message: fmt.Sprintf("line %d", i)})
	}
	if len(m.recent) != recentLines {
		t.Fatalf("expected %d lines, got %d", recentLines, len(m.recent))
	}
	if !strings.Contains(m.recent[recentLines-1], fmt.Sprintf("line %d", recentLines+4)) {
		t.Errorf("expected newest line last, got %q", m.recent[recentLines-1])
	}
}
