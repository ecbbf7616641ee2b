package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ymde/internal/formatter"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/tasks"
)

const recentLines = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	RunView
	ResultView
)

// RunFunc starts a download run and blocks until it finishes.
//
// It is satisfied by [tasks.Engine.Run].
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate, playlists []models.Playlist) (*models.Summary, error)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	view      ViewState
	run       RunFunc
	dryRun    bool
	playlists []models.Playlist

	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	selected     *models.Playlist

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	recent       []string
	bar          progress.Model
	spinner      spinner.Model
	cancelling   bool

	summary *models.Summary
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model over already loaded playlists.
func NewModel(ctx context.Context, playlists []models.Playlist, run RunFunc, dryRun bool) *Model {
	ctx, cancel := context.WithCancel(ctx)

	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	playlistList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	playlistList.Title = "Playlists"
	trackList := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:          ctx,
		cancel:       cancel,
		view:         PlaylistListView,
		run:          run,
		dryRun:       dryRun,
		playlists:    playlists,
		playlistList: playlistList,
		trackList:    trackList,
		bar:          progress.New(progress.WithDefaultGradient()),
		spinner:      s,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Summary returns the finished run's summary, or nil when no run completed.
func (m *Model) Summary() *models.Summary { return m.summary }

// Err returns the run error, if any.
func (m *Model) Err() error { return m.err }

// Init starts the spinner; nothing is fetched until the run is confirmed.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if update.Phase.Outcome() {
			m.pushRecent(update)
		}
		return m, m.waitForProgress()

	case MsgRunComplete:
		res := msg.data.(runResult)
		m.summary = res.summary
		m.err = res.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.download):
		m.selected = nil
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.openPlaylist(pl.playlist)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.selected = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = RunView
		return m, m.startRun()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		if m.selected != nil {
			m.view = TrackListView
		} else {
			m.view = PlaylistListView
		}
		return m, nil
	}
	return m, nil
}

// handleRunKeys cancels the run; the engine still reports a summary for what completed.
func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && !m.cancelling {
		m.cancelling = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openPlaylist(pl models.Playlist) {
	items := make([]list.Item, len(pl.Tracks))
	for i, t := range pl.Tracks {
		items[i] = trackItem{track: t}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", pl.Name)
	m.trackList.SetSize(m.width-4, m.height-8)
	m.selected = &pl
	m.view = TrackListView
}

// targets returns the playlists a confirmed run covers.
func (m *Model) targets() []models.Playlist {
	if m.selected != nil {
		return []models.Playlist{*m.selected}
	}
	return m.playlists
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.recent = nil
	playlists := m.targets()
	ch := m.progressChan

	go func() {
		summary, err := m.run(m.ctx, ch, playlists)
		ch <- tasks.ProgressUpdate{Phase: tasks.Done, Data: runResult{summary, err}}
		close(ch)
	}()

	return m.waitForProgress()
}

// waitForProgress reads the next update. The final Done update sent by startRun carries the run result.
func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return runCompleteMsg(m.summary, m.err)
		}
		update, ok := <-ch
		if !ok {
			return runCompleteMsg(m.summary, m.err)
		}
		if res, ok := update.Data.(runResult); ok {
			return runCompleteMsg(res.summary, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) pushRecent(u tasks.ProgressUpdate) {
	r, _ := u.Data.(models.JobResult)
	line := styles.Outcome(u.Message,
		u.Phase == tasks.Placed,
		u.Phase == tasks.Skipped,
		r.Reason == models.ReasonCancelled,
	)
	m.recent = append(m.recent, line)
	if len(m.recent) > recentLines {
		m.recent = m.recent[len(m.recent)-recentLines:]
	}
}

func (m *Model) percent() float64 {
	if m.progress.Total == 0 {
		return 0
	}
	return float64(m.progress.Step) / float64(m.progress.Total)
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.download, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	downloadKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "download"),
	)
	helpKeys := []key.Binding{downloadKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	targets := m.targets()
	tracks := 0
	for _, pl := range targets {
		tracks += len(pl.Tracks)
	}

	verb := "Download"
	if m.dryRun {
		verb = "Simulate"
	}
	subject := fmt.Sprintf("%d playlists", len(targets))
	if m.selected != nil {
		subject = fmt.Sprintf("'%s'", m.selected.Name)
	}

	title := styles.title.Render(fmt.Sprintf("%s %s?", verb, subject))
	info := fmt.Sprintf("\nPlaylists: %d\nTracks: %d\n", len(targets), tracks)
	if m.dryRun {
		info += styles.help.Render("Dry run: nothing will be written.") + "\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderRun() string {
	heading := "Downloading"
	if m.dryRun {
		heading = "Simulating"
	}
	title := styles.title.Render(heading)

	status := m.progress.Message
	if status == "" {
		status = "Starting..."
	}
	if m.cancelling {
		status = styles.warn.Render("Cancelling, waiting for in-flight jobs...")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n", title, m.bar.ViewAs(m.percent()))
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}
	if !m.cancelling {
		b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
	}
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	if m.summary == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Run failed: %v", m.err)
		}
		return styles.err.Render(msg) + "\n\n" + helpView
	}

	var title string
	switch {
	case m.err != nil:
		title = styles.warn.Render(fmt.Sprintf("Run interrupted: %v", m.err))
	case m.summary.Totals.Failed > 0:
		title = styles.warn.Render("Run complete with failures")
	default:
		title = styles.ok.Render("✓ Run complete")
	}

	var failed string
	if failures := m.summary.Failures(); len(failures) > 0 {
		failed = "\n" + styles.err.Render(fmt.Sprintf("%d tracks failed:", len(failures)))
		for i, r := range failures {
			if i == recentLines {
				failed += fmt.Sprintf("\n  ... and %d more", len(failures)-i)
				break
			}
			failed += fmt.Sprintf("\n  • %s (%s)", r.Track.Label(), r.Reason)
		}
	}

	return fmt.Sprintf("%s\n\n%s%s\n\n%s", title, formatter.RenderSummary(m.summary), failed, helpView)
}
