package formatter

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/ymde/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = cellStyle.Bold(true)
	failStyle   = cellStyle.Foreground(lipgloss.Color("#FF0000"))
	noteStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
)

// RenderSummary draws per-playlist and total counts as a bordered table.
func RenderSummary(s *models.Summary) string {
	rows := make([][]string, 0, len(s.Playlists)+1)
	for _, p := range s.Playlists {
		rows = append(rows, []string{
			p.Name,
			strconv.Itoa(p.Counts.Placed),
			strconv.Itoa(p.Counts.Skipped),
			strconv.Itoa(p.Counts.Failed),
			playlistStatus(p, s.DryRun),
		})
	}
	rows = append(rows, []string{
		"TOTAL",
		strconv.Itoa(s.Totals.Placed),
		strconv.Itoa(s.Totals.Skipped),
		strconv.Itoa(s.Totals.Failed),
		s.Duration().Round(time.Second).String(),
	})
	last := len(rows)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))).
		Headers("Playlist", "Placed", "Skipped", "Failed", "Playlist file").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == last-1:
				return totalStyle
			case col == 3 && rows[row][3] != "0":
				return failStyle
			}
			return cellStyle
		})

	out := t.Render()
	if s.DryRun {
		out += "\n" + noteStyle.Render("dry run: nothing was downloaded or written")
	}
	return out
}

func playlistStatus(p models.PlaylistSummary, dryRun bool) string {
	switch {
	case p.Note != "":
		return p.Note
	case p.File == "":
		return "-"
	case dryRun:
		return "would write " + strconv.Itoa(p.Entries)
	}
	return "wrote " + strconv.Itoa(p.Entries)
}
