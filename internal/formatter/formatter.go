// package formatter renders run output: m3u8 playlists and summary reports (terminal table, JSON, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

// ReportFormat selects the encoding written by [WriteReport].
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
	FormatCSV      ReportFormat = "csv"
	FormatText     ReportFormat = "txt"
)

// FormatFromPath picks a report format from a file extension, defaulting to JSON.
func FormatFromPath(path string) ReportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

type resultReport struct {
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	SourceID    string `json:"source_id"`
	Replacement string `json:"replacement_id,omitempty"`
	Outcome     string `json:"outcome"`
	Path        string `json:"path,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

type playlistReport struct {
	Name    string         `json:"name"`
	Counts  models.Counts  `json:"counts"`
	File    string         `json:"file,omitempty"`
	Entries int            `json:"entries"`
	Written bool           `json:"written"`
	Note    string         `json:"note,omitempty"`
	Results []resultReport `json:"results"`
}

type summaryReport struct {
	RunID      string           `json:"run_id"`
	DryRun     bool             `json:"dry_run"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Duration   string           `json:"duration"`
	Totals     models.Counts    `json:"totals"`
	Playlists  []playlistReport `json:"playlists"`
}

func toResultReport(r models.JobResult) resultReport {
	rr := resultReport{
		Position: r.Track.Position + 1,
		Title:    r.Track.Title,
		Artist:   r.Track.Artist,
		SourceID: r.Track.SourceID,
		Outcome:  r.Outcome.String(),
		Path:     r.Path,
		Reason:   string(r.Reason),
		Detail:   r.Detail,
	}
	if r.Replacement != nil {
		rr.Replacement = r.Replacement.SourceID
	}
	return rr
}

func toSummaryReport(s *models.Summary) summaryReport {
	out := summaryReport{
		RunID:      s.RunID,
		DryRun:     s.DryRun,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Duration:   s.Duration().Round(time.Millisecond).String(),
		Totals:     s.Totals,
		Playlists:  make([]playlistReport, 0, len(s.Playlists)),
	}
	for _, p := range s.Playlists {
		pr := playlistReport{
			Name:    p.Name,
			Counts:  p.Counts,
			File:    p.File,
			Entries: p.Entries,
			Written: p.Written,
			Note:    p.Note,
			Results: make([]resultReport, 0, len(p.Results)),
		}
		for _, r := range p.Results {
			pr.Results = append(pr.Results, toResultReport(r))
		}
		out.Playlists = append(out.Playlists, pr)
	}
	return out
}

// ExportToJSON encodes the full summary, including every job result.
func ExportToJSON(s *models.Summary) ([]byte, error) {
	return shared.MarshalJSON(toSummaryReport(s), true)
}

// ExportToMarkdown renders per-playlist counts followed by the failed tracks.
func ExportToMarkdown(s *models.Summary) []byte {
	var buf bytes.Buffer

	title := "Download summary"
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Run**: %s\n", s.RunID)
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", s.Duration().Round(time.Second))

	buf.WriteString("| Playlist | Placed | Skipped | Failed |\n")
	buf.WriteString("|---|---:|---:|---:|\n")
	for _, p := range s.Playlists {
		fmt.Fprintf(&buf, "| %s | %d | %d | %d |\n", escapeCell(p.Name), p.Counts.Placed, p.Counts.Skipped, p.Counts.Failed)
	}
	fmt.Fprintf(&buf, "| **Total** | **%d** | **%d** | **%d** |\n", s.Totals.Placed, s.Totals.Skipped, s.Totals.Failed)

	failures := s.Failures()
	if len(failures) > 0 {
		buf.WriteString("\n## Failed\n\n")
		for _, r := range failures {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", r.Track.Label(), r.Track.Playlist, r.Reason, r.Detail)
		}
	}
	return buf.Bytes()
}

// ExportToCSV writes one row per job result.
func ExportToCSV(s *models.Summary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Playlist", "Position", "Title", "Artist", "Source ID", "Replacement ID", "Outcome", "Reason", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range s.Playlists {
		for _, r := range p.Results {
			rr := toResultReport(r)
			record := []string{
				p.Name,
				strconv.Itoa(rr.Position),
				rr.Title,
				rr.Artist,
				rr.SourceID,
				rr.Replacement,
				rr.Outcome,
				rr.Reason,
				rr.Path,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToText is the plain, uncolored summary printed when the terminal is not a TTY.
func ExportToText(s *models.Summary) []byte {
	var buf bytes.Buffer
	for _, p := range s.Playlists {
		fmt.Fprintf(&buf, "%s: placed=%d skipped=%d failed=%d\n", p.Name, p.Counts.Placed, p.Counts.Skipped, p.Counts.Failed)
	}
	fmt.Fprintf(&buf, "TOTAL: placed=%d skipped=%d failed=%d\n", s.Totals.Placed, s.Totals.Skipped, s.Totals.Failed)
	return buf.Bytes()
}

// WriteReport writes the summary to path in the format implied by its extension.
func WriteReport(s *models.Summary, path string) (ReportFormat, error) {
	format := FormatFromPath(path)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatMarkdown:
		data = ExportToMarkdown(s)
	case FormatCSV:
		data, err = ExportToCSV(s)
	case FormatText:
		data = ExportToText(s)
	default:
		data, err = ExportToJSON(s)
	}
	if err != nil {
		return format, fmt.Errorf("failed to encode report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return format, fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return format, fmt.Errorf("failed to write report: %w", err)
	}
	return format, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
