package tasks

import (
	"github.com/desertthunder/ymde/internal/formatter"
	"github.com/desertthunder/ymde/internal/models"
)

// emit writes the playlist file for ps once all of its jobs are terminal.
//
// Playlists with cancelled jobs or without resolvable entries are left untouched.
func (e *Engine) emit(ps *models.PlaylistSummary) {
	if !e.opts.WritePlaylists {
		return
	}
	if ps.Cancelled() {
		ps.Note = "interrupted"
		e.logger.Warn("playlist not written, run was interrupted", "playlist", ps.Name)
		return
	}

	entries := e.playlistEntries(ps.Results)
	if len(entries) == 0 {
		ps.Note = "no entries"
		e.logger.Info("playlist has no resolvable entries", "playlist", ps.Name)
		return
	}

	ps.File = e.opts.Layout.PlaylistPath(ps.Name)
	ps.Entries = len(entries)
	if e.opts.DryRun {
		return
	}

	if err := formatter.WritePlaylist(ps.File, entries); err != nil {
		ps.Note = "write failed"
		e.logger.Error("failed to write playlist", "playlist", ps.Name, "err", err)
		return
	}
	ps.Written = true
	e.logger.Info("wrote playlist", "playlist", ps.Name, "path", ps.File, "entries", ps.Entries)
}

// playlistEntries resolves placed and skipped results, in track order.
//
// A skip against an in-flight claim is resolved from the index; if that claimant
// failed the track is omitted.
func (e *Engine) playlistEntries(results []models.JobResult) []formatter.PlaylistEntry {
	entries := make([]formatter.PlaylistEntry, 0, len(results))
	for _, r := range results {
		path := r.Path
		switch r.Outcome {
		case models.OutcomePlaced:
		case models.OutcomeSkipped:
			if path == "" {
				if entry, ok := e.index.Lookup(r.Key); ok {
					path = entry.Path
				}
			}
		default:
			continue
		}
		if path == "" {
			continue
		}
		entries = append(entries, formatter.PlaylistEntry{
			Ref:      e.opts.Layout.PlaylistRef(path),
			Artist:   r.Track.Artist,
			Title:    r.Track.Title,
			Duration: r.Track.Duration,
		})
	}
	return entries
}
