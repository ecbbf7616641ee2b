package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ymde/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Label() }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.track.Position+1, i.track.Label()) }
func (i trackItem) Description() string {
	desc := i.track.SourceID
	if desc == "" {
		desc = "no source id"
	}
	if i.track.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", desc, time.Duration(i.track.Duration)*time.Second)
	}
	return desc
}
