package models

import (
	"strings"
	"time"
)

// Track is one normalized playlist entry. It is immutable after normalization.
type Track struct {
	SourceID string // stable platform id (11-char video id)
	Title    string
	Artist   string // optional hint
	Album    string // optional hint
	URL      string
	Duration int    // seconds, 0 when unknown
	Playlist string // owning playlist name
	Position int    // zero-based sequence within the playlist
}

// Label renders "Artist - Title", the bare title when no artist is known, or the source id.
func (t Track) Label() string {
	switch {
	case t.Title == "":
		return t.SourceID
	case t.Artist == "":
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// SearchQuery is the free-text query used to look for a replacement source.
func (t Track) SearchQuery() string {
	return strings.TrimSpace(t.Artist + " " + t.Title)
}

// Playlist is a named, ordered sequence of tracks. Insertion order is the output order.
type Playlist struct {
	Name   string
	Tracks []Track
}

// LibraryEntry is one materialized audio file anywhere in the library tree.
type LibraryEntry struct {
	Path      string // absolute path on disk
	SourceID  string // recovered stable id, may be empty for fallback-only entries
	Title     string
	Artist    string
	CreatedAt time.Time
	Pending   bool // a claim placeholder not yet backed by a file
}

// RawEntry is one parsed input record before normalization.
type RawEntry struct {
	Title    string
	URL      string
	VideoID  string
	Artist   string
	Album    string
	Duration int
}

// RawPlaylist groups parsed records under their source playlist name.
type RawPlaylist struct {
	Name    string
	Origin  string // file the records came from, for logging
	Entries []RawEntry
}
