package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

// LikedPlaylistURL is the account's "Liked Music" auto-playlist. Reading it requires session cookies.
const LikedPlaylistURL = "https://music.youtube.com/playlist?list=LM"

// PlaylistDumper returns the flat single-JSON listing of a remote playlist.
type PlaylistDumper interface {
	DumpPlaylist(ctx context.Context, url string) ([]byte, error)
}

type flatPlaylist struct {
	Title   string      `json:"title"`
	Entries []flatEntry `json:"entries"`
}

type flatEntry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Channel  string   `json:"channel"`
	Uploader string   `json:"uploader"`
	Duration *float64 `json:"duration"`
}

// ExportLiked lists the liked items and returns them as a playlist document named name.
func ExportLiked(ctx context.Context, d PlaylistDumper, name string) (PlaylistFile, error) {
	data, err := d.DumpPlaylist(ctx, LikedPlaylistURL)
	if err != nil {
		return PlaylistFile{}, fmt.Errorf("could not fetch liked songs: %w", err)
	}
	return ParseFlatPlaylist(data, name, "liked")
}

// ParseFlatPlaylist converts yt-dlp's --flat-playlist --dump-single-json output.
//
// Entries without an id are dropped; "<Artist> - Topic" channels become the artist hint.
func ParseFlatPlaylist(data []byte, name, source string) (PlaylistFile, error) {
	var fp flatPlaylist
	if err := json.Unmarshal(data, &fp); err != nil {
		return PlaylistFile{}, fmt.Errorf("%w: failed to parse playlist json: %v", shared.ErrInvalidInput, err)
	}
	if fp.Entries == nil {
		return PlaylistFile{}, fmt.Errorf("%w: playlist json has no entries", shared.ErrInvalidInput)
	}

	if name == "" {
		name = fp.Title
	}
	doc := PlaylistFile{Type: playlistType, Name: name}
	for _, e := range fp.Entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			continue
		}
		title := strings.TrimSpace(e.Title)
		if title == "" {
			title = "Unknown Title"
		}

		t := TrackEntry{
			Title:   title,
			URL:     "https://www.youtube.com/watch?v=" + id,
			VideoID: id,
			Artist:  topicArtist(e.Channel, e.Uploader),
			Source:  source,
		}
		if e.Duration != nil {
			t.Duration = int(*e.Duration)
		}
		doc.Tracks = append(doc.Tracks, t)
	}
	return doc, nil
}

func topicArtist(channel, uploader string) string {
	for _, c := range []string{channel, uploader} {
		if a, ok := strings.CutSuffix(strings.TrimSpace(c), " - Topic"); ok && a != "" {
			return a
		}
	}
	return ""
}

// RawPlaylist converts a document into loader output.
func (p PlaylistFile) RawPlaylist(origin string) models.RawPlaylist {
	pl := models.RawPlaylist{Name: p.Name, Origin: origin}
	for _, t := range p.Tracks {
		pl.Entries = append(pl.Entries, t.raw())
	}
	return pl
}
