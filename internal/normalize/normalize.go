// Package normalize cleans parsed playlist records into ordered [models.Playlist] values.
//
// It rewrites source URLs, strips the configured playlist-name suffix, drops entries with no
// usable source reference and collapses repeats within a playlist. Duplicates across
// playlists are kept; the library index deals with those.
package normalize

import (
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
)

const (
	watchURL      = "https://www.youtube.com/watch?v="
	musicWatchURL = "https://music.youtube.com/watch?v="
)

// Options controls normalization.
type Options struct {
	StripSuffix     bool
	Suffix          string
	PreferMusicHost bool
	Logger          *log.Logger
}

// Stats counts what normalization kept and dropped.
type Stats struct {
	Playlists int
	Tracks    int
	Dropped   int // no usable source reference
	Collapsed int // repeated within a playlist
}

// Normalize converts raw playlists into playlists of tracks, preserving input order.
//
// Raw playlists that end up with the same name are merged in input order.
func Normalize(raw []models.RawPlaylist, opts Options) ([]models.Playlist, Stats) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var (
		stats  Stats
		order  []string
		byName = make(map[string][]models.Track)
	)

	for _, rp := range raw {
		name := CleanText(rp.Name)
		if opts.StripSuffix {
			name = StripSuffix(name, opts.Suffix)
		}
		if name == "" {
			name = "Untitled"
		}
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}

		for i, e := range rp.Entries {
			t, ok := normalizeEntry(e, name, opts.PreferMusicHost)
			if !ok {
				stats.Dropped++
				logger.Warn("dropping entry without source reference", "playlist", name, "origin", rp.Origin, "index", i, "title", e.Title)
				continue
			}
			byName[name] = append(byName[name], t)
		}
	}

	playlists := make([]models.Playlist, 0, len(order))
	for _, name := range order {
		tracks := byName[name]
		unique := lo.UniqBy(tracks, func(t models.Track) string { return t.SourceID })
		if n := len(tracks) - len(unique); n > 0 {
			stats.Collapsed += n
			logger.Info("collapsed repeated entries", "playlist", name, "count", n)
		}
		for i := range unique {
			unique[i].Position = i
		}
		playlists = append(playlists, models.Playlist{Name: name, Tracks: unique})
	}

	stats.Playlists = len(playlists)
	stats.Tracks = lo.SumBy(playlists, func(p models.Playlist) int { return len(p.Tracks) })
	return playlists, stats
}

func normalizeEntry(e models.RawEntry, playlist string, preferMusic bool) (models.Track, bool) {
	id := strings.TrimSpace(e.VideoID)
	if !library.IsVideoID(id) {
		id = library.IDFromURL(e.URL)
	}
	if id == "" {
		return models.Track{}, false
	}

	return models.Track{
		SourceID: id,
		Title:    CleanText(e.Title),
		Artist:   CleanArtist(e.Artist),
		Album:    CleanText(e.Album),
		URL:      RewriteURL(e.URL, id, preferMusic),
		Duration: max(e.Duration, 0),
		Playlist: playlist,
	}, true
}

// StripSuffix removes exactly one trailing occurrence of suffix. The match is case-sensitive.
func StripSuffix(name, suffix string) string {
	if suffix == "" {
		return name
	}
	trimmed, ok := strings.CutSuffix(name, suffix)
	if !ok {
		return name
	}
	return strings.TrimSpace(trimmed)
}

// RewriteURL returns the fetch URL for id. With preferMusic every YouTube reference is
// pointed at the music host, which carries richer track metadata.
func RewriteURL(raw, id string, preferMusic bool) string {
	if preferMusic {
		return musicWatchURL + id
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || library.IDFromURL(raw) != id {
		return watchURL + id
	}
	return raw
}

// CleanText trims, drops control and zero-width characters and collapses whitespace.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\u200b', r == '\u200c', r == '\u200d', r == '\ufeff':
			return -1
		case unicode.IsControl(r) && !unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// CleanArtist cleans an artist hint and removes the " - Topic" auto-channel suffix.
func CleanArtist(s string) string {
	s = CleanText(s)
	if a, ok := strings.CutSuffix(s, " - Topic"); ok {
		return a
	}
	return s
}
