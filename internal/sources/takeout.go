package sources

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

// PlaylistFile is the JSON playlist document read by the loader and written by the exporters.
type PlaylistFile struct {
	Type   string       `json:"type"`
	Name   string       `json:"name"`
	Tracks []TrackEntry `json:"tracks"`
}

// TrackEntry is one track in a [PlaylistFile].
type TrackEntry struct {
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	VideoID  string `json:"videoId,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Source   string `json:"source,omitempty"`
}

const playlistType = "playlist"

// LoadTakeout reads every playlist under root: *.json documents and *.csv sheets.
//
// A CSV whose converted JSON sibling exists is skipped so a converted export is not read twice.
// Unreadable or malformed files are logged and skipped.
func LoadTakeout(root string, logger *log.Logger) ([]models.RawPlaylist, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingSource, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrMissingSource, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".csv":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)

	var playlists []models.RawPlaylist
	for _, path := range files {
		var (
			pl  *models.RawPlaylist
			err error
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			pl, err = ReadPlaylistJSON(path)
		case ".csv":
			if _, statErr := os.Stat(strings.TrimSuffix(path, filepath.Ext(path)) + ".json"); statErr == nil {
				logger.Debug("csv already converted", "file", path)
				continue
			}
			pl, err = ReadCSVPlaylist(path, logger)
		}

		if err != nil {
			logger.Warn("skipping playlist file", "file", path, "err", err)
			continue
		}
		playlists = append(playlists, *pl)
	}

	logger.Info("playlists loaded", "root", root, "files", len(files), "playlists", len(playlists))
	return playlists, nil
}

// ReadPlaylistJSON decodes one playlist document. Documents of another type are a parse skip.
func ReadPlaylistJSON(path string) (*models.RawPlaylist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrParseSkip, err)
	}

	var doc struct {
		Type   string          `json:"type"`
		Name   string          `json:"name"`
		Tracks json.RawMessage `json:"tracks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", shared.ErrParseSkip, err)
	}
	if doc.Type != playlistType {
		return nil, fmt.Errorf("%w: type %q is not a playlist", shared.ErrParseSkip, doc.Type)
	}

	var tracks []json.RawMessage
	if err := json.Unmarshal(doc.Tracks, &tracks); err != nil || tracks == nil {
		return nil, fmt.Errorf("%w: missing tracks list", shared.ErrParseSkip)
	}

	name := doc.Name
	if name == "" {
		name = stem(path)
	}

	pl := &models.RawPlaylist{Name: name, Origin: path}
	for _, raw := range tracks {
		var t TrackEntry
		if err := json.Unmarshal(raw, &t); err != nil {
			// a malformed entry keeps its slot so the normalizer can log it
			pl.Entries = append(pl.Entries, models.RawEntry{})
			continue
		}
		pl.Entries = append(pl.Entries, t.raw())
	}
	return pl, nil
}

// WritePlaylistJSON writes pl as an indented playlist document.
func WritePlaylistJSON(path string, pl PlaylistFile) error {
	if pl.Type == "" {
		pl.Type = playlistType
	}
	data, err := shared.MarshalJSON(pl, true)
	if err != nil {
		return fmt.Errorf("failed to encode playlist: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}

func (t TrackEntry) raw() models.RawEntry {
	return models.RawEntry{
		Title:    t.Title,
		URL:      t.URL,
		VideoID:  t.VideoID,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: t.Duration,
	}
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

