package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/normalize"
	"github.com/desertthunder/ymde/internal/shared"
)

var (
	idColumns     = []string{"Video ID", "VideoId", "Id"}
	urlColumns    = []string{"Video URL", "URL", "Link"}
	titleColumns  = []string{"Video Title", "Title", "Song", "Track", "Name"}
	artistColumns = []string{"Artist", "Artist Name", "Channel"}
	albumColumns  = []string{"Album", "Album Title"}
)

// ReadCSVPlaylist reads a spreadsheet export. The playlist is named after the file.
//
// Columns are discovered case-insensitively. Rows without a recoverable video id are skipped.
func ReadCSVPlaylist(path string, logger *log.Logger) (*models.RawPlaylist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrParseSkip, err)
	}
	defer f.Close()

	entries, err := parseCSV(f, path, logger)
	if err != nil {
		return nil, err
	}
	return &models.RawPlaylist{Name: stem(path), Origin: path, Entries: entries}, nil
}

func parseCSV(r io.Reader, origin string, logger *log.Logger) ([]models.RawEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", shared.ErrParseSkip)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrParseSkip, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := columnIndex(header)

	var entries []models.RawEntry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("unreadable csv row", "file", origin, "line", line, "err", err)
			continue
		}

		id := rowVideoID(row, cols)
		if id == "" {
			logger.Warn("no video id in csv row", "file", origin, "line", line)
			continue
		}

		url := cell(row, cols.find(urlColumns))
		if url == "" {
			url = "https://music.youtube.com/watch?v=" + id
		}
		entries = append(entries, models.RawEntry{
			VideoID: id,
			URL:     url,
			Title:   cell(row, cols.find(titleColumns)),
			Artist:  cell(row, cols.find(artistColumns)),
			Album:   cell(row, cols.find(albumColumns)),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no tracks in csv", shared.ErrParseSkip)
	}
	return entries, nil
}

type columns map[string]int

func columnIndex(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	return cols
}

func (c columns) find(candidates []string) int {
	for _, name := range candidates {
		if i, ok := c[strings.ToLower(name)]; ok {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowVideoID prefers a dedicated id column, then a URL column, then any cell that is
// an id or a watch URL.
func rowVideoID(row []string, cols columns) string {
	if id := cell(row, cols.find(idColumns)); library.IsVideoID(id) {
		return id
	}
	if id := library.IDFromURL(cell(row, cols.find(urlColumns))); id != "" {
		return id
	}
	for i := range row {
		v := cell(row, i)
		if library.IsVideoID(v) {
			return v
		}
		if id := library.IDFromURL(v); id != "" && strings.Contains(v, "youtu") {
			return id
		}
	}
	return ""
}

// ConvertCSV writes the JSON playlist equivalent of a CSV next to it and returns its path.
func ConvertCSV(path string, stripSuffix bool, suffix string, logger *log.Logger) (string, int, error) {
	pl, err := ReadCSVPlaylist(path, logger)
	if err != nil {
		return "", 0, err
	}

	name := pl.Name
	if stripSuffix {
		name = normalize.StripSuffix(name, suffix)
	}

	doc := PlaylistFile{Type: playlistType, Name: name}
	for _, e := range pl.Entries {
		title := e.Title
		if title == "" {
			title = "Unknown Title"
		}
		doc.Tracks = append(doc.Tracks, TrackEntry{
			Title:   title,
			URL:     e.URL,
			VideoID: e.VideoID,
			Artist:  e.Artist,
			Album:   e.Album,
			Source:  "csv",
		})
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if err := WritePlaylistJSON(out, doc); err != nil {
		return "", 0, err
	}
	return out, len(doc.Tracks), nil
}
