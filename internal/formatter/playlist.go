package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const m3uHeader = "#EXTM3U"

// PlaylistEntry is one resolved reference in an emitted playlist.
type PlaylistEntry struct {
	Ref      string // path as written to the file
	Artist   string
	Title    string
	Duration int // seconds, -1 or 0 when unknown
}

func (e PlaylistEntry) label() string {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = filepath.Base(e.Ref)
	}
	if a := strings.TrimSpace(e.Artist); a != "" {
		return a + " - " + title
	}
	return title
}

// ExportToM3U8 renders entries as an extended m3u playlist, in the given order.
func ExportToM3U8(entries []PlaylistEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString(m3uHeader + "\n")
	for _, e := range entries {
		dur := e.Duration
		if dur <= 0 {
			dur = -1
		}
		fmt.Fprintf(&buf, "#EXTINF:%d,%s\n%s\n", dur, oneLine(e.label()), e.Ref)
	}
	return buf.Bytes()
}

// WritePlaylist atomically replaces path with an m3u8 listing of entries.
func WritePlaylist(path string, entries []PlaylistEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("refusing to write empty playlist %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create playlist directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".playlist-*.m3u8")
	if err != nil {
		return fmt.Errorf("failed to create temp playlist: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(ExportToM3U8(entries)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace playlist: %w", err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
