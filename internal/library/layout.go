package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ymde/internal/shared"
)

const (
	stagingDirName = ".ymde-staging"
	unknownArtist  = "Unknown Artist"
	unknownAlbum   = "Unknown Album"
)

// Layout derives every path the engine writes under a library root.
type Layout struct {
	Root         string
	PlaylistsDir string // relative to Root
	Absolute     bool   // playlist entries use absolute paths
}

// TrackPath returns <Root>/<Artist>/<Album>/<Title> [<id>].<ext>.
func (l Layout) TrackPath(artist, album, title, id, ext string) string {
	name := shared.SanitizeFilename(title, "Untitled")
	if id != "" {
		name = fmt.Sprintf("%s [%s]", name, id)
	}
	return filepath.Join(
		l.Root,
		shared.SanitizeFilename(artist, unknownArtist),
		shared.SanitizeFilename(album, unknownAlbum),
		name+"."+strings.TrimPrefix(ext, "."),
	)
}

// PlaylistPath returns <Root>/<PlaylistsDir>/<Name>.m3u8.
func (l Layout) PlaylistPath(name string) string {
	return filepath.Join(l.Root, l.PlaylistsDir, shared.SanitizeFilename(name, "Playlist")+".m3u8")
}

// StagingRoot holds all in-flight downloads of one run.
func (l Layout) StagingRoot(runID string) string {
	return filepath.Join(l.Root, stagingDirName, runID)
}

// StagingDir is the private scratch directory of a single job.
func (l Layout) StagingDir(runID, jobID string) string {
	return filepath.Join(l.StagingRoot(runID), jobID)
}

// PlaylistRef renders path as it should appear in a playlist file.
//
// Library-relative references use forward slashes.
func (l Layout) PlaylistRef(path string) string {
	if l.Absolute {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
