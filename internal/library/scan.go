package library

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/ymde/internal/models"
)

// SourceIDFrame is the user-defined text frame that carries the stable source id.
const SourceIDFrame = "YMDE_SOURCE_ID"

var audioExtensions = map[string]bool{
	".m4a": true, ".mp3": true, ".opus": true, ".ogg": true,
	".flac": true, ".webm": true, ".aac": true, ".wav": true,
}

// IsAudioFile reports whether path has a recognised audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// BuildOptions tunes [Build].
type BuildOptions struct {
	Logger  *log.Logger
	Workers int // concurrent tag readers, defaults to GOMAXPROCS
}

// BuildStats reports what a scan found.
type BuildStats struct {
	Files    int // audio files seen
	Tagged   int // keyed by a recovered source id
	Fallback int // keyed by the fuzzy key only
	Skipped  int // no usable key
}

type scanned struct {
	entry  models.LibraryEntry
	keys   []string
	tagged bool
}

// Build walks root once and indexes every audio file it can key.
//
// A missing root yields an empty index. Dot-directories (staging, hidden) are skipped.
// Files are inserted in path order so the first path wins a key conflict.
func Build(ctx context.Context, root string, opts BuildOptions) (*Index, BuildStats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var stats BuildStats
	ix := NewIndex()

	paths, err := audioFiles(root)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("library root does not exist yet", "root", root)
		return ix, stats, nil
	}
	if err != nil {
		return nil, stats, err
	}
	stats.Files = len(paths)

	results := make([]scanned, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(root, p, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	for _, r := range results {
		if len(r.keys) == 0 {
			stats.Skipped++
			logger.Debug("no dedup key", "path", r.entry.Path)
			continue
		}
		if r.tagged {
			stats.Tagged++
		} else {
			stats.Fallback++
		}
		ix.Insert(r.entry, r.keys...)
	}

	logger.Info("library indexed", "root", root, "files", stats.Files, "tagged", stats.Tagged, "fallback", stats.Fallback, "skipped", stats.Skipped)
	return ix, stats, nil
}

func audioFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

// scanFile recovers keys for one file: embedded id frame, then bracketed filename id,
// then a source URL in the comment. Artist/title come from tags, else the path.
func scanFile(root, path string, logger *log.Logger) scanned {
	res := scanned{entry: models.LibraryEntry{Path: path}}
	if info, err := os.Stat(path); err == nil {
		res.entry.CreatedAt = info.ModTime()
	}

	var meta tag.Metadata
	if f, err := os.Open(path); err == nil {
		meta, err = tag.ReadFrom(f)
		if err != nil {
			logger.Debug("unreadable tags", "path", path, "err", err)
			meta = nil
		}
		f.Close()
	}

	var id, artist, title string
	if meta != nil {
		id = sourceIDFromTags(meta)
		artist, title = meta.Artist(), meta.Title()
	}
	if id == "" {
		id = IDFromFilename(path)
	}
	if id == "" && meta != nil {
		id = IDFromURL(meta.Comment())
	}
	if artist == "" || title == "" {
		a, t := namesFromPath(root, path)
		if artist == "" {
			artist = a
		}
		if title == "" {
			title = t
		}
	}

	res.entry.SourceID = id
	res.entry.Artist = artist
	res.entry.Title = title
	res.keys = entryKeys(id, artist, title)
	res.tagged = IDKey(id) != ""
	return res
}

func sourceIDFromTags(m tag.Metadata) string {
	for _, v := range m.Raw() {
		c, ok := v.(*tag.Comm)
		if !ok || c.Description != SourceIDFrame {
			continue
		}
		if id := strings.TrimSpace(c.Text); IsVideoID(id) {
			return id
		}
	}
	return ""
}

// namesFromPath splits "Artist - Title [id].ext" or falls back to the Artist/Album/Title layout.
func namesFromPath(root, path string) (artist, title string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.TrimSpace(bracketIDPattern.ReplaceAllString(stem, ""))

	if a, t, ok := strings.Cut(stem, " - "); ok {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", stem
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 3 {
		return parts[len(parts)-3], stem
	}
	return "", stem
}
