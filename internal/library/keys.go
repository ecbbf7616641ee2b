package library

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

const (
	idKeyPrefix    = "id:"
	fuzzyKeyPrefix = "fz:"
)

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	bracketIDPattern = regexp.MustCompile(`\[([A-Za-z0-9_-]{11})\]`)
	urlIDPattern     = regexp.MustCompile(`(?:youtube\.com|youtu\.be)\S*?([A-Za-z0-9_-]{11})`)
)

// IDKey is the dedup key for a stable source id.
func IDKey(id string) string {
	if !IsVideoID(id) {
		return ""
	}
	return idKeyPrefix + id
}

// FuzzyKey is the fallback dedup key built from normalized artist and title.
//
// Both parts are required; a title alone matches too broadly.
func FuzzyKey(artist, title string) string {
	a, t := shared.NormalizeText(artist), shared.NormalizeText(title)
	if a == "" || t == "" {
		return ""
	}
	return fuzzyKeyPrefix + a + "|" + t
}

// IsVideoID reports whether s has the shape of a platform video id.
func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// TrackKeys returns the dedup key for t.
func TrackKeys(t models.Track) []string {
	return entryKeys(t.SourceID, t.Artist, t.Title)
}

// entryKeys uses the id key when the id is valid and the fuzzy key only otherwise,
// so distinct ids sharing artist and title never collide.
func entryKeys(id, artist, title string) []string {
	if k := IDKey(id); k != "" {
		return []string{k}
	}
	return compactKeys(FuzzyKey(artist, title))
}

// IDFromFilename recovers a bracketed id ("Title [dQw4w9WgXcQ].m4a").
//
// The last bracketed match wins so titles containing brackets still resolve.
func IDFromFilename(name string) string {
	matches := bracketIDPattern.FindAllStringSubmatch(filepath.Base(name), -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

// IDFromURL extracts the video id from a watch, short or music URL.
func IDFromURL(raw string) string {
	if u, err := url.Parse(strings.TrimSpace(raw)); err == nil && u.Host != "" {
		if v := u.Query().Get("v"); IsVideoID(v) {
			return v
		}
		if strings.HasSuffix(u.Host, "youtu.be") {
			if id := strings.Trim(u.Path, "/"); IsVideoID(id) {
				return id
			}
		}
	}
	if m := urlIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func compactKeys(keys ...string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
