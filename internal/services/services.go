// package services defines the external collaborators of the download engine
//
// yt-dlp (fetch, probe, search, playlist dumps), SponsorBlock trimming, Jellyfin favorites
package services

import (
	"context"
)

// Fetcher runs the external media fetch operation for one source.
type Fetcher interface {
	// Fetch downloads, transcodes and embeds metadata into a file under req.OutputDir.
	// Errors wrap [shared.ErrSourceUnavailable], [shared.ErrFetchFailed] or [shared.ErrCancelled].
	Fetch(ctx context.Context, req FetchRequest) (*MediaInfo, error)

	// Probe resolves the same metadata without transferring media or writing files.
	Probe(ctx context.Context, req FetchRequest) (*MediaInfo, error)
}

// Searcher performs a free-text search for replacement sources.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// Trimmer removes non-music segments from a fetched file in place.
type Trimmer interface {
	Trim(ctx context.Context, path, videoID string) error
}

// FetchRequest describes one fetch: the source, the desired output and the transfer policy.
type FetchRequest struct {
	URL           string
	VideoID       string
	OutputDir     string
	AudioFormat   string
	AudioQuality  string
	RateLimit     string // yt-dlp rate string, "" for no ceiling
	SleepRequests float64
	Retries       int
	Cookies       string
}

// MediaInfo is the metadata reported for a fetched (or probed) source.
type MediaInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Track    string  `json:"track"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	Ext      string  `json:"ext"`
	Path     string  `json:"filepath"`
}

// DisplayTitle prefers the music track title over the video title.
func (m *MediaInfo) DisplayTitle() string {
	if m.Track != "" {
		return m.Track
	}
	return m.Title
}

// Candidate is one search result considered as a replacement source.
type Candidate struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Uploader string  `json:"uploader"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}
