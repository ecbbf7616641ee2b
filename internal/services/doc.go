// Package services implements the engine's external collaborators.
//
// # Fetching
//
// [YtdlpClient] drives the yt-dlp executable through go-ytdlp. It implements [Fetcher]
// (audio extraction into a staging directory, or a metadata-only probe for simulated runs),
// [Searcher] (ytsearch queries used by the fallback step) and the playlist dump used to
// export liked items. Failures are classified by [ClassifyFetchError]:
//   - [shared.ErrSourceUnavailable] : removed, private, region-blocked or terminated sources
//   - [shared.ErrCancelled] : the run context was cancelled mid-fetch
//   - [shared.ErrToolMissing] : yt-dlp is not installed
//   - [shared.ErrFetchFailed] : anything else, after yt-dlp's own retries
//
// # Trimming
//
// [SponsorBlockTrimmer] fetches community segment timings and cuts them out with ffmpeg.
// Every failure wraps [shared.ErrTrimFailed] and callers continue with the untrimmed file.
//
// # Jellyfin
//
// [JellyfinService] authenticates with a static MediaBrowser token through [oauth2.Transport]
// and rate limits its requests. It resolves items by the bracketed video id in their path.
package services
