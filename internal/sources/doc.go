// Package sources turns the supported inputs into [models.RawPlaylist] values:
// archival export files (JSON playlists and CSV sheets) and an account's liked items.
//
// Malformed entries wrap [shared.ErrParseSkip]; they are logged and skipped, never fatal.
package sources
