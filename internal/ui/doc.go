// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for a download run:
//  1. [PlaylistListView] : Browse the playlists loaded from the source
//  2. [TrackListView] : Preview a playlist's tracks
//  3. [ConfirmView] : Confirm the run (and whether it is simulated)
//  4. [RunView] : Monitor progress with a bar, a spinner and the latest outcomes
//  5. [ResultView] : Display the per-playlist summary table and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the download engine. Pressing ctrl+c during a run cancels
// its context; the engine drains in-flight jobs and the result view shows what completed.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
