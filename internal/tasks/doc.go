// Package tasks runs the download orchestration engine with real-time progress reporting.
//
// # Flow
//
// [Engine.Run] takes normalized playlists and:
//
//  1. Plans one [models.DownloadJob] per track, in playlist order
//  2. Schedules jobs on a bounded worker pool
//     - per-worker delay between job starts ([shared.DelayPolicy])
//     - optional global start ceiling ([rate.Limiter])
//     - cancellation stops dispatch; undispatched jobs fail as cancelled
//  3. Drives each job through the pipeline:
//     RESOLVING → FETCHING → (TRIMMING) → TAGGING → PLACED,
//     with SKIPPED_DUPLICATE straight from RESOLVING and a single
//     SEARCHING → RESOLVING hop when a source is unavailable
//  4. Emits one m3u8 file per playlist in original track order
//  5. Returns a [models.Summary] with per-playlist and total counts
//
// # Dedup claims
//
// Every job claims its keys in the shared [library.Index] before fetching.
// A claim is finalized after placement or released on any failure, so two
// workers never fetch the same key and a failed job never blocks a later one.
//
// # Dry runs
//
// With Options.DryRun the fetch is replaced by a metadata probe. Claims are
// finalized in memory only, so outcomes match a real run without touching disk.
//
// # Progress Reporting
//
// Progress updates are sent on an optional channel with a non-blocking select.
// Outcome phases carry the [models.JobResult] in ProgressUpdate.Data.
//
// # Favorites
//
// [MarkFavorites] marks placed or skipped tracks on a Jellyfin server after a run.
package tasks
