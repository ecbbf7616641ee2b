// Package models defines the domain entities and persistence interfaces for the ymde download engine.
//
// The package contains two categories of types:
//
// 1. Run-scoped values: created by the normalizer, scheduler and pipeline and discarded after a run
//   - [Track] : one playlist entry with its stable source id and position
//   - [Playlist] : a named, ordered sequence of tracks
//   - [LibraryEntry] : an audio file already present in the library tree
//   - [DownloadJob] : the mutable state machine wrapping one track
//   - [JobResult] : the terminal outcome of a job
//   - [Counts] : per-outcome tallies used by summaries
//
// 2. Persistent entities: database-backed run history
//   - [Run] : one engine invocation and its final counts
//   - [JobRecord] : one stored [JobResult]
//
// [Run] implements the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
