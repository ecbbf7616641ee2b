// Package repositories implements SQLite persistence for the run history.
//
// Every non-simulated download run is stored as a row in runs with its final counts, and
// each job's terminal outcome as a row in job_results. Runs support soft deletes via
// deleted_at timestamps and deleted runs are excluded from queries by default.
//
// Key Implementations:
//   - [RunRepository] : Run persistence plus per-job result storage
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of
// run ids and timestamps. The [NextSequence] function atomically increments per-table
// sequence counters in dedicated sequence tables.
package repositories
