package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/shared"
)

const runColumns = `id, sequence, mode, library_root, placed, skipped, failed, cancelled,
	started_at, finished_at, created_at, updated_at, deleted_at`

// RunRepository implements models.Repository[*models.Run] for the run history.
//
// Job results are stored alongside their run in job_results.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with the next sequence number.
//
// A run that already carries an id (the engine's run id) keeps it.
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	run.SetSequence(sequence)

	query := `
		INSERT INTO runs (id, sequence, mode, library_root, placed, skipped, failed, cancelled,
			started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	c := run.Counts()
	_, err = r.db.Exec(query,
		run.ID(),
		sequence,
		run.Mode(),
		run.LibraryRoot(),
		c.Placed,
		c.Skipped,
		c.Failed,
		c.Cancelled,
		run.StartedAt(),
		nullTime(run.FinishedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", shared.ErrItemNotFound, id)
	}
	return run, err
}

// GetBySequence retrieves a run by its sequence number.
func (r *RunRepository) GetBySequence(sequence int) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ? AND deleted_at IS NULL`
	run, err := scanRun(r.db.QueryRow(query, sequence))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run #%d", shared.ErrItemNotFound, sequence)
	}
	return run, err
}

// Update stores a run's counts and completion time.
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET placed = ?, skipped = ?, failed = ?, cancelled = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	c := run.Counts()
	result, err := r.db.Exec(query, c.Placed, c.Skipped, c.Failed, c.Cancelled, nullTime(run.FinishedAt()), now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run not found or already deleted: %s", shared.ErrItemNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run not found or already deleted: %s", shared.ErrItemNotFound, id)
	}

	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "mode" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if mode, ok := criteria["mode"].(string); ok && mode != "" {
		query += " AND mode = ?"
		args = append(args, mode)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// AddResults stores job records for runID in a single transaction.
func (r *RunRepository) AddResults(runID string, records []models.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO job_results (id, run_id, playlist, position, source_id, replacement_id,
			title, outcome, reason, detail, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = shared.GenerateID()
		}
		rec.RunID = runID
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}

		_, err := stmt.Exec(
			rec.ID,
			runID,
			rec.Playlist,
			rec.Position,
			rec.SourceID,
			rec.ReplacementID,
			rec.Title,
			rec.Outcome.String(),
			string(rec.Reason),
			rec.Detail,
			rec.Path,
			rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert job result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job results: %w", err)
	}
	return nil
}

// Results returns the job records of runID in insertion order.
//
// Pass a non-empty outcome to filter.
func (r *RunRepository) Results(runID string, outcome string) ([]models.JobRecord, error) {
	query := `
		SELECT id, run_id, playlist, position, source_id, replacement_id, title, outcome, reason, detail, path, created_at
		FROM job_results
		WHERE run_id = ?
	`
	args := []any{runID}
	if outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}
	query += " ORDER BY rowid ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job results: %w", err)
	}
	defer rows.Close()

	var records []models.JobRecord
	for rows.Next() {
		var (
			rec         models.JobRecord
			outcomeText string
			reason      string
		)
		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Playlist, &rec.Position, &rec.SourceID, &rec.ReplacementID,
			&rec.Title, &outcomeText, &reason, &rec.Detail, &rec.Path, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job result: %w", err)
		}

		if rec.Outcome, err = models.ParseOutcome(outcomeText); err != nil {
			return nil, fmt.Errorf("failed to scan job result: %w", err)
		}
		rec.Reason = models.FailureReason(reason)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		id          string
		sequence    int
		mode        string
		libraryRoot string
		counts      models.Counts
		startedAt   time.Time
		finishedAt  sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := s.Scan(&id, &sequence, &mode, &libraryRoot,
		&counts.Placed, &counts.Skipped, &counts.Failed, &counts.Cancelled,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(mode, libraryRoot)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCounts(counts)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
