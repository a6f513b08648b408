package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
)

// RunRepository records reconcile runs in the runs table.
type RunRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// Create inserts run as running, assigning a uuid and start time when unset.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now().UTC()
	}
	run.Status = models.RunRunning

	query := `
		INSERT INTO runs (id, command, status, start_cursor, pages, records, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Command,
		string(run.Status),
		nullInt(run.StartCursor),
		run.Pages,
		run.Records,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish stores the outcome of run. A nil runErr marks it completed, anything else failed.
func (r *RunRepository) Finish(ctx context.Context, run *models.Run, runErr error) error {
	finished := r.now().UTC()
	run.FinishedAt = &finished
	run.Status = models.RunCompleted
	run.Error = ""
	if runErr != nil {
		run.Status = models.RunFailed
		run.Error = runErr.Error()
	}

	query := `
		UPDATE runs
		SET status = ?, end_cursor = ?, pages = ?, records = ?, error = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		string(run.Status),
		nullInt(run.EndCursor),
		run.Pages,
		run.Records,
		run.Error,
		finished,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, command, status, start_cursor, end_cursor, pages, records, error, started_at, finished_at
		FROM runs
		WHERE id = ?
	`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// List returns the most recent runs first. A non-positive limit returns every run.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, command, status, start_cursor, end_cursor, pages, records, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
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
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run         models.Run
		status      string
		startCursor sql.NullInt64
		endCursor   sql.NullInt64
		finishedAt  sql.NullTime
	)

	err := row.Scan(
		&run.ID,
		&run.Command,
		&status,
		&startCursor,
		&endCursor,
		&run.Pages,
		&run.Records,
		&run.Error,
		&run.StartedAt,
		&finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = models.RunStatus(status)
	run.StartCursor = intPtr(startCursor)
	run.EndCursor = intPtr(endCursor)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
