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

// SQLiteSnapshotRepository stores the snapshot in the uid_tracks and checkpoint tables.
//
// position preserves discovery order within a UId.
type SQLiteSnapshotRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteSnapshotRepository creates a new repository over a migrated database.
func NewSQLiteSnapshotRepository(db *sql.DB, path string) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db, path: path}
}

func (r *SQLiteSnapshotRepository) Location() string {
	return "sqlite:" + r.path
}

// Load reads every uid_tracks row and the checkpoint row.
func (r *SQLiteSnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	snapshot := models.NewSnapshot()

	rows, err := r.db.QueryContext(ctx, `SELECT uid, track_id FROM uid_tracks ORDER BY uid, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query uid tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		var trackID int
		if err := rows.Scan(&uid, &trackID); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrMalformedSnapshot, err)
		}
		snapshot.Table.Add(uid, trackID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read uid tracks: %w", err)
	}

	var cursor sql.NullInt64
	err = r.db.QueryRowContext(ctx, `SELECT last_track_id FROM checkpoint WHERE id = 1`).Scan(&cursor)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	default:
		snapshot.LastTrackID = intPtr(cursor)
	}

	return snapshot, nil
}

// Save replaces every uid_tracks row and the checkpoint in a single transaction.
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, s *models.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM uid_tracks`); err != nil {
		return fmt.Errorf("failed to clear uid tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO uid_tracks (uid, track_id, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for uid, ids := range s.Table {
		for pos, id := range ids {
			if _, err := stmt.ExecContext(ctx, uid, id, pos); err != nil {
				return fmt.Errorf("failed to insert uid track: %w", err)
			}
		}
	}

	query := `
		INSERT INTO checkpoint (id, last_track_id, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_track_id = excluded.last_track_id, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, nullInt(s.LastTrackID), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
