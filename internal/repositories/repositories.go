// package repositories provides persistence layer implementations for the reconciler state.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
)

// SnapshotRepository loads and saves the reconciler [models.Snapshot].
type SnapshotRepository interface {
	// Load returns the persisted snapshot, or an empty one when nothing has been saved yet.
	Load(ctx context.Context) (*models.Snapshot, error)

	// Save replaces the persisted snapshot.
	Save(ctx context.Context, s *models.Snapshot) error

	// Location describes where the snapshot lives, for log output.
	Location() string
}

// NewSnapshotRepository returns the repository selected by cfg.State.Backend.
//
// db is only used by the sqlite backend and may be nil otherwise.
func NewSnapshotRepository(cfg *shared.Config, db *sql.DB) (SnapshotRepository, error) {
	switch cfg.State.Backend {
	case shared.BackendJSON:
		return NewFileSnapshotRepository(cfg.State.Path), nil
	case shared.BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite backend requires a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteSnapshotRepository(db, cfg.Database.Path), nil
	default:
		return nil, fmt.Errorf("%w: unknown state backend %q", shared.ErrInvalidConfig, cfg.State.Backend)
	}
}

func nullInt(id *int) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
