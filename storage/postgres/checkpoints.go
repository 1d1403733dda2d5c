package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// CheckpointRepository implements storage.CheckpointRepository on PostgreSQL.
type CheckpointRepository struct {
	store *Store
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// SaveCheckpoint upserts the checkpoint for a processor type.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	_, err := r.store.db(ctx).Exec(ctx, `INSERT INTO checkpoints (processor_type, last_id, processed, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (processor_type) DO UPDATE
		SET last_id = EXCLUDED.last_id, processed = EXCLUDED.processed, updated_at = EXCLUDED.updated_at`,
		checkpoint.ProcessorType, int64(checkpoint.LastID), checkpoint.Processed, checkpoint.UpdatedAt)
	return translateError(err)
}

// LoadCheckpoint returns nil, nil when no checkpoint exists.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error) {
	var (
		checkpoint = core.Checkpoint{ProcessorType: processorType}
		lastID     int64
	)
	err := r.store.db(ctx).QueryRow(ctx,
		`SELECT last_id, processed, updated_at FROM checkpoints WHERE processor_type = $1`, processorType).
		Scan(&lastID, &checkpoint.Processed, &checkpoint.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	checkpoint.LastID = core.ID(lastID)
	return &checkpoint, nil
}

// DeleteCheckpoint removes the checkpoint for a processor type.
func (r *CheckpointRepository) DeleteCheckpoint(ctx context.Context, processorType string) error {
	_, err := r.store.db(ctx).Exec(ctx, `DELETE FROM checkpoints WHERE processor_type = $1`, processorType)
	return translateError(err)
}
