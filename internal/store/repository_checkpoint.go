package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

type checkpointRepository struct {
	*DB
	logger *logger.Logger
}

// NewCheckpointRepository constructs the sqlite-backed
// [CheckpointRepository]. The checkpoint lives next to the domain records
// rather than in a flat file so a restored database carries its own sync
// cursor.
func NewCheckpointRepository(db *DB, logger *logger.Logger) CheckpointRepository {
	return &checkpointRepository{DB: db, logger: logger}
}

const (
	loadCheckpoint = `SELECT device_id, last_pulled_at, last_pushed_at, status, error
		FROM sync_checkpoints
		WHERE device_id = ?;`

	saveCheckpoint = `INSERT INTO sync_checkpoints (device_id, last_pulled_at, last_pushed_at, status, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			last_pulled_at = excluded.last_pulled_at,
			last_pushed_at = excluded.last_pushed_at,
			status = excluded.status,
			error = excluded.error;`
)

func (c *checkpointRepository) Load(ctx context.Context, deviceID string) (models.SyncCheckpoint, bool, error) {
	var cp models.SyncCheckpoint
	var status string

	row := c.DB.QueryRowContext(ctx, loadCheckpoint, deviceID)
	err := row.Scan(&cp.DeviceID, &cp.LastPulledAt, &cp.LastPushedAt, &status, &cp.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncCheckpoint{}, false, nil
		}
		return models.SyncCheckpoint{}, false, fmt.Errorf("%w: %s", ErrScanningRow, err)
	}

	cp.Status = models.SyncStatus(status)
	return cp, true, nil
}

func (c *checkpointRepository) Save(ctx context.Context, cp models.SyncCheckpoint) error {
	_, err := c.DB.ExecContext(ctx, saveCheckpoint,
		cp.DeviceID,
		cp.LastPulledAt,
		cp.LastPushedAt,
		string(cp.Status),
		cp.Error,
	)
	if err != nil {
		c.logger.Err(err).Str("device_id", cp.DeviceID).Msg("failed to save sync checkpoint")
		return fmt.Errorf("save sync checkpoint: %w", err)
	}

	return nil
}
