package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
)

// State file names inside the engine's data directory.
const (
	deviceIDFile      = "device-id"
	changeQueueFile   = "pending-changes.json"
	conflictsFile     = "sync-conflicts.json"
	selectiveSyncFile = "selective-sync.json"
)

// Storages groups all local persistence components into a single value that
// can be passed around the service layer.
type Storages struct {
	// Device persists the stable device identifier.
	Device DeviceIdentity
	// Queue is the durable ledger of outbound changes.
	Queue ChangeQueue
	// Conflicts is the ledger of unresolved version conflicts.
	Conflicts ConflictLedger
	// SelectiveSync persists the replication scope configuration.
	SelectiveSync SelectiveSyncStore
	// Records is the sqlite repository the pull phase merges into.
	Records RecordRepository
	// Checkpoints persists the per-device sync cursor.
	Checkpoints CheckpointRepository
}

// NewStorages initialises the whole storage layer from the supplied
// configuration. It performs the following steps:
//  1. Loads the JSON-file stores (queue, conflicts, selective-sync config)
//     from cfg.DataDir, tolerating missing or corrupt files.
//  2. Opens the sqlite record database at cfg.DSN, creating the file if it
//     does not yet exist.
//  3. Runs pending schema migrations via [DB.Migrate].
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.StorageConfig, logger *logger.Logger) (*Storages, error) {
	logger.Info().Str("data_dir", cfg.DataDir).Msg("creating storages...")

	queue, err := NewChangeQueue(filepath.Join(cfg.DataDir, changeQueueFile), logger)
	if err != nil {
		return nil, fmt.Errorf("create change queue: %w", err)
	}

	conflicts, err := NewConflictLedger(filepath.Join(cfg.DataDir, conflictsFile), logger)
	if err != nil {
		return nil, fmt.Errorf("create conflict ledger: %w", err)
	}

	db, err := NewConnectSQLite(context.Background(), cfg.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Device:        NewDeviceIdentity(filepath.Join(cfg.DataDir, deviceIDFile), logger),
		Queue:         queue,
		Conflicts:     conflicts,
		SelectiveSync: NewSelectiveSyncStore(filepath.Join(cfg.DataDir, selectiveSyncFile), logger),
		Records:       NewRecordRepository(db, logger),
		Checkpoints:   NewCheckpointRepository(db, logger),
	}, nil
}
