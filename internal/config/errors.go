package config

import "errors"

// Validation errors returned by [SyncConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, an empty data directory or database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid sync tuning (for example, a
	// zero probe interval or a negative retry ceiling).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
