// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the eln-sync
// engine. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, an optional JSON
// file, and built-in defaults (in that order of precedence).
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Server holds the central ENotebook server endpoint and timeouts.
	Server Server `envPrefix:"SERVER_"`

	// Sync holds sync-cycle tuning: identity, intervals, retry ceiling and
	// the retention window for acknowledged changes.
	Sync Sync `envPrefix:"SYNC_"`

	// Storage holds local persistence locations: the data directory for the
	// engine's JSON files, the sqlite database, and the attachment/cache
	// directories measured by the storage accountant.
	Storage Storage `envPrefix:"STORAGE_"`

	// Quota holds the advisory storage-quota reporting parameters.
	Quota Quota `envPrefix:"QUOTA_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged under the values already
	// loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Server holds the remote endpoint settings for the outbound transport layer.
type Server struct {
	// URL is the base URL of the central ENotebook server
	// (e.g. "http://localhost:4000"). When empty the engine runs in
	// permanently-offline mode and never attempts network I/O.
	// Env: SERVER_URL
	URL string `env:"URL"`

	// RequestTimeout bounds push and pull requests.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// HealthTimeout bounds the connectivity probe.
	// Env: SERVER_HEALTH_TIMEOUT
	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT"`
}

// Sync holds the tuning knobs of the sync pipeline.
type Sync struct {
	// UserID identifies the notebook user in the x-user-id request header.
	// Env: SYNC_USER_ID
	UserID string `env:"USER_ID"`

	// ProbeInterval is how often the connectivity monitor checks server
	// reachability, independent of sync activity.
	// Env: SYNC_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// SyncInterval is how often the background worker attempts a full cycle.
	// Env: SYNC_INTERVAL
	SyncInterval time.Duration `env:"INTERVAL"`

	// MaxRetries is the per-change push retry ceiling. A change that reaches
	// it is skipped until an explicit retry request.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// RetentionWindow is how long acknowledged changes stay in the queue
	// before garbage collection.
	// Env: SYNC_RETENTION_WINDOW
	RetentionWindow time.Duration `env:"RETENTION_WINDOW"`
}

// Storage groups the configuration for all local persistence locations.
type Storage struct {
	// DataDir is where the engine keeps its JSON state files (device
	// identity, change queue, conflict ledger, selective-sync config).
	// Env: STORAGE_DATA_DIR
	DataDir string `env:"DATA_DIR"`

	// DB holds the local domain database settings.
	DB DB `envPrefix:"DB_"`

	// AttachmentsDir is the directory holding downloaded attachment files.
	// Env: STORAGE_ATTACHMENTS_DIR
	AttachmentsDir string `env:"ATTACHMENTS_DIR"`

	// CacheDir is the directory holding transient cached content.
	// Env: STORAGE_CACHE_DIR
	CacheDir string `env:"CACHE_DIR"`
}

// DB contains local database connection settings.
type DB struct {
	// DSN is the sqlite file path of the local domain record store.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Quota holds storage-quota reporting parameters. The report is advisory and
// never gates sync operations.
type Quota struct {
	// TotalBytes is the configured local capacity shown in quota reports.
	// Env: QUOTA_TOTAL_BYTES
	TotalBytes int64 `env:"TOTAL_BYTES"`

	// BytesPerRecord is the rough per-record estimate used for
	// database-resident content.
	// Env: QUOTA_BYTES_PER_RECORD
	BytesPerRecord int64 `env:"BYTES_PER_RECORD"`
}

// GetStructuredConfig assembles the merged configuration from every source:
// environment variables first, then command-line flags, then the optional
// JSON file, then built-in defaults filling whatever is still unset.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
