package config

import (
	"fmt"
	"time"
)

// ServerConfig holds network settings used by the transport layer.
type ServerConfig struct {
	// URL is the server base URL; empty means permanently offline.
	URL string
	// RequestTimeout is the timeout for outbound push/pull requests.
	RequestTimeout time.Duration
	// HealthTimeout is the timeout for the connectivity probe.
	HealthTimeout time.Duration
}

// StorageConfig groups local persistence locations for the storage layer.
type StorageConfig struct {
	// DataDir holds the engine's JSON state files.
	DataDir string
	// DSN is the sqlite path of the local record store.
	DSN string
	// AttachmentsDir and CacheDir are measured by the storage accountant.
	AttachmentsDir string
	CacheDir       string
}

// QuotaConfig holds the advisory storage quota parameters.
type QuotaConfig struct {
	TotalBytes     int64
	BytesPerRecord int64
}

// SyncConfig is the top-level engine configuration assembled from
// [StructuredConfig].
type SyncConfig struct {
	// UserID is the notebook user the engine syncs on behalf of.
	UserID string
	// Server contains the transport endpoint and timeouts.
	Server ServerConfig
	// Storage contains local persistence settings.
	Storage StorageConfig
	// Quota contains storage-quota reporting parameters.
	Quota QuotaConfig
	// ProbeInterval is the connectivity check period.
	ProbeInterval time.Duration
	// SyncInterval is the background sync period.
	SyncInterval time.Duration
	// MaxRetries is the per-change push retry ceiling.
	MaxRetries int
	// RetentionWindow is how long acknowledged changes are retained.
	RetentionWindow time.Duration
}

// GetSyncConfig builds and validates the engine configuration view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the sync runtime, and validates the resulting [SyncConfig].
func GetSyncConfig() (*SyncConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	syncCfg := &SyncConfig{
		UserID: cfg.Sync.UserID,
		Server: ServerConfig{
			URL:            cfg.Server.URL,
			RequestTimeout: cfg.Server.RequestTimeout,
			HealthTimeout:  cfg.Server.HealthTimeout,
		},
		Storage: StorageConfig{
			DataDir:        cfg.Storage.DataDir,
			DSN:            cfg.Storage.DB.DSN,
			AttachmentsDir: cfg.Storage.AttachmentsDir,
			CacheDir:       cfg.Storage.CacheDir,
		},
		Quota: QuotaConfig{
			TotalBytes:     cfg.Quota.TotalBytes,
			BytesPerRecord: cfg.Quota.BytesPerRecord,
		},
		ProbeInterval:   cfg.Sync.ProbeInterval,
		SyncInterval:    cfg.Sync.SyncInterval,
		MaxRetries:      cfg.Sync.MaxRetries,
		RetentionWindow: cfg.Sync.RetentionWindow,
	}

	return syncCfg, syncCfg.validate()
}
