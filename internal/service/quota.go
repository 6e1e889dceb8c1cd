// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/internal/store"
	"github.com/enotebook/eln-sync/models"
)

type storageAccountant struct {
	cfg     config.SyncConfig
	records store.RecordRepository
	logger  *logger.Logger
}

// NewStorageAccountant constructs the advisory disk-usage reporter. It
// measures the attachments and cache directories by walking them and
// estimates database usage as records times a configured per-record size;
// the numbers inform the user, they never gate syncing.
func NewStorageAccountant(cfg config.SyncConfig, records store.RecordRepository, logger *logger.Logger) StorageAccountant {
	return &storageAccountant{cfg: cfg, records: records, logger: logger}
}

func (a *storageAccountant) GetStorageQuota(ctx context.Context) models.QuotaReport {
	breakdown := models.QuotaBreakdown{
		AttachmentsBytes: a.dirSize(a.cfg.Storage.AttachmentsDir),
		CacheBytes:       a.dirSize(a.cfg.Storage.CacheDir),
	}

	count, err := a.records.CountRecords(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("count records for quota estimate")
	} else {
		breakdown.DatabaseBytes = count * a.cfg.Quota.BytesPerRecord
	}

	used := breakdown.AttachmentsBytes + breakdown.CacheBytes + breakdown.DatabaseBytes
	available := a.cfg.Quota.TotalBytes - used
	if available < 0 {
		available = 0
	}

	return models.QuotaReport{
		UsedBytes:      used,
		AvailableBytes: available,
		TotalBytes:     a.cfg.Quota.TotalBytes,
		Breakdown:      breakdown,
	}
}

// dirSize sums regular file sizes beneath dir. A missing or unreadable
// directory counts as zero; unreadable entries inside an existing tree are
// skipped.
func (a *storageAccountant) dirSize(dir string) int64 {
	if dir == "" {
		return 0
	}

	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			a.logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("dir", dir).Msg("measure directory")
	}

	return total
}
