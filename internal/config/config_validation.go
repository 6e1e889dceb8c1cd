// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// engine invariants before it is used at startup.
//
// Note an empty Server.URL is deliberately valid: the engine then runs in
// permanently-offline mode, queueing changes without network I/O.
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *SyncConfig) validate() error {
	if cfg.Storage.DataDir == "" || cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.ProbeInterval <= 0 || cfg.SyncInterval <= 0 || cfg.MaxRetries <= 0 || cfg.RetentionWindow <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
