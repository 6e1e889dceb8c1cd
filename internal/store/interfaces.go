// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

// Package store implements the local persistence layer of the sync engine:
// the device identity file, the durable change queue, the conflict ledger,
// the selective-sync configuration file, and the sqlite-backed record and
// checkpoint repositories.
//
// The JSON-file stores follow write-replace semantics: every mutation rewrites
// the whole document through a temp file and an atomic rename, guarded by a
// per-store mutex so load-mutate-save sequences never interleave. A corrupt
// file on disk is treated as an empty collection and logged, never fatal; the
// source of truth for domain data is the record database, the files only
// track sync bookkeeping.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/enotebook/eln-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DeviceIdentity persists a stable device identifier across restarts.
type DeviceIdentity interface {
	// GetOrCreate returns the stored device id, generating and persisting a
	// new one on first call. Persistence failure is non-fatal: the generated
	// id is then held in memory for the process lifetime and a warning is
	// logged.
	GetOrCreate() string
}

// ChangeQueue is the durable ledger of locally originated mutations awaiting
// transmission. The orchestrator is its sole mutator once changes are
// enqueued.
type ChangeQueue interface {
	// Enqueue appends a new pending change and persists the queue. Returns
	// the generated change id.
	Enqueue(entityType, entityID string, op models.Operation, payload json.RawMessage, priority models.Priority) (string, error)

	// ListPending returns all unacknowledged changes in transmission order:
	// priority (high, normal, low), then timestamp ascending.
	ListPending() []models.PendingChange

	// MarkSynced flips synced=true for the given ids. Idempotent; unknown
	// ids are ignored.
	MarkSynced(ids ...string) error

	// RecordFailure increments retryCount and stores the failure message for
	// one change.
	RecordFailure(id, errorMessage string) error

	// MarkExhausted stores the retry-ceiling message on a change without
	// touching retryCount. Idempotent.
	MarkExhausted(id string) error

	// Retry resets retryCount and clears lastError, making an exhausted
	// change eligible again. Returns false if the id is unknown.
	Retry(id string) bool

	// Cancel removes a change outright. Returns false if the id is unknown.
	Cancel(id string) bool

	// GC removes acknowledged changes older than the retention window.
	GC(retention time.Duration) error

	// PendingCount returns the number of unacknowledged changes.
	PendingCount() int
}

// ConflictLedger persists detected version conflicts pending resolution.
type ConflictLedger interface {
	// Add appends a conflict and persists the ledger.
	Add(conflict models.SyncConflict) error

	// List returns all unresolved conflicts.
	List() []models.SyncConflict

	// Get returns one conflict by id.
	Get(id string) (models.SyncConflict, bool)

	// Remove deletes a conflict from the ledger. Returns false if the id is
	// unknown.
	Remove(id string) bool

	// Count returns the number of unresolved conflicts.
	Count() int
}

// SelectiveSyncStore persists the user-controlled replication scope.
type SelectiveSyncStore interface {
	// Load returns the stored configuration merged over defaults. A missing
	// or corrupt file yields the defaults.
	Load() models.SelectiveSyncConfig

	// Save persists the configuration.
	Save(cfg models.SelectiveSyncConfig) error
}

// RecordRepository is the local domain record store the pull phase merges
// into. The engine only reads the identifying fields; payloads stay opaque.
type RecordRepository interface {
	// Upsert inserts the record or replaces the stored row only when the
	// incoming version is strictly greater. Returns whether the record was
	// applied.
	Upsert(ctx context.Context, rec models.EntityRecord) (bool, error)

	// Get returns one stored record.
	Get(ctx context.Context, entityType, entityID string) (models.EntityRecord, error)

	// Version returns the stored version of a record and whether it exists.
	Version(ctx context.Context, entityType, entityID string) (int64, bool, error)

	// ChangedSince returns records of one type updated after since, ordered
	// by updatedAt ascending.
	ChangedSince(ctx context.Context, entityType string, since time.Time) ([]models.EntityRecord, error)

	// CountRecords returns the total number of stored records, used by the
	// storage accountant's database estimate.
	CountRecords(ctx context.Context) (int64, error)
}

// CheckpointRepository persists the per-device sync checkpoint inside the
// record database.
type CheckpointRepository interface {
	// Load returns the checkpoint for deviceID, or a zero checkpoint with
	// found=false on first run.
	Load(ctx context.Context, deviceID string) (models.SyncCheckpoint, bool, error)

	// Save upserts the checkpoint keyed by device id.
	Save(ctx context.Context, cp models.SyncCheckpoint) error
}
