// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

// Package service contains the sync engine's behaviour: the event bus the
// rest of the application observes, the connectivity monitor, the
// selective-sync filter, the storage accountant and the orchestrator that
// drives push/pull cycles over the storage and transport layers.
package service

import (
	"context"
	"encoding/json"

	"github.com/enotebook/eln-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// Event names a notification published on the [EventBus].
type Event string

const (
	// EventOnline fires when a connectivity probe finds the server reachable
	// after a period offline.
	EventOnline Event = "online"
	// EventOffline fires when a probe finds the server unreachable after a
	// period online.
	EventOffline Event = "offline"
	// EventChangeQueued fires after a change is durably enqueued. Payload:
	// the change id.
	EventChangeQueued Event = "change-queued"
	// EventChangeCancelled fires after a pending change is removed without
	// transmission. Payload: the change id.
	EventChangeCancelled Event = "change-cancelled"
	// EventSyncStarted fires at the beginning of a sync cycle.
	EventSyncStarted Event = "sync-started"
	// EventSyncProgress fires after each processed item of a cycle. Payload:
	// [models.SyncProgress].
	EventSyncProgress Event = "sync-progress"
	// EventSyncComplete fires when a cycle terminates, successfully or not.
	// Payload: the final [models.SyncState] snapshot.
	EventSyncComplete Event = "sync-complete"
	// EventConflictResolved fires after a conflict is resolved and its
	// corrective change enqueued. Payload: the conflict id.
	EventConflictResolved Event = "conflict-resolved"
	// EventConfigUpdated fires after the selective-sync configuration is
	// replaced. Payload: the new [models.SelectiveSyncConfig].
	EventConfigUpdated Event = "config-updated"
)

// Handler receives the payload of one emitted event. Handlers run
// synchronously on the emitter's goroutine and must not block.
type Handler func(payload any)

// EventBus is the in-process publish/subscribe channel between the sync
// engine and its observers (daemon log sink, future UI bridges).
type EventBus interface {
	// On registers a handler for one event and returns a subscription id
	// usable with Off.
	On(event Event, h Handler) int

	// Off removes a subscription. Unknown ids are ignored.
	Off(event Event, id int)

	// Emit delivers payload to every handler registered for event. A
	// panicking handler is recovered and logged; remaining handlers still
	// run.
	Emit(event Event, payload any)
}

// ConnectivityMonitor tracks server reachability through periodic health
// probes.
type ConnectivityMonitor interface {
	// Check probes the server once and returns the resulting online state.
	// State transitions emit EventOnline / EventOffline; an offline-to-online
	// transition additionally triggers an asynchronous sync cycle.
	Check(ctx context.Context) bool

	// Online returns the last observed state without probing.
	Online() bool
}

// SyncOrchestrator is the engine's public surface: enqueueing changes,
// driving sync cycles, resolving conflicts and managing the replication
// scope.
type SyncOrchestrator interface {
	// QueueChange durably records a local mutation for later transmission
	// and returns the generated change id. When the engine is online and not
	// mid-cycle, a sync cycle is triggered asynchronously.
	QueueChange(entityType, entityID string, op models.Operation, payload json.RawMessage, priority models.Priority) (string, error)

	// SyncNow runs one push/pull cycle and returns the resulting state
	// snapshot. At most one cycle runs at a time: a call made while a cycle
	// is in flight returns the current snapshot without starting another.
	SyncNow(ctx context.Context) models.SyncState

	// State returns a point-in-time snapshot assembled from the queue, the
	// conflict ledger, the persisted checkpoint and the connectivity
	// monitor.
	State(ctx context.Context) models.SyncState

	// ResolveConflict applies a resolution strategy to one ledger entry,
	// enqueues the winning payload as a high-priority update and removes the
	// conflict. Returns false when the conflict is unknown or the strategy
	// requires data that is not available.
	ResolveConflict(ctx context.Context, conflictID string, strategy models.ResolutionStrategy, merged json.RawMessage) bool

	// UpdateSelectiveSync replaces the persisted replication scope.
	UpdateSelectiveSync(cfg models.SelectiveSyncConfig) error

	// CancelChange removes a pending change before transmission. Returns
	// false if the id is unknown or already synced.
	CancelChange(id string) bool

	// RetryChange resets the retry counter of an exhausted change so the
	// next cycle picks it up again.
	RetryChange(id string) bool
}

// StorageAccountant reports advisory local disk usage.
type StorageAccountant interface {
	// GetStorageQuota measures the attachments and cache directories,
	// estimates database usage and returns the combined report.
	GetStorageQuota(ctx context.Context) models.QuotaReport
}
