// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/enotebook/eln-sync/internal/adapter"
	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/internal/store"
	"github.com/enotebook/eln-sync/models"
)

// Orchestrator drives the sync engine: it owns the push/pull cycle and is
// the only writer of the sync checkpoint. All other state lives in the
// storage layer; the orchestrator itself keeps just the in-flight cycle
// bookkeeping.
type Orchestrator struct {
	cfg      *config.SyncConfig
	storages *store.Storages
	server   adapter.ServerAdapter
	monitor  ConnectivityMonitor
	bus      EventBus
	logger   *logger.Logger
	deviceID string

	// mu guards the cycle bookkeeping below. The syncing flag enforces the
	// at-most-one-cycle rule.
	mu        sync.Mutex
	syncing   bool
	status    models.SyncStatus
	lastError string
	progress  *models.SyncProgress
}

// enqueueHooker is implemented by the concrete change queue; the orchestrator
// uses it to observe enqueues made through any path.
type enqueueHooker interface {
	SetEnqueueHook(hook func(id string))
}

// onlineHooker is implemented by the concrete connectivity monitor.
type onlineHooker interface {
	SetOnlineHook(hook func())
}

// NewOrchestrator wires the orchestrator into the storage layer, the
// transport and the connectivity monitor. srv may be nil when no server URL
// is configured; the engine then queues changes indefinitely and every cycle
// terminates offline.
//
// The orchestrator registers itself as the queue's enqueue observer and as
// the monitor's online-transition trigger, so enqueues and reconnections
// start sync cycles without the caller's involvement.
func NewOrchestrator(
	cfg *config.SyncConfig,
	storages *store.Storages,
	srv adapter.ServerAdapter,
	monitor ConnectivityMonitor,
	bus EventBus,
	logger *logger.Logger,
) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		storages: storages,
		server:   srv,
		monitor:  monitor,
		bus:      bus,
		logger:   logger,
		deviceID: storages.Device.GetOrCreate(),
		status:   models.SyncStatusIdle,
	}

	if srv != nil {
		srv.SetIdentity(cfg.UserID, o.deviceID)
	}

	if q, ok := storages.Queue.(enqueueHooker); ok {
		q.SetEnqueueHook(o.onChangeQueued)
	}
	if m, ok := monitor.(onlineHooker); ok {
		m.SetOnlineHook(func() { o.SyncNow(context.Background()) })
	}

	return o
}

// DeviceID returns the stable identifier of this installation.
func (o *Orchestrator) DeviceID() string {
	return o.deviceID
}

func (o *Orchestrator) QueueChange(entityType, entityID string, op models.Operation, payload json.RawMessage, priority models.Priority) (string, error) {
	return o.storages.Queue.Enqueue(entityType, entityID, op, payload, priority)
}

// onChangeQueued runs after every successful enqueue, from any call site.
func (o *Orchestrator) onChangeQueued(id string) {
	o.bus.Emit(EventChangeQueued, id)

	if !o.monitor.Online() {
		return
	}

	o.mu.Lock()
	busy := o.syncing
	o.mu.Unlock()
	if busy {
		return
	}

	go o.SyncNow(context.Background())
}

func (o *Orchestrator) State(ctx context.Context) models.SyncState {
	o.mu.Lock()
	state := models.SyncState{
		Status:    o.status,
		LastError: o.lastError,
	}
	if o.progress != nil {
		p := *o.progress
		state.Progress = &p
	}
	o.mu.Unlock()

	state.Online = o.monitor.Online()
	state.DeviceID = o.deviceID
	state.PendingChanges = o.storages.Queue.PendingCount()
	state.Conflicts = o.storages.Conflicts.Count()

	for _, c := range o.storages.Queue.ListPending() {
		if c.EntityType == models.EntityTypeAttachment {
			state.PendingUploads++
		}
	}

	if cp, found, err := o.storages.Checkpoints.Load(ctx, o.deviceID); err == nil && found {
		state.LastPushAt = cp.LastPushedAt
		state.LastPullAt = cp.LastPulledAt
		state.LastSyncAt = laterOf(cp.LastPushedAt, cp.LastPulledAt)
	}

	return state
}

func (o *Orchestrator) ResolveConflict(ctx context.Context, conflictID string, strategy models.ResolutionStrategy, merged json.RawMessage) bool {
	conflict, ok := o.storages.Conflicts.Get(conflictID)
	if !ok {
		o.logger.Warn().Str("conflict_id", conflictID).Msg("resolve: unknown conflict")
		return false
	}

	var winning json.RawMessage
	switch strategy {
	case models.ResolutionClientWins:
		winning = conflict.LocalData
	case models.ResolutionServerWins:
		winning = conflict.ServerData
	case models.ResolutionMerge:
		winning = merged
		if len(winning) == 0 {
			winning = conflict.LocalData
		}
	case models.ResolutionManual:
		winning = merged
	default:
		o.logger.Warn().Str("strategy", string(strategy)).Msg("resolve: unknown strategy")
		return false
	}

	if len(winning) == 0 {
		o.logger.Warn().
			Str("conflict_id", conflictID).
			Str("strategy", string(strategy)).
			Msg("resolve: no payload available for strategy")
		return false
	}

	// The winning payload goes back through the ordinary queue at high
	// priority, so the resolution survives restarts and reaches the server
	// through the same versioned push path as any other change.
	if _, err := o.storages.Queue.Enqueue(conflict.EntityType, conflict.EntityID, models.OperationUpdate, winning, models.PriorityHigh); err != nil {
		o.logger.Error().Err(err).Str("conflict_id", conflictID).Msg("resolve: enqueue corrective change")
		return false
	}

	o.storages.Conflicts.Remove(conflictID)
	o.bus.Emit(EventConflictResolved, conflictID)

	o.logger.Info().
		Str("conflict_id", conflictID).
		Str("entity_type", conflict.EntityType).
		Str("entity_id", conflict.EntityID).
		Str("strategy", string(strategy)).
		Msg("conflict resolved")

	return true
}

func (o *Orchestrator) UpdateSelectiveSync(cfg models.SelectiveSyncConfig) error {
	if err := o.storages.SelectiveSync.Save(cfg); err != nil {
		return err
	}

	o.bus.Emit(EventConfigUpdated, cfg)
	return nil
}

func (o *Orchestrator) CancelChange(id string) bool {
	if !o.storages.Queue.Cancel(id) {
		return false
	}

	o.bus.Emit(EventChangeCancelled, id)
	return true
}

func (o *Orchestrator) RetryChange(id string) bool {
	return o.storages.Queue.Retry(id)
}

func (o *Orchestrator) setStatus(status models.SyncStatus, lastError string) {
	o.mu.Lock()
	o.status = status
	o.lastError = lastError
	o.mu.Unlock()
}

func (o *Orchestrator) emitProgress(phase models.SyncPhase, current, total int) {
	p := models.SyncProgress{Phase: phase, Current: current, Total: total}

	o.mu.Lock()
	o.progress = &p
	o.mu.Unlock()

	o.bus.Emit(EventSyncProgress, p)
}

func laterOf(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.After(*b) {
		return a
	}
	return b
}
