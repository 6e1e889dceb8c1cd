// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/enotebook/eln-sync/models"
)

// SyncNow runs one full push/pull cycle. The syncing flag guarantees at most
// one cycle at a time: a concurrent call observes the flag and returns the
// current snapshot without touching the network.
//
// The checkpoint is written only after both phases finish, so an interrupted
// or failed cycle leaves the cursor where it was and the next cycle replays
// the same window. Replays are safe: pushes are deduplicated by the queue's
// synced flag and pulls by the version gate in the record store.
func (o *Orchestrator) SyncNow(ctx context.Context) models.SyncState {
	o.mu.Lock()
	if o.syncing {
		o.mu.Unlock()
		return o.State(ctx)
	}
	o.syncing = true
	o.status = models.SyncStatusSyncing
	o.lastError = ""
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.syncing = false
		o.progress = nil
		o.mu.Unlock()
	}()

	o.bus.Emit(EventSyncStarted, nil)

	if !o.monitor.Check(ctx) {
		o.setStatus(models.SyncStatusOffline, "")
		o.logger.Debug().Msg("sync skipped: offline")
		return o.completeCycle(ctx)
	}

	filter := NewFilter(o.storages.SelectiveSync.Load())

	pushRes := o.pushPhase(ctx, filter)

	pullRes, err := o.pullPhase(ctx, filter)
	if err != nil {
		o.logger.Error().Err(err).Msg("sync cycle failed")
		o.setStatus(models.SyncStatusError, err.Error())
		return o.completeCycle(ctx)
	}

	now := time.Now().UTC()
	checkpoint := models.SyncCheckpoint{
		DeviceID:     o.deviceID,
		LastPulledAt: &now,
		LastPushedAt: &now,
		Status:       models.SyncStatusSynced,
	}

	if err := o.storages.Checkpoints.Save(ctx, checkpoint); err != nil {
		o.logger.Error().Err(err).Msg("save sync checkpoint")
		o.setStatus(models.SyncStatusError, err.Error())
		return o.completeCycle(ctx)
	}

	if err := o.storages.Queue.GC(o.cfg.RetentionWindow); err != nil {
		o.logger.Warn().Err(err).Msg("change queue gc")
	}

	finalStatus := models.SyncStatusIdle
	if o.storages.Conflicts.Count() > 0 {
		finalStatus = models.SyncStatusConflict
	}
	o.setStatus(finalStatus, "")
	o.logger.Info().
		Int("pushed", pushRes.Pushed).
		Int("conflicts", pushRes.Conflicts).
		Int("pulled", pullRes.Pulled).
		Msg("sync cycle complete")

	return o.completeCycle(ctx)
}

// completeCycle snapshots the final state and publishes it as the cycle's
// terminal event.
func (o *Orchestrator) completeCycle(ctx context.Context) models.SyncState {
	state := o.State(ctx)
	o.bus.Emit(EventSyncComplete, state)
	return state
}

// pushPhase transmits all eligible pending changes in one batched request.
//
// Transport failure is not a cycle failure: every attempted change gets its
// retry counter bumped and stays queued, and the phase reports zero pushes.
// Server-reported version conflicts are materialised into the conflict
// ledger; the conflicted changes are still acknowledged locally so they stop
// being retransmitted verbatim.
func (o *Orchestrator) pushPhase(ctx context.Context, filter *Filter) models.PushResult {
	pending := o.storages.Queue.ListPending()
	if len(pending) == 0 {
		return models.PushResult{}
	}

	eligible := make([]models.PendingChange, 0, len(pending))
	for _, c := range pending {
		if c.RetryCount >= o.cfg.MaxRetries {
			if err := o.storages.Queue.MarkExhausted(c.ID); err != nil {
				o.logger.Warn().Err(err).Str("change_id", c.ID).Msg("mark change exhausted")
			}
			continue
		}

		if !filter.ShouldSync(c.EntityType, decodePayload(c.Payload)) {
			// Out of replication scope: acknowledged locally, intentionally
			// never transmitted.
			if err := o.storages.Queue.MarkSynced(c.ID); err != nil {
				o.logger.Warn().Err(err).Str("change_id", c.ID).Msg("mark filtered change synced")
			}
			continue
		}

		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return models.PushResult{}
	}

	batches := make(map[string][]json.RawMessage)
	byEntityID := make(map[string]models.PendingChange, len(eligible))
	for _, c := range eligible {
		payload := c.Payload
		if len(payload) == 0 {
			// Delete tombstones carry no payload; the server only needs the id.
			payload, _ = json.Marshal(map[string]string{"id": c.EntityID})
		}
		plural := models.EntityTypePlural(c.EntityType)
		batches[plural] = append(batches[plural], payload)
		byEntityID[c.EntityID] = c
	}

	resp, err := o.server.Push(ctx, models.PushRequest{Batches: batches})
	if err != nil {
		o.logger.Warn().Err(err).Int("changes", len(eligible)).Msg("push failed, changes kept for retry")
		for _, c := range eligible {
			if ferr := o.storages.Queue.RecordFailure(c.ID, err.Error()); ferr != nil {
				o.logger.Warn().Err(ferr).Str("change_id", c.ID).Msg("record push failure")
			}
		}
		return models.PushResult{}
	}

	now := time.Now().UTC()
	for _, pc := range resp.Conflicts {
		conflict := models.SyncConflict{
			EntityType:    pc.EntityType,
			EntityID:      pc.ID,
			LocalVersion:  pc.ClientVersion,
			ServerVersion: pc.ServerVersion,
			ServerData:    pc.ServerData,
			DetectedAt:    now,
		}
		if change, ok := byEntityID[pc.ID]; ok {
			conflict.LocalData = change.Payload
			if conflict.EntityType == "" {
				conflict.EntityType = change.EntityType
			}
		}
		if err := o.storages.Conflicts.Add(conflict); err != nil {
			o.logger.Error().Err(err).Str("entity_id", pc.ID).Msg("record sync conflict")
		}
	}

	ids := make([]string, len(eligible))
	for i, c := range eligible {
		ids[i] = c.ID
	}
	if err := o.storages.Queue.MarkSynced(ids...); err != nil {
		o.logger.Error().Err(err).Msg("mark pushed changes synced")
	}
	for i := range eligible {
		o.emitProgress(models.SyncPhasePush, i+1, len(eligible))
	}

	return models.PushResult{
		Pushed:    len(eligible) - len(resp.Conflicts),
		Conflicts: len(resp.Conflicts),
	}
}

// pullPhase fetches records changed since the last checkpoint and merges
// them into the local store. Unlike push, a pull failure fails the cycle: the
// checkpoint must not advance past records that were never applied.
func (o *Orchestrator) pullPhase(ctx context.Context, filter *Filter) (models.PullResult, error) {
	checkpoint, found, err := o.storages.Checkpoints.Load(ctx, o.deviceID)
	if err != nil {
		return models.PullResult{}, fmt.Errorf("load checkpoint: %w", err)
	}

	query := models.PullQuery{}
	if found {
		query.Since = checkpoint.LastPulledAt
	}
	if cfg := filter.Config(); cfg.Enabled {
		query.Projects = cfg.Projects
		query.Modalities = cfg.Modalities
		if cfg.DateRange != nil {
			query.DateStart = &cfg.DateRange.Start
			query.DateEnd = &cfg.DateRange.End
		}
	}

	resp, err := o.server.Pull(ctx, query)
	if err != nil {
		return models.PullResult{}, fmt.Errorf("pull changes: %w", err)
	}

	total := 0
	for _, raws := range resp.Collections {
		total += len(raws)
	}

	applied, current := 0, 0
	for plural, raws := range resp.Collections {
		entityType := models.EntityTypeSingular(plural)
		for _, raw := range raws {
			current++
			o.emitProgress(models.SyncPhasePull, current, total)

			remote, err := models.ParseRemoteRecord(entityType, raw)
			if err != nil {
				o.logger.Warn().Err(err).Str("collection", plural).Msg("skipping malformed record")
				continue
			}

			// The server already scoped the query, but the filter is
			// reapplied locally so a permissive server cannot widen the
			// replication scope.
			if !filter.ShouldSync(entityType, remote.Fields) {
				continue
			}

			ok, err := o.storages.Records.Upsert(ctx, models.EntityRecord{
				EntityType: entityType,
				EntityID:   remote.ID,
				Version:    remote.Version,
				UpdatedAt:  remoteUpdatedAt(remote.Fields),
				Data:       raw,
			})
			if err != nil {
				return models.PullResult{Pulled: applied}, fmt.Errorf("store %s %s: %w", entityType, remote.ID, err)
			}
			if ok {
				applied++
			}
		}
	}

	return models.PullResult{Pulled: applied}, nil
}

// decodePayload mirrors the tolerant decoding of [models.ParseRemoteRecord]
// for outbound payloads: anything that is not a JSON object yields nil, which
// the filter treats as "no field-level evidence".
func decodePayload(payload json.RawMessage) map[string]any {
	if len(payload) == 0 {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil
	}
	return fields
}

func remoteUpdatedAt(fields map[string]any) time.Time {
	if raw, ok := fields["updatedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
