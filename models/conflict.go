package models

import (
	"encoding/json"
	"time"
)

// ResolutionStrategy selects which payload wins when a [SyncConflict] is
// resolved.
type ResolutionStrategy string

const (
	// ResolutionClientWins re-submits the local payload.
	ResolutionClientWins ResolutionStrategy = "client-wins"
	// ResolutionServerWins re-submits the server payload.
	ResolutionServerWins ResolutionStrategy = "server-wins"
	// ResolutionMerge re-submits caller-merged data, falling back to the
	// local payload when no merged data is supplied.
	ResolutionMerge ResolutionStrategy = "merge"
	// ResolutionManual re-submits caller-supplied data; the caller must
	// provide it.
	ResolutionManual ResolutionStrategy = "manual"
)

// FieldConflict is one entry of an optional structured diff between the local
// and server payloads of a conflicted entity.
type FieldConflict struct {
	Field       string `json:"field"`
	LocalValue  any    `json:"localValue,omitempty"`
	ServerValue any    `json:"serverValue,omitempty"`
}

// SyncConflict records a version disagreement between local and server state
// of a single entity, detected during the push phase. It stays in the conflict
// ledger until an explicit resolution removes it.
//
// ServerData may be empty when the push response did not include the server
// payload; resolution strategies that depend on it fall back per their
// documented semantics.
type SyncConflict struct {
	ID             string              `json:"id"`
	EntityType     string              `json:"entityType"`
	EntityID       string              `json:"entityId"`
	LocalVersion   int64               `json:"localVersion"`
	ServerVersion  int64               `json:"serverVersion"`
	LocalData      json.RawMessage     `json:"localData,omitempty"`
	ServerData     json.RawMessage     `json:"serverData,omitempty"`
	FieldConflicts []FieldConflict     `json:"fieldConflicts,omitempty"`
	DetectedAt     time.Time           `json:"detectedAt"`
	Resolution     *ResolutionStrategy `json:"resolution,omitempty"`
	ResolvedAt     *time.Time          `json:"resolvedAt,omitempty"`
}
