package models

import "time"

// SyncStatus is the lifecycle state of the sync engine.
type SyncStatus string

const (
	SyncStatusIdle     SyncStatus = "idle"
	SyncStatusSyncing  SyncStatus = "syncing"
	SyncStatusConflict SyncStatus = "conflict"
	SyncStatusError    SyncStatus = "error"
	SyncStatusOffline  SyncStatus = "offline"

	// SyncStatusSynced is only persisted inside a [SyncCheckpoint] to record
	// a completed cycle; the live engine reports one of the states above.
	SyncStatusSynced SyncStatus = "synced"
)

// SyncPhase names the currently running phase of a sync cycle for progress
// reporting.
type SyncPhase string

const (
	SyncPhasePush SyncPhase = "push"
	SyncPhasePull SyncPhase = "pull"
)

// SyncProgress is an incremental counter published on the event bus after
// each processed item, so observers get feedback without polling.
type SyncProgress struct {
	Phase   SyncPhase `json:"phase"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
}

// SyncCheckpoint is the small persisted record of the last successful cycle,
// keyed by device id. It lives in the local database rather than a flat file.
type SyncCheckpoint struct {
	DeviceID     string     `json:"deviceId"`
	LastPulledAt *time.Time `json:"lastPulledAt,omitempty"`
	LastPushedAt *time.Time `json:"lastPushedAt,omitempty"`
	Status       SyncStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
}

// SyncState is a read-only snapshot of the engine, recomputed per call from
// the queue, the conflict ledger and the persisted checkpoint. It is never
// persisted as a unit.
type SyncState struct {
	Status         SyncStatus    `json:"status"`
	Online         bool          `json:"online"`
	DeviceID       string        `json:"deviceId"`
	LastSyncAt     *time.Time    `json:"lastSyncAt,omitempty"`
	LastPushAt     *time.Time    `json:"lastPushAt,omitempty"`
	LastPullAt     *time.Time    `json:"lastPullAt,omitempty"`
	PendingChanges int           `json:"pendingChanges"`
	PendingUploads int           `json:"pendingUploads"`
	Conflicts      int           `json:"conflicts"`
	LastError      string        `json:"lastError,omitempty"`
	Progress       *SyncProgress `json:"progress,omitempty"`
}

// PushResult summarises one push phase.
type PushResult struct {
	Pushed    int
	Conflicts int
}

// PullResult summarises one pull phase.
type PullResult struct {
	Pulled int
}
