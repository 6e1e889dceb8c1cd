package models

import (
	"encoding/json"
	"time"
)

// Operation identifies the kind of mutation a [PendingChange] carries.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Priority orders pending changes for transmission. It never causes a change
// to be dropped, only reordered.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank returns the transmission rank of the priority: lower ranks are sent
// first. Unknown values sort after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// PendingChange is one locally originated mutation awaiting transmission to
// the server. The sync engine treats Payload as opaque: only EntityType and
// EntityID are structurally meaningful to it.
type PendingChange struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Operation  Operation       `json:"operation"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Priority   Priority        `json:"priority"`
	Synced     bool            `json:"synced"`
	RetryCount int             `json:"retryCount"`
	LastError  string          `json:"lastError,omitempty"`
}
