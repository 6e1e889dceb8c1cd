package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityRecord is a locally stored snapshot of a domain record. Data is the
// full server payload, kept opaque; EntityType, EntityID, Version and
// UpdatedAt are the only fields the sync engine reads structurally.
type EntityRecord struct {
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Version    int64           `json:"version"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Data       json.RawMessage `json:"data"`
}

// RemoteRecord is one record returned by the pull endpoint: the raw payload
// plus the identifying fields extracted from it. Fields holds the decoded
// payload for selective-sync predicate evaluation.
type RemoteRecord struct {
	EntityType string
	ID         string
	Version    int64
	Raw        json.RawMessage
	Fields     map[string]any
}

// ParseRemoteRecord decodes one raw pull-phase record. Every record must carry
// at least "id"; a missing or non-numeric "version" defaults to 1, matching
// the server's behaviour for records created before versioning.
func ParseRemoteRecord(entityType string, raw json.RawMessage) (RemoteRecord, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return RemoteRecord{}, fmt.Errorf("decode %s record: %w", entityType, err)
	}

	id, _ := fields["id"].(string)
	if id == "" {
		return RemoteRecord{}, fmt.Errorf("%s record has no id", entityType)
	}

	version := int64(1)
	if v, ok := fields["version"].(float64); ok {
		version = int64(v)
	}

	return RemoteRecord{
		EntityType: entityType,
		ID:         id,
		Version:    version,
		Raw:        raw,
		Fields:     fields,
	}, nil
}
