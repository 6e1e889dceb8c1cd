package models

import "time"

// DateRange bounds entity creation timestamps, inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SelectiveSyncConfig is the user-controlled replication scope. When Enabled
// is false every entity is in scope regardless of the other fields.
//
// Empty sets mean "no constraint" for their dimension. MaxAttachmentSize
// applies only to attachment-type entities.
type SelectiveSyncConfig struct {
	Enabled           bool       `json:"enabled"`
	Projects          []string   `json:"projects,omitempty"`
	EntityTypes       []string   `json:"entityTypes,omitempty"`
	DateRange         *DateRange `json:"dateRange,omitempty"`
	Modalities        []string   `json:"modalities,omitempty"`
	UserIDs           []string   `json:"userIds,omitempty"`
	MaxAttachmentSize int64      `json:"maxAttachmentSize,omitempty"`
}

// DefaultSelectiveSyncConfig returns the replication scope used when the user
// has not configured one: filtering disabled, with the standard entity types
// pre-listed so enabling the switch starts from a sensible set.
func DefaultSelectiveSyncConfig() SelectiveSyncConfig {
	return SelectiveSyncConfig{
		Enabled:     false,
		EntityTypes: []string{EntityTypeMethod, EntityTypeExperiment, EntityTypeAttachment},
	}
}
