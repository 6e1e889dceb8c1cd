// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"time"

	"github.com/enotebook/eln-sync/models"
)

// Filter evaluates the selective-sync predicate against entity payloads. A
// Filter is an immutable snapshot of one [models.SelectiveSyncConfig]; build
// a fresh one per sync cycle so mid-cycle config updates take effect on the
// next cycle only.
//
// Every dimension follows the same rule: a payload that lacks the field a
// constraint targets passes that constraint. Absence of evidence is not
// evidence of exclusion; only a present, violating value excludes an entity.
type Filter struct {
	cfg        models.SelectiveSyncConfig
	projects   map[string]struct{}
	types      map[string]struct{}
	modalities map[string]struct{}
	userIDs    map[string]struct{}
}

// NewFilter builds a [Filter] from one configuration snapshot.
func NewFilter(cfg models.SelectiveSyncConfig) *Filter {
	return &Filter{
		cfg:        cfg,
		projects:   toSet(cfg.Projects),
		types:      toSet(cfg.EntityTypes),
		modalities: toSet(cfg.Modalities),
		userIDs:    toSet(cfg.UserIDs),
	}
}

// Config returns the configuration snapshot this filter was built from.
func (f *Filter) Config() models.SelectiveSyncConfig {
	return f.cfg
}

// ShouldSync reports whether an entity of the given type with the given
// decoded payload falls inside the replication scope. With filtering disabled
// everything is in scope. fields may be nil (e.g. a delete tombstone with no
// payload); such entities pass every field-level constraint.
func (f *Filter) ShouldSync(entityType string, fields map[string]any) bool {
	if !f.cfg.Enabled {
		return true
	}

	if len(f.types) > 0 {
		if _, ok := f.types[entityType]; !ok {
			return false
		}
	}

	if !f.passesSet(f.projects, fields, "project") {
		return false
	}
	if !f.passesSet(f.modalities, fields, "modality") {
		return false
	}
	if !f.passesSet(f.userIDs, fields, "userId") {
		return false
	}
	if !f.passesDateRange(fields) {
		return false
	}
	if !f.passesAttachmentSize(entityType, fields) {
		return false
	}

	return true
}

func (f *Filter) passesSet(set map[string]struct{}, fields map[string]any, key string) bool {
	if len(set) == 0 {
		return true
	}

	value, ok := fields[key].(string)
	if !ok || value == "" {
		return true
	}

	_, ok = set[value]
	return ok
}

func (f *Filter) passesDateRange(fields map[string]any) bool {
	if f.cfg.DateRange == nil {
		return true
	}

	raw, ok := fields["createdAt"].(string)
	if !ok || raw == "" {
		return true
	}

	createdAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// An unparseable timestamp is treated as absent rather than
		// excluding the entity from sync.
		return true
	}

	if createdAt.Before(f.cfg.DateRange.Start) {
		return false
	}
	return !createdAt.After(f.cfg.DateRange.End)
}

func (f *Filter) passesAttachmentSize(entityType string, fields map[string]any) bool {
	if f.cfg.MaxAttachmentSize <= 0 || entityType != models.EntityTypeAttachment {
		return true
	}

	size, ok := fields["size"].(float64)
	if !ok {
		return true
	}

	return int64(size) <= f.cfg.MaxAttachmentSize
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
