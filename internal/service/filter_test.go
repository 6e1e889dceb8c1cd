package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/enotebook/eln-sync/models"
)

func TestFilter_DisabledPassesEverything(t *testing.T) {
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:  false,
		Projects: []string{"p1"},
	})

	assert.True(t, f.ShouldSync(models.EntityTypeMethod, map[string]any{"project": "p2"}))
	assert.True(t, f.ShouldSync("unknown-type", nil))
}

func TestFilter_EntityTypes(t *testing.T) {
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:     true,
		EntityTypes: []string{models.EntityTypeMethod},
	})

	assert.True(t, f.ShouldSync(models.EntityTypeMethod, nil))
	assert.False(t, f.ShouldSync(models.EntityTypeExperiment, nil))
}

func TestFilter_Projects(t *testing.T) {
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:  true,
		Projects: []string{"p1", "p2"},
	})

	assert.True(t, f.ShouldSync(models.EntityTypeMethod, map[string]any{"project": "p1"}))
	assert.False(t, f.ShouldSync(models.EntityTypeMethod, map[string]any{"project": "p3"}))

	// Absence of the field is not a violation.
	assert.True(t, f.ShouldSync(models.EntityTypeMethod, map[string]any{"name": "untagged"}))
	assert.True(t, f.ShouldSync(models.EntityTypeMethod, nil))
}

func TestFilter_DateRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:   true,
		DateRange: &models.DateRange{Start: start, End: end},
	})

	inside := map[string]any{"createdAt": "2026-03-15T12:00:00Z"}
	before := map[string]any{"createdAt": "2025-12-31T23:59:59Z"}
	after := map[string]any{"createdAt": "2026-07-01T00:00:00Z"}
	onStart := map[string]any{"createdAt": "2026-01-01T00:00:00Z"}

	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, inside))
	assert.False(t, f.ShouldSync(models.EntityTypeExperiment, before))
	assert.False(t, f.ShouldSync(models.EntityTypeExperiment, after))
	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, onStart), "range is inclusive")

	// Unparseable or missing timestamps pass.
	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, map[string]any{"createdAt": "yesterday"}))
	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, map[string]any{}))
}

func TestFilter_ModalitiesAndUsers(t *testing.T) {
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:    true,
		Modalities: []string{"nmr"},
		UserIDs:    []string{"u1"},
	})

	ok := map[string]any{"modality": "nmr", "userId": "u1"}
	wrongModality := map[string]any{"modality": "ms", "userId": "u1"}
	wrongUser := map[string]any{"modality": "nmr", "userId": "u2"}

	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, ok))
	assert.False(t, f.ShouldSync(models.EntityTypeExperiment, wrongModality))
	assert.False(t, f.ShouldSync(models.EntityTypeExperiment, wrongUser))
	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, map[string]any{"modality": "nmr"}))
}

func TestFilter_AttachmentSize(t *testing.T) {
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:           true,
		MaxAttachmentSize: 1024,
	})

	small := map[string]any{"size": float64(512)}
	exact := map[string]any{"size": float64(1024)}
	large := map[string]any{"size": float64(4096)}

	assert.True(t, f.ShouldSync(models.EntityTypeAttachment, small))
	assert.True(t, f.ShouldSync(models.EntityTypeAttachment, exact))
	assert.False(t, f.ShouldSync(models.EntityTypeAttachment, large))

	// The size limit only applies to attachments.
	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, large))
	// An attachment without a size field passes.
	assert.True(t, f.ShouldSync(models.EntityTypeAttachment, map[string]any{}))
}

func TestFilter_CombinedConstraintsAllMustPass(t *testing.T) {
	f := NewFilter(models.SelectiveSyncConfig{
		Enabled:     true,
		Projects:    []string{"p1"},
		EntityTypes: []string{models.EntityTypeExperiment},
		Modalities:  []string{"nmr"},
	})

	assert.True(t, f.ShouldSync(models.EntityTypeExperiment, map[string]any{"project": "p1", "modality": "nmr"}))
	assert.False(t, f.ShouldSync(models.EntityTypeExperiment, map[string]any{"project": "p1", "modality": "ms"}))
	assert.False(t, f.ShouldSync(models.EntityTypeMethod, map[string]any{"project": "p1", "modality": "nmr"}))
}
