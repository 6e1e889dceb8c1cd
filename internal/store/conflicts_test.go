package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

func newTestLedger(t *testing.T) (ConflictLedger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sync-conflicts.json")

	l, err := NewConflictLedger(path, logger.Nop())
	require.NoError(t, err)
	return l, path
}

func TestConflictLedger_AddAndList(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.Add(models.SyncConflict{
		EntityType:    "method",
		EntityID:      "m1",
		LocalVersion:  3,
		ServerVersion: 5,
		LocalData:     json.RawMessage(`{"title":"local"}`),
		DetectedAt:    time.Now().UTC(),
	}))

	conflicts := l.List()
	require.Len(t, conflicts, 1)
	assert.NotEmpty(t, conflicts[0].ID)
	assert.Equal(t, int64(5), conflicts[0].ServerVersion)
	assert.Equal(t, 1, l.Count())
}

func TestConflictLedger_ListSkipsResolved(t *testing.T) {
	l, _ := newTestLedger(t)

	resolved := models.ResolutionClientWins
	require.NoError(t, l.Add(models.SyncConflict{ID: "c1", EntityID: "m1", Resolution: &resolved}))
	require.NoError(t, l.Add(models.SyncConflict{ID: "c2", EntityID: "m2"}))

	conflicts := l.List()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "c2", conflicts[0].ID)
	assert.Equal(t, 1, l.Count())
}

func TestConflictLedger_GetAndRemove(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.Add(models.SyncConflict{ID: "c1", EntityID: "m1"}))

	c, ok := l.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "m1", c.EntityID)

	assert.True(t, l.Remove("c1"))
	assert.False(t, l.Remove("c1"))

	_, ok = l.Get("c1")
	assert.False(t, ok)
}

func TestConflictLedger_SurvivesRestart(t *testing.T) {
	l, path := newTestLedger(t)
	require.NoError(t, l.Add(models.SyncConflict{ID: "c1", EntityType: "experiment", EntityID: "e1"}))

	reopened, err := NewConflictLedger(path, logger.Nop())
	require.NoError(t, err)

	conflicts := reopened.List()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "e1", conflicts[0].EntityID)
}

func TestConflictLedger_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-conflicts.json")
	require.NoError(t, os.WriteFile(path, []byte("[broken"), 0o600))

	l, err := NewConflictLedger(path, logger.Nop())
	require.NoError(t, err)
	assert.Empty(t, l.List())
}
