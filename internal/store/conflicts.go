package store

import (
	"fmt"
	"sync"

	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

type conflictLedger struct {
	path   string
	logger *logger.Logger

	mu        sync.Mutex
	conflicts []models.SyncConflict
}

// NewConflictLedger constructs a [ConflictLedger] persisted at path. Existing
// entries are loaded immediately; a corrupt file starts an empty ledger with
// a logged warning.
func NewConflictLedger(path string, logger *logger.Logger) (ConflictLedger, error) {
	l := &conflictLedger{path: path, logger: logger}

	if err := loadJSONFile(path, &l.conflicts, logger); err != nil {
		return nil, fmt.Errorf("load conflict ledger: %w", err)
	}

	return l, nil
}

func (l *conflictLedger) Add(conflict models.SyncConflict) error {
	if conflict.ID == "" {
		conflict.ID = newID()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.conflicts = append(l.conflicts, conflict)
	if err := l.persistLocked(); err != nil {
		return fmt.Errorf("persist conflict ledger: %w", err)
	}

	l.logger.Debug().
		Str("conflict_id", conflict.ID).
		Str("entity_type", conflict.EntityType).
		Str("entity_id", conflict.EntityID).
		Int64("local_version", conflict.LocalVersion).
		Int64("server_version", conflict.ServerVersion).
		Msg("conflict recorded")

	return nil
}

func (l *conflictLedger) List() []models.SyncConflict {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.SyncConflict, 0, len(l.conflicts))
	for _, c := range l.conflicts {
		if c.Resolution == nil {
			out = append(out, c)
		}
	}
	return out
}

func (l *conflictLedger) Get(id string) (models.SyncConflict, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.conflicts {
		if c.ID == id {
			return c, true
		}
	}
	return models.SyncConflict{}, false
}

func (l *conflictLedger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.conflicts {
		if l.conflicts[i].ID == id {
			l.conflicts = append(l.conflicts[:i], l.conflicts[i+1:]...)
			if err := l.persistLocked(); err != nil {
				l.logger.Error().Err(err).Str("conflict_id", id).Msg("persist after conflict removal")
			}
			return true
		}
	}

	return false
}

func (l *conflictLedger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, c := range l.conflicts {
		if c.Resolution == nil {
			n++
		}
	}
	return n
}

func (l *conflictLedger) persistLocked() error {
	return writeJSONFileAtomic(l.path, l.conflicts)
}
