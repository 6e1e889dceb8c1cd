package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

// ExhaustedMessage is the lastError stored on a change that has hit the
// retry ceiling. Such changes stay in the queue until a manual retry or
// cancel.
const ExhaustedMessage = "Max retries exceeded"

type changeQueue struct {
	path   string
	logger *logger.Logger

	// mu is held across every load-mutate-save sequence. The enqueue path is
	// called from arbitrary call sites while the orchestrator mutates the
	// same entries during push, so a bare read-compute-write would lose
	// updates.
	mu      sync.Mutex
	changes []models.PendingChange

	// onEnqueue, when set, is invoked after a successful enqueue with the
	// new change id. The orchestrator uses it to trigger an asynchronous
	// sync cycle; it must not block.
	onEnqueue func(id string)
}

// NewChangeQueue constructs a [ChangeQueue] persisted at path. Existing
// entries are loaded immediately; a corrupt file starts an empty queue with a
// logged warning.
func NewChangeQueue(path string, logger *logger.Logger) (ChangeQueue, error) {
	q := &changeQueue{path: path, logger: logger}

	if err := loadJSONFile(path, &q.changes, logger); err != nil {
		return nil, fmt.Errorf("load change queue: %w", err)
	}

	return q, nil
}

// SetEnqueueHook registers the fire-and-forget callback run after each
// successful enqueue. Exposed on the concrete type because only the wiring
// layer calls it, before any concurrent use of the queue.
func (q *changeQueue) SetEnqueueHook(hook func(id string)) {
	q.onEnqueue = hook
}

func (q *changeQueue) Enqueue(entityType, entityID string, op models.Operation, payload json.RawMessage, priority models.Priority) (string, error) {
	if priority == "" {
		priority = models.PriorityNormal
	}

	change := models.PendingChange{
		ID:         newID(),
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  op,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
		Priority:   priority,
	}

	q.mu.Lock()
	q.changes = append(q.changes, change)
	err := q.persistLocked()
	q.mu.Unlock()

	if err != nil {
		return "", fmt.Errorf("persist change queue: %w", err)
	}

	q.logger.Debug().
		Str("change_id", change.ID).
		Str("entity_type", entityType).
		Str("entity_id", entityID).
		Str("operation", string(op)).
		Msg("change queued")

	if q.onEnqueue != nil {
		q.onEnqueue(change.ID)
	}

	return change.ID, nil
}

func (q *changeQueue) ListPending() []models.PendingChange {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]models.PendingChange, 0, len(q.changes))
	for _, c := range q.changes {
		if !c.Synced {
			pending = append(pending, c)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority.Rank() != pending[j].Priority.Rank() {
			return pending[i].Priority.Rank() < pending[j].Priority.Rank()
		}
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})

	return pending
}

func (q *changeQueue) MarkSynced(ids ...string) error {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.changes {
		if _, ok := set[q.changes[i].ID]; ok {
			q.changes[i].Synced = true
		}
	}

	return q.persistLocked()
}

func (q *changeQueue) RecordFailure(id, errorMessage string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.changes {
		if q.changes[i].ID == id {
			q.changes[i].RetryCount++
			q.changes[i].LastError = errorMessage
			return q.persistLocked()
		}
	}

	return fmt.Errorf("%w: %s", ErrChangeNotFound, id)
}

func (q *changeQueue) MarkExhausted(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.changes {
		if q.changes[i].ID == id {
			if q.changes[i].LastError == ExhaustedMessage {
				return nil
			}
			q.changes[i].LastError = ExhaustedMessage
			return q.persistLocked()
		}
	}

	return fmt.Errorf("%w: %s", ErrChangeNotFound, id)
}

func (q *changeQueue) Retry(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.changes {
		if q.changes[i].ID == id {
			q.changes[i].RetryCount = 0
			q.changes[i].LastError = ""
			if err := q.persistLocked(); err != nil {
				q.logger.Error().Err(err).Str("change_id", id).Msg("persist after retry reset")
			}
			return true
		}
	}

	return false
}

func (q *changeQueue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.changes {
		if q.changes[i].ID == id {
			q.changes = append(q.changes[:i], q.changes[i+1:]...)
			if err := q.persistLocked(); err != nil {
				q.logger.Error().Err(err).Str("change_id", id).Msg("persist after cancel")
			}
			return true
		}
	}

	return false
}

func (q *changeQueue) GC(retention time.Duration) error {
	cutoff := time.Now().UTC().Add(-retention)

	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.changes[:0]
	removed := 0
	for _, c := range q.changes {
		if c.Synced && c.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	q.changes = kept

	if removed == 0 {
		return nil
	}

	q.logger.Debug().Int("removed", removed).Msg("change queue garbage collected")
	return q.persistLocked()
}

func (q *changeQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, c := range q.changes {
		if !c.Synced {
			n++
		}
	}
	return n
}

func (q *changeQueue) persistLocked() error {
	return writeJSONFileAtomic(q.path, q.changes)
}
