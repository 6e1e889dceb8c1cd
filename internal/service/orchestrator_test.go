package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/internal/mock"
	"github.com/enotebook/eln-sync/internal/store"
	"github.com/enotebook/eln-sync/models"
)

// staticMonitor pins the connectivity state so cycle tests stay free of
// probe traffic and transition goroutines.
type staticMonitor struct {
	mu     sync.Mutex
	online bool
}

func (m *staticMonitor) Check(context.Context) bool { return m.Online() }

func (m *staticMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *staticMonitor) setOnline(online bool) {
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
}

type fakeRecords struct {
	mu   sync.Mutex
	rows map[string]models.EntityRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: make(map[string]models.EntityRecord)}
}

func recordKey(entityType, entityID string) string {
	return entityType + "/" + entityID
}

func (f *fakeRecords) Upsert(_ context.Context, rec models.EntityRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.rows[recordKey(rec.EntityType, rec.EntityID)]; ok && rec.Version <= existing.Version {
		return false, nil
	}
	f.rows[recordKey(rec.EntityType, rec.EntityID)] = rec
	return true, nil
}

func (f *fakeRecords) Get(_ context.Context, entityType, entityID string) (models.EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.rows[recordKey(entityType, entityID)]
	if !ok {
		return models.EntityRecord{}, store.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRecords) Version(_ context.Context, entityType, entityID string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.rows[recordKey(entityType, entityID)]
	return rec.Version, ok, nil
}

func (f *fakeRecords) ChangedSince(_ context.Context, entityType string, since time.Time) ([]models.EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.EntityRecord
	for _, rec := range f.rows {
		if rec.EntityType == entityType && rec.UpdatedAt.After(since) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeRecords) CountRecords(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

type fakeCheckpoints struct {
	mu      sync.Mutex
	cps     map[string]models.SyncCheckpoint
	saveErr error
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{cps: make(map[string]models.SyncCheckpoint)}
}

func (f *fakeCheckpoints) Load(_ context.Context, deviceID string) (models.SyncCheckpoint, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp, ok := f.cps[deviceID]
	return cp, ok, nil
}

func (f *fakeCheckpoints) Save(_ context.Context, cp models.SyncCheckpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.cps[cp.DeviceID] = cp
	return nil
}

func (f *fakeCheckpoints) get(deviceID string) (models.SyncCheckpoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp, ok := f.cps[deviceID]
	return cp, ok
}

type orchestratorHarness struct {
	orch        *Orchestrator
	bus         EventBus
	monitor     *staticMonitor
	server      *mock.MockServerAdapter
	storages    *store.Storages
	records     *fakeRecords
	checkpoints *fakeCheckpoints
}

func newOrchestratorHarness(t *testing.T) *orchestratorHarness {
	t.Helper()

	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	srv.EXPECT().SetIdentity("u1", gomock.Any())

	dir := t.TempDir()
	queue, err := store.NewChangeQueue(filepath.Join(dir, "pending-changes.json"), logger.Nop())
	require.NoError(t, err)
	conflicts, err := store.NewConflictLedger(filepath.Join(dir, "sync-conflicts.json"), logger.Nop())
	require.NoError(t, err)

	records := newFakeRecords()
	checkpoints := newFakeCheckpoints()
	storages := &store.Storages{
		Device:        store.NewDeviceIdentity(filepath.Join(dir, "device-id"), logger.Nop()),
		Queue:         queue,
		Conflicts:     conflicts,
		SelectiveSync: store.NewSelectiveSyncStore(filepath.Join(dir, "selective-sync.json"), logger.Nop()),
		Records:       records,
		Checkpoints:   checkpoints,
	}

	cfg := &config.SyncConfig{
		UserID:          "u1",
		MaxRetries:      5,
		RetentionWindow: 24 * time.Hour,
	}

	bus := NewEventBus(logger.Nop())
	monitor := &staticMonitor{}

	return &orchestratorHarness{
		orch:        NewOrchestrator(cfg, storages, srv, monitor, bus, logger.Nop()),
		bus:         bus,
		monitor:     monitor,
		server:      srv,
		storages:    storages,
		records:     records,
		checkpoints: checkpoints,
	}
}

func (h *orchestratorHarness) enqueue(t *testing.T, entityType, entityID string, payload string) string {
	t.Helper()

	id, err := h.storages.Queue.Enqueue(entityType, entityID, models.OperationUpdate, json.RawMessage(payload), models.PriorityNormal)
	require.NoError(t, err)
	return id
}

func TestOrchestrator_SyncNowOffline(t *testing.T) {
	h := newOrchestratorHarness(t)
	h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1"}`)

	var completed []models.SyncState
	h.bus.On(EventSyncComplete, func(payload any) {
		completed = append(completed, payload.(models.SyncState))
	})

	state := h.orch.SyncNow(context.Background())

	assert.Equal(t, models.SyncStatusOffline, state.Status)
	assert.False(t, state.Online)
	assert.Equal(t, 1, state.PendingChanges, "offline cycles must not touch the queue")

	_, found := h.checkpoints.get(h.orch.DeviceID())
	assert.False(t, found, "offline cycles must not write a checkpoint")

	require.Len(t, completed, 1)
	assert.Equal(t, models.SyncStatusOffline, completed[0].Status)
}

func TestOrchestrator_SyncNowPushesAndPulls(t *testing.T) {
	h := newOrchestratorHarness(t)
	h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1","version":2}`)
	h.enqueue(t, models.EntityTypeExperiment, "e1", `{"id":"e1","version":1}`)
	h.monitor.setOnline(true)

	h.server.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			assert.Len(t, req.Batches["methods"], 1)
			assert.Len(t, req.Batches["experiments"], 1)
			return models.PushResponse{Applied: []string{"m1", "e1"}}, nil
		})

	h.server.EXPECT().
		Pull(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.PullQuery) (models.PullResponse, error) {
			assert.Nil(t, q.Since, "first cycle pulls the full history")
			return models.PullResponse{Collections: map[string][]json.RawMessage{
				"methods": {json.RawMessage(`{"id":"m2","version":3,"updatedAt":"2026-08-30T10:00:00Z"}`)},
			}}, nil
		})

	var phases []models.SyncPhase
	h.bus.On(EventSyncProgress, func(payload any) {
		phases = append(phases, payload.(models.SyncProgress).Phase)
	})

	state := h.orch.SyncNow(context.Background())

	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Zero(t, state.PendingChanges)
	assert.NotNil(t, state.LastSyncAt)

	rec, err := h.records.Get(context.Background(), models.EntityTypeMethod, "m2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Version)

	cp, found := h.checkpoints.get(h.orch.DeviceID())
	require.True(t, found)
	assert.Equal(t, models.SyncStatusSynced, cp.Status)
	assert.NotNil(t, cp.LastPulledAt)

	assert.Contains(t, phases, models.SyncPhasePush)
	assert.Contains(t, phases, models.SyncPhasePull)
}

func TestOrchestrator_SecondCycleUsesCheckpoint(t *testing.T) {
	h := newOrchestratorHarness(t)
	h.monitor.setOnline(true)

	empty := models.PullResponse{Collections: map[string][]json.RawMessage{}}
	gomock.InOrder(
		h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(empty, nil),
		h.server.EXPECT().
			Pull(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q models.PullQuery) (models.PullResponse, error) {
				assert.NotNil(t, q.Since, "second cycle must pull incrementally")
				return empty, nil
			}),
	)

	h.orch.SyncNow(context.Background())
	h.orch.SyncNow(context.Background())
}

func TestOrchestrator_PushConflictMaterialised(t *testing.T) {
	h := newOrchestratorHarness(t)
	localPayload := `{"id":"m1","version":2,"title":"local"}`
	h.enqueue(t, models.EntityTypeMethod, "m1", localPayload)
	h.monitor.setOnline(true)

	h.server.EXPECT().Push(gomock.Any(), gomock.Any()).Return(models.PushResponse{
		Conflicts: []models.PushConflict{{
			ID:            "m1",
			ServerVersion: 5,
			ClientVersion: 2,
			ServerData:    json.RawMessage(`{"id":"m1","version":5,"title":"server"}`),
		}},
	}, nil)
	h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(models.PullResponse{}, nil)

	state := h.orch.SyncNow(context.Background())

	assert.Equal(t, models.SyncStatusConflict, state.Status)
	assert.Equal(t, 1, state.Conflicts)
	assert.Zero(t, state.PendingChanges, "conflicted changes are acknowledged, not retried verbatim")

	conflicts := h.storages.Conflicts.List()
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.EntityTypeMethod, conflicts[0].EntityType)
	assert.Equal(t, "m1", conflicts[0].EntityID)
	assert.Equal(t, int64(2), conflicts[0].LocalVersion)
	assert.Equal(t, int64(5), conflicts[0].ServerVersion)
	assert.JSONEq(t, localPayload, string(conflicts[0].LocalData))

	cp, found := h.checkpoints.get(h.orch.DeviceID())
	require.True(t, found)
	assert.Equal(t, models.SyncStatusSynced, cp.Status, "the checkpoint records completion, the conflict lives in the ledger")
}

func TestOrchestrator_PushTransportFailureKeepsChanges(t *testing.T) {
	h := newOrchestratorHarness(t)
	id := h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1"}`)
	h.monitor.setOnline(true)

	h.server.EXPECT().Push(gomock.Any(), gomock.Any()).Return(models.PushResponse{}, errors.New("connection reset"))
	h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(models.PullResponse{}, nil)

	state := h.orch.SyncNow(context.Background())

	// A failed push is retried next cycle; it does not fail the cycle.
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Equal(t, 1, state.PendingChanges)

	pending := h.storages.Queue.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Contains(t, pending[0].LastError, "connection reset")
}

func TestOrchestrator_PullFailureFailsCycle(t *testing.T) {
	h := newOrchestratorHarness(t)
	h.monitor.setOnline(true)

	h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(models.PullResponse{}, errors.New("gateway timeout"))

	state := h.orch.SyncNow(context.Background())

	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Contains(t, state.LastError, "gateway timeout")

	_, found := h.checkpoints.get(h.orch.DeviceID())
	assert.False(t, found, "a failed pull must not advance the checkpoint")
}

func TestOrchestrator_RetryCeiling(t *testing.T) {
	h := newOrchestratorHarness(t)
	id := h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1"}`)
	for i := 0; i < 5; i++ {
		require.NoError(t, h.storages.Queue.RecordFailure(id, "connection reset"))
	}
	h.monitor.setOnline(true)

	// Push is never attempted: the only pending change hit the ceiling.
	h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(models.PullResponse{}, nil)

	state := h.orch.SyncNow(context.Background())

	assert.Equal(t, 1, state.PendingChanges, "an exhausted change stays queued")

	pending := h.storages.Queue.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, store.ExhaustedMessage, pending[0].LastError)

	// A manual retry makes it eligible again.
	assert.True(t, h.orch.RetryChange(id))
	pending = h.storages.Queue.ListPending()
	assert.Zero(t, pending[0].RetryCount)
	assert.Empty(t, pending[0].LastError)
}

func TestOrchestrator_SelectiveSyncScopesCycle(t *testing.T) {
	h := newOrchestratorHarness(t)
	require.NoError(t, h.storages.SelectiveSync.Save(models.SelectiveSyncConfig{
		Enabled:     true,
		Projects:    []string{"p1"},
		EntityTypes: []string{models.EntityTypeMethod, models.EntityTypeExperiment, models.EntityTypeAttachment},
	}))
	h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1","project":"p1"}`)
	h.enqueue(t, models.EntityTypeMethod, "m2", `{"id":"m2","project":"p2"}`)
	h.monitor.setOnline(true)

	h.server.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			require.Len(t, req.Batches["methods"], 1, "out-of-scope changes must not be transmitted")
			assert.JSONEq(t, `{"id":"m1","project":"p1"}`, string(req.Batches["methods"][0]))
			return models.PushResponse{Applied: []string{"m1"}}, nil
		})

	h.server.EXPECT().
		Pull(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.PullQuery) (models.PullResponse, error) {
			assert.Equal(t, []string{"p1"}, q.Projects)
			// A record outside the scope sneaking into the response is
			// filtered locally.
			return models.PullResponse{Collections: map[string][]json.RawMessage{
				"methods": {
					json.RawMessage(`{"id":"m3","version":1,"project":"p1"}`),
					json.RawMessage(`{"id":"m4","version":1,"project":"p2"}`),
				},
			}}, nil
		})

	state := h.orch.SyncNow(context.Background())

	assert.Zero(t, state.PendingChanges, "the filtered change is acknowledged locally")

	_, err := h.records.Get(context.Background(), models.EntityTypeMethod, "m3")
	assert.NoError(t, err)
	_, err = h.records.Get(context.Background(), models.EntityTypeMethod, "m4")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestOrchestrator_AtMostOneCycle(t *testing.T) {
	h := newOrchestratorHarness(t)
	h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1"}`)
	h.monitor.setOnline(true)

	entered := make(chan struct{})
	release := make(chan struct{})

	h.server.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.PushRequest) (models.PushResponse, error) {
			close(entered)
			<-release
			return models.PushResponse{Applied: []string{"m1"}}, nil
		})
	h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(models.PullResponse{}, nil)

	done := make(chan models.SyncState, 1)
	go func() { done <- h.orch.SyncNow(context.Background()) }()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first cycle never reached the push phase")
	}

	// The overlapping call returns a snapshot without starting a second
	// cycle; the single Push expectation proves no second push happened.
	state := h.orch.SyncNow(context.Background())
	assert.Equal(t, models.SyncStatusSyncing, state.Status)

	close(release)

	select {
	case first := <-done:
		assert.Equal(t, models.SyncStatusIdle, first.Status)
	case <-time.After(time.Second):
		t.Fatal("first cycle never finished")
	}
}

func TestOrchestrator_ResolveConflict(t *testing.T) {
	local := json.RawMessage(`{"id":"m1","title":"local"}`)
	server := json.RawMessage(`{"id":"m1","title":"server"}`)
	merged := json.RawMessage(`{"id":"m1","title":"merged"}`)

	tests := []struct {
		name       string
		strategy   models.ResolutionStrategy
		serverData json.RawMessage
		merged     json.RawMessage
		resolved   bool
		want       json.RawMessage
	}{
		{name: "client wins", strategy: models.ResolutionClientWins, serverData: server, resolved: true, want: local},
		{name: "server wins", strategy: models.ResolutionServerWins, serverData: server, resolved: true, want: server},
		{name: "server wins without server data", strategy: models.ResolutionServerWins, resolved: false},
		{name: "merge", strategy: models.ResolutionMerge, serverData: server, merged: merged, resolved: true, want: merged},
		{name: "merge falls back to local", strategy: models.ResolutionMerge, serverData: server, resolved: true, want: local},
		{name: "manual requires data", strategy: models.ResolutionManual, serverData: server, resolved: false},
		{name: "unknown strategy", strategy: "coin-flip", serverData: server, resolved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newOrchestratorHarness(t)
			require.NoError(t, h.storages.Conflicts.Add(models.SyncConflict{
				EntityType: models.EntityTypeMethod,
				EntityID:   "m1",
				LocalData:  local,
				ServerData: tt.serverData,
				DetectedAt: time.Now().UTC(),
			}))
			conflictID := h.storages.Conflicts.List()[0].ID

			resolvedEvents := 0
			h.bus.On(EventConflictResolved, func(any) { resolvedEvents++ })

			got := h.orch.ResolveConflict(context.Background(), conflictID, tt.strategy, tt.merged)
			assert.Equal(t, tt.resolved, got)

			if !tt.resolved {
				assert.Equal(t, 1, h.storages.Conflicts.Count(), "a failed resolution keeps the conflict")
				assert.Zero(t, resolvedEvents)
				return
			}

			assert.Zero(t, h.storages.Conflicts.Count())
			assert.Equal(t, 1, resolvedEvents)

			pending := h.storages.Queue.ListPending()
			require.Len(t, pending, 1)
			assert.Equal(t, models.OperationUpdate, pending[0].Operation)
			assert.Equal(t, models.PriorityHigh, pending[0].Priority)
			assert.JSONEq(t, string(tt.want), string(pending[0].Payload))
		})
	}
}

func TestOrchestrator_ResolveUnknownConflict(t *testing.T) {
	h := newOrchestratorHarness(t)

	assert.False(t, h.orch.ResolveConflict(context.Background(), "missing", models.ResolutionClientWins, nil))
}

func TestOrchestrator_CancelChange(t *testing.T) {
	h := newOrchestratorHarness(t)
	id := h.enqueue(t, models.EntityTypeMethod, "m1", `{"id":"m1"}`)

	var cancelled []any
	h.bus.On(EventChangeCancelled, func(payload any) { cancelled = append(cancelled, payload) })

	assert.True(t, h.orch.CancelChange(id))
	assert.Zero(t, h.storages.Queue.PendingCount())
	assert.Equal(t, []any{id}, cancelled)

	assert.False(t, h.orch.CancelChange("missing"))
	assert.Len(t, cancelled, 1)
}

func TestOrchestrator_UpdateSelectiveSync(t *testing.T) {
	h := newOrchestratorHarness(t)

	var updates []any
	h.bus.On(EventConfigUpdated, func(payload any) { updates = append(updates, payload) })

	cfg := models.SelectiveSyncConfig{Enabled: true, Projects: []string{"p1"}}
	require.NoError(t, h.orch.UpdateSelectiveSync(cfg))

	stored := h.storages.SelectiveSync.Load()
	assert.True(t, stored.Enabled)
	assert.Equal(t, []string{"p1"}, stored.Projects)

	require.Len(t, updates, 1)
	assert.Equal(t, cfg, updates[0])
}

func TestOrchestrator_QueueChangeTriggersCycleWhenOnline(t *testing.T) {
	h := newOrchestratorHarness(t)
	h.monitor.setOnline(true)

	h.server.EXPECT().Push(gomock.Any(), gomock.Any()).Return(models.PushResponse{Applied: []string{"m1"}}, nil)
	h.server.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(models.PullResponse{}, nil)

	complete := make(chan struct{})
	h.bus.On(EventSyncComplete, func(any) { close(complete) })

	_, err := h.orch.QueueChange(models.EntityTypeMethod, "m1", models.OperationUpdate, json.RawMessage(`{"id":"m1"}`), models.PriorityNormal)
	require.NoError(t, err)

	select {
	case <-complete:
	case <-time.After(time.Second):
		t.Fatal("enqueue did not trigger a sync cycle")
	}

	assert.Zero(t, h.storages.Queue.PendingCount())
}

func TestOrchestrator_StateEmptyEngine(t *testing.T) {
	h := newOrchestratorHarness(t)

	state := h.orch.State(context.Background())

	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.False(t, state.Online)
	assert.NotEmpty(t, state.DeviceID)
	assert.Zero(t, state.PendingChanges)
	assert.Zero(t, state.Conflicts)
	assert.Nil(t, state.LastSyncAt)
}
