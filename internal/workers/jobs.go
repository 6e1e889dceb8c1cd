// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/enotebook/eln-sync/internal/service"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultSyncInterval  = 5 * time.Minute
)

// tickerJob is the shared Start/Stop machinery: a goroutine that invokes fn
// on every tick until the context is cancelled or Stop is called.
type tickerJob struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (j *tickerJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.fn(jobCtx)
			}
		}
	}()
}

func (j *tickerJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// NewProbeJob creates the connectivity probe: it checks server reachability
// every interval so online/offline transitions are noticed even when nothing
// else touches the network. A non-positive interval defaults to 30 seconds.
//
// Reconnection handling lives in the monitor itself: an offline-to-online
// transition observed by the probe triggers a sync cycle through the
// monitor's hook.
func NewProbeJob(monitor service.ConnectivityMonitor, interval time.Duration) Job {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &tickerJob{
		interval: interval,
		fn: func(ctx context.Context) {
			monitor.Check(ctx)
		},
	}
}

// NewSyncJob creates the periodic sync trigger: a safety net that runs a full
// cycle every interval, catching anything the event-driven triggers missed.
// A non-positive interval defaults to 5 minutes.
func NewSyncJob(orchestrator service.SyncOrchestrator, interval time.Duration) Job {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &tickerJob{
		interval: interval,
		fn: func(ctx context.Context) {
			orchestrator.SyncNow(ctx)
		},
	}
}
