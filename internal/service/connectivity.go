// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"context"
	"sync"

	"github.com/enotebook/eln-sync/internal/adapter"
	"github.com/enotebook/eln-sync/internal/logger"
)

type connectivityMonitor struct {
	adapter adapter.ServerAdapter
	bus     EventBus
	logger  *logger.Logger

	mu     sync.Mutex
	online bool

	// onOnline, when set, runs on a fresh goroutine after every
	// offline-to-online transition. The wiring layer points it at the
	// orchestrator's sync trigger.
	onOnline func()
}

// NewConnectivityMonitor constructs a [ConnectivityMonitor] probing through
// srv. A nil srv means no server is configured: the monitor then reports
// offline forever without probing.
//
// The monitor starts offline; the first successful probe transitions it
// online.
func NewConnectivityMonitor(srv adapter.ServerAdapter, bus EventBus, logger *logger.Logger) ConnectivityMonitor {
	return &connectivityMonitor{
		adapter: srv,
		bus:     bus,
		logger:  logger,
	}
}

// SetOnlineHook registers the callback run after each offline-to-online
// transition. Exposed on the concrete type because only the wiring layer
// calls it, before the monitor is shared between goroutines.
func (m *connectivityMonitor) SetOnlineHook(hook func()) {
	m.onOnline = hook
}

func (m *connectivityMonitor) Check(ctx context.Context) bool {
	if m.adapter == nil {
		return false
	}

	err := m.adapter.Health(ctx)
	online := err == nil

	m.mu.Lock()
	transitioned := online != m.online
	m.online = online
	m.mu.Unlock()

	if !transitioned {
		return online
	}

	if online {
		m.logger.Info().Msg("server reachable, going online")
		m.bus.Emit(EventOnline, nil)
		if m.onOnline != nil {
			go m.onOnline()
		}
	} else {
		m.logger.Info().Err(err).Msg("server unreachable, going offline")
		m.bus.Emit(EventOffline, nil)
	}

	return online
}

func (m *connectivityMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}
