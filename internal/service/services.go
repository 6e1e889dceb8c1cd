// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"github.com/enotebook/eln-sync/internal/adapter"
	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/internal/store"
)

// Services groups the engine's service-layer components for the application
// wiring.
type Services struct {
	Bus          EventBus
	Monitor      ConnectivityMonitor
	Orchestrator *Orchestrator
	Accountant   StorageAccountant
}

// NewServices wires the full service layer over the storage layer and the
// server transport. srv may be nil when no server URL is configured.
func NewServices(cfg *config.SyncConfig, storages *store.Storages, srv adapter.ServerAdapter, logger *logger.Logger) *Services {
	bus := NewEventBus(logger)
	monitor := NewConnectivityMonitor(srv, bus, logger)

	return &Services{
		Bus:          bus,
		Monitor:      monitor,
		Orchestrator: NewOrchestrator(cfg, storages, srv, monitor, bus, logger),
		Accountant:   NewStorageAccountant(*cfg, storages.Records, logger),
	}
}
