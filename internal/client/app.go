// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package client

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/internal/service"
	"github.com/enotebook/eln-sync/internal/workers"
	"github.com/enotebook/eln-sync/models"
)

type App struct {
	cfg      *config.SyncConfig
	services *service.Services
	workers  *workers.Workers
	logger   *logger.Logger
}

// NewApp assembles the daemon from its wired components and subscribes the
// log sink to the engine's events.
func NewApp(cfg *config.SyncConfig, services *service.Services, log *logger.Logger) (*App, error) {
	app := &App{
		cfg:      cfg,
		services: services,
		workers: workers.New(
			workers.NewProbeJob(services.Monitor, cfg.ProbeInterval),
			workers.NewSyncJob(services.Orchestrator, cfg.SyncInterval),
		),
		logger: log,
	}
	app.subscribeEventLog()

	return app, nil
}

// Run starts the background jobs, performs an initial sync cycle and blocks
// until the process receives SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info().
		Str("server", a.cfg.Server.URL).
		Str("data_dir", a.cfg.Storage.DataDir).
		Msg("sync daemon starting")

	state := a.services.Orchestrator.SyncNow(ctx)
	a.logger.Info().
		Str("status", string(state.Status)).
		Int("pending", state.PendingChanges).
		Int("conflicts", state.Conflicts).
		Msg("initial sync cycle finished")

	a.workers.Start(ctx)
	defer a.workers.Stop()

	<-ctx.Done()
	a.logger.Info().Msg("shutting down")

	return nil
}

// subscribeEventLog mirrors engine events into the daemon log, which is the
// daemon's only user-facing surface.
func (a *App) subscribeEventLog() {
	bus := a.services.Bus

	bus.On(service.EventOnline, func(any) {
		a.logger.Info().Msg("connection restored")
	})
	bus.On(service.EventOffline, func(any) {
		a.logger.Warn().Msg("connection lost, queueing changes locally")
	})
	bus.On(service.EventSyncComplete, func(payload any) {
		state, ok := payload.(models.SyncState)
		if !ok {
			return
		}
		a.logger.Debug().
			Str("status", string(state.Status)).
			Int("pending", state.PendingChanges).
			Int("conflicts", state.Conflicts).
			Msg("sync cycle finished")
	})
	bus.On(service.EventConflictResolved, func(payload any) {
		if id, ok := payload.(string); ok {
			a.logger.Info().Str("conflict_id", id).Msg("conflict resolved")
		}
	})
}
