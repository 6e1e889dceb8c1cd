package main

import (
	"fmt"

	"github.com/enotebook/eln-sync/internal/adapter"
	"github.com/enotebook/eln-sync/internal/client"
	"github.com/enotebook/eln-sync/internal/config"
	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/internal/service"
	"github.com/enotebook/eln-sync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewDaemonLogger("eln-syncd")
	cfg, err := config.GetSyncConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	var serverAdapter adapter.ServerAdapter
	if cfg.Server.URL != "" {
		serverAdapter, err = adapter.NewHTTPServerAdapter(cfg.Server, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create server adapter")
		}
	} else {
		log.Warn().Msg("no server url configured, daemon starts offline-only")
	}

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	services := service.NewServices(cfg, storages, serverAdapter, log)

	app, err := client.NewApp(cfg, services, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init daemon error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("daemon run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
