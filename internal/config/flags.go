package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags parses all configuration flags from the command line.
//
// Flags:
//
//	-s/-server server base URL
//	-u/-user notebook user id sent in identity headers
//	-d database path for the local record store
//	-data-dir directory for engine state files
//	-c/-config json file path with configs
//	-sync-interval background sync interval (e.g. "30s", "5m")
//	-probe-interval connectivity probe interval
//	-request-timeout push/pull request timeout
//	-max-retries per-change push retry ceiling
func ParseFlags() (*StructuredConfig, error) {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("eln-sync", flag.ContinueOnError)

	var serverURL string
	var userID string
	var databaseDSN string
	var dataDir string
	var jsonConfigPath string
	var syncInterval time.Duration
	var probeInterval time.Duration
	var requestTimeout time.Duration
	var maxRetries int

	fs.StringVar(&serverURL, "s", "", "Server base URL")
	fs.StringVar(&serverURL, "server", "", "Server base URL (alias)")
	fs.StringVar(&userID, "u", "", "Notebook user id")
	fs.StringVar(&userID, "user", "", "Notebook user id (alias)")
	fs.StringVar(&databaseDSN, "d", "", "Local record database path")
	fs.StringVar(&dataDir, "data-dir", "", "Engine state directory")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g. 30s, 5m)")
	fs.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe interval")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Push/pull request timeout")
	fs.IntVar(&maxRetries, "max-retries", 0, "Per-change push retry ceiling")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		Server: Server{
			URL:            serverURL,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			UserID:        userID,
			SyncInterval:  syncInterval,
			ProbeInterval: probeInterval,
			MaxRetries:    maxRetries,
		},
		Storage: Storage{
			DataDir: dataDir,
			DB:      DB{DSN: databaseDSN},
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}
