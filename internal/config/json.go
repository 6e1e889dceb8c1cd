package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations, so operators can keep the daemon configuration
// in a checked-in file.
type StructuredJSONConfig struct {
	Server struct {
		URL            string   `json:"url"`
		RequestTimeout Duration `json:"request_timeout"`
		HealthTimeout  Duration `json:"health_timeout"`
	} `json:"server,omitempty"`

	Sync struct {
		UserID          string   `json:"user_id"`
		ProbeInterval   Duration `json:"probe_interval"`
		SyncInterval    Duration `json:"sync_interval"`
		MaxRetries      int      `json:"max_retries"`
		RetentionWindow Duration `json:"retention_window"`
	} `json:"sync,omitempty"`

	Storage struct {
		DataDir string `json:"data_dir"`
		DB      struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		AttachmentsDir string `json:"attachments_dir"`
		CacheDir       string `json:"cache_dir"`
	} `json:"storage,omitempty"`

	Quota struct {
		TotalBytes     int64 `json:"total_bytes"`
		BytesPerRecord int64 `json:"bytes_per_record"`
	} `json:"quota,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Server: Server{
			URL:            jsonCfg.Server.URL,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			HealthTimeout:  time.Duration(jsonCfg.Server.HealthTimeout),
		},
		Sync: Sync{
			UserID:          jsonCfg.Sync.UserID,
			ProbeInterval:   time.Duration(jsonCfg.Sync.ProbeInterval),
			SyncInterval:    time.Duration(jsonCfg.Sync.SyncInterval),
			MaxRetries:      jsonCfg.Sync.MaxRetries,
			RetentionWindow: time.Duration(jsonCfg.Sync.RetentionWindow),
		},
		Storage: Storage{
			DataDir:        jsonCfg.Storage.DataDir,
			DB:             DB{DSN: jsonCfg.Storage.DB.DSN},
			AttachmentsDir: jsonCfg.Storage.AttachmentsDir,
			CacheDir:       jsonCfg.Storage.CacheDir,
		},
		Quota: Quota{
			TotalBytes:     jsonCfg.Quota.TotalBytes,
			BytesPerRecord: jsonCfg.Quota.BytesPerRecord,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
