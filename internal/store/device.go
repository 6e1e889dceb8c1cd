package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/enotebook/eln-sync/internal/logger"
)

type deviceIdentity struct {
	path   string
	logger *logger.Logger

	mu sync.Mutex
	id string
}

// NewDeviceIdentity constructs a [DeviceIdentity] backed by a plain-text file
// at path. The id is generated lazily on first use.
func NewDeviceIdentity(path string, logger *logger.Logger) DeviceIdentity {
	return &deviceIdentity{path: path, logger: logger}
}

// GetOrCreate implements [DeviceIdentity]. It returns the id read from disk
// if one exists, otherwise generates a new UUID and persists it. When the
// file cannot be written the id is kept in memory for the process lifetime
// and a warning is logged; identity stability across restarts is then lost
// but the engine keeps working.
func (d *deviceIdentity) GetOrCreate() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.id != "" {
		return d.id
	}

	if data, err := os.ReadFile(d.path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			d.id = id
			return d.id
		}
	}

	d.id = newID()

	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		d.logger.Warn().Err(err).Str("path", d.path).Msg("device id not persisted, using in-memory value")
		return d.id
	}
	if err := os.WriteFile(d.path, []byte(d.id+"\n"), 0o600); err != nil {
		d.logger.Warn().Err(err).Str("path", d.path).Msg("device id not persisted, using in-memory value")
	}

	return d.id
}

// newID returns a time-ordered UUID, falling back to a random one if the
// clock-based generator fails.
func newID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
