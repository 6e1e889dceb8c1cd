package store

import (
	"fmt"
	"sync"

	"dario.cat/mergo"

	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

type selectiveSyncStore struct {
	path   string
	logger *logger.Logger

	mu sync.Mutex
}

// NewSelectiveSyncStore constructs a [SelectiveSyncStore] persisted at path.
func NewSelectiveSyncStore(path string, logger *logger.Logger) SelectiveSyncStore {
	return &selectiveSyncStore{path: path, logger: logger}
}

// Load implements [SelectiveSyncStore]. The stored document may be a partial
// config written by an older release or edited by hand; it is merged over
// [models.DefaultSelectiveSyncConfig] so unset fields get their defaults.
// A missing or corrupt file yields the defaults unchanged.
func (s *selectiveSyncStore) Load() models.SelectiveSyncConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored models.SelectiveSyncConfig
	if err := loadJSONFile(s.path, &stored, s.logger); err != nil {
		s.logger.Warn().Err(err).Msg("selective sync config unreadable, using defaults")
		return models.DefaultSelectiveSyncConfig()
	}

	defaults := models.DefaultSelectiveSyncConfig()
	if err := mergo.Merge(&stored, defaults); err != nil {
		s.logger.Warn().Err(err).Msg("selective sync config merge failed, using defaults")
		return defaults
	}

	return stored
}

// Save implements [SelectiveSyncStore].
func (s *selectiveSyncStore) Save(cfg models.SelectiveSyncConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSONFileAtomic(s.path, cfg); err != nil {
		return fmt.Errorf("persist selective sync config: %w", err)
	}
	return nil
}
