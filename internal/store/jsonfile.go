package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/enotebook/eln-sync/internal/logger"
)

// loadJSONFile reads the document at path into v. A missing file is not an
// error (the zero value stands for an empty collection). A corrupt file is
// tolerated: it is logged as a warning and v is left untouched, favouring
// availability over strict durability for sync bookkeeping.
func loadJSONFile(path string, v any, log *logger.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err = json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("corrupt state file, starting empty")
	}

	return nil
}

// writeJSONFileAtomic marshals v and replaces the document at path with
// write-replace semantics: the payload is written to a temp file in the same
// directory and renamed over the target, so readers never observe a partially
// written file.
func writeJSONFileAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err = tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
