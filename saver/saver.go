// Package saver persists trained networks to disk.
package saver

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// GobSaver writes a network as a gob blob. Networks with unexported
// state implement gob.GobEncoder/GobDecoder to control their wire
// form.
type GobSaver struct{}

// Save writes the network to path, creating parent directories and
// overwriting any existing artifact. The blob is written to a temp
// file first and renamed into place so a failed save never leaves a
// truncated artifact behind.
func (GobSaver) Save(network any, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(network); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}
