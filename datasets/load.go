package datasets

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names under a run's data directory.
const (
	TrainFile     = "data_train.gob"
	DevFile       = "data_dev.gob"
	TestFile      = "data_test.gob"
	EmbeddingFile = "embedding.gob"
)

// DataLoadError reports a missing or unreadable dataset artifact. It
// aborts the run before any training starts.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load dataset artifact %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Bundle is the set of artifacts loaded for one run. Train is always
// present; Dev, Test and Embedding are nil when their artifact file
// does not exist.
type Bundle struct {
	Train     Dataset
	Dev       Dataset
	Test      Dataset
	Embedding [][]float32
}

// Load reads the artifacts under dir. The train set is required; the
// remaining artifacts are optional, but a present-yet-unreadable file
// is still an error.
func Load(dir string) (*Bundle, error) {
	var b Bundle
	if err := loadGob(filepath.Join(dir, TrainFile), &b.Train); err != nil {
		return nil, err
	}
	if err := loadGobOptional(filepath.Join(dir, DevFile), &b.Dev); err != nil {
		return nil, err
	}
	if err := loadGobOptional(filepath.Join(dir, TestFile), &b.Test); err != nil {
		return nil, err
	}
	if err := loadGobOptional(filepath.Join(dir, EmbeddingFile), &b.Embedding); err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBundle writes the bundle's non-nil artifacts under dir, creating
// the directory if needed. Existing artifacts are overwritten.
func SaveBundle(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	if b.Train != nil {
		if err := saveGob(filepath.Join(dir, TrainFile), b.Train); err != nil {
			return err
		}
	}
	if b.Dev != nil {
		if err := saveGob(filepath.Join(dir, DevFile), b.Dev); err != nil {
			return err
		}
	}
	if b.Test != nil {
		if err := saveGob(filepath.Join(dir, TestFile), b.Test); err != nil {
			return err
		}
	}
	if b.Embedding != nil {
		if err := saveGob(filepath.Join(dir, EmbeddingFile), b.Embedding); err != nil {
			return err
		}
	}
	return nil
}

func loadGob(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return &DataLoadError{Path: path, Err: err}
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(v); err != nil {
		return &DataLoadError{Path: path, Err: err}
	}
	return nil
}

func loadGobOptional(path string, v any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return loadGob(path, v)
}

func saveGob(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
