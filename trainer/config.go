package trainer

// Config is the configuration of one training run. It is read at Run
// and never mutated during training.
type Config struct {
	// Epochs is the number of training epochs. Must be > 0.
	Epochs int

	// BatchSize is the number of samples per gradient update. Must
	// be > 0.
	BatchSize int

	// PicklePath is the directory holding the gob data artifacts
	// (train/dev/test sets and optional embedding table).
	PicklePath string

	// Validate runs the validator collaborator on the dev set after
	// every epoch.
	Validate bool

	// SaveBestDev persists the model whenever a validated epoch
	// strictly improves on the best dev accuracy seen this run.
	SaveBestDev bool

	// ModelSavedPath is the directory best models are written to.
	// Required when SaveBestDev is set.
	ModelSavedPath string
}

// Check verifies the configuration before a run starts.
func (c Config) Check() error {
	if c.Epochs < 1 {
		return &ConfigError{Field: "Epochs", Reason: "must be > 0"}
	}
	if c.BatchSize < 1 {
		return &ConfigError{Field: "BatchSize", Reason: "must be > 0"}
	}
	if c.PicklePath == "" {
		return &ConfigError{Field: "PicklePath", Reason: "data directory is required"}
	}
	if c.SaveBestDev && c.ModelSavedPath == "" {
		return &ConfigError{Field: "ModelSavedPath", Reason: "required when SaveBestDev is set"}
	}
	return nil
}
