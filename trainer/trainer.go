// Package trainer drives supervised training of sequence models. It
// owns the epoch/iteration loop, batch assembly, validation
// scheduling and best-model tracking, and delegates every numeric
// step (forward pass, loss, backward pass, parameter update) to the
// Hooks supplied by a concrete trainer.
package trainer

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/nlpipe/seqtrain/batch"
	"github.com/nlpipe/seqtrain/datasets"
	"github.com/nlpipe/seqtrain/saver"
)

// BestModelFile is the artifact name written under ModelSavedPath
// when a new best dev result is reached. It may be overwritten by a
// better model in a later epoch.
const BestModelFile = "model_best_dev.gob"

// LoadFunc loads the artifact bundle for a run. Tests and callers can
// substitute the artifact source.
type LoadFunc func(dir string) (*datasets.Bundle, error)

// EpochStats records the validation result of one epoch.
type EpochStats struct {
	Epoch    int
	Loss     float64
	Accuracy float64
	Saved    bool
}

// Trainer sequences the framework-independent training steps. The
// run-scoped state (resolved loss function, best dev accuracy, epoch
// history) lives on the Trainer and is rebuilt at the start of every
// Run.
type Trainer struct {
	cfg       Config
	validator Validator
	saver     ModelSaver
	sampler   *batch.RandomSampler
	load      LoadFunc

	lossFunc     LossFunc
	bestAccuracy float64
	history      []EpochStats
}

// Option configures a Trainer at construction.
type Option func(*Trainer)

// WithValidator injects the dev-set validator collaborator. Required
// when the configuration enables validation.
func WithValidator(v Validator) Option {
	return func(t *Trainer) { t.validator = v }
}

// WithSaver replaces the default gob model saver.
func WithSaver(s ModelSaver) Option {
	return func(t *Trainer) { t.saver = s }
}

// WithSeed fixes the index sampling seed for reproducible runs.
func WithSeed(seed int64) Option {
	return func(t *Trainer) { t.sampler = batch.NewRandomSampler(seed) }
}

// WithLoader replaces the default artifact loader.
func WithLoader(load LoadFunc) Option {
	return func(t *Trainer) { t.load = load }
}

// New creates a Trainer for the given configuration. Configuration
// problems surface here, before any training work.
func New(cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	t := &Trainer{
		cfg:     cfg,
		saver:   saver.GobSaver{},
		sampler: batch.NewRandomSampler(0),
		load:    datasets.Load,
	}
	for _, opt := range opts {
		opt(t)
	}
	if cfg.Validate && t.validator == nil {
		return nil, &ConfigError{Field: "Validator", Reason: "a validator collaborator is required when Validate is set"}
	}
	return t, nil
}

// Run executes the full training run for the supplied network. The
// network itself is opaque: it is referenced, never owned, and only
// handed to the hooks, the validator and the saver. Any failure
// aborts the run; there is no partial-epoch recovery.
func (t *Trainer) Run(network any, hooks Hooks) error {
	t.lossFunc = nil
	t.bestAccuracy = 0
	t.history = nil

	bundle, err := t.load(t.cfg.PicklePath)
	if err != nil {
		return err
	}
	if recv, ok := hooks.(EmbeddingReceiver); ok && bundle.Embedding != nil {
		recv.SetEmbedding(bundle.Embedding)
	}

	iterations := bundle.Train.Len() / t.cfg.BatchSize

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := t.runEpoch(bundle.Train, iterations, network, hooks); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		if t.cfg.Validate {
			if err := t.validateEpoch(epoch, bundle, network); err != nil {
				return err
			}
		}
	}
	return nil
}

// runEpoch performs one epoch of training steps. The batch iterator
// lives for exactly one epoch and is passed through the loop body
// rather than stored on the Trainer.
func (t *Trainer) runEpoch(train datasets.Dataset, iterations int, network any, hooks Hooks) error {
	if err := hooks.Mode(false); err != nil {
		return err
	}
	if err := hooks.DefineOptimizer(); err != nil {
		return err
	}

	iter := batch.NewBatchifier(t.sampler.Sample(train.Len()), t.cfg.BatchSize, true)

	for step := 0; step < iterations; step++ {
		indices, ok := iter.Next()
		if !ok {
			return fmt.Errorf("batch iterator exhausted at step %d of %d", step, iterations)
		}
		batchX, batchY, err := train.SplitXY(indices)
		if err != nil {
			return err
		}
		batchX = batch.Pad(batchX, 0)

		pred, err := hooks.DataForward(batchX)
		if err != nil {
			return err
		}
		loss, err := t.getLoss(network, hooks, pred, batchY)
		if err != nil {
			return err
		}
		if err := hooks.GradBackward(loss); err != nil {
			return err
		}
		if err := hooks.Update(); err != nil {
			return err
		}
	}
	return nil
}

// getLoss resolves the loss function once, on first need: a network
// exposing its own loss wins, otherwise the hooks must define one.
// The resolved function is reused for the rest of the run.
func (t *Trainer) getLoss(network any, hooks Hooks, pred any, batchY [][]int) (any, error) {
	if t.lossFunc == nil {
		if lp, ok := network.(LossProvider); ok {
			t.lossFunc = lp.Loss
		} else if ld, ok := hooks.(LossDefiner); ok {
			fn, err := ld.DefineLoss()
			if err != nil {
				return nil, err
			}
			t.lossFunc = fn
		} else {
			return nil, &UnimplementedHookError{Hook: "DefineLoss"}
		}
	}
	return t.lossFunc(pred, batchY)
}

// validateEpoch runs the validator after an epoch and, when enabled,
// persists the model on a strict dev-accuracy improvement. Ties do
// not trigger a save.
func (t *Trainer) validateEpoch(epoch int, bundle *datasets.Bundle, network any) error {
	if bundle.Dev == nil {
		return &ValidationPrereqError{PicklePath: t.cfg.PicklePath}
	}
	if err := t.validator.Test(network); err != nil {
		return fmt.Errorf("validation after epoch %d: %w", epoch, err)
	}
	loss, accuracy := t.validator.Matrices()
	stats := EpochStats{Epoch: epoch, Loss: loss, Accuracy: accuracy}

	if t.cfg.SaveBestDev && accuracy > t.bestAccuracy {
		dest := filepath.Join(t.cfg.ModelSavedPath, BestModelFile)
		if err := t.saver.Save(network, dest); err != nil {
			return fmt.Errorf("saving best model: %w", err)
		}
		t.bestAccuracy = accuracy
		stats.Saved = true
		log.Printf("saved better model selected by dev to %s", dest)
	}

	t.history = append(t.history, stats)
	log.Printf("[epoch %d] %s", epoch, t.validator.ShowMatrices())
	return nil
}

// History returns the per-epoch validation results of the last run.
// It is empty when validation was disabled.
func (t *Trainer) History() []EpochStats { return t.history }
