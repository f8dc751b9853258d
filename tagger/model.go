// Package tagger provides a concrete sequence-tagging trainer: an
// embedding table feeding a per-token linear softmax classifier,
// trained with SGD plus momentum. It supplies the framework-specific
// hooks the abstract training loop in the trainer package requires.
package tagger

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"
)

// Config holds the tagger's hyperparameters.
type Config struct {
	// VocabSize is the number of distinct token ids. Required.
	VocabSize int

	// NumClasses is the number of tag classes. Required.
	NumClasses int

	// EmbedDim is the embedding width. Default 32.
	EmbedDim int

	// LearningRate for SGD. Default 0.01.
	LearningRate float64

	// Momentum for SGD. Default 0.9.
	Momentum float64

	// Seed controls weight initialization. If zero, a time-based
	// seed is used.
	Seed int64
}

// Model is the tagging network: an embedding lookup followed by a
// shared linear layer and a softmax over classes at every token
// position. Token id 0 doubles as the padding id.
type Model struct {
	Config Config

	// embedding is [vocab][dim], weights is [classes][dim].
	embedding [][]float32
	weights   [][]float32
	biases    []float32

	// momentum velocities, rebuilt by ResetOptimizer
	velEmbedding [][]float32
	velWeights   [][]float32
	velBiases    []float32

	// gradients accumulated by Backward, consumed by Step
	gradEmbedding map[int][]float32
	gradWeights   [][]float32
	gradBiases    []float32

	training bool
	rng      *rand.Rand
}

// NewModel creates an initialized tagging model.
func NewModel(cfg Config) (*Model, error) {
	if cfg.VocabSize < 1 {
		return nil, fmt.Errorf("vocab size must be > 0, got %d", cfg.VocabSize)
	}
	if cfg.NumClasses < 1 {
		return nil, fmt.Errorf("num classes must be > 0, got %d", cfg.NumClasses)
	}
	if cfg.EmbedDim == 0 {
		cfg.EmbedDim = 32
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.01
	}
	if cfg.Momentum == 0 {
		cfg.Momentum = 0.9
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	m := &Model{
		Config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
	m.embedding = m.initMatrix(cfg.VocabSize, cfg.EmbedDim)
	m.weights = m.initMatrix(cfg.NumClasses, cfg.EmbedDim)
	m.biases = make([]float32, cfg.NumClasses)
	m.ResetOptimizer()
	return m, nil
}

// initMatrix allocates a rows-by-cols matrix with Xavier/Glorot
// uniform initialization.
func (m *Model) initMatrix(rows, cols int) [][]float32 {
	limit := float32(math.Sqrt(6.0 / float64(rows+cols)))
	mat := make([][]float32, rows)
	for i := range mat {
		row := make([]float32, cols)
		for j := range row {
			row[j] = (m.rng.Float32()*2.0 - 1.0) * limit
		}
		mat[i] = row
	}
	return mat
}

// SetTraining switches between training and evaluation mode.
func (m *Model) SetTraining(training bool) { m.training = training }

// Training reports whether the model is in training mode.
func (m *Model) Training() bool { return m.training }

// SetEmbedding copies a pretrained embedding table into the model.
// Rows and columns beyond the model's own dimensions are ignored.
func (m *Model) SetEmbedding(embedding [][]float32) {
	for i, row := range embedding {
		if i >= len(m.embedding) {
			break
		}
		copy(m.embedding[i], row)
	}
}

// Activations captures one forward pass for use by the loss and
// backward passes.
type Activations struct {
	// Tokens is the padded input batch the pass ran on.
	Tokens [][]int

	// Probs is [batch][seqLen][classes], softmax outputs per token.
	Probs [][][]float32
}

// Forward runs the network on a padded feature batch.
func (m *Model) Forward(batchX [][]int) (*Activations, error) {
	acts := &Activations{
		Tokens: batchX,
		Probs:  make([][][]float32, len(batchX)),
	}
	for i, seq := range batchX {
		acts.Probs[i] = make([][]float32, len(seq))
		for j, tok := range seq {
			if tok < 0 || tok >= len(m.embedding) {
				return nil, fmt.Errorf("token id %d out of vocab range [0, %d)", tok, len(m.embedding))
			}
			acts.Probs[i][j] = m.classify(m.embedding[tok])
		}
	}
	return acts, nil
}

// classify computes softmax(W·h + b) for one embedded token.
func (m *Model) classify(h []float32) []float32 {
	logits := make([]float32, len(m.weights))
	for c, row := range m.weights {
		sum := m.biases[c]
		for k, v := range row {
			sum += v * h[k]
		}
		logits[c] = sum
	}

	// numerically stable softmax
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	var total float32
	for c, v := range logits {
		e := float32(math.Exp(float64(v - maxLogit)))
		logits[c] = e
		total += e
	}
	for c := range logits {
		logits[c] /= total
	}
	return logits
}

// LossValue is the scalar training loss together with the forward
// context the backward pass starts from.
type LossValue struct {
	Mean float64

	acts  *Activations
	truth [][]int
}

// Loss computes the mean masked cross-entropy over the batch. Only
// positions covered by a sample's label sequence contribute; padded
// tail positions are ignored.
func (m *Model) Loss(pred any, batchY [][]int) (any, error) {
	acts, ok := pred.(*Activations)
	if !ok {
		return nil, fmt.Errorf("unexpected prediction type %T", pred)
	}
	if len(batchY) != len(acts.Probs) {
		return nil, fmt.Errorf("label batch size %d does not match prediction batch size %d", len(batchY), len(acts.Probs))
	}

	var sum float64
	var count int
	for i, labels := range batchY {
		if len(labels) > len(acts.Probs[i]) {
			return nil, fmt.Errorf("sample %d has %d labels for %d positions", i, len(labels), len(acts.Probs[i]))
		}
		for j, truth := range labels {
			if truth < 0 || truth >= len(m.weights) {
				return nil, fmt.Errorf("label %d out of class range [0, %d)", truth, len(m.weights))
			}
			p := float64(acts.Probs[i][j][truth])
			if p < 1e-12 {
				p = 1e-12
			}
			sum += -math.Log(p)
			count++
		}
	}
	if count == 0 {
		return nil, errors.New("batch contains no labeled positions")
	}
	return &LossValue{Mean: sum / float64(count), acts: acts, truth: batchY}, nil
}

// Backward computes gradients for the loss value and stores them on
// the model for the next Step.
func (m *Model) Backward(lv *LossValue) error {
	if lv == nil || lv.acts == nil {
		return errors.New("backward pass needs a loss value from Loss")
	}

	gradW := make([][]float32, len(m.weights))
	for c := range gradW {
		gradW[c] = make([]float32, len(m.weights[c]))
	}
	gradB := make([]float32, len(m.biases))
	gradE := make(map[int][]float32)

	var count int
	for i, labels := range lv.truth {
		for j, truth := range labels {
			tok := lv.acts.Tokens[i][j]
			h := m.embedding[tok]
			probs := lv.acts.Probs[i][j]
			count++

			// dLoss/dLogit_c = prob_c - 1{c == truth}
			for c, p := range probs {
				d := p
				if c == truth {
					d -= 1.0
				}
				gradB[c] += d
				for k := range h {
					gradW[c][k] += d * h[k]
				}
			}

			ge, ok := gradE[tok]
			if !ok {
				ge = make([]float32, len(h))
				gradE[tok] = ge
			}
			for c, p := range probs {
				d := p
				if c == truth {
					d -= 1.0
				}
				for k, w := range m.weights[c] {
					ge[k] += d * w
				}
			}
		}
	}
	if count == 0 {
		return errors.New("backward pass over empty batch")
	}

	// average to match the mean loss
	inv := float32(1.0 / float64(count))
	for c := range gradW {
		gradB[c] *= inv
		for k := range gradW[c] {
			gradW[c][k] *= inv
		}
	}
	for _, ge := range gradE {
		for k := range ge {
			ge[k] *= inv
		}
	}

	m.gradWeights = gradW
	m.gradBiases = gradB
	m.gradEmbedding = gradE
	return nil
}

// ResetOptimizer zeroes the momentum velocities. The training loop
// calls this at the start of every epoch.
func (m *Model) ResetOptimizer() {
	m.velEmbedding = make([][]float32, len(m.embedding))
	for i := range m.velEmbedding {
		m.velEmbedding[i] = make([]float32, m.Config.EmbedDim)
	}
	m.velWeights = make([][]float32, len(m.weights))
	for i := range m.velWeights {
		m.velWeights[i] = make([]float32, m.Config.EmbedDim)
	}
	m.velBiases = make([]float32, len(m.biases))
}

// Step applies one SGD-with-momentum update from the gradients left
// by the last Backward, then clears them.
func (m *Model) Step() error {
	if m.gradWeights == nil {
		return errors.New("update called before backward pass")
	}
	lr := float32(m.Config.LearningRate)
	mom := float32(m.Config.Momentum)

	for c := range m.weights {
		vb := mom*m.velBiases[c] - lr*m.gradBiases[c]
		m.velBiases[c] = vb
		m.biases[c] += vb
		for k := range m.weights[c] {
			v := mom*m.velWeights[c][k] - lr*m.gradWeights[c][k]
			m.velWeights[c][k] = v
			m.weights[c][k] += v
		}
	}
	for tok, ge := range m.gradEmbedding {
		for k := range ge {
			v := mom*m.velEmbedding[tok][k] - lr*ge[k]
			m.velEmbedding[tok][k] = v
			m.embedding[tok][k] += v
		}
	}

	m.gradWeights = nil
	m.gradBiases = nil
	m.gradEmbedding = nil
	return nil
}

// Predict returns the argmax tag for every position of every
// sequence in the batch.
func (m *Model) Predict(batchX [][]int) ([][]int, error) {
	acts, err := m.Forward(batchX)
	if err != nil {
		return nil, err
	}
	tags := make([][]int, len(acts.Probs))
	for i, seq := range acts.Probs {
		tags[i] = make([]int, len(seq))
		for j, probs := range seq {
			best := 0
			for c, p := range probs {
				if p > probs[best] {
					best = c
				}
			}
			tags[i][j] = best
		}
	}
	return tags, nil
}

// modelState is the gob wire form of a Model. Velocities and pending
// gradients are transient and not persisted.
type modelState struct {
	Config    Config
	Embedding [][]float32
	Weights   [][]float32
	Biases    []float32
}

// GobEncode implements gob.GobEncoder.
func (m *Model) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := modelState{
		Config:    m.Config,
		Embedding: m.embedding,
		Weights:   m.weights,
		Biases:    m.biases,
	}
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (m *Model) GobDecode(data []byte) error {
	var state modelState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	m.Config = state.Config
	m.embedding = state.Embedding
	m.weights = state.Weights
	m.biases = state.Biases
	m.rng = rand.New(rand.NewSource(state.Config.Seed))
	m.ResetOptimizer()
	return nil
}

// LoadModel reads a model persisted by saver.GobSaver.
func LoadModel(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer file.Close()

	var m Model
	if err := gob.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	return &m, nil
}
