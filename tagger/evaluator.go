package tagger

import (
	"fmt"

	"github.com/nlpipe/seqtrain/batch"
	"github.com/nlpipe/seqtrain/datasets"
	"github.com/nlpipe/seqtrain/trainer"
)

// Evaluator scores a tagging model against a held-out dataset. It
// implements the trainer.Validator collaborator: Test evaluates the
// whole set in order and caches mean masked loss and token accuracy
// for Matrices and ShowMatrices.
type Evaluator struct {
	Data      datasets.Dataset
	BatchSize int

	loss     float64
	accuracy float64
	tested   bool
}

var _ trainer.Validator = (*Evaluator)(nil)

// NewEvaluator creates an evaluator over a dev or test set.
func NewEvaluator(data datasets.Dataset, batchSize int) *Evaluator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Evaluator{Data: data, BatchSize: batchSize}
}

// Test evaluates the network on the whole dataset, including a final
// short batch. Results are cached until the next Test.
func (e *Evaluator) Test(network any) error {
	model, ok := network.(*Model)
	if !ok {
		return fmt.Errorf("evaluator needs a *tagger.Model, got %T", network)
	}
	model.SetTraining(false)

	indices := make([]int, e.Data.Len())
	for i := range indices {
		indices[i] = i
	}
	iter := batch.NewBatchifier(indices, e.BatchSize, false)

	var lossSum float64
	var correct, total int
	for {
		chunk, ok := iter.Next()
		if !ok {
			break
		}
		batchX, batchY, err := e.Data.SplitXY(chunk)
		if err != nil {
			return err
		}
		acts, err := model.Forward(batch.Pad(batchX, 0))
		if err != nil {
			return err
		}
		lossAny, err := model.Loss(acts, batchY)
		if err != nil {
			return err
		}
		lv := lossAny.(*LossValue)

		n := 0
		for _, labels := range batchY {
			n += len(labels)
		}
		lossSum += lv.Mean * float64(n)
		total += n

		for i, labels := range batchY {
			for j, truth := range labels {
				probs := acts.Probs[i][j]
				best := 0
				for c, p := range probs {
					if p > probs[best] {
						best = c
					}
				}
				if best == truth {
					correct++
				}
			}
		}
	}
	if total == 0 {
		return fmt.Errorf("evaluation set has no labeled positions")
	}

	e.loss = lossSum / float64(total)
	e.accuracy = float64(correct) / float64(total)
	e.tested = true
	return nil
}

// Matrices returns the cached evaluation loss and token accuracy.
func (e *Evaluator) Matrices() (loss, accuracy float64) {
	return e.loss, e.accuracy
}

// ShowMatrices renders the cached results for progress output.
func (e *Evaluator) ShowMatrices() string {
	if !e.tested {
		return "no evaluation run yet"
	}
	return fmt.Sprintf("dev loss=%.4f accuracy=%.4f", e.loss, e.accuracy)
}
