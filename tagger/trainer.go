package tagger

import (
	"fmt"

	"github.com/nlpipe/seqtrain/trainer"
)

// Trainer supplies the framework-specific hooks for training a
// tagging Model with the abstract loop in the trainer package. The
// forward activations of the current step are carried from
// DataForward to GradBackward through the loss value.
type Trainer struct {
	model *Model
}

var _ trainer.Hooks = (*Trainer)(nil)
var _ trainer.EmbeddingReceiver = (*Trainer)(nil)
var _ trainer.LossProvider = (*Model)(nil)

// NewTrainer creates the hook implementation for a model.
func NewTrainer(model *Model) *Trainer {
	return &Trainer{model: model}
}

// Mode switches the model between training and evaluation mode.
func (t *Trainer) Mode(test bool) error {
	t.model.SetTraining(!test)
	return nil
}

// DefineOptimizer resets the SGD momentum state for the coming epoch.
func (t *Trainer) DefineOptimizer() error {
	t.model.ResetOptimizer()
	return nil
}

// DataForward runs the forward pass on a padded feature batch.
func (t *Trainer) DataForward(batchX [][]int) (any, error) {
	return t.model.Forward(batchX)
}

// GradBackward back-propagates from the loss value produced by the
// model's Loss.
func (t *Trainer) GradBackward(loss any) error {
	lv, ok := loss.(*LossValue)
	if !ok {
		return fmt.Errorf("unexpected loss type %T", loss)
	}
	return t.model.Backward(lv)
}

// Update applies one optimizer step.
func (t *Trainer) Update() error {
	return t.model.Step()
}

// SetEmbedding seeds the model with a pretrained embedding table.
func (t *Trainer) SetEmbedding(embedding [][]float32) {
	t.model.SetEmbedding(embedding)
}
