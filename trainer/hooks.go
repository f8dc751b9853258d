package trainer

// Hooks are the framework-specific operations a concrete trainer must
// supply. The training loop depends only on this interface and the
// capability interfaces below; the numeric backend behind them is the
// caller's business.
type Hooks interface {
	// Mode switches the network between training (test=false) and
	// evaluation (test=true) mode.
	Mode(test bool) error

	// DefineOptimizer builds or refreshes the optimizer. Called at
	// the start of every epoch.
	DefineOptimizer() error

	// DataForward runs the forward pass on a padded feature batch
	// and returns the framework's prediction value. The value is
	// opaque to the loop; it is only handed to the loss function.
	DataForward(batchX [][]int) (any, error)

	// GradBackward back-propagates from the loss value returned by
	// the loss function.
	GradBackward(loss any) error

	// Update applies one optimizer step.
	Update() error
}

// LossFunc computes a loss value from a prediction and the aligned
// truth labels. The returned value is opaque to the loop; it is only
// handed back to GradBackward.
type LossFunc func(pred any, batchY [][]int) (any, error)

// LossProvider is implemented by networks that expose their own loss
// computation. When the network provides one it is adopted on first
// need and reused for the rest of the run.
type LossProvider interface {
	Loss(pred any, batchY [][]int) (any, error)
}

// LossDefiner is implemented by hooks that supply a default loss for
// networks that do not bring their own.
type LossDefiner interface {
	DefineLoss() (LossFunc, error)
}

// EmbeddingReceiver is implemented by hooks that can consume the
// pretrained embedding table loaded with the data artifacts.
type EmbeddingReceiver interface {
	SetEmbedding(embedding [][]float32)
}

// Validator scores a network against held-out data. Test runs the
// evaluation and caches its results; Matrices and ShowMatrices report
// the cached numbers.
type Validator interface {
	Test(network any) error
	Matrices() (loss, accuracy float64)
	ShowMatrices() string
}

// ModelSaver persists a network, overwriting any artifact already at
// the destination path.
type ModelSaver interface {
	Save(network any, path string) error
}

// UnimplementedHooks can be embedded by partial trainers. Every hook
// is a mandatory extension point, so each default fails with an
// UnimplementedHookError at its first invocation.
type UnimplementedHooks struct{}

// Mode fails until overridden.
func (UnimplementedHooks) Mode(bool) error {
	return &UnimplementedHookError{Hook: "Mode"}
}

// DefineOptimizer fails until overridden.
func (UnimplementedHooks) DefineOptimizer() error {
	return &UnimplementedHookError{Hook: "DefineOptimizer"}
}

// DataForward fails until overridden.
func (UnimplementedHooks) DataForward([][]int) (any, error) {
	return nil, &UnimplementedHookError{Hook: "DataForward"}
}

// GradBackward fails until overridden.
func (UnimplementedHooks) GradBackward(any) error {
	return &UnimplementedHookError{Hook: "GradBackward"}
}

// Update fails until overridden.
func (UnimplementedHooks) Update() error {
	return &UnimplementedHookError{Hook: "Update"}
}
