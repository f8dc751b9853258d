package datasets

import (
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/nlpipe/seqtrain/batch"
)

// GomlxDataset adapts a Dataset to gomlx's train.Dataset contract,
// yielding shuffled, padded tensor batches. One pass over the data
// ends with io.EOF; Restart draws a fresh permutation for the next
// epoch.
type GomlxDataset struct {
	data      Dataset
	batchSize int
	dropLast  bool

	sampler *batch.RandomSampler
	iter    *batch.Batchifier
}

// NewGomlxDataset wraps data for gomlx consumption. With dropLast
// set, a final short batch is omitted from every epoch. A zero seed
// uses a time-derived seed.
func NewGomlxDataset(data Dataset, batchSize int, dropLast bool, seed int64) *GomlxDataset {
	d := &GomlxDataset{
		data:      data,
		batchSize: batchSize,
		dropLast:  dropLast,
		sampler:   batch.NewRandomSampler(seed),
	}
	d.iter = batch.NewBatchifier(d.sampler.Sample(data.Len()), batchSize, dropLast)
	return d
}

// Name returns the dataset name reported to gomlx training loops.
func (d *GomlxDataset) Name() string { return "seqtrain" }

// Yield returns the next padded tensor batch, or io.EOF when the
// epoch is exhausted.
func (d *GomlxDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	indices, ok := d.iter.Next()
	if !ok {
		return nil, nil, nil, io.EOF
	}
	batchX, batchY, err := d.data.SplitXY(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := MakeBatchFlat(batch.Pad(batchX, 0), batch.Pad(batchY, 0))
	if err != nil {
		return nil, nil, nil, err
	}
	in, lab, err := flat.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{in}, []*tensors.Tensor{lab}, nil
}

// Restart begins a new epoch with a fresh permutation.
func (d *GomlxDataset) Restart() error {
	d.iter = batch.NewBatchifier(d.sampler.Sample(d.data.Len()), d.batchSize, d.dropLast)
	return nil
}
