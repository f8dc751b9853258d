package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// BatchFlat stores a padded batch in flat contiguous buffers together
// with its shape, ready for tensor conversion.
type BatchFlat struct {
	Inputs    []int32
	Labels    []int32
	BatchSize int
	SeqLen    int
	LabelDim  int
}

// MakeBatchFlat flattens an already-padded batch into contiguous
// buffers. Every feature sequence must share one length and every
// label sequence another; pad the batch first.
func MakeBatchFlat(batchX, batchY [][]int) (*BatchFlat, error) {
	if len(batchX) != len(batchY) {
		return nil, fmt.Errorf("feature and label batch sizes don't match: %d != %d", len(batchX), len(batchY))
	}
	if len(batchX) == 0 {
		return &BatchFlat{}, nil
	}

	batchSize := len(batchX)
	seqLen := len(batchX[0])
	labelDim := len(batchY[0])

	flatInputs := make([]int32, batchSize*seqLen)
	flatLabels := make([]int32, batchSize*labelDim)

	for i := range batchSize {
		if len(batchX[i]) != seqLen {
			return nil, fmt.Errorf("inconsistent sequence length at sample %d: expected %d, got %d",
				i, seqLen, len(batchX[i]))
		}
		if len(batchY[i]) != labelDim {
			return nil, fmt.Errorf("inconsistent label length at sample %d: expected %d, got %d",
				i, labelDim, len(batchY[i]))
		}
		for j, v := range batchX[i] {
			flatInputs[i*seqLen+j] = int32(v)
		}
		for j, v := range batchY[i] {
			flatLabels[i*labelDim+j] = int32(v)
		}
	}

	return &BatchFlat{
		Inputs:    flatInputs,
		Labels:    flatLabels,
		BatchSize: batchSize,
		SeqLen:    seqLen,
		LabelDim:  labelDim,
	}, nil
}

// ToGomlxTensors converts the flat batch into gomlx tensors of shape
// [batch, seqLen] and [batch, labelDim].
func (b *BatchFlat) ToGomlxTensors() (inputs *tensors.Tensor, labels *tensors.Tensor, err error) {
	if b.BatchSize == 0 || b.SeqLen == 0 {
		empty := make([][]int32, 0)
		return tensors.FromAnyValue(empty), tensors.FromAnyValue(empty), nil
	}
	in := make([][]int32, b.BatchSize)
	lab := make([][]int32, b.BatchSize)
	for i := range b.BatchSize {
		in[i] = b.Inputs[i*b.SeqLen : (i+1)*b.SeqLen]
		lab[i] = b.Labels[i*b.LabelDim : (i+1)*b.LabelDim]
	}
	return tensors.FromAnyValue(in), tensors.FromAnyValue(lab), nil
}
