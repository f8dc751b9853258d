// Package datasets holds the in-memory data model of a training run
// and the on-disk artifact handling.
//
// A run is fed from four addressable artifacts under one directory:
// the train, dev and test sets plus an optional pretrained embedding
// table, each an opaque gob blob. In memory a dataset is an ordered
// sequence of samples, where each sample pairs a variable-length
// feature sequence (token ids) with one label or a per-token label
// sequence.
//
// Batches of samples convert into contiguous flat buffers and from
// there into gomlx tensors, so a numeric backend can consume them
// without this package knowing anything about the backend.
package datasets

import "fmt"

// Sample is one training example: a feature sequence and its label or
// label sequence. For sequence tagging len(Labels) == len(Features);
// for classification Labels holds a single entry.
type Sample struct {
	Features []int
	Labels   []int
}

// Dataset is an ordered sequence of samples. Index i refers to the
// same sample for the dataset's whole lifetime.
type Dataset []Sample

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d) }

// SplitXY gathers the samples at the given indices and splits them
// into index-aligned feature and label batches.
func (d Dataset) SplitXY(indices []int) (batchX, batchY [][]int, err error) {
	batchX = make([][]int, len(indices))
	batchY = make([][]int, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(d) {
			return nil, nil, fmt.Errorf("sample index %d out of range [0, %d)", idx, len(d))
		}
		batchX[i] = d[idx].Features
		batchY[i] = d[idx].Labels
	}
	return batchX, batchY, nil
}
