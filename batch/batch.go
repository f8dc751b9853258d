// Package batch provides the index sampling, chunking and padding
// steps used to assemble training batches from a dataset.
package batch

// Batchifier chunks an ordered index sequence into batches of up to
// size indices, preserving the input order. It is lazy and
// consumed-once: a Batchifier covers exactly one epoch, and the next
// epoch needs a fresh permutation and a new Batchifier.
type Batchifier struct {
	indices  []int
	size     int
	dropLast bool
	cursor   int
}

// NewBatchifier wraps an index sequence for chunked iteration. With
// dropLast set, a final chunk shorter than size is omitted; otherwise
// it is yielded at its shorter length.
func NewBatchifier(indices []int, size int, dropLast bool) *Batchifier {
	if size < 1 {
		size = 1
	}
	return &Batchifier{indices: indices, size: size, dropLast: dropLast}
}

// Next returns the next chunk of indices. ok is false once the
// sequence is exhausted and never becomes true again.
func (b *Batchifier) Next() ([]int, bool) {
	if b.cursor >= len(b.indices) {
		return nil, false
	}
	end := b.cursor + b.size
	if end > len(b.indices) {
		if b.dropLast {
			b.cursor = len(b.indices)
			return nil, false
		}
		end = len(b.indices)
	}
	chunk := b.indices[b.cursor:end]
	b.cursor = end
	return chunk, true
}

// Pad right-extends every sequence in the batch with fill until it
// matches the longest sequence present in this batch. The pad tail is
// (maxLen - len) repeated copies of fill, never a single scalar
// product. Input sequences are copied, not mutated, so padding an
// already-uniform batch returns value-equal copies and padding twice
// is a no-op.
func Pad(batch [][]int, fill int) [][]int {
	maxLen := 0
	for _, seq := range batch {
		if len(seq) > maxLen {
			maxLen = len(seq)
		}
	}
	padded := make([][]int, len(batch))
	for i, seq := range batch {
		out := make([]int, maxLen)
		copy(out, seq)
		for j := len(seq); j < maxLen; j++ {
			out[j] = fill
		}
		padded[i] = out
	}
	return padded
}
