package batch

import (
	"math/rand"
	"time"
)

// RandomSampler draws dataset index permutations for training epochs.
type RandomSampler struct {
	rng *rand.Rand
}

// NewRandomSampler creates a sampler seeded with the given value. A
// zero seed uses a time-derived seed.
func NewRandomSampler(seed int64) *RandomSampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns a uniformly random permutation of [0, n). Every call
// draws a fresh permutation; the returned slice is owned by the
// caller.
func (s *RandomSampler) Sample(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	s.rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}
