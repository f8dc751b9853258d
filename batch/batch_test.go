package batch

import (
	"reflect"
	"testing"
)

func TestRandomSamplerPermutation(t *testing.T) {
	s := NewRandomSampler(42)
	for _, n := range []int{0, 1, 7, 100} {
		got := s.Sample(n)
		if len(got) != n {
			t.Fatalf("Sample(%d) returned %d indices", n, len(got))
		}
		seen := make([]bool, n)
		for _, idx := range got {
			if idx < 0 || idx >= n {
				t.Fatalf("Sample(%d) returned out-of-range index %d", n, idx)
			}
			if seen[idx] {
				t.Fatalf("Sample(%d) returned duplicate index %d", n, idx)
			}
			seen[idx] = true
		}
	}
}

func TestRandomSamplerFreshPermutations(t *testing.T) {
	s := NewRandomSampler(1)
	first := s.Sample(50)
	second := s.Sample(50)
	if reflect.DeepEqual(first, second) {
		t.Fatalf("expected a fresh permutation on the second draw")
	}
}

func TestRandomSamplerDeterministicSeed(t *testing.T) {
	a := NewRandomSampler(7).Sample(30)
	b := NewRandomSampler(7).Sample(30)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different permutations:\n%v\n%v", a, b)
	}
}

func TestBatchifierDropLast(t *testing.T) {
	indices := NewRandomSampler(3).Sample(20)
	b := NewBatchifier(indices, 3, true)

	var chunks [][]int
	seen := make(map[int]bool)
	for {
		chunk, ok := b.Next()
		if !ok {
			break
		}
		if len(chunk) != 3 {
			t.Fatalf("chunk %d has length %d, want 3", len(chunks), len(chunk))
		}
		for _, idx := range chunk {
			if seen[idx] {
				t.Fatalf("index %d appeared in more than one chunk", idx)
			}
			seen[idx] = true
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 6 {
		t.Fatalf("got %d chunks, want floor(20/3)=6", len(chunks))
	}
	if dropped := 20 - len(seen); dropped >= 3 {
		t.Fatalf("%d indices dropped, want at most 2", dropped)
	}
}

func TestBatchifierKeepLast(t *testing.T) {
	indices := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := NewBatchifier(indices, 4, false)

	var got [][]int
	for {
		chunk, ok := b.Next()
		if !ok {
			break
		}
		got = append(got, chunk)
	}

	want := [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got chunks %v, want %v", got, want)
	}
}

func TestBatchifierConsumedOnce(t *testing.T) {
	b := NewBatchifier([]int{0, 1, 2}, 2, true)
	if _, ok := b.Next(); !ok {
		t.Fatalf("expected one full chunk before exhaustion")
	}
	if chunk, ok := b.Next(); ok {
		t.Fatalf("expected exhaustion after the short tail is dropped, got %v", chunk)
	}
	// exhaustion is permanent
	if _, ok := b.Next(); ok {
		t.Fatalf("exhausted batchifier produced another chunk")
	}
}

func TestPadUniformUnchanged(t *testing.T) {
	in := [][]int{{1, 2, 3}, {4, 5, 6}}
	got := Pad(in, 0)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("uniform batch changed: got %v, want %v", got, in)
	}
	// padding returns copies, not aliases
	got[0][0] = 99
	if in[0][0] != 1 {
		t.Fatalf("Pad aliased its input")
	}
}

func TestPadMixedLengths(t *testing.T) {
	in := [][]int{{1, 2, 3, 4}, {9}}
	got := Pad(in, 7)

	want := [][]int{{1, 2, 3, 4}, {9, 7, 7, 7}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(in[1]) != 1 {
		t.Fatalf("Pad mutated its input: %v", in[1])
	}
}

func TestPadIdempotent(t *testing.T) {
	once := Pad([][]int{{1, 2}, {3, 4, 5, 6}}, 0)
	twice := Pad(once, 0)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("padding an already-padded batch changed it: %v vs %v", once, twice)
	}
}

// Two samples of equal length batched together need no padding and
// form exactly one batch.
func TestBatchifyTwoUniformSamples(t *testing.T) {
	features := [][]int{{1, 2, 3, 4}, {1, 3, 5, 2}}

	b := NewBatchifier([]int{0, 1}, 2, true)
	chunk, ok := b.Next()
	if !ok || len(chunk) != 2 {
		t.Fatalf("expected one batch of both samples, got %v ok=%v", chunk, ok)
	}
	if _, ok := b.Next(); ok {
		t.Fatalf("expected exactly one batch")
	}

	padded := Pad(features, 0)
	if !reflect.DeepEqual(padded, features) {
		t.Fatalf("uniform-length batch should be unchanged, got %v", padded)
	}
}
