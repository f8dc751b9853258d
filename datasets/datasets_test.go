package datasets

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleDataset(n int) Dataset {
	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = Sample{
			Features: []int{i + 1, i + 2, i + 3},
			Labels:   []int{i % 2},
		}
	}
	return ds
}

func TestBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Bundle{
		Train:     sampleDataset(8),
		Dev:       sampleDataset(3),
		Test:      sampleDataset(2),
		Embedding: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
	}
	if err := SaveBundle(dir, want); err != nil {
		t.Fatalf("SaveBundle error: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadOptionalArtifactsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := SaveBundle(dir, &Bundle{Train: sampleDataset(4)}); err != nil {
		t.Fatalf("SaveBundle error: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Train.Len() != 4 {
		t.Fatalf("train set has %d samples, want 4", got.Train.Len())
	}
	if got.Dev != nil || got.Test != nil || got.Embedding != nil {
		t.Fatalf("absent artifacts should load as nil, got %+v", got)
	}
}

func TestLoadMissingTrainSet(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatalf("expected an error for a missing train set")
	}
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected a DataLoadError, got %T: %v", err, err)
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := SaveBundle(dir, &Bundle{Train: sampleDataset(4)}); err != nil {
		t.Fatalf("SaveBundle error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DevFile), []byte("not a gob"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	_, err := Load(dir)
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected a DataLoadError for a corrupt dev set, got %T: %v", err, err)
	}
}

func TestSplitXY(t *testing.T) {
	ds := Dataset{
		{Features: []int{1, 2, 3, 4}, Labels: []int{0}},
		{Features: []int{1, 3, 5, 2}, Labels: []int{1}},
	}

	batchX, batchY, err := ds.SplitXY([]int{1, 0})
	if err != nil {
		t.Fatalf("SplitXY error: %v", err)
	}
	if !reflect.DeepEqual(batchX, [][]int{{1, 3, 5, 2}, {1, 2, 3, 4}}) {
		t.Fatalf("unexpected batchX: %v", batchX)
	}
	if !reflect.DeepEqual(batchY, [][]int{{1}, {0}}) {
		t.Fatalf("unexpected batchY: %v", batchY)
	}

	if _, _, err := ds.SplitXY([]int{2}); err == nil {
		t.Fatalf("expected an error for an out-of-range index")
	}
}

func TestMakeBatchFlat(t *testing.T) {
	batchX := [][]int{{1, 2, 3, 0}, {4, 5, 6, 7}}
	batchY := [][]int{{0, 1, 0, 0}, {1, 1, 0, 1}}

	flat, err := MakeBatchFlat(batchX, batchY)
	if err != nil {
		t.Fatalf("MakeBatchFlat error: %v", err)
	}
	if flat.BatchSize != 2 || flat.SeqLen != 4 || flat.LabelDim != 4 {
		t.Fatalf("unexpected shape: %+v", flat)
	}
	wantInputs := []int32{1, 2, 3, 0, 4, 5, 6, 7}
	if !reflect.DeepEqual(flat.Inputs, wantInputs) {
		t.Fatalf("got inputs %v, want %v", flat.Inputs, wantInputs)
	}
}

// TestGomlxDatasetEpochs drives the gomlx adapter through two full
// epochs: floor(10/3) batches of non-nil [batch, seqLen] input and
// [batch, labelDim] label tensors per epoch, io.EOF on exhaustion,
// and a fresh permutation after Restart.
func TestGomlxDatasetEpochs(t *testing.T) {
	ds := sampleDataset(10)
	gd := NewGomlxDataset(ds, 3, true, 5)

	runEpoch := func() {
		t.Helper()
		var batches int
		for {
			spec, inputs, labels, err := gd.Yield()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Yield error: %v", err)
			}
			if spec != nil {
				t.Fatalf("unexpected spec %v", spec)
			}
			if len(inputs) != 1 || len(labels) != 1 {
				t.Fatalf("got %d input and %d label tensors, want 1 and 1", len(inputs), len(labels))
			}
			if inputs[0] == nil || labels[0] == nil {
				t.Fatalf("Yield returned a nil tensor")
			}
			if dims := inputs[0].Shape().Dimensions; !reflect.DeepEqual(dims, []int{3, 3}) {
				t.Fatalf("input tensor has shape %v, want [3 3]", dims)
			}
			if dims := labels[0].Shape().Dimensions; !reflect.DeepEqual(dims, []int{3, 1}) {
				t.Fatalf("label tensor has shape %v, want [3 1]", dims)
			}
			batches++
		}
		if batches != 3 {
			t.Fatalf("epoch yielded %d batches, want 3", batches)
		}
		// exhausted until the next Restart
		if _, _, _, err := gd.Yield(); err != io.EOF {
			t.Fatalf("exhausted Yield returned %v, want io.EOF", err)
		}
	}

	runEpoch()
	if err := gd.Restart(); err != nil {
		t.Fatalf("Restart error: %v", err)
	}
	runEpoch()
}

func TestMakeBatchFlatRaggedInput(t *testing.T) {
	if _, err := MakeBatchFlat([][]int{{1, 2}, {3}}, [][]int{{0}, {1}}); err == nil {
		t.Fatalf("expected an error for an unpadded batch")
	}
	if _, err := MakeBatchFlat([][]int{{1}}, [][]int{{0}, {1}}); err == nil {
		t.Fatalf("expected an error for mismatched batch sizes")
	}
}
