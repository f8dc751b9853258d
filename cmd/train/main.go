// Command train runs a supervised training run of the sequence
// tagger over gob data artifacts, optionally synthesizing a toy
// corpus first and plotting per-epoch dev metrics afterwards.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math/rand"

	"github.com/nlpipe/seqtrain/datasets"
	"github.com/nlpipe/seqtrain/tagger"
	"github.com/nlpipe/seqtrain/trainer"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func main() {
	dataDir := flag.String("data", "data", "directory holding the gob data artifacts")
	modelOut := flag.String("model-out", "models", "directory best models are written to")
	epochs := flag.Int("epochs", 10, "number of training epochs")
	batchSize := flag.Int("batch-size", 16, "samples per gradient update")
	validate := flag.Bool("validate", true, "run dev-set validation after each epoch")
	saveBestDev := flag.Bool("save-best-dev", true, "persist the model on dev accuracy improvements")
	vocabSize := flag.Int("vocab-size", 100, "number of distinct token ids")
	numClasses := flag.Int("num-classes", 5, "number of tag classes")
	embedDim := flag.Int("embed-dim", 32, "embedding width")
	lr := flag.Float64("lr", 0.01, "SGD learning rate")
	momentum := flag.Float64("momentum", 0.9, "SGD momentum")
	seed := flag.Int64("seed", 0, "RNG seed; 0 uses a time-based seed")
	plotPath := flag.String("plot", "", "if set, write a PNG of per-epoch dev metrics to this path")
	makeSampleData := flag.Int("make-sample-data", 0, "if > 0, synthesize a toy corpus of this many samples into -data before training")
	flag.Parse()

	if *makeSampleData > 0 {
		if err := writeSampleData(*dataDir, *makeSampleData, *vocabSize, *numClasses, *embedDim, *seed); err != nil {
			log.Fatalf("failed to write sample data: %v", err)
		}
		log.Printf("wrote %d synthetic samples to %s", *makeSampleData, *dataDir)
	}

	bundle, err := datasets.Load(*dataDir)
	if err != nil {
		log.Fatalf("failed to load data artifacts: %v", err)
	}
	log.Printf("loaded %d train / %d dev / %d test samples", bundle.Train.Len(), bundle.Dev.Len(), bundle.Test.Len())

	model, err := tagger.NewModel(tagger.Config{
		VocabSize:    *vocabSize,
		NumClasses:   *numClasses,
		EmbedDim:     *embedDim,
		LearningRate: *lr,
		Momentum:     *momentum,
		Seed:         *seed,
	})
	if err != nil {
		log.Fatalf("failed to create model: %v", err)
	}

	cfg := trainer.Config{
		Epochs:         *epochs,
		BatchSize:      *batchSize,
		PicklePath:     *dataDir,
		Validate:       *validate,
		SaveBestDev:    *saveBestDev,
		ModelSavedPath: *modelOut,
	}
	// reuse the bundle loaded above so the evaluator and the training
	// loop see the same artifacts
	opts := []trainer.Option{
		trainer.WithSeed(*seed),
		trainer.WithLoader(func(string) (*datasets.Bundle, error) { return bundle, nil }),
	}
	if *validate {
		opts = append(opts, trainer.WithValidator(tagger.NewEvaluator(bundle.Dev, *batchSize)))
	}
	t, err := trainer.New(cfg, opts...)
	if err != nil {
		log.Fatalf("failed to create trainer: %v", err)
	}

	if err := t.Run(model, tagger.NewTrainer(model)); err != nil {
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("training finished after %d epochs", *epochs)

	if *plotPath != "" {
		history := t.History()
		if len(history) == 0 {
			log.Printf("no validation history to plot; run with -validate")
			return
		}
		if err := plotHistory(*plotPath, history); err != nil {
			log.Fatalf("failed to generate plot: %v", err)
		}
		log.Printf("dev metric curves written to %s", *plotPath)
	}
}

// writeSampleData synthesizes a learnable toy tagging corpus: the tag
// of every token is its id modulo the class count. Token id 0 is
// reserved for padding.
func writeSampleData(dir string, n, vocabSize, numClasses, embedDim int, seed int64) error {
	if vocabSize < 2 {
		return fmt.Errorf("vocab size must be >= 2, got %d", vocabSize)
	}
	rng := rand.New(rand.NewSource(seed + 1))

	synth := func(count int) datasets.Dataset {
		ds := make(datasets.Dataset, count)
		for i := range ds {
			length := 3 + rng.Intn(10)
			features := make([]int, length)
			labels := make([]int, length)
			for j := range features {
				tok := 1 + rng.Intn(vocabSize-1)
				features[j] = tok
				labels[j] = tok % numClasses
			}
			ds[i] = datasets.Sample{Features: features, Labels: labels}
		}
		return ds
	}

	embedding := make([][]float32, vocabSize)
	for i := range embedding {
		embedding[i] = make([]float32, embedDim)
		for j := range embedding[i] {
			embedding[i][j] = (rng.Float32()*2.0 - 1.0) * 0.1
		}
	}

	bundle := &datasets.Bundle{
		Train:     synth(n),
		Dev:       synth(n / 5),
		Test:      synth(n / 5),
		Embedding: embedding,
	}
	return datasets.SaveBundle(dir, bundle)
}

// plotHistory writes a PNG with the dev loss and accuracy curves of a
// validated run.
func plotHistory(path string, history []trainer.EpochStats) error {
	lossXY := make(plotter.XYs, 0, len(history))
	accXY := make(plotter.XYs, 0, len(history))
	for _, s := range history {
		lossXY = append(lossXY, plotter.XY{X: float64(s.Epoch), Y: s.Loss})
		accXY = append(accXY, plotter.XY{X: float64(s.Epoch), Y: s.Accuracy})
	}

	p := plot.New()
	p.Title.Text = "dev metrics by epoch"
	p.X.Label.Text = "epoch"

	lossLine, err := plotter.NewLine(lossXY)
	if err != nil {
		return fmt.Errorf("failed to build loss line: %w", err)
	}
	lossLine.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}

	accLine, err := plotter.NewLine(accXY)
	if err != nil {
		return fmt.Errorf("failed to build accuracy line: %w", err)
	}
	accLine.Color = color.RGBA{R: 60, G: 100, B: 200, A: 255}

	p.Add(lossLine, accLine)
	p.Legend.Add("loss", lossLine)
	p.Legend.Add("accuracy", accLine)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
