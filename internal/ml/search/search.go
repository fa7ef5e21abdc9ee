// Package search tunes the boosted classifier. The candidate source is an
// injectable strategy so the surrounding pipeline never cares whether the
// grid is sampled randomly or walked exhaustively.
package search

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"return-radar/internal/ml/eval"
	"return-radar/internal/ml/models/gbt"
	"return-radar/internal/ml/split"
)

// Grid is the fixed discrete hyperparameter space.
type Grid struct {
	Rounds        []int
	MaxDepths     []int
	LearningRates []float64
	SubSamples    []float64
	ColSubSamples []float64
}

func DefaultGrid() Grid {
	return Grid{
		Rounds:        []int{100, 200, 500},
		MaxDepths:     []int{5, 10, 15},
		LearningRates: []float64{0.01, 0.05, 0.1},
		SubSamples:    []float64{0.6, 0.8, 1.0},
		ColSubSamples: []float64{0.6, 0.8, 1.0},
	}
}

// Strategy produces the candidate configurations to score.
type Strategy interface {
	Name() string
	Candidates(rng *rand.Rand) []gbt.TrainOptions
}

// RandomSearch draws a bounded number of grid points at random.
type RandomSearch struct {
	Grid   Grid
	Trials int
}

func (s RandomSearch) Name() string { return "random" }

func (s RandomSearch) Candidates(rng *rand.Rand) []gbt.TrainOptions {
	trials := s.Trials
	if trials <= 0 {
		trials = 20
	}
	out := make([]gbt.TrainOptions, 0, trials)
	for i := 0; i < trials; i++ {
		out = append(out, gbt.TrainOptions{
			Rounds:         s.Grid.Rounds[rng.Intn(len(s.Grid.Rounds))],
			MaxDepth:       s.Grid.MaxDepths[rng.Intn(len(s.Grid.MaxDepths))],
			LearningRate:   s.Grid.LearningRates[rng.Intn(len(s.Grid.LearningRates))],
			SubSample:      s.Grid.SubSamples[rng.Intn(len(s.Grid.SubSamples))],
			ColSubSample:   s.Grid.ColSubSamples[rng.Intn(len(s.Grid.ColSubSamples))],
			BalanceClasses: true,
		})
	}
	return out
}

// GridSearch walks the whole grid; only sensible for small grids.
type GridSearch struct {
	Grid Grid
}

func (s GridSearch) Name() string { return "grid" }

func (s GridSearch) Candidates(*rand.Rand) []gbt.TrainOptions {
	var out []gbt.TrainOptions
	for _, r := range s.Grid.Rounds {
		for _, d := range s.Grid.MaxDepths {
			for _, lr := range s.Grid.LearningRates {
				for _, ss := range s.Grid.SubSamples {
					for _, cs := range s.Grid.ColSubSamples {
						out = append(out, gbt.TrainOptions{
							Rounds: r, MaxDepth: d, LearningRate: lr,
							SubSample: ss, ColSubSample: cs, BalanceClasses: true,
						})
					}
				}
			}
		}
	}
	return out
}

var trainCandidate = func(samples [][]float64, labels []float64, featureNames []string, opts gbt.TrainOptions) (candidateModel, error) {
	return gbt.Train(samples, labels, featureNames, opts)
}

type candidateModel interface {
	PredictBatch(samples [][]float64) []float64
}

type Result struct {
	Options gbt.TrainOptions
	MeanAUC float64
	Trial   int
}

type Tuner struct {
	Strategy Strategy
	Folds    int
	Workers  int
	Seed     int64
}

type candidateScore struct {
	result Result
	err    error
}

// Run scores every candidate by stratified k-fold AUC over the training rows
// only, in parallel, and returns the best one. Ties break on trial order so
// the selection is deterministic. If every candidate fails to fit, the last
// fit failure is surfaced.
func (t Tuner) Run(ctx context.Context, samples [][]float64, labels []float64) (Result, error) {
	if t.Strategy == nil {
		t.Strategy = RandomSearch{Grid: DefaultGrid(), Trials: 20}
	}
	if t.Folds < 2 {
		t.Folds = 3
	}
	if t.Workers <= 0 {
		t.Workers = 4
	}

	folds, err := split.KFold(labels, t.Folds, t.Seed)
	if err != nil {
		return Result{}, fmt.Errorf("cross-validation folds: %w", err)
	}
	candidates := t.Strategy.Candidates(rand.New(rand.NewSource(t.Seed)))
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("strategy %q produced no candidates", t.Strategy.Name())
	}

	scores := make([]candidateScore, len(candidates))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < t.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i] = t.scoreCandidate(ctx, candidates[i], i, samples, labels, folds)
			}
		}()
	}
dispatch:
	for i := range candidates {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	best := Result{Trial: -1}
	var lastErr error
	for i := range scores {
		if scores[i].err != nil {
			lastErr = scores[i].err
			continue
		}
		r := scores[i].result
		if best.Trial < 0 || r.MeanAUC > best.MeanAUC {
			best = r
		}
	}
	if best.Trial < 0 {
		return Result{}, fmt.Errorf("all %d candidates failed to fit: %w", len(candidates), lastErr)
	}
	return best, nil
}

func (t Tuner) scoreCandidate(ctx context.Context, opts gbt.TrainOptions, trial int, samples [][]float64, labels []float64, folds [][]int) candidateScore {
	inFold := make([]int, len(labels))
	for fi, fold := range folds {
		for _, i := range fold {
			inFold[i] = fi
		}
	}

	sum := 0.0
	for fi := range folds {
		if err := ctx.Err(); err != nil {
			return candidateScore{err: err}
		}
		trainX := make([][]float64, 0, len(samples))
		trainY := make([]float64, 0, len(labels))
		valX := make([][]float64, 0, len(folds[fi]))
		valY := make([]float64, 0, len(folds[fi]))
		for i := range samples {
			if inFold[i] == fi {
				valX = append(valX, samples[i])
				valY = append(valY, labels[i])
			} else {
				trainX = append(trainX, samples[i])
				trainY = append(trainY, labels[i])
			}
		}
		model, err := trainCandidate(trainX, trainY, nil, opts)
		if err != nil {
			return candidateScore{err: fmt.Errorf("trial %d fold %d: %w", trial, fi, err)}
		}
		sum += eval.AUC(valY, model.PredictBatch(valX))
	}
	return candidateScore{result: Result{
		Options: opts,
		MeanAUC: sum / float64(len(folds)),
		Trial:   trial,
	}}
}
