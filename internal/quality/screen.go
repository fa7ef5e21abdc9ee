// Package quality screens the dataset before training. Anomalous rows are
// flagged for reporting but never dropped; the model still trains on the
// full partition.
package quality

import (
	"errors"
	"sort"

	"github.com/narumiruna/go-iforest/pkg/iforest"
	"gonum.org/v1/gonum/stat"
)

// ScreenResult holds per-row anomaly scores in input order plus the flags
// derived from the threshold.
type ScreenResult struct {
	Scores    []float64
	Flagged   []bool
	Anomalies int
}

// Screen fits an isolation forest on the encoded feature matrix and flags
// every row whose anomaly score reaches the threshold.
func Screen(samples [][]float64, threshold float64) (*ScreenResult, error) {
	if len(samples) == 0 {
		return nil, errors.New("no rows to screen")
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.65
	}

	sampleSize := 256
	if len(samples) < sampleSize {
		sampleSize = len(samples)
	}
	forest := iforest.NewWithOptions(iforest.Options{
		NumTrees:   100,
		SampleSize: sampleSize,
	})
	forest.Fit(samples)
	scores := forest.Score(samples)

	out := &ScreenResult{
		Scores:  scores,
		Flagged: make([]bool, len(scores)),
	}
	for i, s := range scores {
		if s >= threshold {
			out.Flagged[i] = true
			out.Anomalies++
		}
	}
	return out, nil
}

// FeatureSummary is a per-column distribution snapshot for the run report.
type FeatureSummary struct {
	Name   string
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize computes column-wise statistics over the feature matrix. Column
// names shorter than the matrix width are padded positionally.
func Summarize(samples [][]float64, names []string) []FeatureSummary {
	if len(samples) == 0 {
		return nil
	}
	width := len(samples[0])
	out := make([]FeatureSummary, 0, width)
	col := make([]float64, len(samples))
	for j := 0; j < width; j++ {
		for i := range samples {
			col[i] = samples[i][j]
		}
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)

		s := FeatureSummary{
			Mean:   stat.Mean(col, nil),
			StdDev: stat.StdDev(col, nil),
			Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
		}
		if j < len(names) {
			s.Name = names[j]
		}
		out = append(out, s)
	}
	return out
}
