// Package logreg is a standardized logistic-regression baseline. Its only
// job is to give the boosted model's holdout AUC a sanity floor in the run
// report.
package logreg

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

type TrainOptions struct {
	LearningRate float64
	Epochs       int
	L2           float64
}

type artifact struct {
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	Means        []float64 `json:"means"`
	Stds         []float64 `json:"stds"`
}

type Model struct {
	featureNames []string
	weights      []float64
	bias         float64
	means        []float64
	stds         []float64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		LearningRate: 0.1,
		Epochs:       400,
		L2:           0.001,
	}
}

// Train fits full-batch gradient descent on standardized features.
func Train(samples [][]float64, labels []float64, featureNames []string, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, errors.New("invalid training dataset")
	}
	width := len(samples[0])
	if width == 0 {
		return nil, errors.New("empty feature vectors")
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.Epochs <= 0 {
		opts.Epochs = DefaultTrainOptions().Epochs
	}
	if opts.L2 < 0 {
		opts.L2 = DefaultTrainOptions().L2
	}
	if len(featureNames) != width {
		featureNames = make([]string, width)
		for i := range featureNames {
			featureNames[i] = fmt.Sprintf("f%d", i)
		}
	}

	means, stds := moments(samples, width)
	weights := make([]float64, width)
	bias := 0.0
	n := float64(len(samples))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		grads := make([]float64, width)
		gradBias := 0.0
		for i := range samples {
			z := bias
			for j := 0; j < width; j++ {
				z += weights[j] * (samples[i][j] - means[j]) / stds[j]
			}
			err := sigmoid(z) - labels[i]
			for j := 0; j < width; j++ {
				grads[j] += err * (samples[i][j] - means[j]) / stds[j]
			}
			gradBias += err
		}
		for j := 0; j < width; j++ {
			weights[j] -= opts.LearningRate * (grads[j]/n + opts.L2*weights[j])
		}
		bias -= opts.LearningRate * gradBias / n
	}

	return &Model{
		featureNames: append([]string(nil), featureNames...),
		weights:      weights,
		bias:         bias,
		means:        means,
		stds:         stds,
	}, nil
}

func (m *Model) PredictProb(sample []float64) float64 {
	if m == nil || len(sample) != len(m.weights) {
		return 0.5
	}
	z := m.bias
	for j := range m.weights {
		z += m.weights[j] * (sample[j] - m.means[j]) / m.stds[j]
	}
	return sigmoid(z)
}

func (m *Model) PredictBatch(samples [][]float64) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = m.PredictProb(samples[i])
	}
	return out
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	return json.Marshal(artifact{
		FeatureNames: m.featureNames,
		Weights:      m.weights,
		Bias:         m.bias,
		Means:        m.means,
		Stds:         m.stds,
	})
}

func UnmarshalBinary(data []byte) (*Model, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if len(a.Weights) == 0 || len(a.Weights) != len(a.Means) || len(a.Weights) != len(a.Stds) {
		return nil, errors.New("invalid artifact")
	}
	return &Model{
		featureNames: a.FeatureNames,
		weights:      a.Weights,
		bias:         a.Bias,
		means:        a.Means,
		stds:         a.Stds,
	}, nil
}

func moments(samples [][]float64, width int) (means, stds []float64) {
	means = make([]float64, width)
	stds = make([]float64, width)
	n := float64(len(samples))
	for j := 0; j < width; j++ {
		for i := range samples {
			means[j] += samples[i][j]
		}
		means[j] /= n
		for i := range samples {
			d := samples[i][j] - means[j]
			stds[j] += d * d
		}
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func sigmoid(x float64) float64 {
	if x > 35 {
		return 1
	}
	if x < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}
