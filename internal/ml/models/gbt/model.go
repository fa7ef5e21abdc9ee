// Package gbt wraps the boo gradient-boosted tree classifier for binary
// return prediction.
package gbt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

type TrainOptions struct {
	Rounds         int     `json:"rounds"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	SubSample      float64 `json:"subsample"`
	ColSubSample   float64 `json:"col_subsample"`
	BalanceClasses bool    `json:"balance_classes"`
}

type artifact struct {
	FeatureNames []string     `json:"feature_names"`
	Options      TrainOptions `json:"options"`
	ModelText    string       `json:"model_text"`
}

type Model struct {
	featureNames []string
	options      TrainOptions
	boost        *boo.MultiClass
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:         100,
		MaxDepth:       5,
		LearningRate:   0.1,
		SubSample:      0.8,
		ColSubSample:   0.8,
		BalanceClasses: true,
	}
}

// Train fits a boosted ensemble on encoded feature vectors. With
// BalanceClasses set, minority-class rows are replicated to approximate
// inverse-frequency reweighting, which boo does not support natively.
func Train(samples [][]float64, labels []float64, featureNames []string, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, errors.New("invalid training dataset")
	}
	if len(samples[0]) == 0 {
		return nil, errors.New("empty feature vectors")
	}
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultTrainOptions().Rounds
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTrainOptions().MaxDepth
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.SubSample <= 0 || opts.SubSample > 1 {
		opts.SubSample = DefaultTrainOptions().SubSample
	}
	if opts.ColSubSample <= 0 || opts.ColSubSample > 1 {
		opts.ColSubSample = DefaultTrainOptions().ColSubSample
	}
	if len(featureNames) != len(samples[0]) {
		featureNames = make([]string, len(samples[0]))
		for i := range featureNames {
			featureNames[i] = "f"
		}
	}

	intLabels := make([]int, len(labels))
	classCount := map[int]int{}
	for i, v := range labels {
		label := 0
		if v >= 0.5 {
			label = 1
		}
		intLabels[i] = label
		classCount[label]++
	}
	if classCount[0] == 0 || classCount[1] == 0 {
		return nil, errors.New("training requires both classes present")
	}

	trainX := samples
	trainY := intLabels
	if opts.BalanceClasses {
		trainX, trainY = rebalance(samples, intLabels, classCount)
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.MaxDepth = opts.MaxDepth
	o.LearningRate = opts.LearningRate
	o.SubSample = opts.SubSample
	o.ColSubSample = opts.ColSubSample
	o.Verbose = false
	o.EarlyStop = 0

	data := &utils.DataBunch{
		Data:   trainX,
		Labels: trainY,
		Keys:   featureNames,
	}
	model := boo.NewMultiClass(data, o)
	if model == nil {
		return nil, errors.New("failed to train boosted model")
	}
	return &Model{
		featureNames: append([]string(nil), featureNames...),
		options:      opts,
		boost:        model,
	}, nil
}

// rebalance replicates each minority-class sample floor(majority/minority)
// times. Replication order follows the input order, keeping training fully
// deterministic.
func rebalance(samples [][]float64, labels []int, classCount map[int]int) ([][]float64, []int) {
	minority, majority := 0, 1
	if classCount[1] < classCount[0] {
		minority, majority = 1, 0
	}
	factor := classCount[majority] / classCount[minority]
	if factor <= 1 {
		return samples, labels
	}

	outX := make([][]float64, 0, classCount[majority]+classCount[minority]*factor)
	outY := make([]int, 0, cap(outX))
	for i := range samples {
		outX = append(outX, samples[i])
		outY = append(outY, labels[i])
		if labels[i] == minority {
			for r := 1; r < factor; r++ {
				outX = append(outX, samples[i])
				outY = append(outY, labels[i])
			}
		}
	}
	return outX, outY
}

// PredictProb returns the probability of the positive (returned) class.
func (m *Model) PredictProb(sample []float64) float64 {
	if m == nil || m.boost == nil {
		return 0.5
	}
	probs := m.boost.PredictSingle(sample)
	labels := m.boost.ClassLabels()
	for i := range labels {
		if labels[i] == 1 {
			return clamp01(probs[i])
		}
	}
	if len(probs) == 0 {
		return 0.5
	}
	return clamp01(probs[len(probs)-1])
}

func (m *Model) PredictBatch(samples [][]float64) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = m.PredictProb(samples[i])
	}
	return out
}

func (m *Model) Options() TrainOptions {
	if m == nil {
		return TrainOptions{}
	}
	return m.options
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil || m.boost == nil {
		return nil, errors.New("nil model")
	}
	var buf bytes.Buffer
	if err := boo.JSONMultiClass(m.boost, "softmax", &buf); err != nil {
		return nil, err
	}
	return json.Marshal(artifact{
		FeatureNames: m.featureNames,
		Options:      m.options,
		ModelText:    buf.String(),
	})
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	reader := bufio.NewReader(bytes.NewReader([]byte(a.ModelText)))
	model, err := boo.UnJSONMultiClass(reader)
	if err != nil {
		return nil, err
	}
	return &Model{
		featureNames: append([]string(nil), a.FeatureNames...),
		options:      a.Options,
		boost:        model,
	}, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
