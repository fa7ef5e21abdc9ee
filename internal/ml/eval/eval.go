// Package eval scores fitted classifiers on held-out rows: ranking metrics,
// the ROC curve, and feature contribution ranking.
package eval

import (
	"math"
	"math/rand"
	"sort"
)

// AUC is the rank-statistic area under the ROC curve with average ranks for
// tied probabilities. Degenerate inputs (single class) give 0.5.
func AUC(labels, probs []float64) float64 {
	type pair struct {
		p float64
		y float64
	}
	pairs := make([]pair, len(labels))
	pos := 0.0
	neg := 0.0
	for i := range labels {
		pairs[i] = pair{p: clamp01(probs[i]), y: labels[i]}
		if labels[i] >= 0.5 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].p < pairs[j].p })

	sumRankPos := 0.0
	rank := 1.0
	for i := 0; i < len(pairs); {
		j := i + 1
		for j < len(pairs) && math.Abs(pairs[j].p-pairs[i].p) < 1e-12 {
			j++
		}
		avgRank := (rank + float64(j)) / 2
		for k := i; k < j; k++ {
			if pairs[k].y >= 0.5 {
				sumRankPos += avgRank
			}
		}
		rank = float64(j + 1)
		i = j
	}
	auc := (sumRankPos - (pos*(pos+1))/2) / (pos * neg)
	if math.IsNaN(auc) || math.IsInf(auc, 0) {
		return 0.5
	}
	return auc
}

// ROCCurve returns the false/true positive rate series, one point per
// distinct predicted probability swept from the highest threshold down,
// anchored at (0,0) and (1,1). With only one class present there is no
// curve to trace, so just the anchors come back, mirroring AUC's 0.5
// convention for degenerate inputs.
func ROCCurve(labels, probs []float64) (fpr, tpr []float64) {
	type pair struct {
		p float64
		y float64
	}
	pairs := make([]pair, len(labels))
	pos := 0.0
	neg := 0.0
	for i := range labels {
		pairs[i] = pair{p: clamp01(probs[i]), y: labels[i]}
		if labels[i] >= 0.5 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return []float64{0, 1}, []float64{0, 1}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].p > pairs[j].p })

	fpr = []float64{0}
	tpr = []float64{0}
	tp := 0.0
	fp := 0.0
	for i := 0; i < len(pairs); {
		j := i
		for j < len(pairs) && math.Abs(pairs[j].p-pairs[i].p) < 1e-12 {
			if pairs[j].y >= 0.5 {
				tp++
			} else {
				fp++
			}
			j++
		}
		fpr = append(fpr, fp/neg)
		tpr = append(tpr, tp/pos)
		i = j
	}
	if fpr[len(fpr)-1] != 1 || tpr[len(tpr)-1] != 1 {
		fpr = append(fpr, 1)
		tpr = append(tpr, 1)
	}
	return fpr, tpr
}

// Metrics reports the classification summary at the given decision
// threshold, plus threshold-free AUC and the Brier score.
func Metrics(labels, probs []float64, threshold float64) map[string]float64 {
	n := len(labels)
	if n == 0 || len(probs) != n {
		return map[string]float64{"auc": 0.5, "accuracy": 0, "precision": 0, "recall": 0, "f1": 0, "brier": 0, "n_eval": 0}
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	tp, fp, tn, fn := 0.0, 0.0, 0.0, 0.0
	brier := 0.0
	for i := 0; i < n; i++ {
		y := labels[i]
		p := clamp01(probs[i])
		pred := 0.0
		if p >= threshold {
			pred = 1
		}
		switch {
		case pred == 1 && y == 1:
			tp++
		case pred == 1 && y == 0:
			fp++
		case pred == 0 && y == 0:
			tn++
		default:
			fn++
		}
		d := p - y
		brier += d * d
	}

	precision := 0.0
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	recall := 0.0
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return map[string]float64{
		"auc":       AUC(labels, probs),
		"accuracy":  (tp + tn) / float64(n),
		"precision": precision,
		"recall":    recall,
		"f1":        f1,
		"brier":     brier / float64(n),
		"n_eval":    float64(n),
	}
}

type Predictor interface {
	PredictProb(sample []float64) float64
}

type Importance struct {
	Name  string
	Score float64
	Index int
}

// PermutationImportance scores each encoded feature by the holdout AUC drop
// after shuffling that column. boo exposes no per-feature gain accessor, so
// this model-agnostic ranking stands in for the classifier's internal
// importances. Each column gets its own seeded generator, making the ranking
// independent of evaluation order. Ties break on the original feature index.
func PermutationImportance(model Predictor, samples [][]float64, labels []float64, names []string, topN int, seed int64) []Importance {
	if len(samples) == 0 || model == nil {
		return nil
	}
	width := len(samples[0])
	base := AUC(labels, predictAll(model, samples))

	scores := make([]Importance, 0, width)
	for j := 0; j < width; j++ {
		name := ""
		if j < len(names) {
			name = names[j]
		}
		rng := rand.New(rand.NewSource(seed + int64(j)))
		perm := rng.Perm(len(samples))

		shuffled := make([][]float64, len(samples))
		for i := range samples {
			row := append([]float64(nil), samples[i]...)
			row[j] = samples[perm[i]][j]
			shuffled[i] = row
		}
		drop := base - AUC(labels, predictAll(model, shuffled))
		scores = append(scores, Importance{Name: name, Score: drop, Index: j})
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].Score != scores[b].Score {
			return scores[a].Score > scores[b].Score
		}
		return scores[a].Index < scores[b].Index
	})
	if topN > 0 && len(scores) > topN {
		scores = scores[:topN]
	}
	return scores
}

func predictAll(model Predictor, samples [][]float64) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = model.PredictProb(samples[i])
	}
	return out
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
