// Package split partitions labeled rows while preserving the positive-class
// proportion. Every split is deterministic for a fixed seed and input order.
package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Stratified returns train and eval index sets for a holdout of roughly
// holdoutFraction, stratified on the binary labels. Indices come back in
// ascending order, so re-running with the same seed and input yields
// identical partitions. Every row lands in exactly one partition.
func Stratified(labels []float64, holdoutFraction float64, seed int64) (trainIdx, evalIdx []int, err error) {
	n := len(labels)
	if n == 0 {
		return nil, nil, fmt.Errorf("empty dataset")
	}
	if holdoutFraction <= 0 || holdoutFraction >= 1 {
		return nil, nil, fmt.Errorf("holdout fraction must be in (0,1), got %v", holdoutFraction)
	}

	classes := indicesByClass(labels)
	for _, class := range []float64{0, 1} {
		if len(classes[class]) < 2 {
			return nil, nil, fmt.Errorf("stratified split impossible: class %.0f has %d member(s), need >= 2", class, len(classes[class]))
		}
	}

	evalTotal := int(math.Round(holdoutFraction * float64(n)))
	if evalTotal < 2 {
		evalTotal = 2
	}
	if evalTotal > n-2 {
		evalTotal = n - 2
	}
	counts := allocate(evalTotal, len(classes[0]), len(classes[1]))

	rng := rand.New(rand.NewSource(seed))
	evalIdx = make([]int, 0, evalTotal)
	for i, class := range []float64{0, 1} {
		idx := append([]int(nil), classes[class]...)
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		evalIdx = append(evalIdx, idx[:counts[i]]...)
	}
	sort.Ints(evalIdx)

	inEval := make(map[int]struct{}, len(evalIdx))
	for _, i := range evalIdx {
		inEval[i] = struct{}{}
	}
	trainIdx = make([]int, 0, n-len(evalIdx))
	for i := 0; i < n; i++ {
		if _, ok := inEval[i]; !ok {
			trainIdx = append(trainIdx, i)
		}
	}
	return trainIdx, evalIdx, nil
}

// KFold returns k disjoint stratified folds of indices for cross-validation.
// Each class must have at least k members.
func KFold(labels []float64, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("fold count must be >= 2, got %d", k)
	}
	classes := indicesByClass(labels)
	for _, class := range []float64{0, 1} {
		if len(classes[class]) < k {
			return nil, fmt.Errorf("stratified %d-fold impossible: class %.0f has %d member(s)", k, class, len(classes[class]))
		}
	}

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	for _, class := range []float64{0, 1} {
		idx := append([]int(nil), classes[class]...)
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for i, v := range idx {
			folds[i%k] = append(folds[i%k], v)
		}
	}
	for i := range folds {
		sort.Ints(folds[i])
	}
	return folds, nil
}

func indicesByClass(labels []float64) map[float64][]int {
	classes := map[float64][]int{0: nil, 1: nil}
	for i, y := range labels {
		if y >= 0.5 {
			classes[1] = append(classes[1], i)
		} else {
			classes[0] = append(classes[0], i)
		}
	}
	return classes
}

// allocate distributes evalTotal across the two classes proportionally,
// assigning the remainder to the class with the larger fractional share.
// Each class keeps at least one row on both sides of the split.
func allocate(evalTotal, negCount, posCount int) [2]int {
	n := negCount + posCount
	exactNeg := float64(evalTotal) * float64(negCount) / float64(n)
	counts := [2]int{int(exactNeg), 0}
	counts[1] = evalTotal - counts[0]
	if exactNeg-float64(counts[0]) >= 0.5 && counts[1] > 1 {
		counts[0]++
		counts[1]--
	}
	if counts[0] < 1 {
		counts[0] = 1
		counts[1] = evalTotal - 1
	}
	if counts[1] < 1 {
		counts[1] = 1
		counts[0] = evalTotal - 1
	}
	if counts[0] > negCount-1 {
		counts[0] = negCount - 1
		counts[1] = evalTotal - counts[0]
	}
	if counts[1] > posCount-1 {
		counts[1] = posCount - 1
		counts[0] = evalTotal - counts[1]
	}
	return counts
}
