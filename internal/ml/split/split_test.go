package split

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func labelsFixture(neg, pos int) []float64 {
	labels := make([]float64, 0, neg+pos)
	for i := 0; i < neg; i++ {
		labels = append(labels, 0)
	}
	for i := 0; i < pos; i++ {
		labels = append(labels, 1)
	}
	return labels
}

func TestStratifiedDeterministic(t *testing.T) {
	labels := labelsFixture(60, 40)
	train1, eval1, err := Stratified(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	train2, eval2, err := Stratified(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if !reflect.DeepEqual(train1, train2) || !reflect.DeepEqual(eval1, eval2) {
		t.Fatal("same seed and input must yield identical partitions")
	}

	_, evalOther, err := Stratified(labels, 0.2, 7)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if reflect.DeepEqual(eval1, evalOther) {
		t.Fatal("different seeds should normally yield different partitions")
	}
}

func TestStratifiedDisjointAndComplete(t *testing.T) {
	labels := labelsFixture(70, 30)
	train, eval, err := Stratified(labels, 0.25, 1)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	seen := make(map[int]int)
	for _, i := range train {
		seen[i]++
	}
	for _, i := range eval {
		seen[i]++
	}
	if len(seen) != len(labels) {
		t.Fatalf("union has %d rows, want %d", len(seen), len(labels))
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("row %d appears %d times", i, c)
		}
	}
}

func TestStratifiedPreservesClassProportion(t *testing.T) {
	labels := labelsFixture(800, 200)
	train, eval, err := Stratified(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	source := 0.2
	for name, part := range map[string][]int{"train": train, "eval": eval} {
		pos := 0
		for _, i := range part {
			if labels[i] == 1 {
				pos++
			}
		}
		got := float64(pos) / float64(len(part))
		if math.Abs(got-source) > 0.02 {
			t.Fatalf("%s positive rate %v too far from %v", name, got, source)
		}
	}
}

func TestStratifiedTenRowsTwentyPercent(t *testing.T) {
	labels := labelsFixture(5, 5)
	train, eval, err := Stratified(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(eval) != 2 {
		t.Fatalf("20%% of 10 rows should give 2 eval rows, got %d", len(eval))
	}
	if len(train) != 8 {
		t.Fatalf("expected 8 train rows, got %d", len(train))
	}
}

func TestStratifiedFailsOnTinyClass(t *testing.T) {
	labels := labelsFixture(9, 1)
	_, _, err := Stratified(labels, 0.2, 42)
	if err == nil {
		t.Fatal("expected error when a class has fewer than two members")
	}
	if !strings.Contains(err.Error(), "1 member") {
		t.Fatalf("error should report the offending class count, got %v", err)
	}
}

func TestKFoldCoversAllRows(t *testing.T) {
	labels := labelsFixture(12, 9)
	folds, err := KFold(labels, 3, 42)
	if err != nil {
		t.Fatalf("kfold failed: %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("expected 3 folds, got %d", len(folds))
	}
	seen := make(map[int]int)
	for _, fold := range folds {
		for _, i := range fold {
			seen[i]++
		}
	}
	if len(seen) != len(labels) {
		t.Fatalf("folds cover %d rows, want %d", len(seen), len(labels))
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("row %d in %d folds", i, c)
		}
	}
	for fi, fold := range folds {
		pos := 0
		for _, i := range fold {
			if labels[i] == 1 {
				pos++
			}
		}
		if pos == 0 || pos == len(fold) {
			t.Fatalf("fold %d is single-class", fi)
		}
	}
}

func TestKFoldRejectsSmallClass(t *testing.T) {
	labels := labelsFixture(10, 2)
	if _, err := KFold(labels, 3, 42); err == nil {
		t.Fatal("expected error when a class has fewer members than folds")
	}
}
