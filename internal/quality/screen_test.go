package quality

import (
	"math"
	"testing"
)

func TestScreenFlagsExtremeOutlier(t *testing.T) {
	samples := make([][]float64, 0, 61)
	for i := 0; i < 60; i++ {
		samples = append(samples, []float64{float64(i%10) / 10, 1 + float64(i%5)/10})
	}
	outlier := len(samples)
	samples = append(samples, []float64{1e6, -1e6})

	res, err := Screen(samples, 0.65)
	if err != nil {
		t.Fatalf("screen failed: %v", err)
	}
	if len(res.Scores) != len(samples) || len(res.Flagged) != len(samples) {
		t.Fatal("result must cover every input row")
	}
	for i, s := range res.Scores {
		if i != outlier && s > res.Scores[outlier] {
			t.Fatalf("inlier %d scored above the extreme outlier: %v > %v", i, s, res.Scores[outlier])
		}
	}
	count := 0
	for _, f := range res.Flagged {
		if f {
			count++
		}
	}
	if count != res.Anomalies {
		t.Fatalf("anomaly count %d disagrees with flags %d", res.Anomalies, count)
	}
}

func TestScreenRejectsEmptyInput(t *testing.T) {
	if _, err := Screen(nil, 0.65); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSummarizeColumnStats(t *testing.T) {
	samples := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
		{4, 40},
	}
	got := Summarize(samples, []string{"a"})
	if len(got) != 2 {
		t.Fatalf("expected 2 column summaries, got %d", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "" {
		t.Fatalf("names should pad positionally: %+v", got)
	}
	if got[0].Mean != 2.5 || got[0].Min != 1 || got[0].Max != 4 {
		t.Fatalf("unexpected first column stats: %+v", got[0])
	}
	if math.Abs(got[1].Mean-25) > 1e-9 {
		t.Fatalf("unexpected second column mean: %v", got[1].Mean)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if Summarize(nil, nil) != nil {
		t.Fatal("empty input should yield nil")
	}
}
