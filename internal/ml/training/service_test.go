package training

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"return-radar/internal/domain"
	"return-radar/internal/features"
	"return-radar/internal/ml/search"

	"go.opentelemetry.io/otel"
)

// separableSamples builds rows where the first numeric column carries all the
// signal, wide enough to satisfy the feature spec.
func separableSamples(n int) []domain.Sample {
	out := make([]domain.Sample, 0, n)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		numeric := make([]float64, len(features.NumericNames))
		numeric[0] = label*10 + float64(i%5)
		numeric[1] = float64(i)
		cat := make([]string, len(features.CategoricalNames))
		for j := range cat {
			cat[j] = fmt.Sprintf("c%d", i%3)
		}
		out = append(out, domain.Sample{
			OrderID:     fmt.Sprintf("ORD-%04d", i),
			Numeric:     numeric,
			Categorical: cat,
			Label:       label,
		})
	}
	return out
}

func smallStrategy() search.Strategy {
	return search.GridSearch{Grid: search.Grid{
		Rounds:        []int{25},
		MaxDepths:     []int{3},
		LearningRates: []float64{0.1},
		SubSamples:    []float64{1.0},
		ColSubSamples: []float64{1.0},
	}}
}

func trainedResult(t *testing.T) *TrainResult {
	t.Helper()
	svc := NewService(otel.Tracer("test"), nil, Config{
		Seed:     42,
		Folds:    2,
		Workers:  2,
		Strategy: smallStrategy(),
	})
	res, err := svc.Train(context.Background(), separableSamples(60))
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	return res
}

func TestTrainProducesScoringPipeline(t *testing.T) {
	res := trainedResult(t)
	if res.Pipeline == nil || res.Baseline == nil {
		t.Fatal("expected fitted pipeline and baseline")
	}
	if res.Best.Options.Rounds != 25 {
		t.Fatalf("best options should come from the strategy, got %+v", res.Best.Options)
	}

	samples := separableSamples(60)
	var posSum, negSum float64
	for _, s := range samples {
		p := res.Pipeline.PredictProb(s)
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", p)
		}
		if s.Label == 1 {
			posSum += p
		} else {
			negSum += p
		}
	}
	if posSum <= negSum {
		t.Fatalf("separable data should score positives higher: pos=%v neg=%v", posSum, negSum)
	}
}

func TestTrainRejectsEmptyInput(t *testing.T) {
	svc := NewService(otel.Tracer("test"), nil, Config{Strategy: smallStrategy()})
	if _, err := svc.Train(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty training partition")
	}
}

func TestPipelineArtifactRoundTrip(t *testing.T) {
	res := trainedResult(t)
	blob, err := res.Pipeline.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored, err := UnmarshalPipeline(blob)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, s := range separableSamples(20) {
		want := res.Pipeline.PredictProb(s)
		got := restored.PredictProb(s)
		if want != got {
			t.Fatalf("restored pipeline diverges on %s: %v vs %v", s.OrderID, want, got)
		}
	}
}

type fakeRegistry struct {
	active    *domain.ModelVersion
	inserted  []domain.ModelVersion
	activated []int
}

func (r *fakeRegistry) NextVersion(ctx context.Context, modelKey string) (int, error) {
	return len(r.inserted) + 1, nil
}

func (r *fakeRegistry) InsertModelVersion(ctx context.Context, model domain.ModelVersion) (*domain.ModelVersion, error) {
	r.inserted = append(r.inserted, model)
	return &model, nil
}

func (r *fakeRegistry) GetActiveModel(ctx context.Context, modelKey string) (*domain.ModelVersion, error) {
	return r.active, nil
}

func (r *fakeRegistry) ActivateModel(ctx context.Context, modelKey string, version int) error {
	r.activated = append(r.activated, version)
	return nil
}

func activeWithAUC(auc float64) *domain.ModelVersion {
	m, _ := json.Marshal(map[string]float64{"auc": auc})
	return &domain.ModelVersion{ModelKey: ModelKey, Version: 1, MetricsJSON: string(m), IsActive: true}
}

func TestPersistPromotion(t *testing.T) {
	res := trainedResult(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		active   *domain.ModelVersion
		auc      float64
		evalRows float64
		promoted bool
	}{
		{"first version always promotes", nil, 0.60, 50, true},
		{"small holdout blocks promotion", activeWithAUC(0.70), 0.90, 100, false},
		{"clear improvement promotes", activeWithAUC(0.70), 0.72, 400, true},
		{"marginal improvement does not", activeWithAUC(0.70), 0.705, 400, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := &fakeRegistry{active: tc.active}
			svc := NewService(otel.Tracer("test"), reg, Config{Strategy: smallStrategy()})
			metrics := map[string]float64{"auc": tc.auc, "n_eval": tc.evalRows}

			version, promoted, err := svc.Persist(context.Background(), res.Pipeline, res.Best, metrics, now)
			if err != nil {
				t.Fatalf("persist failed: %v", err)
			}
			if version != 1 {
				t.Fatalf("expected version 1, got %d", version)
			}
			if promoted != tc.promoted {
				t.Fatalf("promoted = %v, want %v", promoted, tc.promoted)
			}
			if len(reg.inserted) != 1 {
				t.Fatalf("expected one inserted version, got %d", len(reg.inserted))
			}
			ins := reg.inserted[0]
			if ins.ModelKey != ModelKey || ins.ArtifactFormat != "json/onehot-boo-v1" {
				t.Fatalf("unexpected inserted row: %+v", ins)
			}
			if len(ins.ArtifactBlob) == 0 {
				t.Fatal("artifact blob must not be empty")
			}
			if !strings.Contains(ins.HyperparamsJSON, "rounds") {
				t.Fatalf("hyperparams should serialize options: %s", ins.HyperparamsJSON)
			}
			if !ins.TrainedAt.Equal(now) {
				t.Fatalf("trained_at = %v, want %v", ins.TrainedAt, now)
			}
		})
	}
}

func TestPersistWithoutRegistryIsNoop(t *testing.T) {
	res := trainedResult(t)
	svc := NewService(otel.Tracer("test"), nil, Config{Strategy: smallStrategy()})
	version, promoted, err := svc.Persist(context.Background(), res.Pipeline, res.Best, map[string]float64{"auc": 0.9}, time.Now())
	if err != nil || version != 0 || promoted {
		t.Fatalf("nil registry should be a no-op, got v=%d promoted=%v err=%v", version, promoted, err)
	}
}
