package training

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"return-radar/internal/domain"
	"return-radar/internal/features"
	"return-radar/internal/ml/encode"
	"return-radar/internal/ml/models/gbt"
	"return-radar/internal/ml/models/logreg"
	"return-radar/internal/ml/search"

	"go.opentelemetry.io/otel/trace"
)

const ModelKey = "return_gbt"

// promotion only happens on a holdout large enough to trust the comparison
const minPromoteEvalRows = 300

type ModelRegistry interface {
	NextVersion(ctx context.Context, modelKey string) (int, error)
	InsertModelVersion(ctx context.Context, model domain.ModelVersion) (*domain.ModelVersion, error)
	GetActiveModel(ctx context.Context, modelKey string) (*domain.ModelVersion, error)
	ActivateModel(ctx context.Context, modelKey string, version int) error
}

type Config struct {
	Seed     int64
	Trials   int
	Folds    int
	Workers  int
	Strategy search.Strategy
}

type Service struct {
	tracer   trace.Tracer
	registry ModelRegistry
	cfg      Config
}

// TrainResult is the fitted pipeline plus everything worth reporting about
// how it was chosen.
type TrainResult struct {
	Pipeline *Pipeline
	Best     search.Result
	Baseline *logreg.Model
}

func NewService(tracer trace.Tracer, registry ModelRegistry, cfg Config) *Service {
	if cfg.Trials <= 0 {
		cfg.Trials = 20
	}
	if cfg.Folds < 2 {
		cfg.Folds = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Strategy == nil {
		cfg.Strategy = search.RandomSearch{Grid: search.DefaultGrid(), Trials: cfg.Trials}
	}
	return &Service{tracer: tracer, registry: registry, cfg: cfg}
}

// Train fits the full pipeline on the training partition: encoder fit, tuned
// boosted classifier, and a logistic baseline for comparison. The evaluation
// partition is never visible here; the search re-partitions the training
// rows internally.
func (s *Service) Train(ctx context.Context, trainSamples []domain.Sample) (*TrainResult, error) {
	ctx, span := s.tracer.Start(ctx, "training.train")
	defer span.End()

	if len(trainSamples) == 0 {
		return nil, fmt.Errorf("no training samples")
	}

	encoder, err := encode.Fit(trainSamples, features.NumericNames, features.CategoricalNames)
	if err != nil {
		return nil, fmt.Errorf("fit encoder: %w", err)
	}
	trainX := encoder.TransformAll(trainSamples)
	trainY := make([]float64, len(trainSamples))
	for i := range trainSamples {
		trainY[i] = trainSamples[i].Label
	}

	tuner := search.Tuner{
		Strategy: s.cfg.Strategy,
		Folds:    s.cfg.Folds,
		Workers:  s.cfg.Workers,
		Seed:     s.cfg.Seed,
	}
	best, err := tuner.Run(ctx, trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("hyperparameter search: %w", err)
	}

	model, err := gbt.Train(trainX, trainY, encoder.FeatureNames(), best.Options)
	if err != nil {
		return nil, fmt.Errorf("fit final model: %w", err)
	}
	baseline, err := logreg.Train(trainX, trainY, encoder.FeatureNames(), logreg.DefaultTrainOptions())
	if err != nil {
		return nil, fmt.Errorf("fit baseline: %w", err)
	}

	return &TrainResult{
		Pipeline: NewPipeline(encoder, model),
		Best:     best,
		Baseline: baseline,
	}, nil
}

// Persist stores the artifact as the next model version and promotes it when
// its holdout AUC clearly beats the active version. Without a registry the
// run still succeeds; only persistence is skipped.
func (s *Service) Persist(ctx context.Context, pipeline *Pipeline, best search.Result, metrics map[string]float64, now time.Time) (version int, promoted bool, err error) {
	if s.registry == nil {
		return 0, false, nil
	}
	ctx, span := s.tracer.Start(ctx, "training.persist")
	defer span.End()

	version, err = s.registry.NextVersion(ctx, ModelKey)
	if err != nil {
		return 0, false, err
	}
	blob, err := pipeline.MarshalBinary()
	if err != nil {
		return 0, false, fmt.Errorf("marshal pipeline: %w", err)
	}
	hyperJSON, _ := json.Marshal(best.Options)
	metricJSON, _ := json.Marshal(metrics)

	inserted, err := s.registry.InsertModelVersion(ctx, domain.ModelVersion{
		ModelKey:           ModelKey,
		Version:            version,
		FeatureSpecVersion: features.FeatureSpecVersion(),
		TrainedAt:          now.UTC(),
		HyperparamsJSON:    string(hyperJSON),
		MetricsJSON:        string(metricJSON),
		ArtifactFormat:     "json/onehot-boo-v1",
		ArtifactBlob:       blob,
		IsActive:           false,
	})
	if err != nil {
		return 0, false, err
	}

	promote, err := s.shouldPromote(ctx, metrics["auc"], int(metrics["n_eval"]))
	if err != nil {
		return inserted.Version, false, err
	}
	if promote {
		if err := s.registry.ActivateModel(ctx, ModelKey, inserted.Version); err != nil {
			return inserted.Version, false, err
		}
	}
	return inserted.Version, promote, nil
}

func (s *Service) shouldPromote(ctx context.Context, newAUC float64, evalRows int) (bool, error) {
	active, err := s.registry.GetActiveModel(ctx, ModelKey)
	if err != nil {
		return false, err
	}
	if active == nil {
		return true, nil
	}
	if evalRows < minPromoteEvalRows {
		return false, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(active.MetricsJSON), &m); err != nil {
		return true, nil
	}
	activeAUC, ok := m["auc"]
	if !ok {
		return true, nil
	}
	return newAUC >= activeAUC+0.01, nil
}
