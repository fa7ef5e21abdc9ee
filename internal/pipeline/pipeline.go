// Package pipeline runs the full train-and-score cycle: load, derive, split,
// fit statistics on the training partition only, tune, evaluate on the
// holdout, persist, export, and report.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"return-radar/internal/cache"
	"return-radar/internal/config"
	"return-radar/internal/dataset"
	"return-radar/internal/domain"
	"return-radar/internal/export"
	"return-radar/internal/features"
	"return-radar/internal/graph"
	"return-radar/internal/ml/eval"
	"return-radar/internal/ml/groupstats"
	"return-radar/internal/ml/search"
	"return-radar/internal/ml/split"
	"return-radar/internal/ml/training"
	"return-radar/internal/quality"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type Trainer interface {
	Train(ctx context.Context, trainSamples []domain.Sample) (*training.TrainResult, error)
	Persist(ctx context.Context, pipeline *training.Pipeline, best search.Result, metrics map[string]float64, now time.Time) (version int, promoted bool, err error)
}

type PredictionStore interface {
	UpsertBatch(ctx context.Context, batch []domain.PredictionRecord) (int, error)
}

type CommunityStore interface {
	ReplaceStats(ctx context.Context, stats []domain.CommunityStat) error
}

// Runner wires the run together. Nil stores disable their stage; only the
// dataset and the trainer are mandatory.
type Runner struct {
	Cfg         *config.Config
	Tracer      trace.Tracer
	Trainer     Trainer
	Predictions PredictionStore
	Communities CommunityStore
	Graph       *graph.Store
	Redis       *redis.Client
	Now         func() time.Time
}

func (r *Runner) Run(ctx context.Context) (*domain.RunSummary, error) {
	ctx, span := r.Tracer.Start(ctx, "pipeline.run")
	defer span.End()

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	runAt := now().UTC()

	rows, err := dataset.LoadFile(r.Cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if err := features.DeriveAll(rows); err != nil {
		return nil, fmt.Errorf("derive features: %w", err)
	}
	if len(rows) < r.Cfg.MinTrainRows {
		return nil, fmt.Errorf("dataset has %d rows, need >= %d", len(rows), r.Cfg.MinTrainRows)
	}
	log.Printf("pipeline: loaded %d orders from %s", len(rows), r.Cfg.DatasetPath)

	labels := make([]float64, len(rows))
	positives := 0
	for i := range rows {
		if rows[i].ReturnedFlag {
			labels[i] = 1
			positives++
		}
	}

	trainIdx, evalIdx, err := split.Stratified(labels, r.Cfg.HoldoutFraction, r.Cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("holdout split: %w", err)
	}
	trainRows := pick(rows, trainIdx)
	evalRows := pick(rows, evalIdx)

	// Group statistics see the training partition only. Both partitions are
	// then assembled through the identical BuildSamples path.
	stats := groupstats.Fit(trainRows)
	trainSamples := features.BuildSamples(trainRows, stats)
	evalSamples := features.BuildSamples(evalRows, stats)
	log.Printf("pipeline: split %d train / %d eval, %d customers, %d products",
		len(trainSamples), len(evalSamples), stats.CustomerCount(), stats.ProductCount())

	anomalies := r.screen(trainSamples, evalSamples)

	result, err := r.Trainer.Train(ctx, trainSamples)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	log.Printf("pipeline: best candidate trial=%d cv_auc=%.4f", result.Best.Trial, result.Best.MeanAUC)

	evalY := make([]float64, len(evalSamples))
	for i := range evalSamples {
		evalY[i] = evalSamples[i].Label
	}
	probs := result.Pipeline.PredictBatch(evalSamples)
	metrics := eval.Metrics(evalY, probs, r.Cfg.DecisionThreshold)

	encodedEval := result.Pipeline.Encoder().TransformAll(evalSamples)
	baselineAUC := eval.AUC(evalY, result.Baseline.PredictBatch(encodedEval))
	log.Printf("pipeline: holdout auc=%.4f baseline auc=%.4f", metrics["auc"], baselineAUC)

	importances := eval.PermutationImportance(
		result.Pipeline.Model(), encodedEval, evalY,
		result.Pipeline.Encoder().FeatureNames(), r.Cfg.TopFeatures, r.Cfg.Seed)

	version, promoted, err := r.Trainer.Persist(ctx, result.Pipeline, result.Best, metrics, runAt)
	if err != nil {
		return nil, fmt.Errorf("persist model: %w", err)
	}

	records := r.buildPredictions(evalSamples, probs, version)
	if r.Predictions != nil {
		if n, err := r.Predictions.UpsertBatch(ctx, records); err != nil {
			log.Printf("pipeline: prediction store failed after %d rows: %v", n, err)
		}
	}

	if err := export.WritePredictionsCSV(r.Cfg.ExportPath, records); err != nil {
		return nil, fmt.Errorf("export predictions: %w", err)
	}
	r.renderCharts(evalY, probs, metrics["auc"], importances)

	r.writeGraph(ctx, records, runAt)

	summary := domain.RunSummary{
		RunAt:           runAt,
		ModelKey:        training.ModelKey,
		ModelVersion:    version,
		TrainRows:       len(trainSamples),
		EvalRows:        len(evalSamples),
		PositiveRate:    float64(positives) / float64(len(rows)),
		HoldoutAUC:      metrics["auc"],
		BaselineAUC:     baselineAUC,
		BestParamsJSON:  optionsJSON(result.Best),
		Promoted:        promoted,
		AnomalousOrders: anomalies,
		ExportPath:      r.Cfg.ExportPath,
	}
	if err := cache.StoreRunSummary(ctx, r.Redis, summary); err != nil {
		log.Printf("pipeline: cache run summary: %v", err)
	}
	return &summary, nil
}

// screen runs the isolation forest over every row's numeric features. The
// screen is advisory; failures only cost the anomaly count in the report.
func (r *Runner) screen(trainSamples, evalSamples []domain.Sample) int {
	matrix := make([][]float64, 0, len(trainSamples)+len(evalSamples))
	for _, s := range trainSamples {
		matrix = append(matrix, s.Numeric)
	}
	for _, s := range evalSamples {
		matrix = append(matrix, s.Numeric)
	}
	res, err := quality.Screen(matrix, r.Cfg.AnomalyThreshold)
	if err != nil {
		log.Printf("pipeline: anomaly screen failed: %v", err)
		return 0
	}
	if res.Anomalies > 0 {
		log.Printf("pipeline: flagged %d anomalous orders (threshold %.2f)", res.Anomalies, r.Cfg.AnomalyThreshold)
	}
	return res.Anomalies
}

func (r *Runner) buildPredictions(evalSamples []domain.Sample, probs []float64, version int) []domain.PredictionRecord {
	records := make([]domain.PredictionRecord, 0, len(evalSamples))
	for i, s := range evalSamples {
		records = append(records, domain.PredictionRecord{
			OrderID:         s.OrderID,
			ModelKey:        training.ModelKey,
			ModelVersion:    version,
			PredictedReturn: probs[i] >= r.Cfg.DecisionThreshold,
			PredictedProba:  probs[i],
		})
	}
	return records
}

func (r *Runner) renderCharts(evalY, probs []float64, auc float64, importances []eval.Importance) {
	fpr, tpr := eval.ROCCurve(evalY, probs)
	rocPath := filepath.Join(r.Cfg.ChartDir, "roc_curve.png")
	if err := export.SaveROCChart(rocPath, fpr, tpr, auc); err != nil {
		log.Printf("pipeline: roc chart: %v", err)
	}
	impPath := filepath.Join(r.Cfg.ChartDir, "feature_importances.png")
	if err := export.SaveImportanceChart(impPath, importances); err != nil {
		log.Printf("pipeline: importance chart: %v", err)
	}
}

func (r *Runner) writeGraph(ctx context.Context, records []domain.PredictionRecord, runAt time.Time) {
	if r.Graph == nil {
		return
	}
	written := r.Graph.WritePredictions(ctx, records)
	log.Printf("pipeline: wrote %d predictions to graph", written)

	stats, err := r.Graph.ComputeCommunities(ctx, 10, runAt)
	if err != nil {
		log.Printf("pipeline: community detection: %v", err)
		return
	}
	if r.Communities != nil && len(stats) > 0 {
		if err := r.Communities.ReplaceStats(ctx, stats); err != nil {
			log.Printf("pipeline: store community stats: %v", err)
		}
	}
}

func pick(rows []domain.OrderRecord, idx []int) []domain.OrderRecord {
	out := make([]domain.OrderRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

func optionsJSON(best search.Result) string {
	data, err := json.Marshal(best.Options)
	if err != nil {
		return "{}"
	}
	return string(data)
}
