// Command pipeline runs one train-and-score cycle and exits. It is the CLI
// counterpart of the server's scheduled retrain job.
package main

import (
	"context"
	"log"
	"os"

	"return-radar/internal/cache"
	"return-radar/internal/communities"
	"return-radar/internal/config"
	"return-radar/internal/db"
	"return-radar/internal/domain"
	"return-radar/internal/graph"
	"return-radar/internal/ml/predictions"
	"return-radar/internal/ml/registry"
	"return-radar/internal/ml/training"
	"return-radar/internal/pipeline"
	"return-radar/pkg/tracing"

	"github.com/joho/godotenv"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	runPipelineFunc  = func(ctx context.Context, r *pipeline.Runner) (*domain.RunSummary, error) { return r.Run(ctx) }
	exitFunc         = os.Exit
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	ctx := context.Background()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var (
		modelRegistry training.ModelRegistry
		pipePred      pipeline.PredictionStore
		pipeComm      pipeline.CommunityStore
	)
	if db.Pool != nil {
		modelRegistry = registry.NewRepository(db.Pool, tracer)
		pipePred = predictions.NewRepository(db.Pool, tracer)
		pipeComm = communities.NewRepository(db.Pool, tracer)
	}

	graphStore, err := graph.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, tracer)
	if err != nil {
		log.Printf("neo4j unavailable, graph features disabled: %v", err)
	}
	defer graphStore.Close(ctx)

	trainer := training.NewService(tracer, modelRegistry, training.Config{
		Seed:    cfg.Seed,
		Trials:  cfg.SearchTrials,
		Folds:   cfg.CVFolds,
		Workers: cfg.SearchWorkers,
	})
	runner := &pipeline.Runner{
		Cfg:         cfg,
		Tracer:      tracer,
		Trainer:     trainer,
		Predictions: pipePred,
		Communities: pipeComm,
		Graph:       graphStore,
		Redis:       cache.Client,
	}

	summary, err := runPipelineFunc(ctx, runner)
	if err != nil {
		log.Printf("pipeline run failed: %v", err)
		exitFunc(1)
		return
	}
	log.Printf("pipeline run complete: model=%s version=%d train=%d eval=%d auc=%.4f baseline=%.4f promoted=%v export=%s",
		summary.ModelKey, summary.ModelVersion, summary.TrainRows, summary.EvalRows,
		summary.HoldoutAUC, summary.BaselineAUC, summary.Promoted, summary.ExportPath)
}
