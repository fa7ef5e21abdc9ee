package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"return-radar/internal/cache"
	"return-radar/internal/communities"
	"return-radar/internal/config"
	"return-radar/internal/db"
	"return-radar/internal/graph"
	"return-radar/internal/handler"
	"return-radar/internal/job"
	"return-radar/internal/mcpserver"
	"return-radar/internal/ml/predictions"
	"return-radar/internal/ml/registry"
	"return-radar/internal/ml/training"
	"return-radar/internal/pipeline"
	"return-radar/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newRouterFunc          = gin.Default
	startRetrainJobFunc    = func(j *job.RetrainJob, ctx context.Context) { go j.Start(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		predStore     handler.PredictionStore
		commStore     handler.CommunityStore
		pipePred      pipeline.PredictionStore
		pipeComm      pipeline.CommunityStore
	)
	if db.Pool != nil {
		predRepo := predictions.NewRepository(db.Pool, tracer)
		commRepo := communities.NewRepository(db.Pool, tracer)
		modelRegistry = registry.NewRepository(db.Pool, tracer)
		predStore, pipePred = predRepo, predRepo
		commStore, pipeComm = commRepo, commRepo
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

	retrainJob := job.NewRetrainJob(tracer, runner, cfg.TrainHourUTC)
	startRetrainJobFunc(retrainJob, ctx)

	h := handler.New(tracer, cache.Client, predStore, commStore)
	h.SetPipelineRunner(runner)

	mcpSrv := mcpserver.New(cache.Client, predStore, commStore)
	mcpSrv.SetPipelineRunner(runner)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("return-radar"))
	h.RegisterRoutes(r, cfg.APIKey)
	r.Any("/mcp", handler.RequireAPIKey(cfg.APIKey), gin.WrapH(mcpSrv.HTTPHandler()))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
