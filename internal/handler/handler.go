package handler

import (
	"context"

	"return-radar/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type PredictionStore interface {
	ListTopRisk(ctx context.Context, modelKey string, limit int) ([]domain.PredictionRecord, error)
	GetByOrder(ctx context.Context, orderID, modelKey string) (*domain.PredictionRecord, error)
}

type CommunityStore interface {
	ListStats(ctx context.Context, limit int) ([]domain.CommunityStat, error)
}

type PipelineRunner interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

type Handler struct {
	tracer      trace.Tracer
	redis       *redis.Client
	predictions PredictionStore
	communities CommunityStore
	runner      PipelineRunner
}

func New(tracer trace.Tracer, redisClient *redis.Client, predictions PredictionStore, communities CommunityStore) *Handler {
	return &Handler{
		tracer:      tracer,
		redis:       redisClient,
		predictions: predictions,
		communities: communities,
	}
}

func (h *Handler) SetPipelineRunner(runner PipelineRunner) {
	h.runner = runner
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/api/runs/latest", h.LatestRun)
	r.GET("/api/predictions", h.ListPredictions)
	r.GET("/api/predictions/:order_id", h.GetPrediction)
	r.GET("/api/communities", h.ListCommunities)
	r.POST("/api/pipeline/run", RequireAPIKey(apiKey), h.TriggerPipeline)
}
