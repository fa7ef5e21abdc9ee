// Package mcpserver exposes the pipeline over the Model Context Protocol,
// next to the HTTP API: run reports, scored orders, community stats, and a
// retrain trigger, as tools an MCP client can call.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"return-radar/internal/cache"
	"return-radar/internal/domain"
	"return-radar/internal/ml/training"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
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

// Server owns the tool handlers. Nil stores report unavailability through the
// tool result instead of failing at registration time, same as the HTTP
// handlers do with 503.
type Server struct {
	redis       *redis.Client
	predictions PredictionStore
	communities CommunityStore
	runner      PipelineRunner
}

func New(redisClient *redis.Client, predictions PredictionStore, communities CommunityStore) *Server {
	return &Server{
		redis:       redisClient,
		predictions: predictions,
		communities: communities,
	}
}

func (s *Server) SetPipelineRunner(runner PipelineRunner) {
	s.runner = runner
}

type emptyInput struct{}

type limitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of rows to return"`
}

type orderInput struct {
	OrderID string `json:"order_id" jsonschema:"order identifier to look up"`
}

// runReport mirrors domain.RunSummary with a wire-friendly timestamp.
type runReport struct {
	RunAt           string  `json:"run_at"`
	ModelKey        string  `json:"model_key"`
	ModelVersion    int     `json:"model_version"`
	TrainRows       int     `json:"train_rows"`
	EvalRows        int     `json:"eval_rows"`
	PositiveRate    float64 `json:"positive_rate"`
	HoldoutAUC      float64 `json:"holdout_auc"`
	BaselineAUC     float64 `json:"baseline_auc"`
	Promoted        bool    `json:"promoted"`
	AnomalousOrders int     `json:"anomalous_orders"`
	ExportPath      string  `json:"export_path"`
}

type predictionReport struct {
	OrderID         string  `json:"order_id"`
	ModelKey        string  `json:"model_key"`
	ModelVersion    int     `json:"model_version"`
	PredictedReturn bool    `json:"predicted_return"`
	PredictedProba  float64 `json:"predicted_proba"`
}

type predictionsOutput struct {
	Count       int                `json:"count"`
	Predictions []predictionReport `json:"predictions"`
}

type communityReport struct {
	ClusterID int64 `json:"cluster_id"`
	Size      int64 `json:"size"`
	Rank      int   `json:"rank"`
}

type communitiesOutput struct {
	Communities []communityReport `json:"communities"`
}

// MCPServer builds the tool registry.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "return-radar", Version: "1.0.0"}, nil)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "latest_run",
		Description: "Latest pipeline run report: row counts, holdout AUC, promotion decision.",
	}, s.latestRun)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "top_predictions",
		Description: "Highest-risk scored orders for the current model, most likely returns first.",
	}, s.topPredictions)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_prediction",
		Description: "Return prediction for a single order.",
	}, s.getPrediction)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "community_stats",
		Description: "Largest product co-purchase communities from the latest graph run.",
	}, s.communityStats)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "trigger_pipeline",
		Description: "Run one full train-and-score cycle and return its report.",
	}, s.triggerPipeline)
	return srv
}

// HTTPHandler serves the MCP session over streamable HTTP so the server can
// mount it on the same router as the JSON API.
func (s *Server) HTTPHandler() http.Handler {
	srv := s.MCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
}

func (s *Server) latestRun(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, runReport, error) {
	summary, err := cache.LatestRunSummary(ctx, s.redis)
	if err != nil {
		return nil, runReport{}, err
	}
	if summary == nil {
		return nil, runReport{}, errors.New("no pipeline run recorded yet")
	}
	return nil, toRunReport(*summary), nil
}

func (s *Server) topPredictions(ctx context.Context, _ *mcp.CallToolRequest, in limitInput) (*mcp.CallToolResult, predictionsOutput, error) {
	if s.predictions == nil {
		return nil, predictionsOutput{}, errors.New("prediction store unavailable")
	}
	limit := in.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	records, err := s.predictions.ListTopRisk(ctx, training.ModelKey, limit)
	if err != nil {
		return nil, predictionsOutput{}, err
	}
	out := predictionsOutput{
		Count:       len(records),
		Predictions: make([]predictionReport, 0, len(records)),
	}
	for _, r := range records {
		out.Predictions = append(out.Predictions, toPredictionReport(r))
	}
	return nil, out, nil
}

func (s *Server) getPrediction(ctx context.Context, _ *mcp.CallToolRequest, in orderInput) (*mcp.CallToolResult, predictionReport, error) {
	if s.predictions == nil {
		return nil, predictionReport{}, errors.New("prediction store unavailable")
	}
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		return nil, predictionReport{}, errors.New("order_id is required")
	}
	record, err := s.predictions.GetByOrder(ctx, orderID, training.ModelKey)
	if err != nil {
		return nil, predictionReport{}, err
	}
	if record == nil {
		return nil, predictionReport{}, fmt.Errorf("no prediction for order %s", orderID)
	}
	return nil, toPredictionReport(*record), nil
}

func (s *Server) communityStats(ctx context.Context, _ *mcp.CallToolRequest, in limitInput) (*mcp.CallToolResult, communitiesOutput, error) {
	if s.communities == nil {
		return nil, communitiesOutput{}, errors.New("community store unavailable")
	}
	limit := in.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	stats, err := s.communities.ListStats(ctx, limit)
	if err != nil {
		return nil, communitiesOutput{}, err
	}
	out := communitiesOutput{Communities: make([]communityReport, 0, len(stats))}
	for _, c := range stats {
		out.Communities = append(out.Communities, communityReport{
			ClusterID: c.ClusterID,
			Size:      c.Size,
			Rank:      c.Rank,
		})
	}
	return nil, out, nil
}

func (s *Server) triggerPipeline(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, runReport, error) {
	if s.runner == nil {
		return nil, runReport{}, errors.New("pipeline runner unavailable")
	}
	summary, err := s.runner.Run(ctx)
	if err != nil {
		return nil, runReport{}, fmt.Errorf("pipeline run failed: %w", err)
	}
	return nil, toRunReport(*summary), nil
}

func toRunReport(s domain.RunSummary) runReport {
	return runReport{
		RunAt:           s.RunAt.UTC().Format(time.RFC3339),
		ModelKey:        s.ModelKey,
		ModelVersion:    s.ModelVersion,
		TrainRows:       s.TrainRows,
		EvalRows:        s.EvalRows,
		PositiveRate:    s.PositiveRate,
		HoldoutAUC:      s.HoldoutAUC,
		BaselineAUC:     s.BaselineAUC,
		Promoted:        s.Promoted,
		AnomalousOrders: s.AnomalousOrders,
		ExportPath:      s.ExportPath,
	}
}

func toPredictionReport(r domain.PredictionRecord) predictionReport {
	return predictionReport{
		OrderID:         r.OrderID,
		ModelKey:        r.ModelKey,
		ModelVersion:    r.ModelVersion,
		PredictedReturn: r.PredictedReturn,
		PredictedProba:  r.PredictedProba,
	}
}
