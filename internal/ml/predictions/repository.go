// Package predictions persists per-order return scores. Re-scoring an order
// with the same model version overwrites the previous row.
package predictions

import (
	"context"
	"errors"

	"return-radar/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool   pool
	tracer trace.Tracer
}

func NewRepository(pool pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) UpsertPrediction(ctx context.Context, prediction domain.PredictionRecord) (*domain.PredictionRecord, error) {
	_, span := r.tracer.Start(ctx, "predictions.upsert")
	defer span.End()

	row := r.pool.QueryRow(ctx, `
INSERT INTO predictions (
    order_id, model_key, model_version,
    predicted_return, predicted_proba
) VALUES (
    $1, $2, $3,
    $4, $5
)
ON CONFLICT (order_id, model_key, model_version) DO UPDATE SET
    predicted_return = EXCLUDED.predicted_return,
    predicted_proba = EXCLUDED.predicted_proba
RETURNING id, order_id, model_key, model_version,
          predicted_return, predicted_proba, created_at`,
		prediction.OrderID,
		prediction.ModelKey,
		prediction.ModelVersion,
		prediction.PredictedReturn,
		prediction.PredictedProba,
	)
	return scanPredictionRow(row)
}

// UpsertBatch writes one row per prediction inside a single span. Batches are
// small enough (one dataset scoring run) that per-row statements are fine.
func (r *Repository) UpsertBatch(ctx context.Context, batch []domain.PredictionRecord) (int, error) {
	_, span := r.tracer.Start(ctx, "predictions.upsert-batch")
	defer span.End()

	written := 0
	for _, p := range batch {
		if _, err := r.pool.Exec(ctx, `
INSERT INTO predictions (
    order_id, model_key, model_version,
    predicted_return, predicted_proba
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (order_id, model_key, model_version) DO UPDATE SET
    predicted_return = EXCLUDED.predicted_return,
    predicted_proba = EXCLUDED.predicted_proba`,
			p.OrderID, p.ModelKey, p.ModelVersion, p.PredictedReturn, p.PredictedProba,
		); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (r *Repository) ListTopRisk(ctx context.Context, modelKey string, limit int) ([]domain.PredictionRecord, error) {
	_, span := r.tracer.Start(ctx, "predictions.list-top-risk")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, order_id, model_key, model_version,
       predicted_return, predicted_proba, created_at
FROM predictions
WHERE model_key = $1
ORDER BY predicted_proba DESC, order_id ASC
LIMIT $2`, modelKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PredictionRecord, 0, limit)
	for rows.Next() {
		p, err := scanPredictionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repository) GetByOrder(ctx context.Context, orderID, modelKey string) (*domain.PredictionRecord, error) {
	_, span := r.tracer.Start(ctx, "predictions.get-by-order")
	defer span.End()

	row := r.pool.QueryRow(ctx, `
SELECT id, order_id, model_key, model_version,
       predicted_return, predicted_proba, created_at
FROM predictions
WHERE order_id = $1 AND model_key = $2
ORDER BY model_version DESC
LIMIT 1`, orderID, modelKey)
	out, err := scanPredictionRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPredictionRow(s scanner) (*domain.PredictionRecord, error) {
	var out domain.PredictionRecord
	if err := s.Scan(
		&out.ID,
		&out.OrderID,
		&out.ModelKey,
		&out.ModelVersion,
		&out.PredictedReturn,
		&out.PredictedProba,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return &out, nil
}
