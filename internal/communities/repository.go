// Package communities persists product co-purchase cluster statistics
// computed by the graph engine. Each pipeline run replaces the previous
// ranking wholesale.
package communities

import (
	"context"

	"return-radar/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	pool   pool
	tracer trace.Tracer
}

func NewRepository(pool pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

// ReplaceStats swaps the stored ranking for the given stats in one
// transaction, so readers never observe a partially written ranking.
func (r *Repository) ReplaceStats(ctx context.Context, stats []domain.CommunityStat) error {
	_, span := r.tracer.Start(ctx, "communities.replace-stats")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM community_stats`); err != nil {
		return err
	}
	for _, s := range stats {
		if _, err := tx.Exec(ctx, `
INSERT INTO community_stats (cluster_id, size, rank, computed_at)
VALUES ($1, $2, $3, $4)`,
			s.ClusterID, s.Size, s.Rank, s.ComputedAt.UTC(),
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListStats(ctx context.Context, limit int) ([]domain.CommunityStat, error) {
	_, span := r.tracer.Start(ctx, "communities.list-stats")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
SELECT cluster_id, size, rank, computed_at
FROM community_stats
ORDER BY rank ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CommunityStat, 0, limit)
	for rows.Next() {
		var s domain.CommunityStat
		if err := rows.Scan(&s.ClusterID, &s.Size, &s.Rank, &s.ComputedAt); err != nil {
			return nil, err
		}
		s.ComputedAt = s.ComputedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
