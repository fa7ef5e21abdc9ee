// Package graph talks to Neo4j: prediction write-back onto Order nodes and
// product co-purchase community detection via GDS. The whole package is
// best-effort; a nil Store disables graph features without failing the run.
package graph

import (
	"context"
	"fmt"
	"log"
	"time"

	"return-radar/internal/domain"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/trace"
)

const graphName = "prodCoGraph"

type Store struct {
	driver neo4j.DriverWithContext
	tracer trace.Tracer
}

// New connects to Neo4j. An empty URI disables the store; callers get nil and
// every method degrades to a no-op.
func New(uri, user, password string, tracer trace.Tracer) (*Store, error) {
	if uri == "" {
		log.Println("NEO4J_URI is empty, graph features disabled")
		return nil, nil
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	return &Store{driver: driver, tracer: tracer}, nil
}

func (s *Store) Close(ctx context.Context) {
	if s == nil || s.driver == nil {
		return
	}
	if err := s.driver.Close(ctx); err != nil {
		log.Printf("close neo4j driver: %v", err)
	}
}

// WritePredictions sets predicted_return and predicted_prob on each scored
// Order node. Rows that fail are logged and skipped so one bad order never
// blocks the batch.
func (s *Store) WritePredictions(ctx context.Context, records []domain.PredictionRecord) int {
	if s == nil || s.driver == nil {
		return 0
	}
	ctx, span := s.tracer.Start(ctx, "graph.write-predictions")
	defer span.End()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	written := 0
	for _, r := range records {
		_, err := session.Run(ctx, `
MATCH (o:Order {id: $order_id})
SET o.predicted_return = $pred,
    o.predicted_prob   = $prob`,
			map[string]any{
				"order_id": r.OrderID,
				"pred":     r.PredictedReturn,
				"prob":     r.PredictedProba,
			})
		if err != nil {
			log.Printf("graph write-back for order %s failed: %v", r.OrderID, err)
			continue
		}
		written++
	}
	return written
}

// ComputeCommunities projects the product co-purchase graph, runs Louvain,
// and returns the largest clusters ranked by member count.
func (s *Store) ComputeCommunities(ctx context.Context, limit int, now time.Time) ([]domain.CommunityStat, error) {
	if s == nil || s.driver == nil {
		return nil, nil
	}
	ctx, span := s.tracer.Start(ctx, "graph.compute-communities")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Stale projections from a previous run are fine to lose.
	if _, err := session.Run(ctx, `CALL gds.graph.drop($name, false)`, map[string]any{"name": graphName}); err != nil {
		log.Printf("drop graph projection: %v", err)
	}

	if _, err := session.Run(ctx, `
CALL gds.graph.project.cypher(
  $name,
  'MATCH (p:Product) RETURN id(p) AS id',
  '
    MATCH (o:Order)-[:CONTAINS]->(p1:Product),
          (o)-[:CONTAINS]->(p2:Product)
    WHERE id(p1) < id(p2)
    RETURN id(p1) AS source,
           id(p2) AS target,
           count(*) AS weight
  '
)`, map[string]any{"name": graphName}); err != nil {
		return nil, fmt.Errorf("project co-purchase graph: %w", err)
	}

	if _, err := session.Run(ctx, `
CALL gds.louvain.write(
  $name,
  {
    relationshipWeightProperty: 'weight',
    writeProperty: 'communityId'
  }
)`, map[string]any{"name": graphName}); err != nil {
		return nil, fmt.Errorf("louvain: %w", err)
	}

	result, err := session.Run(ctx, `
MATCH (p:Product)
WHERE p.communityId IS NOT NULL
RETURN p.communityId AS cluster, count(p) AS size
ORDER BY size DESC
LIMIT $limit`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("fetch clusters: %w", err)
	}

	var out []domain.CommunityStat
	for result.Next(ctx) {
		rec := result.Record()
		cluster, _ := rec.Get("cluster")
		size, _ := rec.Get("size")
		clusterID, ok := cluster.(int64)
		if !ok {
			continue
		}
		memberCount, ok := size.(int64)
		if !ok {
			continue
		}
		out = append(out, domain.CommunityStat{
			ClusterID:  clusterID,
			Size:       memberCount,
			Rank:       len(out) + 1,
			ComputedAt: now.UTC(),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate clusters: %w", err)
	}
	return out, nil
}
