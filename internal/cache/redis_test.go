package cache

import (
	"context"
	"testing"
	"time"

	"return-radar/internal/domain"

	"github.com/redis/go-redis/v9"
)

func TestInitRedisWithCustomAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}

	InitRedis(context.Background())
	if capturedAddr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", capturedAddr)
	}
	if Client == nil {
		t.Fatal("expected client to be set on successful ping")
	}
}

func TestInitRedisUnreachableLeavesClientNil(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return context.DeadlineExceeded
	}

	InitRedis(context.Background())
	if Client != nil {
		t.Fatal("expected nil client when redis is unreachable")
	}
}

func TestRunSummaryRoundTrip(t *testing.T) {
	in := domain.RunSummary{
		RunAt:        time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC),
		ModelKey:     "return_gbt",
		ModelVersion: 3,
		TrainRows:    8000,
		EvalRows:     2000,
		HoldoutAUC:   0.87,
	}
	data, err := encodeRunSummary(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out, err := decodeRunSummary(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.ModelKey != in.ModelKey || out.ModelVersion != in.ModelVersion || out.HoldoutAUC != in.HoldoutAUC {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", out, in)
	}
}

func TestRunSummaryNilClientIsNoop(t *testing.T) {
	if err := StoreRunSummary(context.Background(), nil, domain.RunSummary{}); err != nil {
		t.Fatalf("nil client store should be a no-op, got %v", err)
	}
	s, err := LatestRunSummary(context.Background(), nil)
	if err != nil || s != nil {
		t.Fatalf("nil client read should return nothing, got %v %v", s, err)
	}
}
