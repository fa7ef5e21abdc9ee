package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"return-radar/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	runSummaryKey = "return-radar:run-summary:latest"
	runSummaryTTL = 7 * 24 * time.Hour
)

func encodeRunSummary(s domain.RunSummary) ([]byte, error) {
	return json.Marshal(s)
}

func decodeRunSummary(data []byte) (*domain.RunSummary, error) {
	var s domain.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// StoreRunSummary caches the latest pipeline run report. A nil client is a
// no-op so the pipeline works without Redis.
func StoreRunSummary(ctx context.Context, client *redis.Client, s domain.RunSummary) error {
	if client == nil {
		return nil
	}
	data, err := encodeRunSummary(s)
	if err != nil {
		return err
	}
	return client.Set(ctx, runSummaryKey, data, runSummaryTTL).Err()
}

// LatestRunSummary returns the cached report, or nil when the cache is empty
// or disabled.
func LatestRunSummary(ctx context.Context, client *redis.Client) (*domain.RunSummary, error) {
	if client == nil {
		return nil, nil
	}
	data, err := client.Get(ctx, runSummaryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRunSummary(data)
}
