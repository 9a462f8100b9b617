package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mockserver:analytics"

type Analytics struct {
	redis *redis.Client
}

// ModeAnalytics is the aggregated view for one strategy.
type ModeAnalytics struct {
	Mode          string           `json:"mode"`
	Requests      map[string]int64 `json:"requests"` // status code -> count
	Total         int64            `json:"total"`
	Errors        int64            `json:"errors"`
	LastLatencyMs int64            `json:"last_latency_ms"`
}

func NewAnalytics(r *redis.Client) *Analytics {
	return &Analytics{redis: r}
}

func reqKey(mode string, status int) string {
	return keyPrefix + ":req:" + mode + ":" + strconv.Itoa(status)
}

func errKey(mode string) string { return keyPrefix + ":err:" + mode }
func latKey(mode string) string { return keyPrefix + ":lat:" + mode }

// Ping checks that Redis is reachable.
func (a *Analytics) Ping(ctx context.Context) error {
	return a.redis.Ping(ctx).Err()
}

// RecordResponse counts one answered request for mode.
func (a *Analytics) RecordResponse(ctx context.Context, mode string, status int, duration time.Duration) error {
	pipe := a.redis.Pipeline()
	pipe.Incr(ctx, reqKey(mode, status))
	pipe.Set(ctx, latKey(mode), duration.Milliseconds(), time.Hour)
	if status >= 400 {
		pipe.Incr(ctx, errKey(mode))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording response for %s: %w", mode, err)
	}
	return nil
}

// FetchModeAnalytics aggregates the counters stored for mode.
func (a *Analytics) FetchModeAnalytics(ctx context.Context, mode string) (ModeAnalytics, error) {
	result := ModeAnalytics{Mode: mode, Requests: make(map[string]int64)}

	prefix := keyPrefix + ":req:" + mode + ":"
	iter := a.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		count, err := a.redis.Get(ctx, key).Int64()
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", key, err)
		}
		result.Requests[strings.TrimPrefix(key, prefix)] = count
		result.Total += count
	}
	if err := iter.Err(); err != nil {
		return result, fmt.Errorf("scanning analytics keys: %w", err)
	}

	errCount, err := a.redis.Get(ctx, errKey(mode)).Int64()
	if err != nil && err != redis.Nil {
		return result, fmt.Errorf("reading error count: %w", err)
	}
	result.Errors = errCount

	lat, err := a.redis.Get(ctx, latKey(mode)).Int64()
	if err != nil && err != redis.Nil {
		return result, fmt.Errorf("reading latency: %w", err)
	}
	result.LastLatencyMs = lat

	return result, nil
}
