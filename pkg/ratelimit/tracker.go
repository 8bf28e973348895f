package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	requestsRemainingDay = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spgci_requests_remaining_day",
		Help: "Requests remaining in the daily quota as last reported by the API",
	})

	dailyLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spgci_daily_limit_blocks_total",
		Help: "Total number of requests blocked because the daily quota is exhausted",
	})
)

// stateMaxAge bounds how long a stored quota observation is trusted.
// The daily quota resets on the vendor side; stale state must not block.
const stateMaxAge = time.Hour

// Tracker shares daily-quota state between cooperating processes via Redis
// and gates requests once the budget is exhausted.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current daily-quota state from Redis.
// Returns an unknown state when Redis holds no data.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	remaining, err := t.redis.Get(ctx, RedisKeyRemainingDay).Int()
	if err == redis.Nil {
		return DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining day: %w", err)
	}

	lastUpdate, err := t.redis.Get(ctx, RedisKeyLastUpdate).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	return &State{
		RemainingDay: remaining,
		LastUpdate:   time.Unix(lastUpdate, 0),
	}, nil
}

// UpdateFromHeaders stores the quota reported by a response. Responses
// without the header leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, h http.Header) error {
	raw := h.Get(HeaderRemainingDay)
	if raw == "" {
		return nil
	}

	remaining, err := strconv.Atoi(raw)
	if err != nil {
		t.logger.Warn().Str("value", raw).Msg("Unparseable daily quota header")
		return nil
	}

	requestsRemainingDay.Set(float64(remaining))

	now := time.Now().Unix()
	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemainingDay, remaining, stateMaxAge)
	pipe.Set(ctx, RedisKeyLastUpdate, now, stateMaxAge)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state: %w", err)
	}

	if remaining < WarningThreshold {
		t.logger.Warn().
			Int("remaining_day", remaining).
			Msg("Daily request quota running low")
	}
	return nil
}

// ShouldAllowRequest returns false once the shared state shows the daily
// budget exhausted. Unknown or stale state always allows.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if !state.Known() || state.IsStale(stateMaxAge) {
		return true, nil
	}

	if state.Exhausted() {
		dailyLimitBlocksTotal.Inc()
		t.logger.Error().
			Time("last_update", state.LastUpdate).
			Msg("Request blocked: daily quota exhausted")
		return false, nil
	}

	return true, nil
}
