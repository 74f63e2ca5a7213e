package throttle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	odataThrottleCooldownSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "odata_throttle_cooldown_seconds",
		Help: "Most recent server-announced cooldown duration in seconds",
	})

	odataThrottleBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odata_throttle_blocks_total",
		Help: "Total number of requests blocked by an open cooldown window",
	})

	odataThrottleEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odata_throttle_events_total",
		Help: "Total number of throttle responses observed by status",
	}, []string{"status"})
)

// Tracker records server throttle signals and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new throttle tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current throttle state from Redis. Returns the
// zero (unthrottled) state when no cooldown is recorded; the Redis entries
// expire together with the cooldown window.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	retryAtUnix, err := t.redis.Get(ctx, RedisKeyRetryAt).Int64()
	if err == redis.Nil {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get retry_at: %w", err)
	}

	state := &State{RetryAt: time.Unix(retryAtUnix, 0)}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last_update: %w", err)
	}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last_update: %w", err)
		}
	}

	return state, nil
}

// ShouldAllowRequest reports whether a request may be sent now.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.Blocked() {
		odataThrottleBlocksTotal.Inc()
		t.logger.Warn().
			Dur("retry_in", state.TimeUntilRetry()).
			Msg("Request held back by throttle cooldown")
		return false, nil
	}

	return true, nil
}

// UpdateFromResponse records a throttle signal from a completed exchange.
// Only 429, and 503 with an explicit Retry-After, open a cooldown window;
// every other status is a no-op.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) error {
	if status != http.StatusTooManyRequests && status != http.StatusServiceUnavailable {
		return nil
	}

	cooldown := parseRetryAfter(headers.Get("Retry-After"))
	if cooldown <= 0 {
		if status == http.StatusServiceUnavailable {
			// A plain 503 is an outage, not throttling
			return nil
		}
		cooldown = DefaultCooldown
	}
	if cooldown > MaxCooldown {
		cooldown = MaxCooldown
	}

	now := time.Now()
	retryAt := now.Add(cooldown)

	lastUpdateJSON, err := json.Marshal(now)
	if err != nil {
		return fmt.Errorf("marshal last_update: %w", err)
	}

	// Entries expire with the window, so a missing key means "not throttled"
	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRetryAt, retryAt.Unix(), cooldown)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store throttle state in redis: %w", err)
	}

	odataThrottleCooldownSeconds.Set(cooldown.Seconds())
	odataThrottleEventsTotal.WithLabelValues(strconv.Itoa(status)).Inc()

	t.logger.Warn().
		Int("status", status).
		Dur("cooldown", cooldown).
		Time("retry_at", retryAt).
		Msg("Server throttle signal recorded")

	return nil
}

// parseRetryAfter interprets a Retry-After value as either delta-seconds or
// an HTTP-date. Returns 0 for an absent or unparsable value.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return time.Until(at)
	}
	return 0
}
