// Package throttle implements shared server-throttle gating. When an OData
// service answers 429 Too Many Requests (or 503 with Retry-After), the
// announced cooldown is recorded in Redis so every client instance backs off
// together instead of each discovering the limit on its own.
package throttle

import (
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeyRetryAt    = "odata:throttle:retry_at"
	RedisKeyLastUpdate = "odata:throttle:last_update"
)

const (
	// DefaultCooldown is applied when a 429 carries no Retry-After header.
	DefaultCooldown = 10 * time.Second

	// MaxCooldown caps server-announced cooldowns so a bogus Retry-After
	// cannot park the client for hours.
	MaxCooldown = 5 * time.Minute
)

// State is the current throttle state, shared across all client instances
// via Redis. The zero value means no throttling is active.
type State struct {
	// RetryAt is the point in time until which requests must be held back,
	// derived from the server's Retry-After header.
	RetryAt time.Time `json:"retry_at"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// Blocked returns true while the cooldown window is still open.
func (s *State) Blocked() bool {
	return time.Now().Before(s.RetryAt)
}

// TimeUntilRetry returns the remaining cooldown, or 0 when requests may
// proceed.
func (s *State) TimeUntilRetry() time.Duration {
	remaining := time.Until(s.RetryAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
