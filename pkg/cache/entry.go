// Package cache provides Redis-backed caching for OData responses with
// ETag support for conditional requests.
package cache

import (
	"net/http"
	"time"
)

// Entry represents a cached OData response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match) and optimistic
	// concurrency (If-Match on updates)
	ETag string `json:"etag"`

	// Expires is when the entry becomes stale, derived from Cache-Control
	// max-age or the Expires header
	Expires time.Time `json:"expires"`

	// LastModified from the response's last-modified header
	LastModified time.Time `json:"last_modified"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
