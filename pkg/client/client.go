// Package client provides an OData v4 HTTP client with ETag caching,
// throttle handling, $batch support, and error normalization.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/odatakit/odata-client/pkg/cache"
	"github.com/odatakit/odata-client/pkg/edm"
	"github.com/odatakit/odata-client/pkg/query"
	"github.com/odatakit/odata-client/pkg/throttle"
)

// Prometheus metrics for client operations.
var (
	odataRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odata_requests_total",
		Help: "Total OData requests by resource and status",
	}, []string{"resource", "status"})

	odataRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odata_request_duration_seconds",
		Help:    "OData request duration in seconds by resource",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"resource"})

	odataErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odata_errors_total",
		Help: "Total OData errors by class",
	}, []string{"class"})
)

// Client is an HTTP client bound to one OData v4 service root.
type Client struct {
	httpClient *http.Client
	redis      *redis.Client
	throttle   *throttle.Tracker
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for response caching and shared throttle state
	Redis *redis.Client

	// ServiceURL is the OData service root, e.g.
	// "https://services.example.com/V4/Northwind/Northwind.svc"
	ServiceURL string

	// UserAgent header sent on every request
	UserAgent string

	// TokenSource supplies OAuth2 bearer tokens. Nil for anonymous services.
	TokenSource oauth2.TokenSource

	// Timeout for a single HTTP exchange
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, serviceURL string) Config {
	return Config{
		Redis:      redis,
		ServiceURL: serviceURL,
		UserAgent:  "odata-client/0.1.0",
		Timeout:    30 * time.Second,
	}
}

// New creates a new OData client.
func New(cfg Config) (*Client, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.ServiceURL == "" {
		return nil, fmt.Errorf("service URL is required")
	}
	if _, err := url.Parse(cfg.ServiceURL); err != nil {
		return nil, fmt.Errorf("invalid service URL: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = "odata-client/0.1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "odata-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		redis:    cfg.Redis,
		throttle: throttle.NewTracker(cfg.Redis, logger),
		cache:    cache.NewManager(cfg.Redis),
		config:   cfg,
		logger:   logger,
	}, nil
}

// Do performs an HTTP request with throttle gating, ETag caching, retry, and
// error classification. This is the core request method; Get and
// ExecuteBatch are built on top of it.
//
// Responses with status >= 400 that are not retriable are returned as
// responses, not errors; use NewErrorFromResponse to normalize them.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	resource := req.URL.Path

	startTime := time.Now()
	defer func() {
		odataRequestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Throttle gate (shared Retry-After state)
	allowed, err := c.throttle.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Throttle check failed")
		return nil, fmt.Errorf("throttle check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("resource", resource).
			Msg("Request blocked by server throttle state")
		odataRequestsTotal.WithLabelValues(resource, "throttled").Inc()
		return nil, fmt.Errorf("request blocked: server throttling active")
	}

	// Step 2: Cache lookup (GET only)
	var cacheKey cache.Key
	var cachedEntry *cache.Entry
	if req.Method == http.MethodGet {
		cacheKey = cache.Key{Resource: resource, Query: req.URL.RawQuery}

		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("resource", resource).Msg("Cache get error")
		}

		// Step 3: Conditional request on a stale entry with a validator
		if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("resource", resource).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	// Step 4: Protocol and auth headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", edm.ContentTypeJSON)
	}
	req.Header.Set(edm.HeaderODataVersion, edm.Version)
	req.Header.Set(edm.HeaderODataMaxVersion, edm.Version)

	if c.config.TokenSource != nil {
		token, err := c.config.TokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("fetch bearer token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	// Step 5: Execute with retry
	c.logger.Debug().
		Str("resource", resource).
		Str("method", req.Method).
		Msg("Executing OData request")

	var resp *http.Response
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, func() error {
		// Rewind the body for repeated attempts
		if req.Body != nil && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				errClass = ErrorClassNetwork
				return fmt.Errorf("rewind request body: %w", bodyErr)
			}
			req.Body = body
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			errClass = ErrorClassNetwork
			odataErrorsTotal.WithLabelValues(string(errClass)).Inc()
			odataRequestsTotal.WithLabelValues(resource, "network_error").Inc()
			c.logger.Error().Err(reqErr).Str("resource", resource).Msg("HTTP request failed")
			return reqErr
		}

		// Record server throttle signals regardless of outcome
		if err := c.throttle.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update throttle state")
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass = classifyStatus(resp.StatusCode)
			odataErrorsTotal.WithLabelValues(string(errClass)).Inc()
			odataRequestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("resource", resource).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("OData request error")

			if shouldRetry(errClass) {
				lastErr := &Error{
					StatusCode: resp.StatusCode,
					StatusText: statusText(resp),
					Message:    resp.Status,
					ErrorClass: errClass,
				}
				resp.Body.Close()
				return lastErr
			}

			// Non-retriable status: hand the response to the caller
			return nil
		}

		odataRequestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, func(error) ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 6: 304 Not Modified served from cache
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("resource", resource).Msg("304 Not Modified - using cache")
		odataRequestsTotal.WithLabelValues(resource, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Cache fill on successful GET
	if req.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("resource", resource).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request against a resource path relative to the
// service root, with params appended as an OData query string.
func (c *Client) Get(ctx context.Context, resource string, params *query.Params) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.resourceURL(resource)+query.BuildQuery(params), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// ServiceURL returns the configured service root.
func (c *Client) ServiceURL() string {
	return c.config.ServiceURL
}

// resourceURL joins the service root and a resource path.
func (c *Client) resourceURL(resource string) string {
	return strings.TrimRight(c.config.ServiceURL, "/") + "/" + strings.TrimLeft(resource, "/")
}

// statusText strips the numeric code from an http.Response status line,
// e.g. "404 Not Found" -> "Not Found".
func statusText(resp *http.Response) string {
	return strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
}

// Close releases client resources. The Redis client is owned by the caller
// and stays open.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
