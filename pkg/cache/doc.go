// Package cache provides Redis-backed caching for OData responses.
//
// The cache manager implements HTTP-compliant response caching with the
// following features:
//
// - Freshness from Cache-Control max-age, with Expires as fallback
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Automatic TTL management so Redis evicts stale entries
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.Key{
//		Resource: "/SalesOrderList",
//		Query:    "$top=10",
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the service
//	}
//
// # HTTP Response Caching
//
//	// Convert HTTP response to cache entry
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//
//	// Store in cache
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	// Check if we should make a conditional request
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// The service answers 304 if the representation is unchanged
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - odata_cache_hits_total{layer="redis"} - Cache hits
//   - odata_cache_misses_total - Cache misses
//   - odata_cache_size_bytes{layer="redis"} - Cache size
//   - odata_304_responses_total - Conditional request successes
//   - odata_conditional_requests_total - Conditional requests sent
//   - odata_cache_errors_total{operation} - Cache operation errors
package cache
