package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/odatakit/odata-client/pkg/batch"
	"github.com/odatakit/odata-client/pkg/client"
	"github.com/odatakit/odata-client/pkg/logging"
)

func main() {
	// Configuration from environment
	redisURL := getEnv("REDIS_URL", "localhost:6379")
	port := getEnv("PORT", "8080")
	serviceURL := getEnv("SERVICE_URL", "")
	userAgent := getEnv("USER_AGENT", "odata-proxy/0.1.0")
	logLevel := getEnv("LOG_LEVEL", "info")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: false,
		Output: os.Stderr,
	})

	if serviceURL == "" {
		logger.Fatal().Msg("SERVICE_URL is required")
	}

	// Setup Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	// Ping Redis
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("redis", redisURL).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("redis", redisURL).Msg("Connected to Redis")

	// Create OData client
	cfg := client.DefaultConfig(redisClient, serviceURL)
	cfg.UserAgent = userAgent
	odataClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create OData client")
	}
	defer odataClient.Close()

	// HTTP Server
	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ready", readyHandler(redisClient, odataClient)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/batch", batchHandler(odataClient, logger)).Methods(http.MethodPost)
	router.HandleFunc("/odata/{rest:.*}", proxyHandler(odataClient, logger)).Methods(http.MethodGet)

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("service_url", serviceURL).
		Str("user_agent", userAgent).
		Msg("Starting OData proxy server")

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports readiness based on the Redis connection.
func readyHandler(redisClient *redis.Client, odataClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			http.Error(w, fmt.Sprintf("redis unavailable: %v", err), http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// proxyHandler forwards GET requests to the OData service through the
// caching client. Example: /odata/Products?$top=10 -> <service>/Products?$top=10
func proxyHandler(odataClient *client.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource := mux.Vars(r)["rest"]
		if r.URL.RawQuery != "" {
			resource += "?" + r.URL.RawQuery
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		resp, err := odataClient.Get(ctx, resource, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("OData request failed: %v", err), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		// Copy response headers
		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		// Copy status code
		w.WriteHeader(resp.StatusCode)

		// Copy body
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Warn().Err(err).Msg("Failed to write proxied response")
		}
	}
}

// batchRequestPayload is the JSON shape accepted by the /batch endpoint.
type batchRequestPayload struct {
	Requests []batch.Request `json:"requests"`
}

// batchHandler accepts a JSON list of requests, bundles them into one OData
// $batch exchange, and returns the per-request responses as JSON.
func batchHandler(odataClient *client.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload batchRequestPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, fmt.Sprintf("invalid batch payload: %v", err), http.StatusBadRequest)
			return
		}
		if len(payload.Requests) == 0 {
			http.Error(w, "batch payload contains no requests", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		responses, err := odataClient.ExecuteBatch(ctx, payload.Requests)
		if err != nil {
			http.Error(w, fmt.Sprintf("$batch exchange failed: %v", err), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(responses); err != nil {
			logger.Warn().Err(err).Msg("Failed to write batch response")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
