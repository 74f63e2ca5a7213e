// Package testutil provides testing utilities for the OData client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odatakit/odata-client/pkg/batch"
)

// MockResponse defines the behavior for a mock OData endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockService is a configurable mock OData service for testing.
type MockService struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockService creates a new mock OData service.
func NewMockService() *MockService {
	mock := &MockService{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()

		// Track conditional requests
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		// Check for custom handler
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Default handler
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock service URL.
func (m *MockService) URL() string {
	return m.server.URL
}

// Close shuts down the mock service.
func (m *MockService) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockService) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockService) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		// Add delay if specified
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		// Set headers
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		// Write status and body
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetBatchResponse wires a $batch endpoint that answers any batch request
// with the given parts wrapped in a multipart/mixed body.
func (m *MockService) SetBatchResponse(parts []batch.Response) {
	const boundary = "batchresponse_test"
	body := BuildBatchBody(boundary, parts)

	m.SetHandler("/$batch", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/mixed;boundary="+boundary)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

// GetRequestCount returns the number of requests made to the service.
func (m *MockService) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockService) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// defaultHandler provides default OData-like responses.
func (m *MockService) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("OData-Version", "4.0")
	w.Header().Set("Content-Type", "application/json;odata.metadata=minimal")

	// Handle conditional requests
	if r.Header.Get("If-None-Match") != "" {
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// Default 200 OK response
	w.Header().Set("ETag", `W/"default-etag"`)
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"value":[]}`))
}

// NewEntitySetResponse creates a standard 200 OK collection response.
func NewEntitySetResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"OData-Version": "4.0",
			"ETag":          `W/"test-etag-123"`,
			"Expires":       time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type":  "application/json;odata.metadata=minimal",
		},
	}
}

// NewNotModifiedResponse creates a 304 Not Modified response.
func NewNotModifiedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotModified,
		Headers: map[string]string{
			"OData-Version": "4.0",
			"Expires":       time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
		},
	}
}

// NewErrorResponse creates an error response with an OData error envelope.
func NewErrorResponse(status int, code, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error":{"code":%q,"message":%q}}`, code, message),
		Headers: map[string]string{
			"OData-Version": "4.0",
			"Content-Type":  "application/json",
		},
	}
}

// NewThrottleResponse creates a 429 Too Many Requests response with a
// Retry-After header.
func NewThrottleResponse(retryAfterSeconds int) MockResponse {
	resp := NewErrorResponse(http.StatusTooManyRequests, "429", "Too many requests.")
	resp.Headers["Retry-After"] = fmt.Sprintf("%d", retryAfterSeconds)
	return resp
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError, "500", "Internal server error.")
}

// NewConditionalHandler creates a handler that responds with 304 for conditional requests.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("OData-Version", "4.0")
		w.Header().Set("Content-Type", "application/json;odata.metadata=minimal")

		// Check If-None-Match header
		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusNotModified)
			return
		}

		// Full response
		w.Header().Set("ETag", etag)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}

// BuildBatchBody constructs a multipart/mixed batch response body the way an
// OData service writes one, for feeding into batch.Deserialize.
func BuildBatchBody(boundary string, parts []batch.Response) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: application/http\r\n")
		b.WriteString("Content-Transfer-Encoding: binary\r\n")
		b.WriteString("\r\n")
		fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", part.Status, part.StatusText)

		names := make([]string, 0, len(part.Headers))
		for name := range part.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(name + ": " + part.Headers[name] + "\r\n")
		}

		b.WriteString("\r\n")
		b.WriteString(part.Body)
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}
