package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/odatakit/odata-client/pkg/batch"
	"github.com/odatakit/odata-client/pkg/edm"
)

// Prometheus metrics for $batch operations.
var (
	odataBatchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odata_batch_requests_total",
		Help: "Total $batch requests by outcome",
	}, []string{"outcome"})

	odataBatchParts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odata_batch_parts",
		Help:    "Number of parts per $batch request",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})
)

// ExecuteBatch bundles requests into one $batch exchange and returns the
// per-request responses in request order.
//
// Only a failure of the batch exchange itself is returned as an error.
// Individual parts with status >= 400 come back as regular responses;
// callers inspect each part and normalize failed ones with
// NewErrorFromBatch.
func (c *Client) ExecuteBatch(ctx context.Context, requests []batch.Request) ([]batch.Response, error) {
	payload := batch.Serialize(requests)
	odataBatchParts.Observe(float64(len(requests)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.resourceURL("$batch"), strings.NewReader(payload.Body))
	if err != nil {
		return nil, fmt.Errorf("create $batch request: %w", err)
	}
	for name, value := range payload.Headers() {
		req.Header.Set(name, value)
	}
	req.Header.Set("Accept", edm.ContentTypeMultipartMixed)

	resp, err := c.Do(req)
	if err != nil {
		odataBatchRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("$batch exchange: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		odataBatchRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("read $batch response: %w", err)
	}

	if resp.StatusCode >= 400 {
		odataBatchRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, NewError(resp.StatusCode, statusText(resp), resp.Header, string(body))
	}

	responses, err := batch.Deserialize(resp.Header.Get("Content-Type"), string(body))
	if err != nil {
		odataBatchRequestsTotal.WithLabelValues("malformed_response").Inc()
		return nil, fmt.Errorf("deserialize $batch response: %w", err)
	}

	odataBatchRequestsTotal.WithLabelValues("ok").Inc()
	c.logger.Debug().
		Int("requests", len(requests)).
		Int("responses", len(responses)).
		Msg("Executed $batch request")

	return responses, nil
}
