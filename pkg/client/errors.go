package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/odatakit/odata-client/pkg/batch"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (including 412).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassThrottle represents 429 Too Many Requests.
	ErrorClassThrottle ErrorClass = "throttle"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// ErrorDetail is the OData v4 JSON error envelope:
// {"error":{"code":...,"message":...,"target":...,"details":[...]}}
type ErrorDetail struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Target  string        `json:"target,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error *ErrorDetail `json:"error"`
}

// Error is one failed OData exchange normalized into a structured value.
type Error struct {
	StatusCode int
	StatusText string
	Message    string

	// IsConcurrentModification is set for 412 Precondition Failed, the
	// status by which an optimistic-concurrency (ETag) conflict is
	// signaled. Callers branch to conflict resolution on it.
	IsConcurrentModification bool

	ErrorClass ErrorClass

	// Detail holds the parsed OData error envelope when the response body
	// carried one.
	Detail *ErrorDetail

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("OData %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("OData %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError normalizes one failed HTTP exchange into an *Error. The message
// falls back to "<status> <statusText>"; an application/json body carrying
// an OData error envelope promotes the envelope message, a text/plain body
// is used verbatim, every other content type is ignored. The function never
// panics and never returns nil, regardless of how malformed the body is.
func NewError(status int, statusText string, header http.Header, body string) *Error {
	e := &Error{
		StatusCode: status,
		StatusText: statusText,
		Message:    fmt.Sprintf("%d %s", status, statusText),
		ErrorClass: classifyStatus(status),
	}
	if status == http.StatusPreconditionFailed {
		e.IsConcurrentModification = true
	}

	switch mimeType(header.Get("Content-Type")) {
	case "application/json":
		var envelope errorEnvelope
		if err := json.Unmarshal([]byte(body), &envelope); err != nil {
			// Keep the status-line message; the broken body is only worth
			// a local diagnostic.
			log.Debug().
				Err(err).
				Int("status", status).
				Msg("Unparsable JSON error body")
			break
		}
		if envelope.Error != nil {
			e.Detail = envelope.Error
			if envelope.Error.Message != "" {
				e.Message = envelope.Error.Message
			}
		}
	case "text/plain":
		e.Message = body
	}

	return e
}

// NewErrorFromResponse drains and normalizes a failed HTTP response. The
// body is closed.
func NewErrorFromResponse(resp *http.Response) *Error {
	var body string
	if resp.Body != nil {
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err == nil {
			body = string(data)
		}
	}
	return NewError(resp.StatusCode, statusText(resp), resp.Header, body)
}

// NewErrorFromBatch normalizes one failed part of a deserialized $batch
// response.
func NewErrorFromBatch(part batch.Response) *Error {
	header := make(http.Header, len(part.Headers))
	for name, value := range part.Headers {
		header.Set(name, value)
	}
	return NewError(part.Status, part.StatusText, header, part.Body)
}

// classifyStatus categorizes an HTTP status for observability and retry
// handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassThrottle
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// mimeType returns the lower-cased media type of a Content-Type value,
// without parameters.
func mimeType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors are the caller's fault and repeat deterministically
		return false
	case ErrorClassServer:
		return true
	case ErrorClassThrottle:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}
