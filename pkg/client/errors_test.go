package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/odatakit/odata-client/pkg/batch"
)

func jsonHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return h
}

func TestNewError(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		statusText     string
		contentType    string
		body           string
		wantMessage    string
		wantClass      ErrorClass
		wantConcurrent bool
		wantDetailCode string
	}{
		{
			name:        "no body",
			status:      404,
			statusText:  "Not Found",
			wantMessage: "404 Not Found",
			wantClass:   ErrorClassClient,
		},
		{
			name:           "json envelope promotes message",
			status:         400,
			statusText:     "Bad Request",
			contentType:    "application/json",
			body:           `{"error":{"code":"42","message":"Invalid $filter"}}`,
			wantMessage:    "Invalid $filter",
			wantClass:      ErrorClassClient,
			wantDetailCode: "42",
		},
		{
			name:        "json envelope with parameters in content type",
			status:      400,
			statusText:  "Bad Request",
			contentType: "application/json;odata.metadata=minimal;charset=utf-8",
			body:        `{"error":{"message":"Foo"}}`,
			wantMessage: "Foo",
			wantClass:   ErrorClassClient,
		},
		{
			name:        "malformed json keeps status-line message",
			status:      500,
			statusText:  "Internal Server Error",
			contentType: "application/json",
			body:        `{"error":`,
			wantMessage: "500 Internal Server Error",
			wantClass:   ErrorClassServer,
		},
		{
			name:        "json without error property keeps status-line message",
			status:      503,
			statusText:  "Service Unavailable",
			contentType: "application/json",
			body:        `{"message":"somewhere else"}`,
			wantMessage: "503 Service Unavailable",
			wantClass:   ErrorClassServer,
		},
		{
			name:        "text plain uses raw body",
			status:      502,
			statusText:  "Bad Gateway",
			contentType: "text/plain;charset=utf-8",
			body:        "upstream connect error",
			wantMessage: "upstream connect error",
			wantClass:   ErrorClassServer,
		},
		{
			name:        "html body is ignored",
			status:      502,
			statusText:  "Bad Gateway",
			contentType: "text/html",
			body:        "<html>gateway error</html>",
			wantMessage: "502 Bad Gateway",
			wantClass:   ErrorClassServer,
		},
		{
			name:           "412 flags concurrent modification",
			status:         412,
			statusText:     "Precondition Failed",
			wantMessage:    "412 Precondition Failed",
			wantClass:      ErrorClassClient,
			wantConcurrent: true,
		},
		{
			name:        "429 classified as throttle",
			status:      429,
			statusText:  "Too Many Requests",
			wantMessage: "429 Too Many Requests",
			wantClass:   ErrorClassThrottle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := make(http.Header)
			if tt.contentType != "" {
				header.Set("Content-Type", tt.contentType)
			}

			e := NewError(tt.status, tt.statusText, header, tt.body)

			if e.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMessage)
			}
			if e.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", e.StatusCode, tt.status)
			}
			if e.StatusText != tt.statusText {
				t.Errorf("StatusText = %q, want %q", e.StatusText, tt.statusText)
			}
			if e.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", e.ErrorClass, tt.wantClass)
			}
			if e.IsConcurrentModification != tt.wantConcurrent {
				t.Errorf("IsConcurrentModification = %v, want %v", e.IsConcurrentModification, tt.wantConcurrent)
			}
			if tt.wantDetailCode != "" {
				if e.Detail == nil {
					t.Fatal("Detail = nil, want parsed envelope")
				}
				if e.Detail.Code != tt.wantDetailCode {
					t.Errorf("Detail.Code = %q, want %q", e.Detail.Code, tt.wantDetailCode)
				}
			}
		})
	}
}

func TestNewError_NestedDetails(t *testing.T) {
	body := `{"error":{"message":"top","details":[{"code":"d1","message":"first","target":"Note"}]}}`

	e := NewError(400, "Bad Request", jsonHeader(), body)

	if e.Detail == nil || len(e.Detail.Details) != 1 {
		t.Fatalf("Detail.Details = %+v, want one nested detail", e.Detail)
	}
	if e.Detail.Details[0].Target != "Note" {
		t.Errorf("nested Target = %q, want %q", e.Detail.Details[0].Target, "Note")
	}
}

func TestNewErrorFromBatch(t *testing.T) {
	part := batch.Response{
		Status:     412,
		StatusText: "Precondition Failed",
		Headers:    map[string]string{"Content-Type": "application/json;odata.metadata=minimal"},
		Body:       `{"error":{"message":"etag mismatch"}}`,
	}

	e := NewErrorFromBatch(part)

	if !e.IsConcurrentModification {
		t.Error("IsConcurrentModification = false, want true")
	}
	if e.Message != "etag mismatch" {
		t.Errorf("Message = %q, want %q", e.Message, "etag mismatch")
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &Error{
				StatusCode: 500,
				ErrorClass: ErrorClassServer,
				Message:    "internal server error",
				Err:        errors.New("connection refused"),
			},
			expected: "OData server error (status 500): internal server error: connection refused",
		},
		{
			name: "error without wrapped error",
			err: &Error{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "not found",
			},
			expected: "OData client error (status 404): not found",
		},
		{
			name: "throttle error",
			err: &Error{
				StatusCode: 429,
				ErrorClass: ErrorClassThrottle,
				Message:    "too many requests",
			},
			expected: "OData throttle error (status 429): too many requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	wrapped := errors.New("wrapped error")
	e := &Error{
		StatusCode: 500,
		ErrorClass: ErrorClassServer,
		Message:    "server error",
		Err:        wrapped,
	}

	if e.Unwrap() != wrapped {
		t.Errorf("Unwrap() = %v, want %v", e.Unwrap(), wrapped)
	}
	if !errors.Is(e, wrapped) {
		t.Error("errors.Is should work with wrapped error")
	}

	var bare Error
	if bare.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", bare.Unwrap())
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "client error should not retry",
			errorClass: ErrorClassClient,
			expected:   false,
		},
		{
			name:       "server error should retry",
			errorClass: ErrorClassServer,
			expected:   true,
		},
		{
			name:       "throttle should retry",
			errorClass: ErrorClassThrottle,
			expected:   true,
		},
		{
			name:       "network error should retry",
			errorClass: ErrorClassNetwork,
			expected:   true,
		},
		{
			name:       "empty error class should not retry",
			errorClass: "",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.errorClass); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, got, tt.expected)
			}
		})
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/json", "application/json"},
		{"application/json;odata.metadata=minimal", "application/json"},
		{"  Text/Plain ; charset=utf-8", "text/plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := mimeType(tt.contentType); got != tt.want {
			t.Errorf("mimeType(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}
