package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "valid response with all headers",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Expires":       []string{time.Now().Add(1 * time.Hour).Format(http.TimeFormat)},
					"Last-Modified": []string{time.Now().Add(-1 * time.Hour).Format(http.TimeFormat)},
					"Etag":          []string{`W/"abc123"`},
					"Content-Type":  []string{"application/json"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"value":[]}`))),
			},
			wantErr: false,
		},
		{
			name: "response without freshness headers",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Content-Type": []string{"application/json"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"value":[]}`))),
			},
			wantErr: false,
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if entry == nil {
				t.Fatal("ResponseToEntry() returned nil entry")
			}

			// Body must be restored for the caller
			body, _ := io.ReadAll(tt.resp.Body)
			if len(body) == 0 {
				t.Error("Response body was not restored")
			}

			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %v, want %v", entry.StatusCode, tt.resp.StatusCode)
			}
			if want := tt.resp.Header.Get("ETag"); entry.ETag != want {
				t.Errorf("ETag = %q, want %q", entry.ETag, want)
			}
			if entry.Expires.IsZero() {
				t.Error("Expires time was not set")
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		Data:       []byte(`{"value":[{"ID":1}]}`),
		ETag:       `W/"v1"`,
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	}

	resp := EntryToResponse(entry)

	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Status != "200 OK" {
		t.Errorf("Status = %q, want %q", resp.Status, "200 OK")
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != string(entry.Data) {
		t.Errorf("body = %q, want %q", body, entry.Data)
	}
}

func TestParseFreshness(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		headers http.Header
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name: "cache-control max-age wins over expires",
			headers: http.Header{
				"Cache-Control": []string{"max-age=600"},
				"Expires":       []string{now.Add(1 * time.Hour).Format(http.TimeFormat)},
			},
			wantMin: 9 * time.Minute,
			wantMax: 11 * time.Minute,
		},
		{
			name: "expires header alone",
			headers: http.Header{
				"Expires": []string{now.Add(30 * time.Minute).Format(http.TimeFormat)},
			},
			wantMin: 29 * time.Minute,
			wantMax: 31 * time.Minute,
		},
		{
			name:    "no freshness headers use default",
			headers: http.Header{},
			wantMin: DefaultTTL - time.Minute,
			wantMax: DefaultTTL + time.Minute,
		},
		{
			name: "invalid expires uses default",
			headers: http.Header{
				"Expires": []string{"not a valid date"},
			},
			wantMin: DefaultTTL - time.Minute,
			wantMax: DefaultTTL + time.Minute,
		},
		{
			// Immediately stale means an expiry of "now"; by the time the
			// assertion runs, time.Until is already slightly negative.
			name: "past expires is immediately stale",
			headers: http.Header{
				"Expires": []string{now.Add(-1 * time.Hour).Format(http.TimeFormat)},
			},
			wantMin: -time.Second,
			wantMax: time.Second,
		},
		{
			name: "no-store is immediately stale",
			headers: http.Header{
				"Cache-Control": []string{"no-store"},
			},
			wantMin: -time.Second,
			wantMax: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := time.Until(parseFreshness(tt.headers))
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("parseFreshness() TTL = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestParseMaxAge(t *testing.T) {
	tests := []struct {
		name         string
		cacheControl string
		want         time.Duration
		wantOK       bool
	}{
		{
			name:         "empty value",
			cacheControl: "",
			want:         0,
			wantOK:       false,
		},
		{
			name:         "plain max-age",
			cacheControl: "max-age=300",
			want:         300 * time.Second,
			wantOK:       true,
		},
		{
			name:         "max-age among other directives",
			cacheControl: "public, max-age=60, must-revalidate",
			want:         60 * time.Second,
			wantOK:       true,
		},
		{
			name:         "no-cache",
			cacheControl: "no-cache",
			want:         0,
			wantOK:       true,
		},
		{
			name:         "garbage max-age",
			cacheControl: "max-age=soon",
			want:         0,
			wantOK:       false,
		},
		{
			name:         "negative max-age",
			cacheControl: "max-age=-5",
			want:         0,
			wantOK:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseMaxAge(tt.cacheControl)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseMaxAge(%q) = (%v, %v), want (%v, %v)",
					tt.cacheControl, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestShouldMakeConditionalRequest(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{
			name:  "nil entry",
			entry: nil,
			want:  false,
		},
		{
			name:  "entry with etag",
			entry: &Entry{ETag: `W/"v1"`},
			want:  true,
		},
		{
			name:  "entry with last-modified",
			entry: &Entry{LastModified: time.Now()},
			want:  true,
		},
		{
			name:  "entry without validators",
			entry: &Entry{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("etag preferred over last-modified", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "http://example.com", nil)
		entry := &Entry{ETag: `W/"v1"`, LastModified: lastMod}

		AddConditionalHeaders(req, entry)

		if got := req.Header.Get("If-None-Match"); got != `W/"v1"` {
			t.Errorf("If-None-Match = %q, want %q", got, `W/"v1"`)
		}
		if req.Header.Get("If-Modified-Since") != "" {
			t.Error("If-Modified-Since should not be set when an ETag exists")
		}
	})

	t.Run("last-modified fallback", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "http://example.com", nil)
		entry := &Entry{LastModified: lastMod}

		AddConditionalHeaders(req, entry)

		if got := req.Header.Get("If-Modified-Since"); got != lastMod.Format(http.TimeFormat) {
			t.Errorf("If-Modified-Since = %q, want %q", got, lastMod.Format(http.TimeFormat))
		}
	})

	t.Run("nil entry is a no-op", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "http://example.com", nil)
		AddConditionalHeaders(req, nil)

		if len(req.Header) != 0 {
			t.Errorf("headers = %v, want none", req.Header)
		}
	})
}
