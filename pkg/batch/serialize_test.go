package batch

import (
	"strings"
	"testing"
)

func TestSerialize_Structure(t *testing.T) {
	requests := []Request{
		{
			Method:  "GET",
			URL:     "SalesOrderList?$top=2",
			Headers: map[string]string{"Accept": "application/json"},
		},
		{
			Method:  "POST",
			URL:     "SalesOrderList",
			Headers: map[string]string{"Accept": "application/json", "Content-Type": "application/json"},
			Body:    `{"Note":"new order"}`,
		},
	}

	payload := Serialize(requests)

	if payload.MIMEVersion != "1.0" {
		t.Errorf("MIMEVersion = %q, want %q", payload.MIMEVersion, "1.0")
	}
	if payload.ContentType != "multipart/mixed;boundary="+payload.Boundary {
		t.Errorf("ContentType = %q does not embed boundary %q", payload.ContentType, payload.Boundary)
	}
	if !strings.HasPrefix(payload.Boundary, "batch_") {
		t.Errorf("Boundary = %q, want batch_ prefix", payload.Boundary)
	}

	want := "--" + payload.Boundary + "\r\n" +
		"Content-Type:application/http\r\n" +
		"Content-Transfer-Encoding:binary\r\n" +
		"\r\n" +
		"GET SalesOrderList?$top=2 HTTP/1.1\r\n" +
		"Accept:application/json\r\n" +
		"\r\n" +
		"\r\n" +
		"--" + payload.Boundary + "\r\n" +
		"Content-Type:application/http\r\n" +
		"Content-Transfer-Encoding:binary\r\n" +
		"\r\n" +
		"POST SalesOrderList HTTP/1.1\r\n" +
		"Accept:application/json\r\n" +
		"Content-Type:application/json\r\n" +
		"\r\n" +
		`{"Note":"new order"}` + "\r\n" +
		"--" + payload.Boundary + "--\r\n"

	if payload.Body != want {
		t.Errorf("Body =\n%q\nwant\n%q", payload.Body, want)
	}
}

func TestSerialize_EmptyRequestList(t *testing.T) {
	payload := Serialize(nil)

	want := "--" + payload.Boundary + "--\r\n"
	if payload.Body != want {
		t.Errorf("Body = %q, want closing delimiter only", payload.Body)
	}
}

func TestSerialize_FreshBoundaryPerCall(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		payload := Serialize([]Request{{Method: "GET", URL: "Foo"}})
		if seen[payload.Boundary] {
			t.Fatalf("boundary %q repeated across calls", payload.Boundary)
		}
		seen[payload.Boundary] = true
	}
}

func TestPayload_Headers(t *testing.T) {
	payload := Serialize([]Request{{Method: "GET", URL: "Foo"}})

	headers := payload.Headers()
	if headers["Content-Type"] != payload.ContentType {
		t.Errorf("Headers()[Content-Type] = %q, want %q", headers["Content-Type"], payload.ContentType)
	}
	if headers["MIME-Version"] != "1.0" {
		t.Errorf("Headers()[MIME-Version] = %q, want %q", headers["MIME-Version"], "1.0")
	}
}
