package batch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Deserialize parses a multipart/mixed $batch response body into one
// Response per part, in body order. contentType is the response's
// Content-Type header value and must carry the boundary parameter.
//
// Only response bodies are accepted: each part must open with an HTTP
// status line. A serialized request payload (whose parts carry request
// lines instead) is rejected.
//
// Malformed input is reported as an error rather than producing garbage
// fields: a missing boundary parameter, a part without the two blank-line
// separators, or an unparsable status line all fail the whole call.
func Deserialize(contentType, body string) ([]Response, error) {
	boundary, err := extractBoundary(contentType)
	if err != nil {
		return nil, err
	}

	// Split on both the part delimiter "--boundary" and the closing
	// delimiter "--boundary--", tolerating a missing final line break.
	delimiter, err := regexp.Compile("--" + regexp.QuoteMeta(boundary) + "-{0,2}[ \t]*(?:\r?\n|$)")
	if err != nil {
		return nil, fmt.Errorf("compile boundary pattern: %w", err)
	}

	fragments := delimiter.Split(body, -1)
	if len(fragments) < 2 {
		return nil, fmt.Errorf("no %q delimiter found in batch body", "--"+boundary)
	}

	// The first fragment is the preamble, the last the epilogue; neither is
	// a part.
	parts := fragments[1 : len(fragments)-1]
	responses := make([]Response, 0, len(parts))
	for i, part := range parts {
		resp, err := parsePart(part)
		if err != nil {
			return nil, fmt.Errorf("batch part %d: %w", i, err)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// extractBoundary pulls the boundary token out of a multipart Content-Type
// value, stripping surrounding whitespace and quotes.
func extractBoundary(contentType string) (string, error) {
	_, rest, found := strings.Cut(contentType, "boundary=")
	if !found {
		return "", fmt.Errorf("content type %q has no boundary parameter", contentType)
	}
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		rest = rest[:i]
	}
	boundary := strings.Trim(strings.TrimSpace(rest), `"`)
	if boundary == "" {
		return "", fmt.Errorf("content type %q has an empty boundary parameter", contentType)
	}
	return boundary, nil
}

// parsePart parses one multipart fragment: batch-part headers, the nested
// HTTP status line plus headers, and the nested HTTP body, separated by
// blank lines.
func parsePart(part string) (Response, error) {
	segments := strings.SplitN(part, "\r\n\r\n", 3)
	if len(segments) < 3 {
		return Response{}, fmt.Errorf("missing blank-line separator between part headers, status line and body")
	}

	// segments[0] holds the part's own headers (application/http); they
	// carry no per-response information and are skipped.
	status, statusText, err := parseStatusLine(segments[1])
	if err != nil {
		return Response{}, err
	}

	headerLines := strings.Split(segments[1], "\r\n")[1:]
	headers := make(map[string]string, len(headerLines))
	for _, line := range headerLines {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return Response{
		Status:     status,
		StatusText: statusText,
		Headers:    headers,
		Body:       strings.TrimSpace(segments[2]),
	}, nil
}

// parseStatusLine parses "HTTP/<ver> <code> <reason>" from the first line of
// the nested response head. The reason phrase may be empty.
func parseStatusLine(head string) (int, string, error) {
	line := head
	if i := strings.Index(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, "", fmt.Errorf("malformed status line %q", line)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed status code in %q", line)
	}
	statusText := ""
	if len(fields) == 3 {
		statusText = fields[2]
	}
	return status, statusText, nil
}
