// Package batch implements the OData v4 $batch wire format: serializing a
// list of logical HTTP requests into one multipart/mixed body and parsing a
// multipart/mixed response body back into per-request HTTP responses.
//
// The codec is stateless and safe for concurrent use. Callers own the
// transport: they send the serialized payload and hand the fully received
// response body to Deserialize.
package batch

// Request describes one logical HTTP request inside a $batch payload. It is
// an immutable input to Serialize and is never mutated or retained.
type Request struct {
	// Method is the HTTP verb of the nested request.
	Method string `json:"method"`

	// URL is the request target, absolute or relative to the service root.
	URL string `json:"url"`

	// Headers are the nested request's own headers.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the optional request body, already serialized.
	Body string `json:"body,omitempty"`
}

// Response is one deserialized part of a $batch response. Each value is
// independent; the codec keeps no reference after returning it.
type Response struct {
	// Status is the numeric HTTP status code of the part.
	Status int `json:"status"`

	// StatusText is the reason phrase from the part's status line.
	StatusText string `json:"statusText"`

	// Headers are the part's HTTP headers. Insertion order is not
	// significant.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the part's HTTP body with surrounding whitespace trimmed.
	Body string `json:"body,omitempty"`
}

// Payload is a serialized $batch request ready to be sent.
type Payload struct {
	// Body is the complete multipart/mixed body.
	Body string

	// Boundary is the delimiter token embedded in Body and ContentType.
	Boundary string

	// ContentType is the Content-Type header value carrying the boundary.
	ContentType string

	// MIMEVersion is the MIME-Version header value, always "1.0".
	MIMEVersion string
}

// Headers returns the HTTP headers that must accompany the payload body.
func (p Payload) Headers() map[string]string {
	return map[string]string{
		"Content-Type": p.ContentType,
		"MIME-Version": p.MIMEVersion,
	}
}
