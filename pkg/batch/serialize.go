package batch

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Fixed headers of every batch part: each part wraps a verbatim HTTP/1.1
// request transferred as-is.
const (
	partContentType      = "Content-Type:application/http"
	partTransferEncoding = "Content-Transfer-Encoding:binary"
)

// Serialize encodes requests into one multipart/mixed $batch payload. A
// fresh UUID-based boundary is generated per call so that no byte sequence
// inside a request body can collide with the delimiter. Part order follows
// request order; within a part, headers are written in sorted name order so
// the output is deterministic.
func Serialize(requests []Request) Payload {
	boundary := "batch_" + uuid.NewString()

	var b strings.Builder
	for _, req := range requests {
		b.WriteString("--")
		b.WriteString(boundary)
		b.WriteString("\r\n")
		b.WriteString(partContentType)
		b.WriteString("\r\n")
		b.WriteString(partTransferEncoding)
		b.WriteString("\r\n\r\n")

		b.WriteString(req.Method)
		b.WriteString(" ")
		b.WriteString(req.URL)
		b.WriteString(" HTTP/1.1\r\n")
		for _, name := range sortedNames(req.Headers) {
			b.WriteString(name)
			b.WriteString(":")
			b.WriteString(req.Headers[name])
			b.WriteString("\r\n")
		}
		b.WriteString("\r\n")
		b.WriteString(req.Body)
		b.WriteString("\r\n")
	}
	b.WriteString("--")
	b.WriteString(boundary)
	b.WriteString("--\r\n")

	return Payload{
		Body:        b.String(),
		Boundary:    boundary,
		ContentType: "multipart/mixed;boundary=" + boundary,
		MIMEVersion: "1.0",
	}
}

func sortedNames(headers map[string]string) []string {
	if len(headers) == 0 {
		return nil
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
