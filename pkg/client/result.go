package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/odatakit/odata-client/pkg/edm"
)

// ErrNoCount is returned by CountValue when the result carries no
// @odata.count annotation.
var ErrNoCount = errors.New("no @odata.count annotation")

// Result is the OData v4 collection response envelope.
type Result struct {
	Context  string            `json:"@odata.context,omitempty"`
	Count    json.Number       `json:"@odata.count,omitempty"`
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink,omitempty"`
}

// DecodeResult parses a collection response body.
func DecodeResult(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode collection response: %w", err)
	}
	return &result, nil
}

// CountValue returns the @odata.count annotation as an int64. Counts outside
// the range a JSON number carries exactly are rejected rather than silently
// rounded.
func (r *Result) CountValue() (int64, error) {
	if r.Count == "" {
		return 0, ErrNoCount
	}
	f, err := r.Count.Float64()
	if err != nil {
		return 0, fmt.Errorf("parse @odata.count: %w", err)
	}
	if !edm.IsSafeInteger(f) {
		return 0, fmt.Errorf("@odata.count %s is outside the safe integer range", r.Count)
	}
	return int64(f), nil
}
