package cache

import "strings"

// Key identifies a cached OData response. Query is the already encoded
// query string (without the leading "?"); since the query builder emits
// options in insertion order, equal requests produce equal keys without any
// re-sorting here.
type Key struct {
	// Resource is the resource path below the service root,
	// e.g. "/SalesOrderList"
	Resource string

	// Query is the encoded query string, e.g. "$top=10&$skip=20"
	Query string
}

// String generates a deterministic Redis key.
// Format: odata:<resource>[?<query>]
//
// Example:
//
//	odata:SalesOrderList?$top=10
func (k Key) String() string {
	var b strings.Builder
	b.WriteString("odata:")
	b.WriteString(strings.Trim(k.Resource, "/"))

	query := strings.TrimPrefix(k.Query, "?")
	if query != "" {
		b.WriteString("?")
		b.WriteString(query)
	}

	return b.String()
}
