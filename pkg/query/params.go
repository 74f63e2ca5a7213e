// Package query builds OData v4 URL query strings with the escaping rules
// the protocol requires. System query options such as $filter carry
// characters ("$", "(", ")", "=") that a generic form encoder would either
// mangle or over-encode, so the package keeps its own encoder.
package query

import "strings"

// Params is an ordered collection of query options. Unlike url.Values,
// iteration order is the insertion order of the option names, and the order
// of values under one name is the order they were added. The emitted query
// string is therefore deterministic and testable.
//
// The zero value is empty and ready to use.
type Params struct {
	pairs []pair
}

type pair struct {
	name   string
	values []string
}

// NewParams returns an empty parameter collection.
func NewParams() *Params {
	return &Params{}
}

// Add appends values under name. If name was added before, the new values
// are appended to its existing list and the name keeps its original
// position. Returns p for chaining.
func (p *Params) Add(name string, values ...string) *Params {
	for i := range p.pairs {
		if p.pairs[i].name == name {
			p.pairs[i].values = append(p.pairs[i].values, values...)
			return p
		}
	}
	p.pairs = append(p.pairs, pair{name: name, values: values})
	return p
}

// Set replaces all values under name, adding the name at the end if it is
// not present yet. Returns p for chaining.
func (p *Params) Set(name string, values ...string) *Params {
	for i := range p.pairs {
		if p.pairs[i].name == name {
			p.pairs[i].values = append([]string(nil), values...)
			return p
		}
	}
	p.pairs = append(p.pairs, pair{name: name, values: append([]string(nil), values...)})
	return p
}

// Values returns the values stored under name, or nil if the name is absent.
func (p *Params) Values(name string) []string {
	for i := range p.pairs {
		if p.pairs[i].name == name {
			return p.pairs[i].values
		}
	}
	return nil
}

// Len returns the number of distinct option names.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}

// BuildQuery turns params into a URL query string. A nil or empty collection
// yields "". Otherwise the result is "?" followed by one encoded name=value
// pair per value, joined with "&", names in insertion order and values in
// the order they were added.
func BuildQuery(params *Params) string {
	if params == nil || len(params.pairs) == 0 {
		return ""
	}

	encoded := make([]string, 0, len(params.pairs))
	for _, pr := range params.pairs {
		for _, value := range pr.values {
			encoded = append(encoded, EncodePair(pr.name, value))
		}
	}
	if len(encoded) == 0 {
		return ""
	}

	return "?" + strings.Join(encoded, "&")
}
