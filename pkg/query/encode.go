package query

import "strings"

const upperhex = "0123456789ABCDEF"

// Escaping tables, built once at init and read-only afterwards.
//
// The baseline is a generic URI escape (RFC 2396 unreserved plus reserved
// characters stay literal). From that baseline "&", "#", "+" and ";" are
// removed because they would break the query-string structure if they
// survived unescaped, while "$", "(" and ")" stay literal because OData
// system query options rely on them. "=" is only removed for names: an
// encoded value may legitimately contain "=" (e.g. inside $filter) and
// over-encoding it would corrupt the server-side parse.
var (
	valueSafe = buildSafeTable("-_.!~*'()/?:@=$,")
	nameSafe  = buildSafeTable("-_.!~*'()/?:@$,")
)

func buildSafeTable(extra string) [256]bool {
	var t [256]bool
	for c := byte('a'); c <= 'z'; c++ {
		t[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		t[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		t[c] = true
	}
	for i := 0; i < len(extra); i++ {
		t[extra[i]] = true
	}
	return t
}

// Encode percent-encodes one query-string component. With encodeEquals set,
// "=" is escaped as well; that form is required for option names, which are
// followed by a literal "=" in the emitted pair. Non-ASCII input is escaped
// byte-wise as UTF-8.
func Encode(part string, encodeEquals bool) string {
	safe := &valueSafe
	if encodeEquals {
		safe = &nameSafe
	}

	needed := false
	for i := 0; i < len(part); i++ {
		if !safe[part[i]] {
			needed = true
			break
		}
	}
	if !needed {
		return part
	}

	var b strings.Builder
	b.Grow(len(part) + 8)
	for i := 0; i < len(part); i++ {
		c := part[i]
		if safe[c] {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

// EncodePair encodes one name=value pair for inclusion in a query string.
func EncodePair(name, value string) string {
	return Encode(name, true) + "=" + Encode(value, false)
}
