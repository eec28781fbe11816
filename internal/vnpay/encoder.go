package vnpay

import (
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodeParams serializes a parameter map into the canonical query
// string the gateway signs: keys sorted by ascending byte value, keys
// and values percent-encoded, pairs joined with "&". The output is
// byte-identical for a given map regardless of insertion order, so the
// same function backs both URL building and callback verification.
func EncodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(params[k]))
	}
	return b.String()
}

// escape percent-encodes s for the gateway's canonical profile. Unlike
// url.QueryEscape, a space becomes "%20": the signed string and the
// redirect URL must agree byte for byte, and the gateway hashes the
// %20 form.
func escape(s string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// shouldEscape keeps the RFC 3986 unreserved set verbatim and escapes
// everything else, including spaces and all non-ASCII bytes.
func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '~':
		return false
	}
	return true
}
