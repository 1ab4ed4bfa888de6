// Package querytext renders filter sets into human-readable query strings
// ("GET /reservations?status=confirmed") and parses such strings back into an
// endpoint and a typed parameter map.
package querytext

import (
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// FallbackEndpoint is used when a query string names no endpoint.
const FallbackEndpoint = "/properties"

var requestLineRe = regexp.MustCompile(`(?i)(GET|POST|PUT|DELETE)\s+([^\s?]+)`)

// Build renders the filters as a GET query against endpoint. Filters with
// an empty value are omitted. Returns "" when endpoint is empty.
func Build(endpoint string, filters []types.ActiveFilter) string {
	if endpoint == "" {
		return ""
	}

	pairs := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		pairs = append(pairs, f.Key+"="+EncodeComponent(f.Value))
	}

	if len(pairs) == 0 {
		return "GET " + endpoint
	}
	return "GET " + endpoint + "?" + strings.Join(pairs, "&")
}

// Parsed is the result of parsing a query string.
type Parsed struct {
	Method   string         `json:"method"`
	Endpoint string         `json:"endpoint"`
	Params   map[string]any `json:"params"`
}

// Parse extracts the verb, endpoint and parameters from a query string.
func Parse(text string) Parsed {
	method, endpoint := ParseEndpoint(text)
	return Parsed{
		Method:   method,
		Endpoint: endpoint,
		Params:   ParseParams(text),
	}
}

// ParseEndpoint extracts the HTTP verb and path. Any of GET, POST, PUT or
// DELETE is accepted; without a match it returns GET and FallbackEndpoint.
func ParseEndpoint(text string) (method, endpoint string) {
	m := requestLineRe.FindStringSubmatch(text)
	if m == nil {
		return http.MethodGet, FallbackEndpoint
	}
	return strings.ToUpper(m[1]), m[2]
}

// ParseParams decodes the portion between the first and second '?' into a
// parameter map. "true" and "false" become booleans, numeric strings become
// float64 and everything else stays a string. Repeated keys keep the last
// value.
func ParseParams(text string) map[string]any {
	params := make(map[string]any)

	_, query, ok := strings.Cut(text, "?")
	query, _, _ = strings.Cut(query, "?")
	if !ok || query == "" {
		return params
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		params[decodeFormComponent(k)] = Coerce(decodeFormComponent(v))
	}
	return params
}

// Coerce converts a query-string value to bool, float64 or string.
// Surrounding whitespace is ignored when reading a number, and a value of
// only whitespace reads as 0. Infinities and NaN stay strings since JSON
// cannot carry them.
func Coerce(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	case "":
		return value
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return float64(0)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return value
	}
	return f
}

// decodeFormComponent decodes application/x-www-form-urlencoded text,
// keeping the raw text when it contains a malformed escape.
func decodeFormComponent(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return decoded
}

// EncodeComponent percent-encodes s as a URI component: everything except
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped as UTF-8 bytes.
func EncodeComponent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

const upperhex = "0123456789ABCDEF"

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
