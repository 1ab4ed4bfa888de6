// Package types holds the data model shared by the client, the session
// manager and the MCP tools: records, query results and errors, history
// entries, filters and endpoint schemas.
package types

import (
	"encoding/json"
	"time"
)

// ToAny converts v to plain JSON values (maps, slices, float64...) by
// marshaling and decoding it again. Tool outputs carry records this way.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// isoLayout is RFC 3339 in UTC with millisecond precision.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t as an ISO-8601 UTC timestamp with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ResourceRef points to an MCP resource.
type ResourceRef struct {
	URI  string `json:"uri"`
	MIME string `json:"mime"`
	Hint string `json:"hint,omitempty"`
}
