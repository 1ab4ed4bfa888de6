package types

import (
	"fmt"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// Error codes carried by QueryError.
const (
	CodeConnectionError = "CONNECTION_ERROR" // no initialized API client
	CodeAPIError        = "API_ERROR"        // network, HTTP or parse failure
	CodeMockError       = "ERROR"            // synthetic failure from the mock runner
	CodeCancelled       = "CANCELLED"        // attempt superseded or aborted
	CodeValidation      = "VALIDATION_ERROR" // local input validation
)

// QueryError is the structured failure of a single query attempt.
type QueryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *QueryError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResultMetadata describes the request that produced a live result.
type ResultMetadata struct {
	Endpoint  string         `json:"endpoint"`
	Params    map[string]any `json:"params,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// QueryResult is the normalized outcome of a successful query attempt.
//
// RecordCount equals len(Records) unless the vendor envelope reported its
// own total, in which case it carries that total.
type QueryResult struct {
	Success       bool            `json:"success"`
	RecordCount   int             `json:"count"`
	Records       []*Record       `json:"data"`
	ExecutionTime string          `json:"executionTime"`
	Metadata      *ResultMetadata `json:"metadata,omitempty"`
}

// Columns returns the field names of the first record, in order.
func (r *QueryResult) Columns() []string {
	if r == nil || len(r.Records) == 0 {
		return nil
	}
	return RecordKeys(r.Records[0])
}

// ActiveFilter is a user-editable value bound to one schema parameter.
type ActiveFilter struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Type   ParameterType `json:"type"`
	Values []string      `json:"values,omitempty"`
}

// QueryHistoryEntry records the intent of one query attempt.
type QueryHistoryEntry struct {
	ID        string       `json:"id"`
	Query     string       `json:"query"`
	Timestamp string       `json:"timestamp"`
	Platform  platform.Key `json:"platform"`
	Endpoint  string       `json:"endpoint,omitempty"`
}
