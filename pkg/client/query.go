package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// ExecuteQuery issues a GET against endpoint and normalizes the response
// into a QueryResult. Failures are returned as *types.QueryError with code
// API_ERROR.
func (c *Client) ExecuteQuery(ctx context.Context, endpoint string, params map[string]any) (*types.QueryResult, error) {
	start := time.Now()

	resp, err := c.Request(ctx, Request{
		Endpoint: endpoint,
		Method:   http.MethodGet,
		Params:   params,
	})
	if err != nil {
		return nil, queryError(endpoint, err)
	}

	records, count, err := normalize(resp)
	if err != nil {
		return nil, queryError(endpoint, err)
	}

	return &types.QueryResult{
		Success:       true,
		RecordCount:   count,
		Records:       records,
		ExecutionTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		Metadata: &types.ResultMetadata{
			Endpoint:  endpoint,
			Params:    params,
			Timestamp: types.Timestamp(c.now()),
		},
	}, nil
}

func queryError(endpoint string, err error) *types.QueryError {
	msg := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	return &types.QueryError{
		Code:    types.CodeAPIError,
		Message: msg,
		Details: "Failed to execute query: " + endpoint,
	}
}

// envelopeKeys are the wrapper fields checked, in order, for a record array.
var envelopeKeys = []string{"data", "results"}

// normalize maps a response body onto records and a count.
//
//	[...]                       records = array, count = len
//	{"data": [...], "total": n} records = data, count = total|count|len
//	{"results": [...]}          same as data
//	{...}                       one record, count 1
//	text, null, scalars         no records
func normalize(resp *Response) ([]*types.Record, int, error) {
	if !resp.IsJSON() {
		return []*types.Record{}, 0, nil
	}

	body := bytes.TrimSpace(resp.JSON)
	if len(body) == 0 {
		return []*types.Record{}, 0, nil
	}

	switch body[0] {
	case '[':
		records, err := decodeRecords(body)
		if err != nil {
			return nil, 0, err
		}
		return records, len(records), nil

	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, 0, fmt.Errorf("decoding response: %w", err)
		}
		for _, key := range envelopeKeys {
			raw, ok := envelope[key]
			if !ok || !isArray(raw) {
				continue
			}
			records, err := decodeRecords(raw)
			if err != nil {
				return nil, 0, err
			}
			return records, envelopeCount(envelope, len(records)), nil
		}

		record := types.NewRecord()
		if err := json.Unmarshal(body, record); err != nil {
			return nil, 0, fmt.Errorf("decoding response: %w", err)
		}
		return []*types.Record{record}, 1, nil

	default:
		return []*types.Record{}, 0, nil
	}
}

// decodeRecords decodes a JSON array. Object elements keep their field
// order; any other element is wrapped as {"value": v}.
func decodeRecords(raw json.RawMessage) ([]*types.Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	records := make([]*types.Record, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			r := types.NewRecord()
			if err := json.Unmarshal(item, r); err != nil {
				return nil, fmt.Errorf("decoding record %d: %w", i, err)
			}
			records = append(records, r)
			continue
		}

		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", i, err)
		}
		records = append(records, types.NewRecord("value", v))
	}
	return records, nil
}

// envelopeCount returns the first non-zero numeric total or count field,
// falling back to n.
func envelopeCount(envelope map[string]json.RawMessage, n int) int {
	for _, key := range []string{"total", "count"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil && v != 0 {
			return int(v)
		}
	}
	return n
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
