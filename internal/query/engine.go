// Package query evaluates jq expressions over fetched result records.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Engine executes jq expressions against result records.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Options controls an evaluation.
type Options struct {
	// Deduplicate drops values equal to one already emitted.
	Deduplicate bool
	// MaxResults caps the emitted values. Zero means no cap.
	MaxResults int
	// Whole runs the expression once over the array of all records instead
	// of once per record.
	Whole bool
}

// Result contains the values produced by an expression.
type Result struct {
	Values         []any    `json:"values"`                    // Extracted values
	Errors         []string `json:"errors,omitempty"`          // Per-record errors (e.g., type mismatch)
	RawCount       int      `json:"raw_count"`                 // Count before deduplication
	MatchedIndices []int    `json:"matched_indices,omitempty"` // Records that produced values
	Truncated      bool     `json:"truncated,omitempty"`
}

func compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// Query executes expression against a single JSON value.
func (e *Engine) Query(input any, expression string, opts Options) (*Result, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}
	v, err := types.ToAny(input)
	if err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	r := newRun(opts)
	r.feed(code, v, 0, "input")
	return r.result, nil
}

// Records executes expression against records. By default every record is
// an input of its own and errors are labelled with the record index.
func (e *Engine) Records(records []*types.Record, expression string, opts Options) (*Result, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}
	inputs, err := types.RecordsToAny(records)
	if err != nil {
		return nil, fmt.Errorf("converting records: %w", err)
	}

	r := newRun(opts)
	if opts.Whole {
		r.feed(code, inputs, 0, "data")
		return r.result, nil
	}
	for i, in := range inputs {
		if r.full() {
			r.result.Truncated = true
			break
		}
		r.feed(code, in, i, fmt.Sprintf("record[%d]", i))
	}
	return r.result, nil
}

type run struct {
	opts       Options
	result     *Result
	seen       map[string]bool
	seenErrors map[string]bool
}

func newRun(opts Options) *run {
	return &run{
		opts:       opts,
		result:     &Result{Values: make([]any, 0)},
		seen:       make(map[string]bool),
		seenErrors: make(map[string]bool),
	}
}

func (r *run) full() bool {
	return r.opts.MaxResults > 0 && len(r.result.Values) >= r.opts.MaxResults
}

func (r *run) feed(code *gojq.Code, input any, index int, label string) {
	matched := false
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if r.full() {
			r.result.Truncated = true
			break
		}

		if err, isErr := v.(error); isErr {
			msg := formatJQError(label, err)
			if !r.seenErrors[msg] {
				r.result.Errors = append(r.result.Errors, msg)
				r.seenErrors[msg] = true
			}
			continue
		}

		// Skip nil values
		if v == nil {
			continue
		}

		r.result.RawCount++
		matched = true

		if r.opts.Deduplicate {
			key := valueKey(v)
			if r.seen[key] {
				continue
			}
			r.seen[key] = true
		}
		r.result.Values = append(r.result.Values, v)
	}
	if matched {
		r.result.MatchedIndices = append(r.result.MatchedIndices, index)
	}
}

// formatJQError creates a helpful error message for jq execution errors.
//
// Runtime jq errors (like "cannot iterate over: null") are plain errors
// without typed wrappers in gojq, so hints are picked by string matching.
// Only the display message depends on it.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the field may be missing from this record)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]' or set whole=false)"
	}

	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey creates a string key for deduplication.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case int:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}

// ValidateExpression checks if a jq expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return fmt.Errorf("invalid jq expression: %w", err)
	}

	if _, err := gojq.Compile(q); err != nil {
		return fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return nil
}
