// Package executor runs single query attempts against a live vendor client
// or the mock generator, recording each attempt in history.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/querytext"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Attempt is one query invocation. An empty Endpoint is parsed from
// QueryText; nil Params are parsed from QueryText.
type Attempt struct {
	QueryText string
	Platform  platform.Key
	Endpoint  string
	Params    map[string]any
}

// ResolvedEndpoint returns the explicit endpoint or the one named in the
// query text.
func (a Attempt) ResolvedEndpoint() string {
	if a.Endpoint != "" {
		return a.Endpoint
	}
	_, endpoint := querytext.ParseEndpoint(a.QueryText)
	return endpoint
}

// ResolvedParams returns the explicit params or those parsed from the
// query text.
func (a Attempt) ResolvedParams() map[string]any {
	if a.Params != nil {
		return a.Params
	}
	return querytext.ParseParams(a.QueryText)
}

// Outcome holds exactly one of Result or Error.
type Outcome struct {
	Result  *types.QueryResult
	Error   *types.QueryError
	History types.QueryHistoryEntry
	// Superseded is set when a newer attempt replaced this one. Its outcome
	// must not be applied.
	Superseded bool
}

// Runner produces the result of one attempt.
type Runner interface {
	Run(ctx context.Context, a Attempt) (*types.QueryResult, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, a Attempt) (*types.QueryResult, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, a Attempt) (*types.QueryResult, error) {
	return f(ctx, a)
}

// Executor runs attempts one at a time. Starting an attempt cancels the
// one in flight; the replaced attempt resolves with a CANCELLED error and
// Superseded set.
type Executor struct {
	runner  Runner
	history *history.Log

	mu       sync.Mutex
	inflight uint64
	cancel   context.CancelFunc
}

// New creates an executor recording attempts in h.
func New(runner Runner, h *history.Log) *Executor {
	return &Executor{runner: runner, history: h}
}

// History returns the attempt log.
func (e *Executor) History() *history.Log {
	return e.history
}

// Execute records a then runs it.
func (e *Executor) Execute(ctx context.Context, a Attempt) Outcome {
	start := time.Now()
	entry := e.history.Record(a.QueryText, a.Platform, a.ResolvedEndpoint())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.inflight++
	id := e.inflight
	e.cancel = cancel
	e.mu.Unlock()

	result, err := e.runner.Run(runCtx, a)

	e.mu.Lock()
	superseded := e.inflight != id
	if !superseded {
		e.cancel = nil
	}
	e.mu.Unlock()

	out := Outcome{History: entry}
	switch {
	case superseded:
		out.Superseded = true
		out.Error = &types.QueryError{
			Code:    types.CodeCancelled,
			Message: "Query superseded by a newer query",
			Details: a.QueryText,
		}
	case err != nil && ctx.Err() != nil:
		out.Error = &types.QueryError{
			Code:    types.CodeCancelled,
			Message: "Query cancelled",
			Details: ctx.Err().Error(),
		}
	case err != nil:
		var qe *types.QueryError
		if !errors.As(err, &qe) {
			qe = &types.QueryError{Code: types.CodeAPIError, Message: err.Error()}
		}
		out.Error = qe
	default:
		out.Result = result
	}

	attrs := []any{
		slog.String("platform", string(a.Platform)),
		slog.String("endpoint", entry.Endpoint),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if out.Error != nil {
		slog.Debug("query attempt failed", append(attrs, slog.String("code", out.Error.Code))...)
	} else {
		slog.Debug("query attempt completed", append(attrs, slog.Int("count", out.Result.RecordCount))...)
	}
	return out
}

// Cancel aborts the attempt in flight, if any. The attempt resolves as
// superseded.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
		e.inflight++
	}
}
