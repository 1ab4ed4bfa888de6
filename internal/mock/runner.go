package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Defaults for the mock runner.
const (
	DefaultDelay       = 800 * time.Millisecond
	DefaultFailureRate = 0.2
)

// Decider reports whether an attempt should fail.
type Decider func() bool

// Always returns a Decider with a fixed outcome.
func Always(fail bool) Decider {
	return func() bool { return fail }
}

// RandomDecider fails roughly failureRate of the time.
func RandomDecider(g *Generator, failureRate float64) Decider {
	return func() bool {
		return g.Float64() > 1-failureRate
	}
}

// Runner resolves query attempts with synthetic data after a fixed delay.
type Runner struct {
	gen     *Generator
	decider Decider
	delay   time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithGenerator sets the record generator.
func WithGenerator(g *Generator) Option {
	return func(r *Runner) {
		r.gen = g
	}
}

// WithDecider sets the failure decider.
func WithDecider(d Decider) Option {
	return func(r *Runner) {
		r.decider = d
	}
}

// WithDelay sets the artificial latency. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.delay = d
	}
}

// NewRunner creates a runner with a random generator, a 20% failure rate
// and an 800ms delay unless overridden.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{delay: DefaultDelay}
	for _, opt := range opts {
		opt(r)
	}
	if r.gen == nil {
		r.gen = NewGenerator(nil, nil)
	}
	if r.decider == nil {
		r.decider = RandomDecider(r.gen, DefaultFailureRate)
	}
	return r
}

// Run waits out the delay, then yields either 5 to 24 records shaped for
// endpoint or a synthetic QueryError with code ERROR. A cancelled context
// ends the wait early with the context's error.
func (r *Runner) Run(ctx context.Context, endpoint string) (*types.QueryResult, error) {
	if r.delay > 0 {
		timer := time.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if r.decider() {
		return nil, &types.QueryError{
			Code:    types.CodeMockError,
			Message: "Query failed. Please check your syntax.",
			Details: "Invalid query format",
		}
	}

	count := r.gen.IntN(20) + 5
	records := r.gen.Records(endpoint, count)
	return &types.QueryResult{
		Success:       true,
		RecordCount:   len(records),
		Records:       records,
		ExecutionTime: fmt.Sprintf("%dms", r.gen.IntN(200)+50),
	}, nil
}
