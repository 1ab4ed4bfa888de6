package executor

import (
	"context"

	"github.com/usestring/pmsinspect-mcp/internal/mock"
	"github.com/usestring/pmsinspect-mcp/pkg/client"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// ClientSource returns the active client for a platform, or nil when the
// platform is not connected.
type ClientSource func(p platform.Key) *client.Client

// Live runs attempts against the platform's vendor client. The request is
// always a GET, whatever verb the query text names.
func Live(clients ClientSource) Runner {
	return RunnerFunc(func(ctx context.Context, a Attempt) (*types.QueryResult, error) {
		c := clients(a.Platform)
		if c == nil {
			return nil, NotConnectedError()
		}
		return c.ExecuteQuery(ctx, a.ResolvedEndpoint(), a.ResolvedParams())
	})
}

// NotConnectedError is the error for attempts on a platform without an
// active connection.
func NotConnectedError() *types.QueryError {
	return &types.QueryError{
		Code:    types.CodeConnectionError,
		Message: "API client not initialized. Please connect first.",
		Details: "No active API connection",
	}
}

// RequireConnection guards next so attempts on disconnected platforms fail
// with a CONNECTION_ERROR without reaching it.
func RequireConnection(connected func(p platform.Key) bool, next Runner) Runner {
	return RunnerFunc(func(ctx context.Context, a Attempt) (*types.QueryResult, error) {
		if !connected(a.Platform) {
			return nil, NotConnectedError()
		}
		return next.Run(ctx, a)
	})
}

// Mock runs attempts through the synthetic data generator. Only the
// explicit endpoint shapes the records.
func Mock(r *mock.Runner) Runner {
	return RunnerFunc(func(ctx context.Context, a Attempt) (*types.QueryResult, error) {
		return r.Run(ctx, a.Endpoint)
	})
}
