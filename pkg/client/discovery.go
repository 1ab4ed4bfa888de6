package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// TestConnection probes the vendor with a one-record GET. It reports
// whether the request succeeded and never returns an error.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.Request(ctx, Request{
		Endpoint: c.probePath,
		Method:   http.MethodGet,
		Params:   map[string]any{"limit": 1},
	})
	if err != nil {
		slog.Warn("connection test failed",
			slog.String("platform", string(c.platform)),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// DiscoverEndpoints returns the endpoint schema for the client's platform
// from the configured schema provider.
func (c *Client) DiscoverEndpoints(ctx context.Context) (types.EndpointSchema, error) {
	return c.schema.Discover(ctx, c.platform)
}
