package mcp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pmsinspect-mcp/internal/mcp/tools"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name string
		req  sdkmcp.Request
		err  error
		want []string
	}{
		{
			name: "resource read",
			req:  readRequest("pmsinspect://schema/guesty"),
			want: []string{"level=DEBUG", "method call completed", "uri=pmsinspect://schema/guesty"},
		},
		{
			name: "caller error",
			req:  &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "pms_results_get"}},
			err:  tools.ErrNotFound("result", "guesty"),
			want: []string{"level=WARN", "tool=pms_results_get", "code=NOT_FOUND"},
		},
		{
			name: "vendor failure",
			req:  &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "pms_discover_endpoints"}},
			err:  &tools.CodedError{Code: tools.ErrCodeAPIError, Message: "upstream"},
			want: []string{"level=ERROR", "code=API_ERROR"},
		},
		{
			name: "uncoded error",
			req:  readRequest("pmsinspect://history"),
			err:  errors.New("boom"),
			want: []string{"level=ERROR", "error=boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			handler := LoggingMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
				return nil, tt.err
			})

			_, err := handler(context.Background(), "test/method", tt.req)
			if tt.err != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
