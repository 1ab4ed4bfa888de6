package mcp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/mcp/tools"
)

// LoggingMiddleware logs every incoming method call with its duration, the
// tool name or resource URI it targets, and the error code of failed tool
// calls. Caller mistakes (bad input, missing result, disconnected platform)
// log at warn; everything else that fails logs at error.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := append([]slog.Attr{
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}, targetAttrs(req)...)

			if err == nil {
				slog.LogAttrs(ctx, slog.LevelDebug, "method call completed", attrs...)
				return result, nil
			}

			level := slog.LevelError
			var coded *tools.CodedError
			if errors.As(err, &coded) {
				attrs = append(attrs, slog.String("code", coded.Code))
				if callerError(coded.Code) {
					level = slog.LevelWarn
				}
			}
			attrs = append(attrs, slog.String("error", err.Error()))
			slog.LogAttrs(ctx, level, "method call failed", attrs...)
			return result, err
		}
	}
}

func targetAttrs(req sdkmcp.Request) []slog.Attr {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		if r.Params != nil {
			return []slog.Attr{slog.String("tool", r.Params.Name)}
		}
	case *sdkmcp.ReadResourceRequest:
		if r.Params != nil {
			return []slog.Attr{slog.String("uri", r.Params.URI)}
		}
	}
	return nil
}

func callerError(code string) bool {
	switch code {
	case tools.ErrCodeInvalidInput, tools.ErrCodeNotFound, tools.ErrCodeNotConnected, tools.ErrCodeStale:
		return true
	}
	return false
}
