package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/pmsinspect-mcp/internal/config"
	"github.com/usestring/pmsinspect-mcp/pkg/mcpsrv"
)

func main() {
	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Variables already in the environment win over .env
	loaded := config.LoadDotEnv()

	// Create MCP server with all builtin tools
	// Configuration is loaded from environment variables:
	// - PMS_MODE: mock or live (default: mock)
	// - PMS_DEFAULT_PLATFORM: guesty, hospitable, ownerrez or hostaway
	// - PMS_<PLATFORM>_BASE_URL: vendor base URL override
	// - LOG_LEVEL: debug, info, warn, error (default: info)
	// - LOG_FILE: path to log file (default: stderr only)
	// - etc. (see internal/config for all options)
	server, err := mcpsrv.NewServer()
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	if len(loaded) > 0 {
		slog.Debug("loaded env files", "paths", loaded)
	}

	// Run the server with stdio transport
	slog.Info("starting pmsinspect MCP server on stdio")
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
