package mcpsrv

import (
	"github.com/usestring/pmsinspect-mcp/internal/config"
	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/internal/query"
	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/internal/session"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Sessions *session.Manager
	History  *history.Log
	Schema   *schema.Cached
	Query    *query.Engine
	Config   *config.Config
}
