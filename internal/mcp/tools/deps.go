package tools

import (
	"time"

	"github.com/usestring/pmsinspect-mcp/internal/config"
	"github.com/usestring/pmsinspect-mcp/internal/query"
	"github.com/usestring/pmsinspect-mcp/internal/session"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Sessions *session.Manager
	Query    *query.Engine
	Config   *config.Config
	Now      func() time.Time
}

// now returns the current time from the injected clock.
func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ResolvePlatform parses an optional platform argument, falling back to the
// selected platform when it is empty.
func (d *Deps) ResolvePlatform(s string) (platform.Key, error) {
	if s == "" {
		return d.Sessions.Selected(), nil
	}
	p, err := platform.Parse(s)
	if err != nil {
		return "", ErrInvalidInput(err.Error())
	}
	return p, nil
}

// recordsLimit clamps a requested page size to the configured bounds.
func (d *Deps) recordsLimit(requested int) int {
	def, max := config.DefaultRecordsLimitValue, config.MaxRecordsLimitValue
	if d.Config != nil {
		def, max = d.Config.DefaultRecordsLimit, d.Config.MaxRecordsLimit
	}
	if requested <= 0 {
		requested = def
	}
	if max > 0 && requested > max {
		requested = max
	}
	return requested
}
