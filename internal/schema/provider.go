// Package schema discovers the endpoint catalog (paths, methods and typed
// parameters) a PMS vendor exposes.
package schema

import (
	"context"
	"errors"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// ErrNoCatalog is returned when a provider has no catalog for a platform.
var ErrNoCatalog = errors.New("no endpoint catalog for platform")

// Provider discovers the endpoint schema of a platform.
type Provider interface {
	Discover(ctx context.Context, p platform.Key) (types.EndpointSchema, error)
}

// Static serves one built-in catalog for every platform.
type Static struct {
	catalog types.EndpointSchema
}

// NewStatic creates a provider serving catalog.
func NewStatic(catalog types.EndpointSchema) *Static {
	return &Static{catalog: catalog}
}

// Discover returns a copy of the catalog.
func (s *Static) Discover(ctx context.Context, p platform.Key) (types.EndpointSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.catalog.Clone(), nil
}
