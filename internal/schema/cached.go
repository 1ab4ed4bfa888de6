package schema

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/usestring/pmsinspect-mcp/internal/cache"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Cached memoizes another provider per platform. Concurrent discoveries for
// the same platform share one upstream call.
type Cached struct {
	next  Provider
	cache *cache.LRU[platform.Key, types.EndpointSchema]
	group singleflight.Group
}

// NewCached wraps next with an LRU holding up to maxItems catalogs.
func NewCached(next Provider, maxItems int) (*Cached, error) {
	c, err := cache.NewLRU[platform.Key, types.EndpointSchema](maxItems)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: c}, nil
}

// Discover returns the cached catalog or fetches it from the wrapped provider.
// Errors are not cached.
func (c *Cached) Discover(ctx context.Context, p platform.Key) (types.EndpointSchema, error) {
	if s, ok := c.cache.Get(p); ok {
		return s.Clone(), nil
	}

	v, err, _ := c.group.Do(string(p), func() (any, error) {
		s, err := c.next.Discover(ctx, p)
		if err != nil {
			return nil, err
		}
		c.cache.Put(p, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(types.EndpointSchema).Clone(), nil
}

// Invalidate drops the cached catalog for p.
func (c *Cached) Invalidate(p platform.Key) {
	c.cache.Remove(p)
}

// Len returns the number of cached catalogs.
func (c *Cached) Len() int {
	return c.cache.Len()
}
