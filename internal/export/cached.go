package export

import (
	"context"
	"time"

	"projectpage/internal/cache"
	"projectpage/internal/observability"
	"projectpage/internal/page"
)

// Cached serves fragments from a cache.Store before asking Source.
// Only successful fetches are stored.
type Cached struct {
	Source page.TitleSource
	Store  cache.Store
	TTL    time.Duration
}

func (c *Cached) ProjectTitle(ctx context.Context, names page.Names) (string, bool) {
	key := cacheKey(names)
	if v, ok := c.Store.Get(ctx, key); ok {
		observability.ExportFetches.WithLabelValues(observability.OutcomeCacheHit).Inc()
		return v, true
	}

	v, ok := c.Source.ProjectTitle(ctx, names)
	if ok {
		c.Store.Set(ctx, key, v, c.TTL)
	}
	return v, ok
}

func cacheKey(n page.Names) string { return "title:" + n.Domain + "/" + n.Group }
