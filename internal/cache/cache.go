// Package cache keeps recently fetched project title fragments so repeated
// page views do not hit the export endpoint every time.
package cache

import (
	"context"
	"time"
)

// Store is a string cache with per-entry expiry. Backend failures are
// reported as misses; callers never need to distinguish the two.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}
