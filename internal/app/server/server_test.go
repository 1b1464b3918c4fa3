package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectpage/internal/cache"
	"projectpage/internal/config"
	"projectpage/internal/export"
)

func testCfg(backend string) config.Config {
	var cfg config.Config
	cfg.Export.Scheme = "http"
	cfg.Export.Path = "/export/projtitl.php"
	cfg.Export.Timeout = time.Second
	cfg.Export.MaxBytes = 1 << 20
	cfg.Cache.Backend = backend
	cfg.Cache.TTL = time.Minute
	cfg.Cache.MaxEntries = 16
	cfg.Cache.SweepInterval = time.Minute
	cfg.Cache.Redis.Prefix = "projectpage:"
	return cfg
}

func TestNewTitleSource(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	tests := []struct {
		name      string
		cfg       func() config.Config
		wantCache bool
		wantStore any
	}{
		{"no cache", func() config.Config { return testCfg("none") }, false, nil},
		{"unknown backend", func() config.Config { return testCfg("") }, false, nil},
		{"memory", func() config.Config { return testCfg("memory") }, true, &cache.Memory{}},
		{
			name: "redis",
			cfg: func() config.Config {
				c := testCfg("redis")
				c.Cache.Redis.Addr = mr.Addr()
				return c
			},
			wantCache: true,
			wantStore: &cache.Redis{},
		},
		{
			name: "redis unreachable falls back to memory",
			cfg: func() config.Config {
				c := testCfg("redis")
				c.Cache.Redis.Addr = "127.0.0.1:1"
				return c
			},
			wantCache: true,
			wantStore: &cache.Memory{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			src, closeFn := NewTitleSource(ctx, tt.cfg())
			defer closeFn()

			cached, ok := src.(*export.Cached)
			assert.Equal(t, tt.wantCache, ok)
			if !ok {
				assert.IsType(t, &export.Client{}, src)
				return
			}
			assert.IsType(t, tt.wantStore, cached.Store)
			assert.Equal(t, time.Minute, cached.TTL)
		})
	}
}
