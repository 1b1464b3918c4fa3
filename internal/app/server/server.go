package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projectpage/internal/api"
	"projectpage/internal/cache"
	"projectpage/internal/config"
	"projectpage/internal/export"
	"projectpage/internal/page"

	"github.com/rs/zerolog/log"
)

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Title source (+ optional cache)
	titles, closeTitles := NewTitleSource(rootCtx, cfg)
	defer closeTitles()

	// HTTP
	renderer := page.NewRenderer(titles, page.Theme{Root: cfg.Theme.Root, PortalURL: cfg.Theme.PortalURL})
	h := api.NewPageHandler(renderer)
	r := api.Router(h, cfg.Server.PageTimeout)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.PageTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Server goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("cache", cfg.Cache.Backend).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// Wait for signal
	waitForSignal()
	log.Info().Msg("shutdown...")

	// Graceful shutdown
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel()
	_ = srv.Shutdown(shCtx)
}

// NewTitleSource builds the export client, wrapped in the configured cache.
// A Redis cache that cannot be reached at startup falls back to memory. The
// memory cache is swept until ctx is done.
func NewTitleSource(ctx context.Context, cfg config.Config) (page.TitleSource, func()) {
	client := export.NewClient(cfg)
	noop := func() {}
	if !cfg.CacheEnabled() {
		return client, noop
	}

	if cfg.Cache.Backend == "redis" {
		rc := cfg.Cache.Redis
		store := cache.NewRedis(cache.NewRedisClient(rc.Addr, rc.Password, rc.DB), rc.Prefix)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := store.Ping(pingCtx)
		if err == nil {
			return &export.Cached{Source: client, Store: store, TTL: cfg.Cache.TTL}, func() { _ = store.Close() }
		}
		log.Warn().Err(err).Str("addr", rc.Addr).Msg("redis cache unavailable, using memory")
		_ = store.Close()
	}

	mem := cache.NewMemory(cfg.Cache.MaxEntries)
	go mem.RunJanitor(ctx, cfg.Cache.SweepInterval)
	return &export.Cached{Source: client, Store: mem, TTL: cfg.Cache.TTL}, noop
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
