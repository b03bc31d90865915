package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"locator/internal/lookup/atu"
	"locator/internal/lookup/directory"
	"locator/internal/lookup/handler"
	"locator/internal/lookup/metrics"
	"locator/internal/lookup/service"
	"locator/internal/lookup/smp"
	"locator/internal/lookup/store/capability"
	"locator/internal/platform/config"
	"locator/internal/platform/httpserver"
	"locator/internal/platform/logger"
	platformredis "locator/internal/platform/redis"
	httptransport "locator/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the lookup packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	m := metrics.New()

	resolver, err := atu.NewResolver()
	if err != nil {
		log.Error("failed to load territorial reference data", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var cache service.CapabilityCache
	var cacheAdmin handler.CacheAdmin
	health := map[string]httptransport.Health{}
	if redisClient != nil {
		store := capability.NewRedis(redisClient, cfg.Cache.TTL,
			capability.WithRedisLogger(log),
			capability.WithRedisMetrics(m),
		)
		cache, cacheAdmin = store, store
		health["redis"] = redisClient
		log.Info("capability cache backend: redis")
	} else {
		store := capability.NewMemory(cfg.Cache,
			capability.WithLogger(log),
			capability.WithMetrics(m),
		)
		cache, cacheAdmin = store, store
		log.Info("capability cache backend: memory")
	}

	dir := directory.New(cfg.Directory, cfg.RemoteTimeout,
		directory.WithLogger(log),
		directory.WithMetrics(m),
	)
	caps := smp.New(cfg.SMP, cfg.RemoteTimeout)

	svc := service.New(dir, caps, cache, resolver,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithWorkers(cfg.CapabilityWorkers),
		service.WithGrace(cfg.CapabilityGrace),
	)

	h := handler.New(svc, cacheAdmin, log)
	router := httptransport.NewRouter(h, buildVersion(), health)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting locator", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}
