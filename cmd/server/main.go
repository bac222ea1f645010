// Package main is the entry point of the records lookup HTTP service.
//
// Staff look students up by identifier (with or without the configured
// prefix) and get the profile, every academic record, per-semester
// statistics and an xlsx transcript.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unison-academica/records-lookup/config"
	"github.com/unison-academica/records-lookup/internal/bootstrap"
	"github.com/unison-academica/records-lookup/internal/infrastructure/persistence/redis"
	httpserver "github.com/unison-academica/records-lookup/internal/interface/http"
	"github.com/unison-academica/records-lookup/internal/interface/http/handlers"
	"github.com/unison-academica/records-lookup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := bootstrap.NewLogger(cfg, os.Stdout)
	defer func() { _ = log.Sync() }()

	log.Info("starting records lookup",
		logger.String("store", cfg.Database.Driver),
		logger.ResolverMode(cfg.Resolver.Mode),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORE
	// ─────────────────────────────────────────────────────────────────────────
	store, err := bootstrap.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer func() {
		log.Info("closing store connection")
		store.Close()
	}()

	if cfg.Database.AutoMigrate {
		n, err := store.Migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed", logger.Int("applied", n))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	app, err := bootstrap.NewHandlers(cfg, store, log)
	if err != nil {
		return fmt.Errorf("failed to configure lookup: %w", err)
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddDetailedCheck("store", store.Health)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. RATE LIMITING (Redis when shared across instances)
	// ─────────────────────────────────────────────────────────────────────────
	var rateLimit httpserver.RateLimitFunc
	if perMinute := cfg.HTTP.RateLimitPerMinute; perMinute > 0 {
		if cfg.Redis.Enabled {
			rdb, err := redis.NewClient(ctx, redisConfig(cfg.Redis))
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer func() { _ = rdb.Close() }()

			health.AddCheck("redis", handlers.NewPingCheck(rdb))
			limiter := redis.NewLimiter(rdb, "lookup", perMinute, time.Minute)
			rateLimit = func(ctx context.Context, client string) (bool, time.Duration, error) {
				d, err := limiter.Allow(ctx, client)
				return d.Allowed, d.ResetIn, err
			}
			log.Info("rate limiting via redis", logger.Int("per_minute", perMinute))
		} else {
			rateLimit = httpserver.NewMemoryRateLimiter(perMinute, time.Minute).Allow
			log.Info("rate limiting in memory", logger.Int("per_minute", perMinute))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.APIKeyHashes = cfg.HTTP.APIKeyHashes

	if len(httpConfig.APIKeyHashes) == 0 && cfg.IsProduction() {
		log.Warn("API key authentication is disabled in production")
	}

	server, err := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Lookup:        app.Lookup,
		Summarize:     app.Summarize,
		HealthChecker: health,
		RateLimit:     rateLimit,
		Logger:        log,
		Version:       cfg.App.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. RUN & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service stopped with error", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

func redisConfig(c config.RedisConfig) redis.Config {
	return redis.Config{
		URL:          c.URL,
		Host:         c.Host,
		Port:         c.Port,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}
