// Package main - точка входа HTTP API: ленты активности, сводка аналитики и
// публичные профили учащихся.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnhub/activity-hub/config"
	"github.com/learnhub/activity-hub/internal/app"
	httpserver "github.com/learnhub/activity-hub/internal/interface/http"
	"github.com/learnhub/activity-hub/internal/interface/http/handlers"
	"github.com/learnhub/activity-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg).With(logger.Component("api"))
	log.Info("starting activity hub API", logger.String("version", cfg.App.Version))

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing storage...")
		storage.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	cache, err := app.OpenCache(cfg, log)
	if err != nil {
		log.Warn("failed to connect to Redis, identity cache disabled", logger.Err(err))
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}
	identities := app.NewIdentityCache(cache, cfg.Analytics.IdentityCacheTTL, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. USE CASES И ПРОВЕРКИ ЗДОРОВЬЯ
	// ─────────────────────────────────────────────────────────────────────────
	queries := app.NewQueries(storage.Repos, identities, cfg.Analytics.FanoutLimit, log)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewPingCheck(storage))
	if cache != nil {
		health.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimit
	httpConfig.TrustedProxies = cfg.HTTP.TrustedProxies
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.Version = cfg.App.Version

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		MyActivities:   queries.MyActivities,
		UserActivities: queries.UserActivities,
		GlobalFeed:     queries.GlobalFeed,
		Overview:       queries.Overview,
		PublicProfile:  queries.PublicProfile,
		Auth: handlers.NewAuthenticator(handlers.AuthConfig{
			Secret: cfg.Auth.Secret,
			Issuer: cfg.Auth.Issuer,
		}),
		Logger:        log,
		HealthChecker: health,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
	}

	uptime := server.Uptime()

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Хранилище и Redis закроются через defer
	log.Info("shutdown completed", logger.Duration("uptime", uptime.Round(time.Second)))
	return nil
}
