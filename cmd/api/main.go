// Command api is the Scoracle Leaderboard API server.
//
// It reloads the leaderboard CSV on a fixed interval and serves the latest
// ranking as JSON.
//
// Usage:
//
//	scoracle-leaderboard-api
//	LEADERBOARD_SOURCES=https://example.com/Leaderboard.csv API_PORT=8080 scoracle-leaderboard-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-leaderboard/internal/api"
	"github.com/albapepper/scoracle-leaderboard/internal/archive"
	"github.com/albapepper/scoracle-leaderboard/internal/cache"
	"github.com/albapepper/scoracle-leaderboard/internal/config"
	"github.com/albapepper/scoracle-leaderboard/internal/db"
	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
	"github.com/albapepper/scoracle-leaderboard/internal/refresh"
	"github.com/albapepper/scoracle-leaderboard/internal/source"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Initialize cache; a new snapshot invalidates every rendered response
	appCache := cache.New(cfg.CacheEnabled)
	go appCache.EvictLoop(ctx, 5*time.Minute)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	board := leaderboard.NewBoard()
	board.OnUpdate(func(leaderboard.Snapshot) { appCache.Purge() })

	deps := api.Deps{Board: board, Cache: appCache, Logger: logger}
	sinks := []refresh.Sink{board.Publish}

	// Optional snapshot archive
	if cfg.ArchiveEnabled() {
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)

		store := archive.NewStore(pool.Pool, logger)
		deps.Archive = store
		deps.DB = pool
		sinks = append(sinks, store.Sink)
		go pruneLoop(ctx, store, cfg.ArchiveRetention, logger)
	} else {
		logger.Info("Snapshot archive disabled (no DATABASE_URL)")
	}

	// Start the refresh scheduler
	loader := source.NewLoader(logger,
		source.WithTimeout(cfg.FetchTimeout),
		source.WithRequestsPerMinute(cfg.FetchPerMinute))
	scheduler := refresh.New(refresh.Config{
		Interval:   cfg.RefreshInterval,
		Candidates: cfg.Sources,
	}, loader, logger, sinks...)
	go scheduler.Start(ctx)

	// Create router
	router := api.NewRouter(deps, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Scoracle Leaderboard API",
			"addr", addr,
			"environment", cfg.Environment,
			"sources", cfg.Sources,
			"refresh", cfg.RefreshInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// pruneLoop drops archived snapshots older than retention once a day.
func pruneLoop(ctx context.Context, store *archive.Store, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := store.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.Warn("Archive: prune failed", "error", err)
			} else if n > 0 {
				logger.Info("Archive: pruned old snapshots", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
