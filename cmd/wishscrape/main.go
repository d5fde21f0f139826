package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/wishscrape/api"
	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/lookup"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logger := config.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	slog.Info("wishscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetch_timeout", cfg.Fetcher.Timeout,
		"fetch_attempts", cfg.Fetcher.MaxAttempts,
	)
	if cfg.Auth.Enabled && len(cfg.Auth.APIKeys) == 0 {
		slog.Warn("auth enabled but no API keys configured, API is open")
	}

	// ── 3. Wire fetcher, extractor and cache ────────────────────────
	svc, cc, err := lookup.FromConfig(cfg, logger)
	if err != nil {
		slog.Error("failed to initialise product lookup", "error", err)
		os.Exit(1)
	}

	stopCache := make(chan struct{})
	if cc != nil {
		go cc.Run(time.Minute, stopCache)
	}

	// ── 4. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(svc, cfg, time.Now())

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	close(stopCache)

	slog.Info("wishscrape stopped")
}
