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

	"github.com/use-agent/winnow/api"
	"github.com/use-agent/winnow/cache"
	"github.com/use-agent/winnow/cleaner"
	"github.com/use-agent/winnow/config"
	"github.com/use-agent/winnow/engine"
	"github.com/use-agent/winnow/pipeline"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("winnow starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"k", cfg.Winnow.K,
		"window", cfg.Winnow.Window,
		"selection", cfg.Winnow.Selection,
	)

	if _, err := cfg.Winnow.Policy(); err != nil {
		slog.Error("invalid winnow configuration", "error", err)
		os.Exit(1)
	}

	// ── 3. Fetch engines ────────────────────────────────────────────
	plain, err := engine.NewPlainEngine(cfg.Fetch.Proxy)
	if err != nil {
		slog.Error("failed to initialise plain engine", "error", err)
		os.Exit(1)
	}
	engines := []engine.Engine{engine.NewHTTPEngine(), plain}
	memory := engine.NewDomainMemory(cfg.Fetch.DomainMemoryTTL)
	defer memory.Stop()
	dispatcher := engine.NewDispatcher(engines, cfg.Fetch.EscalationDelays, memory)
	slog.Info("fetch dispatcher ready",
		"engines", len(engines),
		"delays", cfg.Fetch.EscalationDelays,
	)

	// ── 4. Cleaner, cache and pipeline ──────────────────────────────
	cl := cleaner.NewCleaner()
	var cacheOpts []cache.Option
	if cfg.Cache.Path != "" {
		store, err := cache.OpenStore(cfg.Cache.Path)
		if err != nil {
			slog.Error("failed to open fingerprint store", "path", cfg.Cache.Path, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		cacheOpts = append(cacheOpts, cache.WithStore(store))
		slog.Info("fingerprint store opened", "path", cfg.Cache.Path)
	}
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL, cacheOpts...)
	defer cc.Close()
	p := pipeline.New(cfg.Winnow, cfg.Compare.Workers, cl, dispatcher, cc,
		pipeline.WithFetchTimeout(cfg.Fetch.Timeout),
	)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(cfg, p, cc, time.Now())
	defer router.Close()

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("winnow stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
