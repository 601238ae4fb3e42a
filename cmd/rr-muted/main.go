package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/rr-mute/internal/mute/common/clock"
	"github.com/haukened/rr-mute/internal/mute/common/log"
	"github.com/haukened/rr-mute/internal/mute/config"
	"github.com/haukened/rr-mute/internal/mute/gateways/badge"
	"github.com/haukened/rr-mute/internal/mute/gateways/page"
	"github.com/haukened/rr-mute/internal/mute/gateways/settings"
	"github.com/haukened/rr-mute/internal/mute/repos/rules"
	"github.com/haukened/rr-mute/internal/mute/repos/store"
	"github.com/haukened/rr-mute/internal/mute/repos/store/bolt"
	"github.com/haukened/rr-mute/internal/mute/services/engine"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-muted"

	// Default timeouts
	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the filter daemon
type Application struct {
	config   *config.AppConfig
	store    store.Gateway
	watcher  *page.Watcher
	engine   *engine.Engine
	settings *settings.Server
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.LogLevel,
		"db_path":   cfg.DBPath,
		"page_path": cfg.PagePath,
		"listen":    cfg.ListenAddr,
		"site":      cfg.SiteHost,
	}, "Starting rr-mute filter daemon")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	// Run the filter daemon
	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Filter daemon failed")
	}

	log.Info(nil, "rr-mute stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Create shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Build repository layer
	gateway, err := bolt.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule storage: %w", err)
	}

	if err := seedIfEmpty(cfg, gateway); err != nil {
		_ = gateway.Close()
		return nil, err
	}

	ruleStore, err := rules.New(rules.DefaultHostCacheSize, rules.DefaultBloomFPRate)
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("failed to create rule store: %w", err)
	}

	// Build gateway layer
	sel := page.DefaultSelectors()
	if cfg.SelectorsPath != "" {
		sel, err = page.LoadSelectors(cfg.SelectorsPath)
		if err != nil {
			_ = gateway.Close()
			return nil, fmt.Errorf("failed to load selectors: %w", err)
		}
	}

	src := page.NewSource(cfg.PagePath, sel)
	if _, _, err := src.Refresh(); err != nil {
		// The snapshot may not exist yet; the watcher picks it up on the
		// first write.
		log.Warn(map[string]any{
			"path":  cfg.PagePath,
			"error": err.Error(),
		}, "Initial page snapshot unavailable")
	}
	watcher := page.NewWatcher(src, logger)

	var reporter engine.Badge = badge.Nop{}
	if cfg.BadgeAddr != "" {
		reporter = badge.NewClient(cfg.BadgeAddr, logger)
		log.Info(map[string]any{"address": cfg.BadgeAddr}, "Badge reporting configured")
	}

	// Build service layer
	eng := engine.New(engine.Options{
		Page:     src,
		Feed:     watcher,
		Rules:    ruleStore,
		Records:  gateway,
		Badge:    reporter,
		Logger:   logger,
		Clock:    clk,
		Debounce: time.Duration(cfg.DebounceMS) * time.Millisecond,
	})

	// Build settings endpoint
	srv := settings.NewServer(cfg.ListenAddr, cfg.SiteHost, eng, logger)

	return &Application{
		config:   cfg,
		store:    gateway,
		watcher:  watcher,
		engine:   eng,
		settings: srv,
	}, nil
}

// seedIfEmpty imports the configured seed record into the active storage
// area, but only when that area holds no record yet.
func seedIfEmpty(cfg *config.AppConfig, gateway store.Gateway) error {
	if cfg.SeedPath == "" {
		return nil
	}
	emptier, ok := gateway.(store.Emptier)
	if !ok {
		return nil
	}

	empty, err := emptier.Empty()
	if err != nil {
		return fmt.Errorf("failed to inspect rule storage: %w", err)
	}
	if !empty {
		return nil
	}

	rec, err := store.LoadSeed(cfg.SeedPath)
	if err != nil {
		return fmt.Errorf("failed to load seed record: %w", err)
	}
	if err := gateway.Save(rec); err != nil {
		return fmt.Errorf("failed to import seed record: %w", err)
	}

	log.Info(map[string]any{
		"path":       cfg.SeedPath,
		"users":      len(rec.Users),
		"keywords":   len(rec.Keywords),
		"subreddits": len(rec.Subreddits),
		"domains":    len(rec.Domains),
	}, "Seed record imported")

	return nil
}

// Run starts the filter daemon and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	// Start page watcher
	if err := app.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start page watcher: %w", err)
	}

	// Start filter engine (runs the initial scan before returning)
	if err := app.engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start filter engine: %w", err)
	}

	// Start settings endpoint
	if err := app.settings.Start(ctx); err != nil {
		return fmt.Errorf("failed to start settings endpoint: %w", err)
	}

	log.Info(map[string]any{
		"listen": app.settings.Addr(),
		"page":   app.config.PagePath,
		"area":   app.store.ActiveArea().String(),
	}, "Filter daemon started")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	// Stop components in reverse dependency order
	done := make(chan struct{})
	go func() {
		if err := app.settings.Stop(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error during settings shutdown")
		}
		if err := app.watcher.Stop(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error during watcher shutdown")
		}
		if err := app.engine.Stop(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error during engine shutdown")
		}
		if err := app.store.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing rule storage")
		}
		close(done)
	}()

	// Wait for shutdown completion or timeout
	select {
	case <-done:
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
