// Package main is the entry point for the transfer function server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soma-tiles/tfserver/internal/api"
	"github.com/soma-tiles/tfserver/internal/cache"
	"github.com/soma-tiles/tfserver/internal/config"
	"github.com/soma-tiles/tfserver/internal/logging"
	"github.com/soma-tiles/tfserver/internal/render"
	"github.com/soma-tiles/tfserver/internal/service"
	"github.com/soma-tiles/tfserver/internal/store"
	"github.com/soma-tiles/tfserver/pkg/plot"
	"github.com/soma-tiles/tfserver/pkg/tfio"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	log.Printf("Starting transfer function server on port %d", cfg.Server.Port)

	ctx := context.Background()

	// Initialize persistent library
	predicates := plot.NewRegistry()
	st, err := store.NewStore(cfg.Library.SQLitePath, predicates)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	cacheManager, err := cache.NewManager(cache.Config{
		StripCacheSizeMB: cfg.Cache.StripSizeMB,
		StripTTL:         time.Duration(cfg.Cache.StripTTLMinutes) * time.Minute,
		SampleCacheSize:  cfg.Cache.SampleCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	stripRenderer := render.NewStripRenderer(render.Config{
		Width:       cfg.Render.StripWidth,
		Height:      cfg.Render.StripHeight,
		CheckerSize: cfg.Render.CheckerSize,
	})

	transFuncs := service.NewTransFuncService(service.TransFuncServiceConfig{
		Store:          st,
		Cache:          cacheManager,
		Renderer:       stripRenderer,
		Formats:        tfio.NewRegistry(),
		DefaultWidth:   cfg.Library.DefaultWidth,
		PreloadWorkers: cfg.Library.PreloadWorkers,
		Logger:         logger,
	})
	selections := service.NewSelectionService(st, predicates, logger)

	n, err := transFuncs.Restore(ctx)
	if err != nil {
		log.Fatalf("Failed to restore library: %v", err)
	}
	log.Printf("Restored %d transfer function(s) from %s", n, cfg.Library.SQLitePath)

	if cfg.Library.SeedDir != "" {
		n, err := transFuncs.Preload(ctx, cfg.Library.SeedDir)
		if err != nil {
			log.Printf("Seed directory not loaded: %v", err)
		} else {
			log.Printf("Imported %d transfer function(s) from %s", n, cfg.Library.SeedDir)
		}
	}

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		TransFuncs:  transFuncs,
		Selections:  selections,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
