package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nguyentantai21042004/scribe-flow/internal/bootstrap"
	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/coordinator"
	"github.com/nguyentantai21042004/scribe-flow/internal/devices"
	"github.com/nguyentantai21042004/scribe-flow/internal/ingest"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/server"
	"github.com/nguyentantai21042004/scribe-flow/internal/session"
	"github.com/nguyentantai21042004/scribe-flow/internal/summarizer"
	"github.com/nguyentantai21042004/scribe-flow/pkg/executor"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Scribe Flow")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "CPU Cores: %d", runtime.NumCPU())
	log.Info(ctx, "Configuration loaded successfully")

	// Verify required directories exist
	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize dependencies
	exec := executor.New()
	registry := session.NewRegistry(cfg.Paths.Sessions)
	lister := devices.New(cfg, exec, log)

	srv := server.New(cfg, lister, log)
	core := coordinator.New(cfg, log, srv, registry)
	srv.Attach(core)

	go core.Run(ctx)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)

	// Start the UI server before bootstrap so clients see progress
	go func() {
		if err := srv.Run(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	// One-time environment check; recording stays locked until it passes
	go func() {
		boot := bootstrap.New(cfg, log, srv)
		if err := boot.Run(ctx); err != nil {
			log.Error(ctx, "Bootstrap failed: %v", err)
			return
		}
		core.MarkReady()
		log.Info(ctx, "Environment ready, recording unlocked")
	}()

	// Drop-folder ingest for pre-recorded audio
	if cfg.Ingest.Enabled {
		summ := summarizer.New(cfg.Gemini.APIKeys, cfg.Gemini.Model, log)
		pipeline := ingest.NewPipeline(cfg, exec, summ, log)

		w, err := ingest.NewWatcher(cfg.Ingest.Input, pipeline.Process, log, cfg.Ingest.MaxConcurrent)
		if err != nil {
			log.Error(ctx, "Failed to create ingest watcher: %v", err)
			os.Exit(1)
		}
		defer w.Stop()

		go func() {
			if err := w.Start(ctx); err != nil && err != context.Canceled {
				errChan <- err
			}
		}()

		log.Info(ctx, "Ingest drop folder: %s", cfg.Ingest.Input)
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Scribe Flow is ready!")
	log.Info(ctx, "UI endpoint: ws://%s/ws", cfg.Server.Addr)
	log.Info(ctx, "Sessions: %s", cfg.Paths.Sessions)
	log.Info(ctx, "")
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Runtime error: %v", err)
	}

	// Graceful shutdown
	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	log.Info(ctx, "Scribe Flow stopped")
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Sessions,
	}
	if cfg.Paths.Models != "" {
		dirs = append(dirs, cfg.Paths.Models)
	}
	if cfg.Ingest.Enabled {
		dirs = append(dirs, cfg.Ingest.Input, cfg.Ingest.Archived, cfg.Ingest.Temp)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
