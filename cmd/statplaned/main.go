// Package main is the entry point for the statplane daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"statplane/internal/bus"
	"statplane/internal/config"
	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/ledger/postgres"
	"statplane/internal/logger"
	"statplane/internal/manager"
	"statplane/internal/observability"
	"statplane/internal/server"
	"statplane/internal/tool"
	"statplane/internal/tool/stats"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting (requires DATABASE_URL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()
	ctx := context.Background()

	// Ledger: Postgres when configured, in-memory otherwise.
	var led ledger.Ledger
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL, cfg.LedgerCapacity)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		if *migrateFlag {
			log.Println("Running database migrations...")
			if err := postgres.Migrate(store.DB()); err != nil {
				log.Fatalf("Migration failed: %v", err)
			}
			log.Println("Migrations completed successfully")
		}
		led = store
	} else {
		led = ledger.NewMemory(cfg.LedgerCapacity)
	}
	defer led.Close()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "statplaned", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Datasets and tools
	datasets := dataset.NewStore()
	registry := tool.NewRegistry()
	stats.RegisterAll(registry, datasets)

	// Job manager
	m := manager.New(manager.Config{
		Concurrency: cfg.WorkerConcurrency,
		JobTimeout:  cfg.JobTimeout,
		CancelGrace: cfg.CancelGrace,
	}, registry, led, bus.New(cfg.BusBuffer, cfg.LedgerCapacity), datasets, slogger)

	// HTTP server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := server.New(server.Config{
		Addr:            addr,
		SubmitRateLimit: cfg.SubmitRateLimit,
		MetricsHandler:  metricsHandler,
	}, m, slogger)

	go func() {
		log.Printf("statplane daemon starting on %s (concurrency %d)", addr, cfg.WorkerConcurrency)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := m.Shutdown(shutdownCtx); err != nil {
		log.Printf("Manager shutdown incomplete: %v", err)
	}
	log.Println("Server exited properly")
}
