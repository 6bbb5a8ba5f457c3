// Package config handles environment variable loading for the statplane
// daemon.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the daemon.
type Config struct {
	// HTTP server port
	HTTPPort int

	// Worker pool size
	WorkerConcurrency int

	// Default wall-clock bound per job
	JobTimeout time.Duration

	// Grace period after a timeout-triggered cancellation before the job
	// is marked failed
	CancelGrace time.Duration

	// Maximum number of records kept by the ledger
	LedgerCapacity int

	// Buffer size of each bus subscriber channel
	BusBuffer int

	// Postgres connection string; empty selects the in-memory ledger
	DatabaseURL string

	// OTLP collector address; empty disables tracing
	OTELEndpoint string

	// Requests per second allowed on submission endpoints; 0 disables
	// rate limiting
	SubmitRateLimit float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:          8451,
		WorkerConcurrency: 2,
		JobTimeout:        5 * time.Minute,
		CancelGrace:       5 * time.Second,
		LedgerCapacity:    256,
		BusBuffer:         16,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		OTELEndpoint:      os.Getenv("OTEL_ENDPOINT"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.HTTPPort = p
	}

	if concurrencyStr := os.Getenv("WORKER_CONCURRENCY"); concurrencyStr != "" {
		c, err := strconv.Atoi(concurrencyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
		}
		if c < 1 {
			return nil, fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
		}
		cfg.WorkerConcurrency = c
	}

	if timeoutStr := os.Getenv("JOB_TIMEOUT"); timeoutStr != "" {
		d, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
		}
		cfg.JobTimeout = d
	}

	if graceStr := os.Getenv("CANCEL_GRACE"); graceStr != "" {
		d, err := time.ParseDuration(graceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid CANCEL_GRACE: %w", err)
		}
		cfg.CancelGrace = d
	}

	if capStr := os.Getenv("LEDGER_CAPACITY"); capStr != "" {
		c, err := strconv.Atoi(capStr)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_CAPACITY: %w", err)
		}
		cfg.LedgerCapacity = c
	}

	if bufStr := os.Getenv("BUS_BUFFER"); bufStr != "" {
		b, err := strconv.Atoi(bufStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BUS_BUFFER: %w", err)
		}
		cfg.BusBuffer = b
	}

	if rateStr := os.Getenv("SUBMIT_RATE_LIMIT"); rateStr != "" {
		r, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUBMIT_RATE_LIMIT: %w", err)
		}
		if r < 0 {
			return nil, fmt.Errorf("SUBMIT_RATE_LIMIT must not be negative")
		}
		cfg.SubmitRateLimit = r
	}

	return cfg, nil
}
