package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/wpr/internal/simulate"
	"github.com/okian/wpr/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := simulate.DefaultConfig()
	var (
		baseURL      = flag.String("url", def.BaseURL, "Base URL of the service")
		athletes     = flag.Int("athletes", def.Athletes, "Number of synthetic athletes")
		measurements = flag.Int("measurements", def.Measurements, "Measurements per athlete")
		workers      = flag.Int("workers", def.Workers, "Concurrent requests")
		top          = flag.Int("top", def.TopN, "Leaderboard entries to fetch")
		seed         = flag.Uint64("seed", def.Seed, "Generator seed")
		timeout      = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		drain        = flag.Duration("drain", def.DrainTimeout, "How long to wait for the queue to drain")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		logFormat    = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithLevel(*logLevel), logger.WithFormat(*logFormat)); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := simulate.Config{
		BaseURL:      *baseURL,
		Athletes:     *athletes,
		Measurements: *measurements,
		Workers:      *workers,
		Timeout:      *timeout,
		TopN:         *top,
		Seed:         *seed,
		DrainTimeout: *drain,
	}
	stats, err := simulate.Run(ctx, cfg, logger.Named("simulate"))
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "simulation failed:", err)
		os.Exit(1) //nolint:gocritic // exitAfterDefer
	}
	fmt.Printf("athletes=%d submitted=%d accepted=%d duplicate=%d failed=%d duration=%s\n",
		stats.Athletes, stats.Submitted, stats.Accepted, stats.Duplicate, stats.Failed, stats.Duration)
}
