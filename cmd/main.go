package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/okian/wpr/internal/adapters/http/api"
	"github.com/okian/wpr/internal/adapters/http/swagger"
	"github.com/okian/wpr/internal/adapters/repository"
	service "github.com/okian/wpr/internal/app"
	"github.com/okian/wpr/internal/config"
	"github.com/okian/wpr/internal/domain/dedupe"
	"github.com/okian/wpr/internal/domain/engine"
	"github.com/okian/wpr/internal/domain/forecast"
	"github.com/okian/wpr/internal/domain/scoring"
	"github.com/okian/wpr/pkg/logger"
	"github.com/okian/wpr/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	logOpts := []logger.Option{logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)}
	if cfg.LogFile != "" {
		logFile := newLogFile(cfg)
		defer func() { _ = logFile.Close() }()
		logOpts = append(logOpts, logger.WithOutput(io.MultiWriter(os.Stdout, logFile)))
	}
	if err := logger.Init(logOpts...); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store failed", logger.Error(err))
		}
	}()

	svc, err := newService(cfg, log, service.WithStore(store))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	srv := newHTTPServer(ctx, cfg, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
			errs = errors.Join(errs, err)
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "service stop failed", logger.Error(err))
			errs = errors.Join(errs, err)
		}
		log.Info(shutdownCtx, "server stopped")
		return errs
	})
	return g.Wait() //nolint:wrapcheck // already wrapped
}

// newEngine builds the analysis engine from configuration.
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}
	return engine.New(
		engine.WithRegistry(scoring.NewRegistry(scoring.WithMinEfficiencyQuality(cfg.MinEfficiencyQuality))),
		engine.WithForecaster(forecast.New(
			forecast.WithStrategy(strategy),
			forecast.WithHorizon(cfg.ForecastHorizonDays),
		)),
		engine.WithHorizons(cfg.ForecastHorizons...),
	), nil
}

// newLogFile returns a size-rotated log file writer.
func newLogFile(cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogFileMaxSizeMB,
		MaxBackups: cfg.LogFileMaxBackups,
		Compress:   true,
	}
}

type closableStore interface {
	repository.Store
	Close() error
}

// newStore opens the configured profile store.
func newStore(ctx context.Context, cfg *config.Config) (closableStore, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		store, err := repository.OpenSQLiteStore(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return store, nil
	default:
		return repository.NewMemoryStore(ctx), nil
	}
}

// newDeduper builds the configured measurement id cache.
func newDeduper(cfg *config.Config) dedupe.Deduper {
	if cfg.DedupeBackend == config.DedupeFreecache {
		return dedupe.NewFreecacheDeduper(cfg.DedupeCacheBytes, dedupe.WithExpiration(cfg.DedupeTTL))
	}
	return dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
}

func newService(cfg *config.Config, log logger.Logger, extra ...service.Option) (*service.Service, error) {
	eng, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	template, err := cfg.DefaultProfile("", time.Time{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithEngine(eng),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDeduper(newDeduper(cfg)),
		service.WithAnalyzeConcurrency(cfg.AnalyzeConcurrency),
		service.WithDefaultRate(cfg.ForecastRate),
		service.WithProfileTemplate(template),
	}
	return service.New(append(opts, extra...)...), nil
}

func newHTTPServer(ctx context.Context, cfg *config.Config, deps api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(deps, cfg.MaxLeaderboardLimit).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		metrics.RecordSystemGCPauseTime(float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond)
	}
}
