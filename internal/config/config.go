// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/okian/wpr/internal/domain/dedupe"
	"github.com/okian/wpr/internal/domain/forecast"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
	"github.com/okian/wpr/pkg/logger"
)

// DimensionConfig overrides the default parameters of one dimension. Unset
// fields keep the built-in default.
type DimensionConfig struct {
	Coefficient *float64 `koanf:"coefficient"`
	Baseline    *float64 `koanf:"baseline"`
	Target      *float64 `koanf:"target"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile additionally writes logs to a rotated file when set.
	LogFile string `koanf:"log_file"`
	// LogFileMaxSizeMB rotates the log file at this size.
	LogFileMaxSizeMB int `koanf:"log_file_max_size_mb"`
	// LogFileMaxBackups is how many rotated files are kept, 0 keeps all.
	LogFileMaxBackups int `koanf:"log_file_max_backups"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory measurement queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeBackend is memory or freecache.
	DedupeBackend string `koanf:"dedupe_backend"`
	// DedupeSize bounds the in-memory measurement id cache by entries.
	DedupeSize int `koanf:"dedupe_size"`
	// DedupeCacheBytes sizes the freecache backend.
	DedupeCacheBytes int `koanf:"dedupe_cache_bytes"`
	// DedupeTTL forgets freecache ids after this long, 0 keeps them until evicted.
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`

	// StoreDriver is memory or sqlite.
	StoreDriver string `koanf:"store_driver"`
	// StorePath is the sqlite database file.
	StorePath string `koanf:"store_path"`
	// AnalyzeConcurrency bounds batch analysis fan-out.
	AnalyzeConcurrency int `koanf:"analyze_concurrency"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// ForecastStrategy is linear or exponential.
	ForecastStrategy string `koanf:"forecast_strategy"`
	// ForecastRate is the monthly improvement rate used until history exists.
	ForecastRate float64 `koanf:"forecast_rate"`
	// ForecastHorizonDays is the horizon of the headline projection.
	ForecastHorizonDays int `koanf:"forecast_horizon_days"`
	// ForecastHorizons are the extra horizons reported with each analysis.
	ForecastHorizons []int `koanf:"forecast_horizons"`

	// MinEfficiencyQuality drops efficiency samples below this quality.
	MinEfficiencyQuality float64 `koanf:"min_efficiency_quality"`

	// TargetWPR is the default target for new profiles.
	TargetWPR float64 `koanf:"target_wpr"`
	// NormalizeCoefficients rescales configured coefficients to sum to 1.
	NormalizeCoefficients bool `koanf:"normalize_coefficients"`
	// Dimensions overrides per-dimension defaults, keyed by dimension name.
	Dimensions map[string]DimensionConfig `koanf:"dimensions"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Dedupe backends.
const (
	DedupeMemory    = "memory"
	DedupeFreecache = "freecache"
)

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            logger.FormatText,
		LogFileMaxSizeMB:     50,
		LogFileMaxBackups:    10,
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeBackend:        DedupeMemory,
		DedupeSize:           50_000,
		DedupeCacheBytes:     dedupe.DefaultCacheBytes,
		StoreDriver:          StoreMemory,
		StorePath:            "data/wpr.db",
		AnalyzeConcurrency:   runtime.NumCPU(),
		MaxLeaderboardLimit:  100,
		ForecastStrategy:     forecast.Linear{}.Name(),
		ForecastRate:         forecast.DefaultRate,
		ForecastHorizonDays:  forecast.DefaultHorizonDays,
		ForecastHorizons:     []int{30, 60, 100},
		MinEfficiencyQuality: 0,
		TargetWPR:            model.DefaultTargetWPR,
		ShutdownTimeout:      30 * time.Second,
	}
}

// Strategy returns the configured forecast strategy.
func (c *Config) Strategy() (forecast.Strategy, error) {
	return forecast.ParseStrategy(c.ForecastStrategy)
}

// DefaultProfile builds a blank profile carrying the configured defaults.
func (c *Config) DefaultProfile(athleteID string, now time.Time) (*model.Profile, error) {
	p := model.NewProfile(athleteID, now)
	if c.TargetWPR > 0 {
		p.TargetWPR = c.TargetWPR
	}
	for name, dc := range c.Dimensions {
		d, err := types.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		params := p.Param(d)
		if dc.Coefficient != nil {
			params.Coefficient = *dc.Coefficient
		}
		if dc.Baseline != nil {
			params.Baseline = *dc.Baseline
			params.Current = *dc.Baseline
		}
		if dc.Target != nil {
			params.Target = *dc.Target
		}
		p.SetParam(d, params)
	}
	if c.NormalizeCoefficients {
		p.NormalizeCoefficients()
	}
	return p, nil
}

// Validate reports every invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf(format, args...))
	}

	if c.Addr == "" {
		add("addr must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("unknown log_level %q", c.LogLevel)
	}
	if c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON {
		add("unknown log_format %q", c.LogFormat)
	}
	if c.QueueSize < 1 {
		add("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.WorkerCount < 1 {
		add("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.LogFile != "" && c.LogFileMaxSizeMB < 1 {
		add("log_file_max_size_mb must be positive, got %d", c.LogFileMaxSizeMB)
	}
	if c.LogFileMaxBackups < 0 {
		add("log_file_max_backups must not be negative, got %d", c.LogFileMaxBackups)
	}
	switch c.DedupeBackend {
	case DedupeMemory:
		if c.DedupeSize < 0 {
			add("dedupe_size must not be negative, got %d", c.DedupeSize)
		}
	case DedupeFreecache:
		if c.DedupeCacheBytes < 1 {
			add("dedupe_cache_bytes must be positive, got %d", c.DedupeCacheBytes)
		}
		if c.DedupeTTL < 0 {
			add("dedupe_ttl must not be negative, got %v", c.DedupeTTL)
		}
	default:
		add("unknown dedupe_backend %q", c.DedupeBackend)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.StorePath == "" {
			add("store_path must not be empty for the sqlite driver")
		}
	default:
		add("unknown store_driver %q", c.StoreDriver)
	}
	if c.AnalyzeConcurrency < 1 {
		add("analyze_concurrency must be positive, got %d", c.AnalyzeConcurrency)
	}
	if c.MaxLeaderboardLimit < 1 {
		add("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit)
	}
	if _, serr := c.Strategy(); serr != nil {
		err = multierr.Append(err, serr)
	}
	if c.ForecastRate < 0 {
		add("forecast_rate must not be negative, got %v", c.ForecastRate)
	}
	if c.ForecastHorizonDays < 1 {
		add("forecast_horizon_days must be positive, got %d", c.ForecastHorizonDays)
	}
	for _, h := range c.ForecastHorizons {
		if h < 1 {
			add("forecast_horizons must be positive, got %d", h)
		}
	}
	if c.MinEfficiencyQuality < 0 || c.MinEfficiencyQuality > 1 {
		add("min_efficiency_quality must be within [0,1], got %v", c.MinEfficiencyQuality)
	}

	p, perr := c.DefaultProfile("config", time.Time{})
	if perr != nil {
		err = multierr.Append(err, perr)
	} else if verr := p.Validate(); verr != nil {
		err = multierr.Append(err, verr)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
