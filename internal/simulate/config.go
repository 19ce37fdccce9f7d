// Package simulate drives a running progress service with synthetic athletes.
package simulate

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

var (
	ErrInvalidConfig    = errors.New("invalid simulation config")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrUnhealthy        = errors.New("service unhealthy")
	ErrInconsistent     = errors.New("inconsistent leaderboard")
)

// Config holds simulation settings.
type Config struct {
	BaseURL      string        // Base URL of the service
	Athletes     int           // Number of synthetic athletes
	Measurements int           // Measurements per athlete
	Workers      int           // Concurrent HTTP requests
	Timeout      time.Duration // Per request timeout
	TopN         int           // Leaderboard size to fetch
	Seed         uint64        // Generator seed
	DrainTimeout time.Duration // How long to wait for the queue to empty
}

// DefaultConfig returns the settings used by cmd/simulate.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:9080",
		Athletes:     100,
		Measurements: 10,
		Workers:      runtime.NumCPU() * 2,
		Timeout:      10 * time.Second,
		TopN:         10,
		Seed:         1,
		DrainTimeout: time.Minute,
	}
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Athletes < 1:
		return fmt.Errorf("%w: athletes must be positive", ErrInvalidConfig)
	case c.Measurements < 1:
		return fmt.Errorf("%w: measurements must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats summarises a run.
type Stats struct {
	Athletes           int
	Submitted          int64
	Accepted           int64
	Duplicate          int64
	Failed             int64
	LeaderboardEntries int
	Duration           time.Duration
}
