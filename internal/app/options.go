package service

import (
	"time"

	"github.com/okian/wpr/internal/adapters/repository"
	"github.com/okian/wpr/internal/domain/dedupe"
	"github.com/okian/wpr/internal/domain/engine"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending measurements.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the measurement id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeduper replaces the bounded in-memory measurement id cache.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithAnalyzeConcurrency bounds how many profiles AnalyzeAll works on at once.
func WithAnalyzeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.analyzeConcurrency = n
		}
	}
}

// WithEngine sets the analysis engine.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithDefaultRate sets the monthly score improvement assumed until a profile
// has enough history to estimate its own.
func WithDefaultRate(rate float64) Option {
	return func(s *Service) {
		if rate >= 0 {
			s.defaultRate = rate
		}
	}
}

// WithProfileTemplate sets the profile new athletes start from.
func WithProfileTemplate(p *model.Profile) Option {
	return func(s *Service) {
		if p != nil {
			s.template = p.Clone()
		}
	}
}

// WithStore replaces the in-memory profile store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
