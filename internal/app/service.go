// Package service wires the profile store, ingestion queue, worker pool and
// analysis engine behind the operations the HTTP API and tools use.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/wpr/internal/adapters/mq/queue"
	"github.com/okian/wpr/internal/adapters/mq/worker"
	"github.com/okian/wpr/internal/adapters/repository"
	"github.com/okian/wpr/internal/domain/dedupe"
	"github.com/okian/wpr/internal/domain/engine"
	"github.com/okian/wpr/internal/domain/forecast"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
	"github.com/okian/wpr/pkg/logger"
	"github.com/okian/wpr/pkg/metrics"
)

// IngestResult acknowledges an accepted measurement.
type IngestResult struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Service implements the dependencies of the HTTP API.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool
	engine  *engine.Engine

	workerCount        int
	queueSize          int
	dedupeSize         int
	analyzeConcurrency int
	defaultRate        float64
	template           *model.Profile
	now                func() time.Time

	started   bool
	cancel    context.CancelFunc
	ownsStore bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU(),
		queueSize:          10_000,
		dedupeSize:         50_000,
		analyzeConcurrency: runtime.NumCPU(),
		defaultRate:        forecast.DefaultRate,
		template:           model.NewProfile("", time.Time{}),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.New()
	}
	return s
}

// Start creates the runtime components and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	if s.store == nil {
		s.store = repository.NewMemoryStore(runCtx, repository.WithClock(s.now))
		s.ownsStore = true
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.ProcessorFunc(s.Process))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "progress service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("forecast_strategy", s.engine.Forecaster().Strategy().Name()),
	)
	return nil
}

// Stop stops accepting measurements, drains the queue and releases resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping progress service")

	err := s.pool.Drain(ctx)
	s.cancel()
	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	s.started = false
	s.logger.Info(ctx, "progress service stopped")
	return err
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// ConfigureProfile creates the athlete's profile if needed and applies st.
// The result is validated before it is stored.
func (s *Service) ConfigureProfile(ctx context.Context, athleteID string, st ProfileSettings) (*model.Profile, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if athleteID == "" {
		return nil, repository.ErrInvalidID
	}
	// a new athlete is checked against the template so a rejected PUT stores nothing
	if _, err := s.store.Get(ctx, athleteID); errors.Is(err, repository.ErrNotFound) {
		draft := s.template.Clone()
		draft.AthleteID = athleteID
		st.apply(draft)
		if err := draft.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
	}
	if err := s.ensureProfile(ctx, athleteID); err != nil {
		return nil, err
	}
	p, err := s.store.Update(ctx, athleteID, func(p *model.Profile, snaps *model.Snapshots) error {
		st.apply(p)
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		s.refresh(p, *snaps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "profile configured", logger.String("athlete_id", athleteID))
	return p, nil
}

func (s *Service) ensureProfile(ctx context.Context, athleteID string) error {
	if athleteID == "" {
		return repository.ErrInvalidID
	}
	p := s.template.Clone()
	p.AthleteID = athleteID
	p.CreatedAt = s.now()

	err := s.store.Create(ctx, p)
	if err == nil || errors.Is(err, repository.ErrAlreadyExists) {
		return nil
	}
	return err
}

// SetBaseline records the athlete's first FTP, weight and EF. It creates the
// profile from defaults when it does not exist yet.
func (s *Service) SetBaseline(ctx context.Context, athleteID string, b Baseline) (*model.Profile, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if err := s.ensureProfile(ctx, athleteID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, athleteID, func(p *model.Profile, snaps *model.Snapshots) error {
		if err := p.SetBaseline(b.FTP, b.Weight, b.EF, s.now()); err != nil {
			return err
		}
		s.refresh(p, *snaps)
		return nil
	})
}

// Ingest validates a measurement and queues it. Measurements without an id
// get a generated one; repeated ids are acknowledged as duplicates.
func (s *Service) Ingest(ctx context.Context, m model.Measurement) (IngestResult, error) { //nolint:gocritic // hugeParam
	if err := s.running(); err != nil {
		return IngestResult{}, err
	}
	if err := m.Validate(); err != nil {
		metrics.RecordMeasurementRejected("invalid")
		return IngestResult{}, fmt.Errorf("%w: %w", ErrInvalidMeasurement, err)
	}
	p, err := s.store.Get(ctx, m.AthleteID)
	if err != nil {
		metrics.RecordMeasurementRejected("unknown_athlete")
		return IngestResult{}, err
	}
	if p.State == model.StateUninitialized && m.HasWPRUpdate() {
		metrics.RecordMeasurementRejected("baseline_not_set")
		return IngestResult{}, fmt.Errorf("%w: %s", model.ErrBaselineNotSet, m.AthleteID)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	if s.deduper.SeenAndRecord(ctx, m.ID) {
		metrics.RecordMeasurementDuplicate()
		s.logger.Debug(ctx, "duplicate measurement", logger.String("measurement_id", m.ID))
		return IngestResult{ID: m.ID, Duplicate: true}, nil
	}
	if err := s.queue.Enqueue(ctx, m); err != nil {
		s.deduper.Unrecord(ctx, m.ID)
		metrics.RecordMeasurementRejected("backpressure")
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return IngestResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return IngestResult{}, err
	}
	return IngestResult{ID: m.ID}, nil
}

// Process applies a measurement to its profile and re-runs the analysis. The
// worker pool calls it for every dequeued measurement.
func (s *Service) Process(ctx context.Context, m model.Measurement) error { //nolint:gocritic // hugeParam
	var overall float64
	_, err := s.store.Update(ctx, m.AthleteID, func(p *model.Profile, snaps *model.Snapshots) error {
		now := s.now()
		if m.HasWPRUpdate() {
			if err := p.UpdateCurrent(m.FTP, m.Weight, now); err != nil {
				return err
			}
		}
		if m.Snapshots.Count() > 0 {
			*snaps = snaps.Merge(m.Snapshots.Clone())
			p.MarkActive(now)
		}
		a := s.refresh(p, *snaps)
		p.RecordScore(m.CreatedAt, a.Overall)
		overall = a.Overall
		return nil
	})
	if err != nil {
		// forget the id so the caller can resend once the cause is fixed
		s.deduper.Unrecord(ctx, m.ID)
		metrics.RecordErrorByComponent("service", "process_measurement")
		return fmt.Errorf("process measurement %s: %w", m.ID, err)
	}
	metrics.RecordMeasurementIngested()
	s.logger.Debug(ctx, "measurement applied",
		logger.String("measurement_id", m.ID),
		logger.String("athlete_id", m.AthleteID),
		logger.Float64("overall", overall),
	)
	return nil
}

// refresh re-runs the engine over p and copies the derived fields back.
func (s *Service) refresh(p *model.Profile, snaps model.Snapshots) engine.Analysis {
	a := s.analyze(p, snaps)
	history := p.History
	*p = *a.Profile
	p.History = history
	return a
}

func (s *Service) rate(p *model.Profile) float64 {
	return forecast.EstimateRate(p.History, s.defaultRate)
}

func (s *Service) analyze(p *model.Profile, snaps model.Snapshots) engine.Analysis {
	start := time.Now()
	a := s.engine.Analyze(p, snaps, s.rate(p))

	metrics.RecordAnalysis(float64(time.Since(start).Milliseconds()), a.Overall)
	for d, v := range a.Scores {
		metrics.RecordDimensionScore(d.String(), v)
	}
	if a.Bottleneck != nil {
		metrics.RecordBottleneck(a.Bottleneck.Dimension.String(), a.Bottleneck.Severity.String())
	}
	if !a.Projection.Reachable {
		metrics.RecordUnreachableProjection()
	}
	return a
}

// Analyze returns the current analysis of an athlete without modifying it.
func (s *Service) Analyze(ctx context.Context, athleteID string) (engine.Analysis, error) {
	if err := s.running(); err != nil {
		return engine.Analysis{}, err
	}
	p, err := s.store.Get(ctx, athleteID)
	if err != nil {
		return engine.Analysis{}, err
	}
	snaps, err := s.store.Snapshots(ctx, athleteID)
	if err != nil {
		return engine.Analysis{}, err
	}
	return s.analyze(p, snaps), nil
}

// AnalyzeAll re-analyses every profile, stores the refreshed derived fields
// and returns the analyses ordered by athlete id.
func (s *Service) AnalyzeAll(ctx context.Context) ([]engine.Analysis, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	ids := s.store.IDs(ctx)
	out := make([]engine.Analysis, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.analyzeConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			_, err := s.store.Update(gctx, id, func(p *model.Profile, snaps *model.Snapshots) error {
				out[i] = s.refresh(p, *snaps)
				return nil
			})
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// profiles deleted mid-run leave a zero entry behind
	kept := out[:0]
	for _, a := range out {
		if a.Profile != nil {
			kept = append(kept, a)
		}
	}
	return kept, nil
}

// Profile returns a copy of the athlete's profile.
func (s *Service) Profile(ctx context.Context, athleteID string) (*model.Profile, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, athleteID)
}

// DeleteProfile removes an athlete.
func (s *Service) DeleteProfile(ctx context.Context, athleteID string) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.store.Delete(ctx, athleteID)
}

// TopN returns the top N athletes by overall progress score.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.TopN(ctx, n)
}

// Rank returns the leaderboard entry of an athlete.
func (s *Service) Rank(ctx context.Context, athleteID string) (types.Entry, error) {
	if err := s.running(); err != nil {
		return types.Entry{}, err
	}
	return s.store.Rank(ctx, athleteID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"worker_count":      s.workerCount,
		"queue_size":        s.queueSize,
		"dedupe_size":       s.dedupeSize,
		"forecast_strategy": s.engine.Forecaster().Strategy().Name(),
		"default_rate":      s.defaultRate,
	}
	if s.started {
		ctx := context.Background()
		profiles := s.store.Count(ctx)
		stats["queue_length"] = s.queue.Len(ctx)
		stats["profiles"] = profiles
		stats["dedupe_entries"] = s.deduper.Size()
		metrics.UpdateProfilesTotal(profiles)
	}
	return stats
}
