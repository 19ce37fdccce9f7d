package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
	"github.com/okian/wpr/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

type record struct {
	mu      sync.Mutex
	profile *model.Profile
	snaps   model.Snapshots
}

// MemoryStore is an in-memory Store with a per-athlete write lock and a
// treap leaderboard index.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record
	board   *leaderboard
	now     func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store. Background metric updates stop when ctx
// is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := newOptions(opts)
	s := &MemoryStore{
		records:  make(map[string]*record),
		board:    newLeaderboard(),
		now:      o.now,
		stopChan: make(chan struct{}),
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, o.metricsUpdateInterval, s.Count)
	return s
}

// startMetricsUpdater publishes the profile count every interval until ctx
// is done or stop is closed.
func startMetricsUpdater(ctx context.Context, wg *sync.WaitGroup, stop <-chan struct{}, interval time.Duration, count func(context.Context) int) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				metrics.UpdateProfilesTotal(count(ctx))
			}
		}
	}()
}

// Close stops the background goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}

func bottleneckName(p *model.Profile) string {
	if p.CurrentBottleneck == nil {
		return ""
	}
	return p.CurrentBottleneck.String()
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, p *model.Profile) error {
	defer observeUpdate(time.Now())

	if p == nil || p.AthleteID == "" {
		return ErrInvalidID
	}
	cp := p.Clone()
	now := s.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	s.mu.Lock()
	if _, ok := s.records[cp.AthleteID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyExists, cp.AthleteID)
	}
	s.records[cp.AthleteID] = &record{profile: cp}
	count := len(s.records)
	s.mu.Unlock()

	s.board.upsert(cp.AthleteID, cp.OverallProgressScore, bottleneckName(cp))
	metrics.UpdateProfilesTotal(count)
	return nil
}

func (s *MemoryStore) lookup(athleteID string) (*record, error) {
	s.mu.RLock()
	rec, ok := s.records[athleteID]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}
	return rec, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, athleteID string) (*model.Profile, error) {
	defer observeQuery(time.Now())

	rec, err := s.lookup(athleteID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.profile.Clone(), nil
}

// Snapshots implements Store.
func (s *MemoryStore) Snapshots(_ context.Context, athleteID string) (model.Snapshots, error) {
	defer observeQuery(time.Now())

	rec, err := s.lookup(athleteID)
	if err != nil {
		return model.Snapshots{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.snaps.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, athleteID string, fn UpdateFunc) (*model.Profile, error) {
	defer observeUpdate(time.Now())

	rec, err := s.lookup(athleteID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update %s: %w", athleteID, err)
	}

	p := rec.profile.Clone()
	snaps := rec.snaps.Clone()
	if err := fn(p, &snaps); err != nil {
		return nil, err
	}
	p.AthleteID = athleteID
	p.UpdatedAt = s.now()

	// a concurrent Delete wins; the update is dropped with the record
	s.mu.RLock()
	_, alive := s.records[athleteID]
	s.mu.RUnlock()
	if !alive {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}

	rec.profile = p
	rec.snaps = snaps
	s.board.upsert(athleteID, p.OverallProgressScore, bottleneckName(p))
	return p.Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, athleteID string) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	if _, ok := s.records[athleteID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}
	delete(s.records, athleteID)
	count := len(s.records)
	s.mu.Unlock()

	s.board.remove(athleteID)
	metrics.UpdateProfilesTotal(count)
	return nil
}

// IDs implements Store.
func (s *MemoryStore) IDs(_ context.Context) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Rank implements Store.
func (s *MemoryStore) Rank(_ context.Context, athleteID string) (types.Entry, error) {
	defer observeQuery(time.Now())

	e, ok := s.board.rank(athleteID)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}
	return e, nil
}

// TopN implements Store.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	defer observeQuery(time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	return s.board.top(n), nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
