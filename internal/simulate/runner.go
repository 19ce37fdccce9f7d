package simulate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/wpr/internal/domain/types"
	"github.com/okian/wpr/pkg/logger"
)

const drainPollInterval = 100 * time.Millisecond

// Run creates the athletes, submits their measurements, waits for the queue
// to drain and checks the leaderboard ordering.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) { //nolint:gocritic // hugeParam
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("measurements", cfg.Measurements),
		logger.Int("workers", cfg.Workers))

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	athletes := NewGenerator(cfg.Seed, start).Athletes(cfg.Athletes, cfg.Measurements)
	stats := &Stats{Athletes: len(athletes)}

	if err := setup(ctx, client, cfg.Workers, athletes); err != nil {
		return nil, fmt.Errorf("athlete setup failed: %w", err)
	}
	submit(ctx, client, cfg.Workers, athletes, stats)
	log.Info(ctx, "measurements submitted",
		logger.Int("accepted", int(stats.Accepted)),
		logger.Int("duplicate", int(stats.Duplicate)),
		logger.Int("failed", int(stats.Failed)))

	if err := waitDrained(ctx, client, cfg.DrainTimeout); err != nil {
		return nil, err
	}

	entries, err := client.Leaderboard(ctx, min(cfg.TopN, cfg.Athletes))
	if err != nil {
		return nil, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if err := verifyLeaderboard(entries); err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(entries)
	stats.Duration = time.Since(start)

	log.Info(ctx, "simulation completed",
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration))
	for _, e := range entries {
		log.Debug(ctx, "leaderboard entry",
			logger.Int("rank", e.Rank),
			logger.String("athlete", e.AthleteID),
			logger.Float64("score", e.Score),
			logger.String("bottleneck", e.Bottleneck))
	}
	return stats, nil
}

func setup(ctx context.Context, client *Client, workers int, athletes []Athlete) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, a := range athletes {
		g.Go(func() error {
			if err := client.Configure(gctx, a.ID); err != nil {
				return err
			}
			return client.SetBaseline(gctx, a.ID, a.Baseline)
		})
	}
	return g.Wait() //nolint:wrapcheck // wrapped by caller
}

// submit posts measurements in order per athlete and athletes in parallel.
// Failures are counted, not fatal.
func submit(ctx context.Context, client *Client, workers int, athletes []Athlete, stats *Stats) {
	var g errgroup.Group
	g.SetLimit(workers)
	for _, a := range athletes {
		g.Go(func() error {
			for _, m := range a.Measurements {
				atomic.AddInt64(&stats.Submitted, 1)
				dup, err := client.Submit(ctx, m)
				switch {
				case err != nil:
					atomic.AddInt64(&stats.Failed, 1)
				case dup:
					atomic.AddInt64(&stats.Duplicate, 1)
				default:
					atomic.AddInt64(&stats.Accepted, 1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func waitDrained(ctx context.Context, client *Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		n, err := client.QueueLength(ctx)
		if err != nil {
			return fmt.Errorf("queue drain check failed: %w", err)
		}
		if n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("queue not drained: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// verifyLeaderboard checks that scores never increase and ranks never decrease.
func verifyLeaderboard(entries []types.Entry) error {
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.Score > prev.Score {
			return fmt.Errorf("%w: %s scores %.4f above %s at %.4f", ErrInconsistent, cur.AthleteID, cur.Score, prev.AthleteID, prev.Score)
		}
		if cur.Rank < prev.Rank {
			return fmt.Errorf("%w: rank %d after %d", ErrInconsistent, cur.Rank, prev.Rank)
		}
	}
	return nil
}
