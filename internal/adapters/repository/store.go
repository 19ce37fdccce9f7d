// Package repository keeps athlete progress profiles and the leaderboard
// derived from their overall progress scores.
package repository

import (
	"context"

	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

// UpdateFunc mutates a private copy of a profile and its latest snapshots.
// Returning an error discards the copy.
type UpdateFunc func(p *model.Profile, snaps *model.Snapshots) error

// Store provides read/write access to athlete profiles.
//
// Writers for one athlete are serialised. Readers always receive copies.
type Store interface {
	// Create stores a new profile. Returns ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, p *model.Profile) error

	// Get returns a copy of the profile. Returns ErrNotFound if unknown.
	Get(ctx context.Context, athleteID string) (*model.Profile, error)

	// Snapshots returns a copy of the latest snapshot per dimension.
	Snapshots(ctx context.Context, athleteID string) (model.Snapshots, error)

	// Update applies fn under the athlete's write lock and returns a copy of
	// the stored result.
	Update(ctx context.Context, athleteID string, fn UpdateFunc) (*model.Profile, error)

	// Delete removes a profile.
	Delete(ctx context.Context, athleteID string) error

	// IDs returns every athlete id in ascending order.
	IDs(ctx context.Context) []string

	// Rank returns the leaderboard entry for an athlete.
	Rank(ctx context.Context, athleteID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by overall progress score desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of stored profiles.
	Count(ctx context.Context) int
}
