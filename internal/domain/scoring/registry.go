package scoring

import (
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

// Option configures a Registry.
type Option func(*Registry)

// WithMinEfficiencyQuality excludes efficiency rides below the given quality score.
func WithMinEfficiencyQuality(q float64) Option {
	return func(r *Registry) {
		if q >= 0 && q <= 1 {
			r.calculators[types.Efficiency] = Efficiency{MinQuality: q}
		}
	}
}

// Registry maps every dimension to its calculator.
type Registry struct {
	calculators [types.DimensionCount]Calculator
}

// NewRegistry returns a registry with the standard calculators.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		calculators: [types.DimensionCount]Calculator{
			types.Efficiency:   Efficiency{},
			types.PowerProfile: PowerProfile{},
			types.Cardio:       Cardio{},
			types.Strength:     Strength{},
			types.Flexibility:  Flexibility{},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Calculator returns the calculator for d, or nil for an unknown dimension.
func (r *Registry) Calculator(d types.Dimension) Calculator {
	if !d.Valid() {
		return nil
	}
	return r.calculators[d]
}

// ScoreAll scores every dimension that has valid data.
func (r *Registry) ScoreAll(snaps model.Snapshots, p *model.Profile) Scores {
	scores := make(Scores, types.DimensionCount)
	for _, d := range types.AllDimensions() {
		c := r.calculators[d]
		if _, ok := c.Current(snaps); !ok {
			continue
		}
		scores[d] = c.Score(snaps, p)
	}
	return scores
}

// CurrentAll returns the raw current metric of every dimension with valid data.
func (r *Registry) CurrentAll(snaps model.Snapshots) map[types.Dimension]float64 {
	out := make(map[types.Dimension]float64, types.DimensionCount)
	for _, d := range types.AllDimensions() {
		if v, ok := r.calculators[d].Current(snaps); ok {
			out[d] = v
		}
	}
	return out
}
