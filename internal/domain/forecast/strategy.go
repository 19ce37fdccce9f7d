package forecast

import (
	"fmt"
	"math"
	"strings"
)

const (
	daysPerMonth = 30.0

	// MaxProjectionDays caps reachable projections; longer ones are reported
	// as unreachable.
	MaxProjectionDays = math.MaxInt32
)

// toDays converts a day count to int, false when it is not finite or beyond
// MaxProjectionDays.
func toDays(days float64) (int, bool) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days > MaxProjectionDays {
		return 0, false
	}
	return max(1, int(days)), true
}

// Strategy models how the overall progress score evolves over time. Rates are
// in score units per 30 days.
type Strategy interface {
	Name() string
	// DaysToTarget returns the days until the score reaches the target, or
	// false when it never does.
	DaysToTarget(score, rate float64) (int, bool)
	// ProjectedScore returns the score after days.
	ProjectedScore(score, rate float64, days int) float64
}

// Linear adds rate to the score every 30 days.
type Linear struct{}

// Name implements Strategy.
func (Linear) Name() string { return "linear" }

// DaysToTarget implements Strategy.
func (Linear) DaysToTarget(score, rate float64) (int, bool) {
	if !(rate > 0) {
		return 0, false
	}
	remaining := math.Max(1-score, 0)
	return toDays(math.Round(remaining / rate * daysPerMonth))
}

// ProjectedScore implements Strategy.
func (Linear) ProjectedScore(score, rate float64, days int) float64 {
	return math.Min(score+rate*float64(days)/daysPerMonth, 1)
}

// ExponentialDecay shrinks the remaining gap by rate every 30 days. The
// target counts as reached once the gap falls below Threshold.
type ExponentialDecay struct {
	Threshold float64
}

const defaultDecayThreshold = 0.01

// Name implements Strategy.
func (ExponentialDecay) Name() string { return "exponential" }

func (e ExponentialDecay) threshold() float64 {
	if e.Threshold > 0 && e.Threshold < 1 {
		return e.Threshold
	}
	return defaultDecayThreshold
}

// DaysToTarget implements Strategy.
func (e ExponentialDecay) DaysToTarget(score, rate float64) (int, bool) {
	if !(rate > 0) {
		return 0, false
	}
	gap := 1 - score
	if gap <= e.threshold() {
		return 1, true
	}
	if rate >= 1 {
		return int(daysPerMonth), true
	}
	// Log1p keeps tiny rates from collapsing to log(1) == 0
	months := math.Ceil(math.Log(e.threshold()/gap) / math.Log1p(-rate))
	return toDays(months * daysPerMonth)
}

// ProjectedScore implements Strategy.
func (ExponentialDecay) ProjectedScore(score, rate float64, days int) float64 {
	gap := math.Max(1-score, 0)
	if !(rate > 0) {
		return math.Min(score, 1)
	}
	if rate >= 1 {
		return 1
	}
	return math.Min(1-gap*math.Pow(1-rate, float64(days)/daysPerMonth), 1)
}

// ParseStrategy returns the strategy registered under name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return Linear{}, nil
	case "exponential", "exponential_decay":
		return ExponentialDecay{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
