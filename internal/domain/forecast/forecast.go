// Package forecast projects when an athlete reaches the target WPR.
package forecast

import (
	"math"
	"sort"

	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/normalize"
	"github.com/okian/wpr/internal/domain/types"
)

// Forecast defaults.
const (
	DefaultRate        = 0.02 // score per 30 days
	DefaultHorizonDays = 100

	baseConfidence     = 0.8
	optimisticScore    = 0.9
	optimisticPenalty  = 0.9
	minConfidence      = 0.1
	maxConfidence      = 1.0
	minSamplesForTrend = 2
)

// Projection is the forecast for one horizon.
type Projection struct {
	HorizonDays    int     `json:"horizon_days"`
	DaysToTarget   *int    `json:"days_to_target"`
	Reachable      bool    `json:"reachable"`
	Confidence     float64 `json:"confidence"`
	ProjectedScore float64 `json:"projected_score"`
	ProjectedWPR   float64 `json:"projected_wpr"`
	ProjectedGain  float64 `json:"projected_gain"`
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithStrategy sets the score evolution model.
func WithStrategy(s Strategy) Option {
	return func(f *Forecaster) {
		if s != nil {
			f.strategy = s
		}
	}
}

// WithHorizon sets the default projection horizon in days.
func WithHorizon(days int) Option {
	return func(f *Forecaster) {
		if days > 0 {
			f.horizon = days
		}
	}
}

// Forecaster projects profiles with a configured strategy.
type Forecaster struct {
	strategy Strategy
	horizon  int
}

// New creates a forecaster using the linear strategy and a 100 day horizon by default.
func New(opts ...Option) *Forecaster {
	f := &Forecaster{strategy: Linear{}, horizon: DefaultHorizonDays}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Strategy returns the configured strategy.
func (f *Forecaster) Strategy() Strategy { return f.strategy }

// Forecast projects p at the default horizon. validCount is the number of
// dimensions with valid data; rate is the score improvement per 30 days.
func (f *Forecaster) Forecast(p *model.Profile, validCount int, rate float64) Projection {
	return f.At(p, validCount, rate, f.horizon)
}

// At projects p at the given horizon.
func (f *Forecaster) At(p *model.Profile, validCount int, rate float64, days int) Projection {
	out := Projection{HorizonDays: days}
	if p == nil {
		return out
	}
	score := normalize.Clamp(p.OverallProgressScore, 0, 1)
	if d, ok := f.strategy.DaysToTarget(score, rate); ok {
		out.DaysToTarget = &d
		out.Reachable = true
	}

	out.ProjectedScore = normalize.Clamp(f.strategy.ProjectedScore(score, rate, days), 0, 1)
	current := p.CurrentWPR()
	out.ProjectedWPR = current
	if p.TargetWPR > current {
		out.ProjectedWPR = current + (p.TargetWPR-current)*out.ProjectedScore
	}
	out.ProjectedGain = out.ProjectedWPR - current
	out.Confidence = Confidence(validCount, out.ProjectedScore)
	return out
}

// Horizons projects p at each horizon, defaulting to 30, 60 and 100 days.
func (f *Forecaster) Horizons(p *model.Profile, validCount int, rate float64, days ...int) []Projection {
	if len(days) == 0 {
		days = []int{30, 60, DefaultHorizonDays}
	}
	out := make([]Projection, 0, len(days))
	for _, d := range days {
		out = append(out, f.At(p, validCount, rate, d))
	}
	return out
}

// Forecast projects p with the linear strategy at the default horizon.
func Forecast(p *model.Profile, validCount int, rate float64) Projection {
	return New().Forecast(p, validCount, rate)
}

// Confidence is 0.8·validCount/5, reduced by 10% for projections above 0.9,
// clamped to [0.1, 1].
func Confidence(validCount int, projectedScore float64) float64 {
	validCount = max(0, min(validCount, types.DimensionCount))
	c := baseConfidence * float64(validCount) / types.DimensionCount
	if projectedScore > optimisticScore {
		c *= optimisticPenalty
	}
	return normalize.Clamp(c, minConfidence, maxConfidence)
}

// FlatRateEpsilon is the smallest monthly slope EstimateRate reports; smaller
// slopes are a plateau and come back as 0.
const FlatRateEpsilon = 1e-9

// EstimateRate fits a least-squares line to the score history and returns its
// slope in score per 30 days. It returns 0 for a plateau and fallback with fewer than two samples
// or when all samples share a timestamp.
func EstimateRate(samples []model.ScoreSample, fallback float64) float64 {
	if len(samples) < minSamplesForTrend {
		return fallback
	}
	sorted := append([]model.ScoreSample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	origin := sorted[0].At
	n := float64(len(sorted))
	var sx, sy float64
	xs := make([]float64, len(sorted))
	for i, s := range sorted {
		xs[i] = s.At.Sub(origin).Hours() / 24 / daysPerMonth
		sx += xs[i]
		sy += s.Score
	}
	mx, my := sx/n, sy/n
	var num, den float64
	for i, s := range sorted {
		dx := xs[i] - mx
		num += dx * (s.Score - my)
		den += dx * dx
	}
	if den == 0 {
		return fallback
	}
	slope := num / den
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return fallback
	}
	// rounding leaves a residue on flat histories
	if math.Abs(slope) < FlatRateEpsilon {
		return 0
	}
	return slope
}
