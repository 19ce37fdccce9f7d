// Package engine runs the full progress analysis pipeline over a profile.
package engine

import (
	"time"

	"github.com/okian/wpr/internal/domain/aggregate"
	"github.com/okian/wpr/internal/domain/bottleneck"
	"github.com/okian/wpr/internal/domain/forecast"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/protocol"
	"github.com/okian/wpr/internal/domain/report"
	"github.com/okian/wpr/internal/domain/scoring"
)

// Analysis is the result of one pipeline run.
type Analysis struct {
	// Profile is an updated copy of the input profile with derived fields set.
	Profile    *model.Profile              `json:"profile"`
	Scores     scoring.Scores              `json:"scores"`
	Overall    float64                     `json:"overall_progress_score"`
	Bottleneck *bottleneck.Ranking         `json:"bottleneck"`
	Projection forecast.Projection         `json:"projection"`
	Horizons   []forecast.Projection       `json:"horizons"`
	Reports    []report.Report             `json:"reports"`
	Protocols  []protocol.TrainingProtocol `json:"protocols"`
	RiskScore  float64                     `json:"risk_score"`
	Rate       float64                     `json:"rate"`
	ValidCount int                         `json:"valid_count"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the dimension calculators.
func WithRegistry(r *scoring.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithForecaster sets the projection model.
func WithForecaster(f *forecast.Forecaster) Option {
	return func(e *Engine) {
		if f != nil {
			e.forecaster = f
		}
	}
}

// WithHorizons sets the extra projection horizons reported per analysis.
func WithHorizons(days ...int) Option {
	return func(e *Engine) {
		if len(days) > 0 {
			e.horizons = append([]int(nil), days...)
		}
	}
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	registry   *scoring.Registry
	forecaster *forecast.Forecaster
	horizons   []int
}

// New creates an engine with the standard calculators and linear forecasting.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:   scoring.NewRegistry(),
		forecaster: forecast.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Forecaster returns the engine's forecaster.
func (e *Engine) Forecaster() *forecast.Forecaster { return e.forecaster }

// Analyze scores snaps against a copy of p, ranks the dimensions, projects
// the target date at rate (score per 30 days) and recommends protocols. p is
// not modified.
func (e *Engine) Analyze(p *model.Profile, snaps model.Snapshots, rate float64) Analysis {
	out := p.Clone()
	if out == nil {
		out = model.NewProfile("", time.Time{})
	}
	for d, v := range e.registry.CurrentAll(snaps) {
		out.SetCurrentValue(d, v)
	}

	scores := e.registry.ScoreAll(snaps, out)
	overall := aggregate.Aggregate(scores, out)
	out.OverallProgressScore = overall

	a := Analysis{
		Scores:     scores,
		Overall:    overall,
		Rate:       rate,
		ValidCount: len(scores),
	}

	out.CurrentBottleneck = nil
	out.BottleneckSeverity = 0
	rank, ok := bottleneck.Rank(scores)
	if ok {
		d := rank.Dimension
		out.CurrentBottleneck = &d
		out.BottleneckSeverity = rank.Severity
		a.Bottleneck = &rank
	}

	a.Projection = e.forecaster.Forecast(out, a.ValidCount, rate)
	a.Horizons = e.forecaster.Horizons(out, a.ValidCount, rate, e.horizons...)
	out.ProjectedWPRGain = a.Projection.ProjectedGain
	out.DaysToTarget = a.Projection.DaysToTarget
	out.ConfidenceLevel = a.Projection.Confidence

	a.Reports = report.Build(out, snaps, scores, rank)
	a.Protocols = protocol.Prioritize(report.Needs(a.Reports))
	a.RiskScore = report.RiskScore(a.Reports)
	a.Profile = out
	return a
}
