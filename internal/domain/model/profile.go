// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/wpr/internal/domain/types"
	"go.uber.org/multierr"
)

// Coefficient and default target constants.
const (
	// CoefficientTolerance is the allowed deviation of the coefficient sum from 1.0.
	CoefficientTolerance = 0.01

	DefaultTargetWPR = 4.5

	defaultEfficiencyBaseline = 1.2
	defaultEfficiencyTarget   = 1.5
	defaultPowerProfileTarget = 0.15 // fractional improvement across durations
	defaultCardioTarget       = 15.0 // bpm reduction at fixed power
	defaultStrengthTarget     = 0.30 // fractional volume load increase
	defaultFlexibilityTarget  = 15.0 // degrees of weighted ROM gain

	maxHistory = 120
)

// EvidenceCoefficients are the published contribution weights per dimension.
var EvidenceCoefficients = map[types.Dimension]float64{ //nolint:gochecknoglobals // immutable reference table
	types.Efficiency:   0.25,
	types.PowerProfile: 0.30,
	types.Cardio:       0.15,
	types.Strength:     0.20,
	types.Flexibility:  0.10,
}

// State is the profile lifecycle stage.
type State int

// Lifecycle stages.
const (
	StateUninitialized State = iota
	StateBaselineSet
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBaselineSet:
		return "baseline-set"
	case StateActive:
		return "actively-tracked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name. The short forms "baseline_set" and
// "active" are accepted too.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "baseline_set":
		*s = StateBaselineSet
		return nil
	case "active":
		*s = StateActive
		return nil
	}
	for _, st := range []State{StateUninitialized, StateBaselineSet, StateActive} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("%w: unknown state %q", ErrInvalidValue, string(b))
}

// DimensionParams is the weight and the baseline/current/target triple of one dimension.
type DimensionParams struct {
	Coefficient float64 `json:"coefficient" koanf:"coefficient"`
	Baseline    float64 `json:"baseline" koanf:"baseline"`
	Current     float64 `json:"current" koanf:"current"`
	Target      float64 `json:"target" koanf:"target"`
}

// ScoreSample is one observation of the overall progress score.
type ScoreSample struct {
	At    time.Time `json:"at"`
	Score float64   `json:"score"`
}

// Profile is the per-athlete aggregate the engine reads and the service writes.
type Profile struct {
	AthleteID string `json:"athlete_id"`

	TargetWPR      float64 `json:"target_wpr"`
	BaselineFTP    int     `json:"baseline_ftp"`
	BaselineWeight float64 `json:"baseline_weight"`
	CurrentFTP     int     `json:"current_ftp"`
	CurrentWeight  float64 `json:"current_weight"`

	Dimensions map[types.Dimension]DimensionParams `json:"dimensions"`

	// Derived fields, recomputed on every analysis.
	OverallProgressScore float64          `json:"overall_progress_score"`
	CurrentBottleneck    *types.Dimension `json:"current_bottleneck"`
	BottleneckSeverity   types.Severity   `json:"bottleneck_severity"`
	ProjectedWPRGain     float64          `json:"projected_wpr_gain"`
	DaysToTarget         *int             `json:"days_to_target"`
	ConfidenceLevel      float64          `json:"confidence_level"`

	State     State         `json:"state"`
	History   []ScoreSample `json:"history,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DefaultDimensions returns the evidence-based coefficients and default targets.
func DefaultDimensions() map[types.Dimension]DimensionParams {
	return map[types.Dimension]DimensionParams{
		types.Efficiency: {
			Coefficient: EvidenceCoefficients[types.Efficiency],
			Baseline:    defaultEfficiencyBaseline,
			Current:     defaultEfficiencyBaseline,
			Target:      defaultEfficiencyTarget,
		},
		types.PowerProfile: {Coefficient: EvidenceCoefficients[types.PowerProfile], Target: defaultPowerProfileTarget},
		types.Cardio:       {Coefficient: EvidenceCoefficients[types.Cardio], Target: defaultCardioTarget},
		types.Strength:     {Coefficient: EvidenceCoefficients[types.Strength], Target: defaultStrengthTarget},
		types.Flexibility:  {Coefficient: EvidenceCoefficients[types.Flexibility], Target: defaultFlexibilityTarget},
	}
}

// NewProfile creates an uninitialized profile with default parameters.
func NewProfile(athleteID string, now time.Time) *Profile {
	return &Profile{
		AthleteID:  athleteID,
		TargetWPR:  DefaultTargetWPR,
		Dimensions: DefaultDimensions(),
		State:      StateUninitialized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Param returns the parameters of d; missing entries read as zero.
func (p *Profile) Param(d types.Dimension) DimensionParams {
	if p.Dimensions == nil {
		return DimensionParams{}
	}
	return p.Dimensions[d]
}

// SetParam replaces the parameters of d.
func (p *Profile) SetParam(d types.Dimension, params DimensionParams) {
	if p.Dimensions == nil {
		p.Dimensions = make(map[types.Dimension]DimensionParams, types.DimensionCount)
	}
	p.Dimensions[d] = params
}

// SetCurrentValue updates only the current value of d.
func (p *Profile) SetCurrentValue(d types.Dimension, v float64) {
	params := p.Param(d)
	params.Current = v
	p.SetParam(d, params)
}

// Coefficient returns the weight of d.
func (p *Profile) Coefficient(d types.Dimension) float64 {
	return p.Param(d).Coefficient
}

// CoefficientSum returns the sum of the five coefficients.
func (p *Profile) CoefficientSum() float64 {
	var sum float64
	for _, d := range types.AllDimensions() {
		sum += p.Coefficient(d)
	}
	return sum
}

// ValidateCoefficients checks that the coefficients are non-negative and sum
// to 1.0 within CoefficientTolerance.
func (p *Profile) ValidateCoefficients() error {
	var err error
	for _, d := range types.AllDimensions() {
		if c := p.Coefficient(d); c < 0 || math.IsNaN(c) {
			err = multierr.Append(err, fmt.Errorf("%w: %s coefficient %.4f is negative", ErrInvalidCoefficients, d, c))
		}
	}
	if sum := p.CoefficientSum(); math.Abs(sum-1.0) > CoefficientTolerance {
		err = multierr.Append(err, fmt.Errorf("%w: got %.4f", ErrInvalidCoefficients, sum))
	}
	return err
}

// NormalizeCoefficients rescales the coefficients proportionally so they sum
// to 1.0. It is a no-op when the sum is not positive.
func (p *Profile) NormalizeCoefficients() {
	sum := p.CoefficientSum()
	if sum <= 0 {
		return
	}
	for _, d := range types.AllDimensions() {
		params := p.Param(d)
		params.Coefficient /= sum
		p.SetParam(d, params)
	}
}

// ResetEvidenceCoefficients restores the published contribution weights.
func (p *Profile) ResetEvidenceCoefficients() {
	for d, c := range EvidenceCoefficients {
		params := p.Param(d)
		params.Coefficient = c
		p.SetParam(d, params)
	}
}

// Validate checks every externally settable value and returns all violations.
func (p *Profile) Validate() error {
	err := p.ValidateCoefficients()
	if !(p.TargetWPR > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: target_wpr must be positive", ErrInvalidValue))
	}
	if p.BaselineFTP < 0 || p.CurrentFTP < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: ftp must be positive", ErrInvalidValue))
	}
	if p.BaselineWeight < 0 || p.CurrentWeight < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: weight must be positive", ErrInvalidValue))
	}
	for _, d := range types.AllDimensions() {
		params := p.Param(d)
		if math.IsNaN(params.Baseline) || math.IsNaN(params.Target) || math.IsNaN(params.Current) {
			err = multierr.Append(err, fmt.Errorf("%w: %s parameters must be numbers", ErrInvalidValue, d))
		}
	}
	if t := p.Param(types.Flexibility).Target; t < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: flexibility target angle must be positive", ErrInvalidValue))
	}
	if t := p.Param(types.Cardio).Target; t < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: cardio target reduction must be positive", ErrInvalidValue))
	}
	return err
}

// SetBaseline records the first FTP, weight and efficiency factor. It can be
// applied exactly once; the efficiency factor is ignored when not positive.
func (p *Profile) SetBaseline(ftp int, weight, ef float64, now time.Time) error {
	if p.State != StateUninitialized {
		return ErrBaselineAlreadySet
	}
	if ftp <= 0 || !(weight > 0) {
		return fmt.Errorf("%w: baseline ftp and weight must be positive", ErrInvalidValue)
	}
	p.BaselineFTP = ftp
	p.BaselineWeight = weight
	p.CurrentFTP = ftp
	p.CurrentWeight = weight
	if ef > 0 {
		params := p.Param(types.Efficiency)
		params.Baseline = ef
		params.Current = ef
		p.SetParam(types.Efficiency, params)
	}
	p.State = StateBaselineSet
	p.UpdatedAt = now
	return nil
}

// UpdateCurrent records a new FTP and weight.
func (p *Profile) UpdateCurrent(ftp int, weight float64, now time.Time) error {
	if p.State == StateUninitialized {
		return ErrBaselineNotSet
	}
	if ftp <= 0 || !(weight > 0) {
		return fmt.Errorf("%w: ftp and weight must be positive", ErrInvalidValue)
	}
	p.CurrentFTP = ftp
	p.CurrentWeight = weight
	p.State = StateActive
	p.UpdatedAt = now
	return nil
}

// MarkActive moves a baselined profile to actively-tracked.
func (p *Profile) MarkActive(now time.Time) {
	if p.State == StateBaselineSet {
		p.State = StateActive
	}
	p.UpdatedAt = now
}

// CurrentWPR is the current FTP divided by current weight.
func (p *Profile) CurrentWPR() float64 {
	if !(p.CurrentWeight > 0) {
		return 0
	}
	return float64(p.CurrentFTP) / p.CurrentWeight
}

// BaselineWPR is the baseline FTP divided by baseline weight.
func (p *Profile) BaselineWPR() float64 {
	if !(p.BaselineWeight > 0) {
		return 0
	}
	return float64(p.BaselineFTP) / p.BaselineWeight
}

// TargetProgressRatio is the share of the baseline-to-target WPR gap covered so far.
func (p *Profile) TargetProgressRatio() float64 {
	base := p.BaselineWPR()
	if p.TargetWPR <= base {
		return 0
	}
	return math.Min((p.CurrentWPR()-base)/(p.TargetWPR-base), 1.0)
}

// RequiredWPRGain is the WPR still missing to reach the target.
func (p *Profile) RequiredWPRGain() float64 {
	return math.Max(p.TargetWPR-p.CurrentWPR(), 0)
}

// RecordScore appends a score sample, keeping the most recent samples only.
func (p *Profile) RecordScore(at time.Time, score float64) {
	p.History = append(p.History, ScoreSample{At: at, Score: score})
	if over := len(p.History) - maxHistory; over > 0 {
		p.History = append([]ScoreSample(nil), p.History[over:]...)
	}
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Dimensions = make(map[types.Dimension]DimensionParams, len(p.Dimensions))
	for d, params := range p.Dimensions {
		c.Dimensions[d] = params
	}
	if p.DaysToTarget != nil {
		days := *p.DaysToTarget
		c.DaysToTarget = &days
	}
	if p.CurrentBottleneck != nil {
		d := *p.CurrentBottleneck
		c.CurrentBottleneck = &d
	}
	if p.History != nil {
		c.History = append([]ScoreSample(nil), p.History...)
	}
	return &c
}
