package model

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Efficiency quality bounds.
const (
	minQualityDuration = 20 * time.Minute
	minQualityHR       = 100
	maxQualityHR       = 200
	minQualityNP       = 50.0
	maxQualityNP       = 500.0
)

// EfficiencySnapshot is one steady ride used to derive the efficiency factor.
type EfficiencySnapshot struct {
	NormalizedPower  float64       `json:"normalized_power"`
	AverageHeartRate int           `json:"average_heart_rate"`
	Duration         time.Duration `json:"duration"`
	MeasuredAt       time.Time     `json:"measured_at"`
}

// EF returns normalized power per heart beat. It is 0 when the heart rate is not positive.
func (s EfficiencySnapshot) EF() float64 {
	if s.AverageHeartRate <= 0 {
		return 0
	}
	return s.NormalizedPower / float64(s.AverageHeartRate)
}

// QualityScore rates how trustworthy the ride is for EF tracking, in [0,1].
func (s EfficiencySnapshot) QualityScore() float64 {
	q := 1.0
	if s.Duration < minQualityDuration {
		q -= 0.3
	}
	if s.AverageHeartRate < minQualityHR || s.AverageHeartRate > maxQualityHR {
		q -= 0.4
	}
	if s.NormalizedPower < minQualityNP || s.NormalizedPower > maxQualityNP {
		q -= 0.3
	}
	return math.Max(q, 0)
}

// PowerBests are the best average watts over the standard durations.
type PowerBests struct {
	Sec5  int `json:"sec5"`
	Min1  int `json:"min1"`
	Min5  int `json:"min5"`
	Min20 int `json:"min20"`
	Min60 int `json:"min60"`
}

// Values returns the bests from shortest to longest duration.
func (b PowerBests) Values() [5]int {
	return [5]int{b.Sec5, b.Min1, b.Min5, b.Min20, b.Min60}
}

// idealPowerRatios are the expected bests relative to the 5 s best.
var idealPowerRatios = [5]float64{1.0, 0.85, 0.75, 0.65, 0.55} //nolint:gochecknoglobals // reference table

// PowerProfileSnapshot compares current bests to baseline bests.
type PowerProfileSnapshot struct {
	Current    PowerBests `json:"current"`
	Baseline   PowerBests `json:"baseline"`
	MeasuredAt time.Time  `json:"measured_at"`
}

// Improvements returns the fractional change per duration. ok is false when
// any baseline best is not positive.
func (s PowerProfileSnapshot) Improvements() ([5]float64, bool) {
	var out [5]float64
	cur, base := s.Current.Values(), s.Baseline.Values()
	for i := range base {
		if base[i] <= 0 {
			return out, false
		}
		out[i] = float64(cur[i]-base[i]) / float64(base[i])
	}
	return out, true
}

// AverageImprovement is the mean of Improvements, or 0 when undefined.
func (s PowerProfileSnapshot) AverageImprovement() float64 {
	imp, ok := s.Improvements()
	if !ok {
		return 0
	}
	var sum float64
	for _, v := range imp {
		sum += v
	}
	return sum / float64(len(imp))
}

// Balance rates how close the current curve is to the ideal shape, in [0,1].
func (s PowerProfileSnapshot) Balance() float64 {
	vals := s.Current.Values()
	for _, v := range vals {
		if v <= 0 {
			return 0
		}
	}
	var dev float64
	for i, v := range vals {
		dev += math.Abs(float64(v)/float64(vals[0]) - idealPowerRatios[i])
	}
	return math.Max(1-dev/float64(len(vals)), 0)
}

// CardioSnapshot holds heart rates at fixed test powers.
type CardioSnapshot struct {
	TestPowers         []int     `json:"test_powers"`
	HeartRates         []int     `json:"heart_rates"`
	BaselineHeartRates []int     `json:"baseline_heart_rates"`
	MeasuredAt         time.Time `json:"measured_at"`
}

// Matched reports whether the three series line up and every heart rate is positive.
func (s CardioSnapshot) Matched() bool {
	n := len(s.TestPowers)
	if n == 0 || len(s.HeartRates) != n || len(s.BaselineHeartRates) != n {
		return false
	}
	for i := range n {
		if s.HeartRates[i] <= 0 || s.BaselineHeartRates[i] <= 0 {
			return false
		}
	}
	return true
}

// MeanHeartRates returns current and baseline mean bpm over the matched powers.
func (s CardioSnapshot) MeanHeartRates() (current, baseline float64, ok bool) {
	if !s.Matched() {
		return 0, 0, false
	}
	for i := range s.HeartRates {
		current += float64(s.HeartRates[i])
		baseline += float64(s.BaselineHeartRates[i])
	}
	n := float64(len(s.HeartRates))
	return current / n, baseline / n, true
}

// MeanReduction is the average bpm drop at the matched powers.
func (s CardioSnapshot) MeanReduction() float64 {
	cur, base, ok := s.MeanHeartRates()
	if !ok {
		return 0
	}
	return base - cur
}

// Movement groups for strength volume load.
const (
	GroupPush = "push"
	GroupPull = "pull"
	GroupLegs = "legs"
)

// Lift is one exercise entry; volume is weight times reps times sets.
type Lift struct {
	Group  string  `json:"group"`
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Sets   int     `json:"sets"`
}

// Volume returns weight·reps·sets.
func (l Lift) Volume() float64 {
	return l.Weight * float64(l.Reps) * float64(l.Sets)
}

// VolumeLoad is training volume split by movement group.
type VolumeLoad struct {
	Push float64 `json:"push"`
	Pull float64 `json:"pull"`
	Legs float64 `json:"legs"`
}

// Total is push+pull+legs.
func (v VolumeLoad) Total() float64 {
	return v.Push + v.Pull + v.Legs
}

// VolumeLoadFromLifts sums lifts by group. Unknown groups are rejected.
func VolumeLoadFromLifts(lifts []Lift) (VolumeLoad, error) {
	var v VolumeLoad
	for _, l := range lifts {
		if l.Weight < 0 || l.Reps < 0 || l.Sets < 0 {
			return VolumeLoad{}, fmt.Errorf("%w: negative lift values", ErrInvalidValue)
		}
		switch l.Group {
		case GroupPush:
			v.Push += l.Volume()
		case GroupPull:
			v.Pull += l.Volume()
		case GroupLegs:
			v.Legs += l.Volume()
		default:
			return VolumeLoad{}, fmt.Errorf("%w: unknown lift group %q", ErrInvalidValue, l.Group)
		}
	}
	return v, nil
}

// ideal push:pull:legs ratio
const (
	idealPushRatio = 1.2
	idealPullRatio = 1.0
	idealLegsRatio = 0.8
)

// StrengthSnapshot compares current to baseline volume load.
type StrengthSnapshot struct {
	Current    VolumeLoad `json:"current"`
	Baseline   VolumeLoad `json:"baseline"`
	MeasuredAt time.Time  `json:"measured_at"`
}

// Increase is the relative change of total volume load, 0 when the baseline is not positive.
func (s StrengthSnapshot) Increase() float64 {
	base := s.Baseline.Total()
	if base <= 0 {
		return 0
	}
	return (s.Current.Total() - base) / base
}

// Balance rates the current push:pull:legs split against the ideal, in [0,1].
func (s StrengthSnapshot) Balance() float64 {
	total := s.Current.Total()
	if total <= 0 {
		return 0
	}
	idealTotal := idealPushRatio + idealPullRatio + idealLegsRatio
	dev := math.Abs(s.Current.Push/total-idealPushRatio/idealTotal) +
		math.Abs(s.Current.Pull/total-idealPullRatio/idealTotal) +
		math.Abs(s.Current.Legs/total-idealLegsRatio/idealTotal)
	avg := dev / 3
	return math.Max(1-avg*3, 0)
}

// JointAngles are range-of-motion measurements in degrees.
type JointAngles struct {
	Hip         float64 `json:"hip"`
	Shoulder    float64 `json:"shoulder"`
	Spine       float64 `json:"spine"`
	Ankle       float64 `json:"ankle"`
	ForwardBend float64 `json:"forward_bend"`
}

// Joint weights for the weighted ROM score.
const (
	HipWeight         = 0.40
	ShoulderWeight    = 0.25
	SpineWeight       = 0.20
	AnkleWeight       = 0.10
	ForwardBendWeight = 0.05
)

func (a JointAngles) values() [5]float64 {
	return [5]float64{a.Hip, a.Shoulder, a.Spine, a.Ankle, a.ForwardBend}
}

var jointWeights = [5]float64{HipWeight, ShoulderWeight, SpineWeight, AnkleWeight, ForwardBendWeight} //nolint:gochecknoglobals // reference table

// Weighted returns Σ angle·weight.
func (a JointAngles) Weighted() float64 {
	var sum float64
	for i, v := range a.values() {
		sum += v * jointWeights[i]
	}
	return sum
}

// Validate rejects negative or non-finite angles.
func (a JointAngles) Validate() error {
	for _, v := range a.values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: joint angle %v", ErrInvalidValue, v)
		}
	}
	return nil
}

// functionalScale maps the weighted angle sum onto [0,1].
const functionalScale = 100.0

// FlexibilitySnapshot compares current to baseline joint angles.
type FlexibilitySnapshot struct {
	Current    JointAngles `json:"current"`
	Baseline   JointAngles `json:"baseline"`
	MeasuredAt time.Time   `json:"measured_at"`
}

// WeightedImprovement is the weighted average improvement in degrees. ok is
// false when any baseline angle is not positive.
func (s FlexibilitySnapshot) WeightedImprovement() (float64, bool) {
	base := s.Baseline.values()
	for _, b := range base {
		if b <= 0 {
			return 0, false
		}
	}
	return s.Current.Weighted() - s.Baseline.Weighted(), true
}

// FunctionalMobility rates the current angles against functional ranges, in [0,1].
func (s FlexibilitySnapshot) FunctionalMobility() float64 {
	return math.Max(math.Min(s.Current.Weighted()/functionalScale, 1), 0)
}

// Snapshots bundles the latest snapshot of each dimension. Nil means no data.
type Snapshots struct {
	Efficiency   *EfficiencySnapshot   `json:"efficiency,omitempty"`
	PowerProfile *PowerProfileSnapshot `json:"power_profile,omitempty"`
	Cardio       *CardioSnapshot       `json:"cardio,omitempty"`
	Strength     *StrengthSnapshot     `json:"strength,omitempty"`
	Flexibility  *FlexibilitySnapshot  `json:"flexibility,omitempty"`
}

// Count returns how many dimensions carry a snapshot.
func (s Snapshots) Count() int {
	n := 0
	for _, present := range []bool{s.Efficiency != nil, s.PowerProfile != nil, s.Cardio != nil, s.Strength != nil, s.Flexibility != nil} {
		if present {
			n++
		}
	}
	return n
}

// Merge returns s with every snapshot present in next replacing the old one.
func (s Snapshots) Merge(next Snapshots) Snapshots {
	if next.Efficiency != nil {
		s.Efficiency = next.Efficiency
	}
	if next.PowerProfile != nil {
		s.PowerProfile = next.PowerProfile
	}
	if next.Cardio != nil {
		s.Cardio = next.Cardio
	}
	if next.Strength != nil {
		s.Strength = next.Strength
	}
	if next.Flexibility != nil {
		s.Flexibility = next.Flexibility
	}
	return s
}

// Validate checks the externally supplied values of every present snapshot.
func (s Snapshots) Validate() error {
	if s.Efficiency != nil && (s.Efficiency.NormalizedPower < 0 || s.Efficiency.AverageHeartRate < 0) {
		return fmt.Errorf("%w: efficiency values must be positive", ErrInvalidValue)
	}
	if s.Flexibility != nil {
		if err := s.Flexibility.Current.Validate(); err != nil {
			return err
		}
		if err := s.Flexibility.Baseline.Validate(); err != nil {
			return err
		}
	}
	if s.Strength != nil {
		for _, v := range []float64{
			s.Strength.Current.Push, s.Strength.Current.Pull, s.Strength.Current.Legs,
			s.Strength.Baseline.Push, s.Strength.Baseline.Pull, s.Strength.Baseline.Legs,
		} {
			if v < 0 {
				return fmt.Errorf("%w: volume load must be positive", ErrInvalidValue)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s Snapshots) Clone() Snapshots {
	var out Snapshots
	if s.Efficiency != nil {
		v := *s.Efficiency
		out.Efficiency = &v
	}
	if s.PowerProfile != nil {
		v := *s.PowerProfile
		out.PowerProfile = &v
	}
	if s.Cardio != nil {
		v := *s.Cardio
		v.TestPowers = slices.Clone(v.TestPowers)
		v.HeartRates = slices.Clone(v.HeartRates)
		v.BaselineHeartRates = slices.Clone(v.BaselineHeartRates)
		out.Cardio = &v
	}
	if s.Strength != nil {
		v := *s.Strength
		out.Strength = &v
	}
	if s.Flexibility != nil {
		v := *s.Flexibility
		out.Flexibility = &v
	}
	return out
}
