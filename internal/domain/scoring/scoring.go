// Package scoring turns dimension snapshots into normalized progress scores.
package scoring

import (
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/normalize"
	"github.com/okian/wpr/internal/domain/types"
)

// Scores holds one score in [0,1] per dimension with valid data.
type Scores map[types.Dimension]float64

// Calculator scores one dimension. Missing or degenerate input yields 0 and
// ok == false from Current; it never panics.
type Calculator interface {
	Dimension() types.Dimension
	// Score returns the normalized progress of the dimension in [0,1].
	Score(snaps model.Snapshots, p *model.Profile) float64
	// Current returns the raw derived metric stored as the profile's current value.
	Current(snaps model.Snapshots) (float64, bool)
}

func params(p *model.Profile, d types.Dimension) model.DimensionParams {
	if p == nil {
		return model.DefaultDimensions()[d]
	}
	return p.Param(d)
}

// Efficiency scores the efficiency factor against the profile baseline and target.
type Efficiency struct {
	// MinQuality excludes rides whose quality score falls below it.
	MinQuality float64
}

// Dimension implements Calculator.
func (Efficiency) Dimension() types.Dimension { return types.Efficiency }

// Current implements Calculator.
func (c Efficiency) Current(snaps model.Snapshots) (float64, bool) {
	s := snaps.Efficiency
	if s == nil || s.AverageHeartRate <= 0 || s.NormalizedPower <= 0 {
		return 0, false
	}
	if c.MinQuality > 0 && s.QualityScore() < c.MinQuality {
		return 0, false
	}
	return s.EF(), true
}

// Score implements Calculator.
func (c Efficiency) Score(snaps model.Snapshots, p *model.Profile) float64 {
	ef, ok := c.Current(snaps)
	if !ok {
		return 0
	}
	pp := params(p, types.Efficiency)
	return normalize.Normalize(ef, pp.Baseline, pp.Target)
}

// PowerProfile scores the average improvement across the five power bests.
type PowerProfile struct{}

// Dimension implements Calculator.
func (PowerProfile) Dimension() types.Dimension { return types.PowerProfile }

// Current implements Calculator.
func (PowerProfile) Current(snaps model.Snapshots) (float64, bool) {
	if snaps.PowerProfile == nil {
		return 0, false
	}
	if _, ok := snaps.PowerProfile.Improvements(); !ok {
		return 0, false
	}
	return snaps.PowerProfile.AverageImprovement(), true
}

// Score implements Calculator.
func (c PowerProfile) Score(snaps model.Snapshots, p *model.Profile) float64 {
	imp, ok := c.Current(snaps)
	if !ok {
		return 0
	}
	return normalize.Normalize(imp, 0, params(p, types.PowerProfile).Target)
}

// Cardio scores the heart rate reduction at fixed powers. The profile target
// is the required reduction in bpm.
type Cardio struct{}

// Dimension implements Calculator.
func (Cardio) Dimension() types.Dimension { return types.Cardio }

// Current implements Calculator. The value is the mean bpm reduction.
func (Cardio) Current(snaps model.Snapshots) (float64, bool) {
	if snaps.Cardio == nil || !snaps.Cardio.Matched() {
		return 0, false
	}
	return snaps.Cardio.MeanReduction(), true
}

// Score implements Calculator.
func (Cardio) Score(snaps model.Snapshots, p *model.Profile) float64 {
	if snaps.Cardio == nil {
		return 0
	}
	cur, base, ok := snaps.Cardio.MeanHeartRates()
	if !ok {
		return 0
	}
	return normalize.NormalizeInverted(cur, base, base-params(p, types.Cardio).Target)
}

// Strength scores the relative increase of total volume load.
type Strength struct{}

// Dimension implements Calculator.
func (Strength) Dimension() types.Dimension { return types.Strength }

// Current implements Calculator.
func (Strength) Current(snaps model.Snapshots) (float64, bool) {
	if snaps.Strength == nil || snaps.Strength.Baseline.Total() <= 0 {
		return 0, false
	}
	return snaps.Strength.Increase(), true
}

// Score implements Calculator.
func (c Strength) Score(snaps model.Snapshots, p *model.Profile) float64 {
	inc, ok := c.Current(snaps)
	if !ok {
		return 0
	}
	return normalize.Normalize(inc, 0, params(p, types.Strength).Target)
}

// Flexibility scores the weighted joint angle improvement in degrees.
type Flexibility struct{}

// Dimension implements Calculator.
func (Flexibility) Dimension() types.Dimension { return types.Flexibility }

// Current implements Calculator.
func (Flexibility) Current(snaps model.Snapshots) (float64, bool) {
	if snaps.Flexibility == nil {
		return 0, false
	}
	return snaps.Flexibility.WeightedImprovement()
}

// Score implements Calculator.
func (c Flexibility) Score(snaps model.Snapshots, p *model.Profile) float64 {
	imp, ok := c.Current(snaps)
	if !ok {
		return 0
	}
	return normalize.Normalize(imp, 0, params(p, types.Flexibility).Target)
}
