// Package bottleneck finds the dimension that lags furthest behind the others.
package bottleneck

import (
	"math"

	"github.com/okian/wpr/internal/domain/scoring"
	"github.com/okian/wpr/internal/domain/types"
)

// Z-score boundaries between severity tiers.
const (
	CriticalThreshold = -2.0
	MajorThreshold    = -1.0
	ModerateThreshold = -0.5

	// spreads below flatEpsilon count as identical scores
	flatEpsilon = 1e-9
)

// Ranking is the outcome of ranking a score set.
type Ranking struct {
	Dimension types.Dimension             `json:"dimension"`
	Severity  types.Severity              `json:"severity"`
	ZScore    float64                     `json:"z_score"`
	Score     float64                     `json:"score"`
	Mean      float64                     `json:"mean"`
	StdDev    float64                     `json:"std_dev"`
	ZScores   map[types.Dimension]float64 `json:"z_scores"`
}

// Classify maps a z-score onto a severity tier. MajorThreshold itself is
// major; the other boundaries belong to the milder tier.
func Classify(z float64) types.Severity {
	switch {
	case z < CriticalThreshold:
		return types.SeverityCritical
	case z <= MajorThreshold:
		return types.SeverityMajor
	case z < ModerateThreshold:
		return types.SeverityModerate
	case z < 0:
		return types.SeverityMinor
	default:
		return types.SeverityNone
	}
}

// Stats returns the population mean and standard deviation of scores. A
// deviation below rounding noise is reported as 0.
func Stats(scores scoring.Scores) (mean, stddev float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	n := float64(len(scores))
	for _, d := range types.AllDimensions() {
		if s, ok := scores[d]; ok {
			mean += s
		}
	}
	mean /= n
	var variance float64
	for _, d := range types.AllDimensions() {
		if s, ok := scores[d]; ok {
			variance += (s - mean) * (s - mean)
		}
	}
	sd := math.Sqrt(variance / n)
	if sd < flatEpsilon {
		sd = 0
	}
	return mean, sd
}

// ZScores returns (score-mean)/stddev per dimension; all zero when the
// scores are identical.
func ZScores(scores scoring.Scores) map[types.Dimension]float64 {
	mean, sd := Stats(scores)
	out := make(map[types.Dimension]float64, len(scores))
	for d, s := range scores {
		if sd == 0 {
			out[d] = 0
			continue
		}
		out[d] = (s - mean) / sd
	}
	return out
}

// Rank picks the bottleneck. With identical scores the lowest raw score wins
// with severity none; otherwise the minimum z-score wins. Ties go to the
// earlier dimension. ok is false for an empty score set.
func Rank(scores scoring.Scores) (Ranking, bool) {
	if len(scores) == 0 {
		return Ranking{}, false
	}
	mean, sd := Stats(scores)
	zs := ZScores(scores)

	r := Ranking{Mean: mean, StdDev: sd, ZScores: zs}
	found := false
	for _, d := range types.AllDimensions() {
		s, ok := scores[d]
		if !ok {
			continue
		}
		if !found || s < r.Score {
			r.Dimension, r.Score, r.ZScore = d, s, zs[d]
			found = true
		}
	}
	if sd == 0 {
		r.ZScore = 0
		r.Severity = types.SeverityNone
		return r, true
	}
	r.Severity = Classify(r.ZScore)
	return r, true
}
