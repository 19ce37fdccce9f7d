// Package protocol holds the training protocol catalog and recommendation rules.
package protocol

import (
	"sort"

	"github.com/okian/wpr/internal/domain/types"
)

// Gap thresholds, in percent, that unlock the intensive protocols.
const (
	SweetSpotGapThreshold     = 20.0
	NeuromuscularGapThreshold = 30.0

	// MaxPrioritized caps the prioritized protocol list.
	MaxPrioritized = 5
)

// Risk is the injury or overreaching risk of a protocol.
type Risk string

// Risk levels.
const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// TrainingProtocol is immutable reference data describing one intervention.
type TrainingProtocol struct {
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Frequency           string  `json:"frequency"`
	Duration            string  `json:"duration"`
	Intensity           string  `json:"intensity"`
	ExpectedImprovement float64 `json:"expected_improvement"`
	Evidence            string  `json:"evidence"`
	Risk                Risk    `json:"risk"`
}

var (
	sweetSpot = TrainingProtocol{
		Name:                "Sweet spot intervals",
		Description:         "Sustained 20-40 minute efforts at 88-94% FTP",
		Frequency:           "3x per week",
		Duration:            "20-40 min",
		Intensity:           "88-94% FTP",
		ExpectedImprovement: 0.04,
		Evidence:            "Seiler & Tønnessen (2009)",
		Risk:                RiskMedium,
	}
	zone2 = TrainingProtocol{
		Name:                "Zone 2 aerobic base",
		Description:         "Long low-intensity rides for aerobic endurance",
		Frequency:           "2-3x per week",
		Duration:            "60-90 min",
		Intensity:           "Zone 2 (65-75% HRmax)",
		ExpectedImprovement: 0.02,
		Evidence:            "Polarized training model",
		Risk:                RiskLow,
	}
	sprints = TrainingProtocol{
		Name:                "Neuromuscular sprints",
		Description:         "5-10 second maximal sprints",
		Frequency:           "2x per week",
		Duration:            "10-15 min of work",
		Intensity:           "Maximal (>150% FTP)",
		ExpectedImprovement: 0.08,
		Evidence:            "Neuromuscular adaptation theory",
		Risk:                RiskMedium,
	}
	vo2max = TrainingProtocol{
		Name:                "VO2max intervals",
		Description:         "3-8 minute high-intensity intervals",
		Frequency:           "1-2x per week",
		Duration:            "30-45 min",
		Intensity:           "105-120% FTP",
		ExpectedImprovement: 0.06,
		Evidence:            "VO2max development protocols",
		Risk:                RiskHigh,
	}
	fixedPowerHR = TrainingProtocol{
		Name:                "Fixed-power HR drills",
		Description:         "One minute holds at 200, 250 and 300 W with heart rate monitoring",
		Frequency:           "1x per week",
		Duration:            "20 min",
		Intensity:           "Fixed power",
		ExpectedImprovement: 0.03,
		Evidence:            "Lunn et al. (2009)",
		Risk:                RiskLow,
	}
	recoveryHRV = TrainingProtocol{
		Name:                "Recovery-focused HRV block",
		Description:         "Recovery-oriented low-intensity riding",
		Frequency:           "2-3x per week",
		Duration:            "45-60 min",
		Intensity:           "Zone 1-2",
		ExpectedImprovement: 0.02,
		Evidence:            "HRV research",
		Risk:                RiskLow,
	}
	pushVolume = TrainingProtocol{
		Name:                "Push volume block",
		Description:         "High-volume bench and shoulder press work",
		Frequency:           "2-3x per week",
		Duration:            "45-60 min",
		Intensity:           "70-85% 1RM, RPE 7-8",
		ExpectedImprovement: 0.05,
		Evidence:            "Krzysztofik et al. (2019)",
		Risk:                RiskMedium,
	}
	pullStrength = TrainingProtocol{
		Name:                "Pull strength block",
		Description:         "Progressive overload on pull-ups and rows",
		Frequency:           "2x per week",
		Duration:            "40-50 min",
		Intensity:           "75-85% 1RM",
		ExpectedImprovement: 0.04,
		Evidence:            "Vikmoen et al. (2021)",
		Risk:                RiskMedium,
	}
	hipMobility = TrainingProtocol{
		Name:                "Hip mobility program",
		Description:         "Hip flexor and hamstring focused stretching",
		Frequency:           "Daily",
		Duration:            "15-20 min",
		Intensity:           "Moderate stretch",
		ExpectedImprovement: 0.06,
		Evidence:            "Konrad (2024)",
		Risk:                RiskLow,
	}
	dynamicFlexibility = TrainingProtocol{
		Name:                "Dynamic flexibility",
		Description:         "Y-balance and dynamic stretching combination",
		Frequency:           "3x per week",
		Duration:            "10-15 min",
		Intensity:           "Controlled movement",
		ExpectedImprovement: 0.04,
		Evidence:            "Functional ROM research",
		Risk:                RiskLow,
	}
)

// Recommend returns the protocols for a dimension at the given severity and
// gap percentage. Severity none yields no protocols.
func Recommend(d types.Dimension, severity types.Severity, gap float64) []TrainingProtocol {
	if severity == types.SeverityNone {
		return nil
	}
	switch d {
	case types.Efficiency:
		if gap > SweetSpotGapThreshold {
			return []TrainingProtocol{sweetSpot, zone2}
		}
		return []TrainingProtocol{zone2}
	case types.PowerProfile:
		if gap > NeuromuscularGapThreshold {
			return []TrainingProtocol{sprints, vo2max}
		}
		return []TrainingProtocol{vo2max}
	case types.Cardio:
		return []TrainingProtocol{fixedPowerHR, recoveryHRV}
	case types.Strength:
		return []TrainingProtocol{pushVolume, pullStrength}
	case types.Flexibility:
		return []TrainingProtocol{hipMobility, dynamicFlexibility}
	default:
		return nil
	}
}

// Catalog returns every protocol of a dimension regardless of gap.
func Catalog(d types.Dimension) []TrainingProtocol {
	switch d {
	case types.Efficiency:
		return []TrainingProtocol{sweetSpot, zone2}
	case types.PowerProfile:
		return []TrainingProtocol{sprints, vo2max}
	default:
		return Recommend(d, types.SeverityCritical, 0)
	}
}

// Need is one dimension's claim on the prioritized protocol list.
type Need struct {
	Dimension types.Dimension
	Severity  types.Severity
	Impact    float64
	Protocols []TrainingProtocol
}

// Prioritize keeps needs of moderate severity or worse, orders them by
// severity priority then impact, and returns at most MaxPrioritized protocols.
func Prioritize(needs []Need) []TrainingProtocol {
	kept := make([]Need, 0, len(needs))
	for _, n := range needs {
		if n.Severity.Priority() >= types.SeverityModerate.Priority() {
			kept = append(kept, n)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Severity != b.Severity {
			return a.Severity.Priority() > b.Severity.Priority()
		}
		if a.Impact != b.Impact {
			return a.Impact > b.Impact
		}
		return a.Dimension < b.Dimension
	})
	out := make([]TrainingProtocol, 0, MaxPrioritized)
	for _, n := range kept {
		for _, p := range n.Protocols {
			if len(out) == MaxPrioritized {
				return out
			}
			out = append(out, p)
		}
	}
	return out
}
