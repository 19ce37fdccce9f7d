// Package report builds the per-dimension bottleneck reports.
package report

import (
	"math"
	"sort"

	"github.com/okian/wpr/internal/domain/bottleneck"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/protocol"
	"github.com/okian/wpr/internal/domain/scoring"
	"github.com/okian/wpr/internal/domain/types"
)

const (
	minDaysToResolve    = 7
	maxSeverityPriority = 5.0

	powerBalanceFloor       = 0.7
	strengthBalanceFloor    = 0.6
	functionalMobilityFloor = 0.5
)

// Report describes how one dimension stands against its target.
type Report struct {
	Dimension     types.Dimension             `json:"dimension"`
	Severity      types.Severity              `json:"severity"`
	ZScore        float64                     `json:"z_score"`
	Score         float64                     `json:"score"`
	Current       float64                     `json:"current"`
	Target        float64                     `json:"target"`
	GapPercentage float64                     `json:"gap_percentage"`
	Impact        float64                     `json:"impact"`
	DaysToResolve int                         `json:"days_to_resolve"`
	Protocols     []protocol.TrainingProtocol `json:"protocols"`
	RiskFactors   []string                    `json:"risk_factors"`
	Evidence      []string                    `json:"evidence"`
}

type dimensionRules struct {
	monthlyRate  float64 // expected gap closure per month
	gapThreshold float64 // percent
	gapRisk      string
	baseRisks    []string
	evidence     []string
}

var rules = [types.DimensionCount]dimensionRules{ //nolint:gochecknoglobals // reference table
	types.Efficiency: {
		monthlyRate:  0.02,
		gapThreshold: 20,
		gapRisk:      "efficiency improvement lagging",
		baseRisks:    []string{"insufficient cardiorespiratory adaptation", "training intensity mismatch"},
		evidence: []string{
			"Hopker et al. (2010): aerobic adaptation through EF gains",
			"Power at equal heart rate as efficiency marker",
		},
	},
	types.PowerProfile: {
		monthlyRate:  0.03,
		gapThreshold: 30,
		gapRisk:      "power development stalled",
		evidence: []string{
			"Cesanelli et al. (2021): power gains from S&C programs",
			"Seiler: importance of multi-duration power capacity",
		},
	},
	types.Cardio: {
		monthlyRate:  0.025,
		gapThreshold: 40,
		gapRisk:      "delayed cardiovascular adaptation",
		evidence: []string{
			"Lunn et al. (2009): circulatory adaptation improves efficiency",
			"Lower HR at fixed power means lower internal load",
		},
	},
	types.Strength: {
		monthlyRate:  0.04,
		gapThreshold: 25,
		gapRisk:      "insufficient strength development",
		evidence: []string{
			"Vikmoen et al. (2021): 8% power gain from strength training",
			"Krzysztofik et al. (2019): 28-30 weekly sets per muscle group",
		},
	},
	types.Flexibility: {
		monthlyRate:  0.05,
		gapThreshold: 50,
		gapRisk:      "flexibility improvement lagging",
		evidence: []string{
			"Holliday et al. (2021): flexibility correlates with power output",
			"Konrad (2024): significant ROM gains within two weeks",
		},
	},
}

// MonthlyRate returns the expected gap closure per month for d.
func MonthlyRate(d types.Dimension) float64 {
	if !d.Valid() {
		return 0
	}
	return rules[d].monthlyRate
}

// DaysToResolve estimates the days needed to close gap percent at the
// monthly rate, never less than a week.
func DaysToResolve(gap, monthlyRate float64) int {
	if !(monthlyRate > 0) || gap <= 0 {
		return minDaysToResolve
	}
	return max(int(gap/100/monthlyRate*30), minDaysToResolve)
}

// Build returns one report per scored dimension, ordered by severity
// priority then impact.
func Build(p *model.Profile, snaps model.Snapshots, scores scoring.Scores, rank bottleneck.Ranking) []Report {
	out := make([]Report, 0, len(scores))
	for _, d := range types.AllDimensions() {
		score, ok := scores[d]
		if !ok {
			continue
		}
		z := rank.ZScores[d]
		sev := bottleneck.Classify(z)
		if rank.StdDev == 0 {
			sev = types.SeverityNone
		}
		params := p.Param(d)
		gap := math.Max((1-score)*100, 0)
		r := rules[d]
		out = append(out, Report{
			Dimension:     d,
			Severity:      sev,
			ZScore:        z,
			Score:         score,
			Current:       params.Current,
			Target:        params.Target,
			GapPercentage: gap,
			Impact:        params.Coefficient,
			DaysToResolve: DaysToResolve(gap, r.monthlyRate),
			Protocols:     protocol.Recommend(d, sev, gap),
			RiskFactors:   riskFactors(d, gap, snaps),
			Evidence:      append([]string(nil), r.evidence...),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity.Priority() > out[j].Severity.Priority()
		}
		return out[i].Impact > out[j].Impact
	})
	return out
}

func riskFactors(d types.Dimension, gap float64, snaps model.Snapshots) []string {
	r := rules[d]
	out := make([]string, 0, 3)
	if gap > r.gapThreshold {
		out = append(out, r.gapRisk)
	}
	out = append(out, r.baseRisks...)
	switch d {
	case types.PowerProfile:
		if snaps.PowerProfile != nil && snaps.PowerProfile.Balance() < powerBalanceFloor {
			out = append(out, "unbalanced power profile")
		}
	case types.Strength:
		if snaps.Strength != nil && snaps.Strength.Balance() < strengthBalanceFloor {
			out = append(out, "unbalanced push:pull:legs split")
		}
	case types.Flexibility:
		if snaps.Flexibility != nil && snaps.Flexibility.FunctionalMobility() < functionalMobilityFloor {
			out = append(out, "limited functional range of motion")
		}
	}
	return out
}

// Needs converts reports into prioritization input.
func Needs(reports []Report) []protocol.Need {
	out := make([]protocol.Need, 0, len(reports))
	for _, r := range reports {
		out = append(out, protocol.Need{
			Dimension: r.Dimension,
			Severity:  r.Severity,
			Impact:    r.Impact,
			Protocols: r.Protocols,
		})
	}
	return out
}

// RiskScore is the mean of priority·impact over the reports divided by 5,
// clamped to [0,1]. It is 0 for no reports.
func RiskScore(reports []Report) float64 {
	if len(reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reports {
		sum += float64(r.Severity.Priority()) * r.Impact
	}
	return math.Max(math.Min(sum/float64(len(reports))/maxSeverityPriority, 1), 0)
}
