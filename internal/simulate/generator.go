package simulate

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	service "github.com/okian/wpr/internal/app"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

// Athlete is one synthetic athlete with its planned measurements.
type Athlete struct {
	ID           string
	Baseline     service.Baseline
	Measurements []model.Measurement
}

// base values every synthetic athlete starts from.
const (
	baseHeartRate = 140
	baseEF        = 1.2
	rideDuration  = time.Hour
	minFTP        = 180
	maxFTP        = 319
	minWeight     = 55.0
	maxWeight     = 90.0
)

// Generator builds deterministic athletes from a seed.
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewGenerator creates a generator. Equal seeds give equal data apart from
// ids; seed 0 picks a random seed.
func NewGenerator(seed uint64, now time.Time) *Generator {
	return &Generator{faker: gofakeit.New(int64(seed)), now: now} //nolint:gosec // wraparound is fine for a seed
}

// Athletes generates n athletes with m measurements each.
func (g *Generator) Athletes(n, m int) []Athlete {
	out := make([]Athlete, n)
	for i := range out {
		out[i] = g.athlete(m)
	}
	return out
}

func (g *Generator) athlete(m int) Athlete {
	a := Athlete{
		ID: uuid.NewString(),
		Baseline: service.Baseline{
			FTP:    g.faker.IntRange(minFTP, maxFTP),
			Weight: g.faker.Float64Range(minWeight, maxWeight),
			EF:     baseEF,
		},
	}

	// Each dimension progresses at its own pace so bottlenecks differ.
	talent := g.faker.Float64Range(0, 1)
	var pace [types.DimensionCount]float64
	for i := range pace {
		pace[i] = talent * g.faker.Float64Range(0.5, 1.5)
	}

	a.Measurements = make([]model.Measurement, m)
	for k := range a.Measurements {
		progress := float64(k+1) / float64(m)
		at := g.now.Add(time.Duration(k-m) * 24 * time.Hour)
		a.Measurements[k] = model.Measurement{
			ID:        uuid.NewString(),
			AthleteID: a.ID,
			FTP:       a.Baseline.FTP + int(float64(a.Baseline.FTP)*0.1*progress*talent),
			Weight:    a.Baseline.Weight - progress*talent,
			Snapshots: snapshots(a.Baseline.FTP, pace, progress, at),
		}
	}
	return a
}

func snapshots(ftp int, pace [types.DimensionCount]float64, progress float64, at time.Time) model.Snapshots {
	p := func(d types.Dimension) float64 { return pace[d] * progress }

	ef := baseEF * (1 + 0.25*p(types.Efficiency))
	bests := model.PowerBests{Sec5: ftp * 4, Min1: ftp * 2, Min5: ftp * 13 / 10, Min20: ftp * 21 / 20, Min60: ftp}
	scale := 1 + 0.15*p(types.PowerProfile)
	baseHR := []int{130, 145, 160}
	hr := make([]int, len(baseHR))
	for i, v := range baseHR {
		hr[i] = v - int(15*p(types.Cardio))
	}
	volume := model.VolumeLoad{Push: 1000, Pull: 900, Legs: 2000}
	growth := 1 + 0.3*p(types.Strength)
	angles := model.JointAngles{Hip: 90, Shoulder: 160, Spine: 60, Ankle: 20, ForwardBend: 30}
	gain := 15 * p(types.Flexibility)

	return model.Snapshots{
		Efficiency: &model.EfficiencySnapshot{
			NormalizedPower:  ef * baseHeartRate,
			AverageHeartRate: baseHeartRate,
			Duration:         rideDuration,
			MeasuredAt:       at,
		},
		PowerProfile: &model.PowerProfileSnapshot{
			Current: model.PowerBests{
				Sec5:  int(float64(bests.Sec5) * scale),
				Min1:  int(float64(bests.Min1) * scale),
				Min5:  int(float64(bests.Min5) * scale),
				Min20: int(float64(bests.Min20) * scale),
				Min60: int(float64(bests.Min60) * scale),
			},
			Baseline:   bests,
			MeasuredAt: at,
		},
		Cardio: &model.CardioSnapshot{
			TestPowers:         []int{150, 200, 250},
			HeartRates:         hr,
			BaselineHeartRates: baseHR,
			MeasuredAt:         at,
		},
		Strength: &model.StrengthSnapshot{
			Current:    model.VolumeLoad{Push: volume.Push * growth, Pull: volume.Pull * growth, Legs: volume.Legs * growth},
			Baseline:   volume,
			MeasuredAt: at,
		},
		Flexibility: &model.FlexibilitySnapshot{
			Current: model.JointAngles{
				Hip:         angles.Hip + gain,
				Shoulder:    angles.Shoulder + gain,
				Spine:       angles.Spine + gain,
				Ankle:       angles.Ankle + gain,
				ForwardBend: angles.ForwardBend + gain,
			},
			Baseline:   angles,
			MeasuredAt: at,
		},
	}
}
