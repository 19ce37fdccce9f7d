package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/scoring"
	"github.com/okian/wpr/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func fullSnapshots() model.Snapshots {
	return model.Snapshots{
		Efficiency: &model.EfficiencySnapshot{NormalizedPower: 210, AverageHeartRate: 150, Duration: time.Hour},
		PowerProfile: &model.PowerProfileSnapshot{
			Baseline: model.PowerBests{Sec5: 1000, Min1: 500, Min5: 350, Min20: 280, Min60: 250},
			Current:  model.PowerBests{Sec5: 1100, Min1: 550, Min5: 385, Min20: 308, Min60: 275},
		},
		Cardio: &model.CardioSnapshot{
			TestPowers:         []int{200, 250, 300},
			HeartRates:         []int{135, 150, 165},
			BaselineHeartRates: []int{145, 160, 175},
		},
		Strength: &model.StrengthSnapshot{
			Baseline: model.VolumeLoad{Push: 1800, Pull: 1500, Legs: 1200},
			Current:  model.VolumeLoad{Push: 2160, Pull: 1800, Legs: 1440},
		},
		Flexibility: &model.FlexibilitySnapshot{
			Baseline: model.JointAngles{Hip: 90, Shoulder: 150, Spine: 40, Ankle: 20, ForwardBend: 10},
			Current:  model.JointAngles{Hip: 100, Shoulder: 160, Spine: 50, Ankle: 30, ForwardBend: 20},
		},
	}
}

func TestCalculators(t *testing.T) {
	Convey("Given a default profile and snapshots two thirds of the way to target", t, func() {
		p := model.NewProfile("athlete-1", time.Now())
		snaps := fullSnapshots()
		reg := scoring.NewRegistry()

		Convey("When scoring every dimension", func() {
			scores := reg.ScoreAll(snaps, p)

			Convey("Then each score is two thirds", func() {
				So(len(scores), ShouldEqual, types.DimensionCount)
				for _, d := range types.AllDimensions() {
					So(scores[d], ShouldAlmostEqual, 2.0/3.0, 1e-9)
				}
			})
		})

		Convey("When reading raw current values", func() {
			cur := reg.CurrentAll(snaps)

			Convey("Then they are in the dimension's own unit", func() {
				So(cur[types.Efficiency], ShouldAlmostEqual, 1.4, 1e-9)
				So(cur[types.PowerProfile], ShouldAlmostEqual, 0.1, 1e-9)
				So(cur[types.Cardio], ShouldAlmostEqual, 10, 1e-9)
				So(cur[types.Strength], ShouldAlmostEqual, 0.2, 1e-9)
				So(cur[types.Flexibility], ShouldAlmostEqual, 10, 1e-9)
			})
		})

		Convey("When a score would exceed the target", func() {
			snaps.Strength.Current = model.VolumeLoad{Push: 4000, Pull: 4000, Legs: 4000}

			Convey("Then it is clamped to one", func() {
				So(scoring.Strength{}.Score(snaps, p), ShouldEqual, 1)
			})
		})

		Convey("When a dimension regressed", func() {
			snaps.Cardio.HeartRates = []int{150, 165, 180}

			Convey("Then it scores zero but still counts as data", func() {
				scores := reg.ScoreAll(snaps, p)
				v, ok := scores[types.Cardio]
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0)
			})
		})
	})

	Convey("Given missing or degenerate input", t, func() {
		p := model.NewProfile("athlete-1", time.Now())
		reg := scoring.NewRegistry()

		Convey("Then empty snapshots produce no scores", func() {
			So(reg.ScoreAll(model.Snapshots{}, p), ShouldBeEmpty)
		})

		Convey("Then a zero baseline best excludes the power profile", func() {
			snaps := fullSnapshots()
			snaps.PowerProfile.Baseline.Min20 = 0
			scores := reg.ScoreAll(snaps, p)
			_, ok := scores[types.PowerProfile]
			So(ok, ShouldBeFalse)
		})

		Convey("Then mismatched cardio lengths are excluded", func() {
			snaps := model.Snapshots{Cardio: &model.CardioSnapshot{TestPowers: []int{200}, HeartRates: []int{140, 150}, BaselineHeartRates: []int{150}}}
			So(reg.ScoreAll(snaps, p), ShouldBeEmpty)
			So(scoring.Cardio{}.Score(snaps, p), ShouldEqual, 0)
		})

		Convey("Then a zero baseline volume is excluded", func() {
			snaps := model.Snapshots{Strength: &model.StrengthSnapshot{Current: model.VolumeLoad{Push: 100}}}
			So(reg.ScoreAll(snaps, p), ShouldBeEmpty)
		})

		Convey("Then a zero baseline angle is excluded", func() {
			snaps := fullSnapshots()
			snaps.Flexibility.Baseline.Ankle = 0
			_, ok := reg.ScoreAll(snaps, p)[types.Flexibility]
			So(ok, ShouldBeFalse)
		})

		Convey("Then a zero heart rate ride is excluded", func() {
			snaps := model.Snapshots{Efficiency: &model.EfficiencySnapshot{NormalizedPower: 200}}
			So(reg.ScoreAll(snaps, p), ShouldBeEmpty)
		})

		Convey("Then a nil profile falls back to default parameters", func() {
			So(scoring.Efficiency{}.Score(fullSnapshots(), nil), ShouldAlmostEqual, 2.0/3.0, 1e-9)
		})
	})

	Convey("Given a registry requiring ride quality", t, func() {
		reg := scoring.NewRegistry(scoring.WithMinEfficiencyQuality(0.8))
		snaps := model.Snapshots{Efficiency: &model.EfficiencySnapshot{NormalizedPower: 210, AverageHeartRate: 150, Duration: 10 * time.Minute}}

		Convey("Then a short ride is excluded", func() {
			So(reg.ScoreAll(snaps, nil), ShouldBeEmpty)
		})

		Convey("Then the calculator lookup is closed over the dimensions", func() {
			So(reg.Calculator(types.Efficiency).Dimension(), ShouldEqual, types.Efficiency)
			So(reg.Calculator(types.Dimension(42)), ShouldBeNil)
		})
	})
}
