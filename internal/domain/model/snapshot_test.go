package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/wpr/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEfficiencySnapshot(t *testing.T) {
	convey.Convey("Given an hour-long steady ride", t, func() {
		s := model.EfficiencySnapshot{NormalizedPower: 210, AverageHeartRate: 140, Duration: time.Hour}

		convey.Convey("Then EF is power per beat and quality is full", func() {
			convey.So(s.EF(), convey.ShouldAlmostEqual, 1.5, 1e-9)
			convey.So(s.QualityScore(), convey.ShouldEqual, 1.0)
		})
	})

	convey.Convey("Given a short ride with implausible data", t, func() {
		s := model.EfficiencySnapshot{NormalizedPower: 40, AverageHeartRate: 0, Duration: 10 * time.Minute}

		convey.Convey("Then EF is guarded and quality floors at zero", func() {
			convey.So(s.EF(), convey.ShouldEqual, 0)
			convey.So(s.QualityScore(), convey.ShouldEqual, 0)
		})
	})
}

func TestPowerProfileSnapshot(t *testing.T) {
	convey.Convey("Given bests improved by ten percent", t, func() {
		base := model.PowerBests{Sec5: 1000, Min1: 500, Min5: 350, Min20: 280, Min60: 250}
		cur := model.PowerBests{Sec5: 1100, Min1: 550, Min5: 385, Min20: 308, Min60: 275}
		s := model.PowerProfileSnapshot{Current: cur, Baseline: base}

		convey.Convey("Then the average improvement is ten percent", func() {
			convey.So(s.AverageImprovement(), convey.ShouldAlmostEqual, 0.10, 1e-9)
		})
	})

	convey.Convey("Given a zero baseline best", t, func() {
		s := model.PowerProfileSnapshot{
			Current:  model.PowerBests{Sec5: 1000, Min1: 500, Min5: 350, Min20: 280, Min60: 250},
			Baseline: model.PowerBests{Sec5: 1000, Min1: 0, Min5: 350, Min20: 280, Min60: 250},
		}

		convey.Convey("Then improvement is undefined", func() {
			_, ok := s.Improvements()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(s.AverageImprovement(), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given an ideally shaped curve", t, func() {
		s := model.PowerProfileSnapshot{Current: model.PowerBests{Sec5: 1000, Min1: 850, Min5: 750, Min20: 650, Min60: 550}}

		convey.Convey("Then balance is perfect", func() {
			convey.So(s.Balance(), convey.ShouldAlmostEqual, 1.0, 1e-9)
		})
	})
}

func TestCardioSnapshot(t *testing.T) {
	convey.Convey("Given heart rates at matched powers", t, func() {
		s := model.CardioSnapshot{
			TestPowers:         []int{200, 250, 300},
			HeartRates:         []int{135, 150, 165},
			BaselineHeartRates: []int{145, 160, 175},
		}

		convey.Convey("Then the mean reduction is the bpm drop", func() {
			cur, base, ok := s.MeanHeartRates()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(cur, convey.ShouldEqual, 150)
			convey.So(base, convey.ShouldEqual, 160)
			convey.So(s.MeanReduction(), convey.ShouldEqual, 10)
		})
	})

	convey.Convey("Given mismatched series", t, func() {
		s := model.CardioSnapshot{TestPowers: []int{200, 250}, HeartRates: []int{135}, BaselineHeartRates: []int{145, 150}}

		convey.Convey("Then nothing is derived", func() {
			convey.So(s.Matched(), convey.ShouldBeFalse)
			convey.So(s.MeanReduction(), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given a non-positive heart rate", t, func() {
		s := model.CardioSnapshot{TestPowers: []int{200}, HeartRates: []int{0}, BaselineHeartRates: []int{150}}

		convey.Convey("Then the series is rejected", func() {
			convey.So(s.Matched(), convey.ShouldBeFalse)
		})
	})
}

func TestStrengthSnapshot(t *testing.T) {
	convey.Convey("Given lifts across groups", t, func() {
		lifts := []model.Lift{
			{Group: model.GroupPush, Weight: 60, Reps: 10, Sets: 3},
			{Group: model.GroupPull, Weight: 50, Reps: 10, Sets: 3},
			{Group: model.GroupLegs, Weight: 40, Reps: 10, Sets: 3},
		}

		convey.Convey("When summing volume load", func() {
			vl, err := model.VolumeLoadFromLifts(lifts)

			convey.Convey("Then each group is weight times reps times sets", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(vl.Push, convey.ShouldEqual, 1800)
				convey.So(vl.Pull, convey.ShouldEqual, 1500)
				convey.So(vl.Legs, convey.ShouldEqual, 1200)
				convey.So(vl.Total(), convey.ShouldEqual, 4500)
			})

			convey.Convey("Then the 1.2:1.0:0.8 split is perfectly balanced", func() {
				s := model.StrengthSnapshot{Current: vl}
				convey.So(s.Balance(), convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When a lift has an unknown group", func() {
			_, err := model.VolumeLoadFromLifts([]model.Lift{{Group: "core", Weight: 10, Reps: 1, Sets: 1}})

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, model.ErrInvalidValue), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a zero baseline volume", t, func() {
		s := model.StrengthSnapshot{Current: model.VolumeLoad{Push: 100}}

		convey.Convey("Then the increase is zero", func() {
			convey.So(s.Increase(), convey.ShouldEqual, 0)
		})
	})
}

func TestFlexibilitySnapshot(t *testing.T) {
	convey.Convey("Given every joint improved by ten degrees", t, func() {
		base := model.JointAngles{Hip: 90, Shoulder: 150, Spine: 40, Ankle: 20, ForwardBend: 10}
		cur := model.JointAngles{Hip: 100, Shoulder: 160, Spine: 50, Ankle: 30, ForwardBend: 20}
		s := model.FlexibilitySnapshot{Current: cur, Baseline: base}

		convey.Convey("Then the weighted improvement is ten degrees", func() {
			imp, ok := s.WeightedImprovement()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(imp, convey.ShouldAlmostEqual, 10.0, 1e-9)
			convey.So(s.FunctionalMobility(), convey.ShouldAlmostEqual, 0.94, 1e-9)
		})
	})

	convey.Convey("Given a zero baseline angle", t, func() {
		s := model.FlexibilitySnapshot{Current: model.JointAngles{Hip: 100}, Baseline: model.JointAngles{Hip: 90}}

		convey.Convey("Then improvement is undefined", func() {
			_, ok := s.WeightedImprovement()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given a negative angle", t, func() {
		snaps := model.Snapshots{Flexibility: &model.FlexibilitySnapshot{Current: model.JointAngles{Hip: -5}}}

		convey.Convey("Then validation fails", func() {
			convey.So(errors.Is(snaps.Validate(), model.ErrInvalidValue), convey.ShouldBeTrue)
		})
	})
}

func TestSnapshotsMerge(t *testing.T) {
	convey.Convey("Given stored snapshots and a newer partial set", t, func() {
		old := model.Snapshots{
			Efficiency: &model.EfficiencySnapshot{NormalizedPower: 200, AverageHeartRate: 150},
			Strength:   &model.StrengthSnapshot{},
		}
		next := model.Snapshots{Efficiency: &model.EfficiencySnapshot{NormalizedPower: 220, AverageHeartRate: 150}}

		convey.Convey("Then only the present snapshots are replaced", func() {
			merged := old.Merge(next)
			convey.So(merged.Efficiency.NormalizedPower, convey.ShouldEqual, 220)
			convey.So(merged.Strength, convey.ShouldNotBeNil)
			convey.So(merged.Count(), convey.ShouldEqual, 2)
			convey.So(old.Efficiency.NormalizedPower, convey.ShouldEqual, 200)
		})
	})
}

func TestMeasurementValidate(t *testing.T) {
	convey.Convey("Given measurements", t, func() {
		convey.Convey("Then an empty one is rejected", func() {
			err := model.Measurement{AthleteID: "a"}.Validate()
			convey.So(errors.Is(err, model.ErrInvalidValue), convey.ShouldBeTrue)
		})

		convey.Convey("Then one without an athlete is rejected", func() {
			err := model.Measurement{FTP: 250, Weight: 70}.Validate()
			convey.So(errors.Is(err, model.ErrInvalidValue), convey.ShouldBeTrue)
		})

		convey.Convey("Then a WPR update alone is accepted", func() {
			m := model.Measurement{AthleteID: "a", FTP: 250, Weight: 70}
			convey.So(m.HasWPRUpdate(), convey.ShouldBeTrue)
			convey.So(m.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestSnapshotsClone(t *testing.T) {
	convey.Convey("Given snapshots with a cardio series", t, func() {
		orig := model.Snapshots{
			Efficiency: &model.EfficiencySnapshot{NormalizedPower: 200},
			Cardio: &model.CardioSnapshot{
				TestPowers:         []int{150, 200},
				HeartRates:         []int{130, 150},
				BaselineHeartRates: []int{140, 160},
			},
		}

		convey.Convey("When the clone is modified", func() {
			c := orig.Clone()
			c.Efficiency.NormalizedPower = 999
			c.Cardio.HeartRates[0] = 1

			convey.Convey("Then the original is untouched", func() {
				convey.So(orig.Efficiency.NormalizedPower, convey.ShouldEqual, 200)
				convey.So(orig.Cardio.HeartRates[0], convey.ShouldEqual, 130)
				convey.So(c.Count(), convey.ShouldEqual, 2)
				convey.So(c.Strength, convey.ShouldBeNil)
			})
		})
	})
}
