package protocol_test

import (
	"testing"

	"github.com/okian/wpr/internal/domain/protocol"
	"github.com/okian/wpr/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func names(ps []protocol.TrainingProtocol) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestRecommend(t *testing.T) {
	Convey("Given the efficiency dimension", t, func() {
		Convey("Then a large gap adds sweet spot work before the aerobic base", func() {
			So(names(protocol.Recommend(types.Efficiency, types.SeverityMajor, 35)), ShouldResemble,
				[]string{"Sweet spot intervals", "Zone 2 aerobic base"})
		})

		Convey("Then a small gap only gets the aerobic base", func() {
			So(names(protocol.Recommend(types.Efficiency, types.SeverityMinor, 20)), ShouldResemble,
				[]string{"Zone 2 aerobic base"})
		})
	})

	Convey("Given the power profile dimension", t, func() {
		Convey("Then sprints are added above the neuromuscular threshold", func() {
			So(names(protocol.Recommend(types.PowerProfile, types.SeverityMajor, 31)), ShouldResemble,
				[]string{"Neuromuscular sprints", "VO2max intervals"})
			So(names(protocol.Recommend(types.PowerProfile, types.SeverityMajor, 30)), ShouldResemble,
				[]string{"VO2max intervals"})
		})
	})

	Convey("Given the remaining dimensions", t, func() {
		So(len(protocol.Recommend(types.Cardio, types.SeverityModerate, 10)), ShouldEqual, 2)
		So(protocol.Recommend(types.Strength, types.SeverityModerate, 10)[0].Name, ShouldEqual, "Push volume block")
		So(protocol.Recommend(types.Flexibility, types.SeverityModerate, 10)[0].Name, ShouldEqual, "Hip mobility program")
	})

	Convey("Given severity none", t, func() {
		Convey("Then nothing is recommended", func() {
			for _, d := range types.AllDimensions() {
				So(protocol.Recommend(d, types.SeverityNone, 90), ShouldBeEmpty)
			}
		})
	})

	Convey("Recommend is deterministic and returns fresh slices", t, func() {
		a := protocol.Recommend(types.Strength, types.SeverityMajor, 50)
		a[0].Name = "changed"
		b := protocol.Recommend(types.Strength, types.SeverityMajor, 50)
		So(b[0].Name, ShouldEqual, "Push volume block")
	})

	Convey("Catalog lists every protocol of a dimension", t, func() {
		So(len(protocol.Catalog(types.Efficiency)), ShouldEqual, 2)
		So(len(protocol.Catalog(types.PowerProfile)), ShouldEqual, 2)
		So(protocol.Catalog(types.Dimension(99)), ShouldBeEmpty)
	})
}

func TestPrioritize(t *testing.T) {
	Convey("Given needs of mixed severity", t, func() {
		needs := []protocol.Need{
			{Dimension: types.Efficiency, Severity: types.SeverityMinor, Impact: 0.25,
				Protocols: protocol.Recommend(types.Efficiency, types.SeverityMinor, 10)},
			{Dimension: types.Strength, Severity: types.SeverityModerate, Impact: 0.20,
				Protocols: protocol.Recommend(types.Strength, types.SeverityModerate, 40)},
			{Dimension: types.Flexibility, Severity: types.SeverityCritical, Impact: 0.10,
				Protocols: protocol.Recommend(types.Flexibility, types.SeverityCritical, 80)},
			{Dimension: types.Cardio, Severity: types.SeverityModerate, Impact: 0.15,
				Protocols: protocol.Recommend(types.Cardio, types.SeverityModerate, 40)},
		}

		Convey("When prioritizing", func() {
			out := protocol.Prioritize(needs)

			Convey("Then severity ranks first, impact second, capped at five", func() {
				So(len(out), ShouldEqual, protocol.MaxPrioritized)
				So(names(out), ShouldResemble, []string{
					"Hip mobility program",
					"Dynamic flexibility",
					"Push volume block",
					"Pull strength block",
					"Fixed-power HR drills",
				})
			})
		})
	})

	Convey("Given only minor needs", t, func() {
		needs := []protocol.Need{{Dimension: types.Cardio, Severity: types.SeverityMinor, Impact: 0.5,
			Protocols: protocol.Recommend(types.Cardio, types.SeverityMinor, 5)}}

		Convey("Then nothing is prioritized", func() {
			So(protocol.Prioritize(needs), ShouldBeEmpty)
			So(protocol.Prioritize(nil), ShouldBeEmpty)
		})
	})
}
