package aggregate_test

import (
	"testing"
	"time"

	"github.com/okian/wpr/internal/domain/aggregate"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/scoring"
	"github.com/okian/wpr/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregate(t *testing.T) {
	Convey("Given a default profile", t, func() {
		p := model.NewProfile("athlete-1", time.Now())

		Convey("When every score is one half", func() {
			scores := scoring.Scores{}
			for _, d := range types.AllDimensions() {
				scores[d] = 0.5
			}

			Convey("Then the overall score is one half", func() {
				So(aggregate.Aggregate(scores, p), ShouldAlmostEqual, 0.5, 1e-9)
			})
		})

		Convey("When scores are mixed", func() {
			scores := scoring.Scores{
				types.Efficiency:   0.8,
				types.PowerProfile: 0.6,
				types.Cardio:       0.4,
				types.Strength:     0.2,
				types.Flexibility:  1.0,
			}

			Convey("Then it is the coefficient-weighted sum", func() {
				want := 0.8*0.25 + 0.6*0.30 + 0.4*0.15 + 0.2*0.20 + 1.0*0.10
				So(aggregate.Aggregate(scores, p), ShouldAlmostEqual, want, 1e-9)
			})
		})

		Convey("When a dimension is missing", func() {
			scores := scoring.Scores{types.Efficiency: 1.0, types.Strength: 0.0}

			Convey("Then the remaining weights are renormalized", func() {
				So(aggregate.Aggregate(scores, p), ShouldAlmostEqual, 0.25/0.45, 1e-9)
			})
		})

		Convey("When no scores exist", func() {
			Convey("Then the overall score is zero", func() {
				So(aggregate.Aggregate(scoring.Scores{}, p), ShouldEqual, 0)
				So(aggregate.Aggregate(nil, p), ShouldEqual, 0)
			})
		})

		Convey("When the present weights are zero", func() {
			params := p.Param(types.Cardio)
			params.Coefficient = 0
			p.SetParam(types.Cardio, params)

			Convey("Then the overall score is zero", func() {
				So(aggregate.Aggregate(scoring.Scores{types.Cardio: 0.9}, p), ShouldEqual, 0)
			})
		})
	})
}
