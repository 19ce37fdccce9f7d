package types_test

import (
	"encoding/json"
	"errors"
	"testing"

	types "github.com/okian/wpr/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDimension(t *testing.T) {
	Convey("Given the dimension enum", t, func() {
		Convey("When listing all dimensions", func() {
			all := types.AllDimensions()

			Convey("Then it should return five dimensions in canonical order", func() {
				So(len(all), ShouldEqual, types.DimensionCount)
				So(all[0], ShouldEqual, types.Efficiency)
				So(all[4], ShouldEqual, types.Flexibility)
			})
		})

		Convey("When parsing names and aliases", func() {
			Convey("Then canonical names should round trip", func() {
				for _, d := range types.AllDimensions() {
					parsed, err := types.ParseDimension(d.String())
					So(err, ShouldBeNil)
					So(parsed, ShouldEqual, d)
				}
			})

			Convey("And aliases should be accepted", func() {
				d, err := types.ParseDimension(" ROM ")
				So(err, ShouldBeNil)
				So(d, ShouldEqual, types.Flexibility)

				d, err = types.ParseDimension("power")
				So(err, ShouldBeNil)
				So(d, ShouldEqual, types.PowerProfile)
			})

			Convey("And unknown names should fail", func() {
				_, err := types.ParseDimension("weight")
				So(errors.Is(err, types.ErrUnknownDimension), ShouldBeTrue)
			})
		})

		Convey("When an out of range value is formatted", func() {
			d := types.Dimension(42)

			Convey("Then it should not be valid", func() {
				So(d.Valid(), ShouldBeFalse)
				So(d.String(), ShouldEqual, "dimension(42)")
				_, err := d.MarshalText()
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When used as a JSON map key", func() {
			in := map[types.Dimension]float64{types.Strength: 0.1, types.Cardio: 0.8}
			b, err := json.Marshal(in)
			So(err, ShouldBeNil)

			var out map[types.Dimension]float64
			So(json.Unmarshal(b, &out), ShouldBeNil)

			Convey("Then it should encode by name and decode back", func() {
				So(string(b), ShouldContainSubstring, `"strength":0.1`)
				So(out, ShouldResemble, in)
			})
		})
	})
}

func TestSeverity(t *testing.T) {
	Convey("Given the severity enum", t, func() {
		Convey("Then priorities should increase with severity", func() {
			So(types.SeverityNone.Priority(), ShouldEqual, 1)
			So(types.SeverityMinor.Priority(), ShouldEqual, 2)
			So(types.SeverityModerate.Priority(), ShouldEqual, 3)
			So(types.SeverityMajor.Priority(), ShouldEqual, 4)
			So(types.SeverityCritical.Priority(), ShouldEqual, 5)
		})

		Convey("When parsing severities", func() {
			s, err := types.ParseSeverity("Major")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, types.SeverityMajor)

			_, err = types.ParseSeverity("catastrophic")
			So(errors.Is(err, types.ErrUnknownSeverity), ShouldBeTrue)
		})

		Convey("When marshalling to JSON", func() {
			b, err := json.Marshal(types.SeverityCritical)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"critical"`)
		})
	})
}

func TestEntry(t *testing.T) {
	Convey("Given an Entry struct", t, func() {
		entry := types.Entry{Rank: 1, AthleteID: "athlete-1", Score: 0.42, Bottleneck: "strength"}

		Convey("When marshalling to JSON", func() {
			b, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			Convey("Then it should use snake case field names", func() {
				So(string(b), ShouldEqual, `{"rank":1,"athlete_id":"athlete-1","score":0.42,"bottleneck":"strength"}`)
			})
		})
	})
}
