package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wpr/internal/adapters/repository"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store on disk", t, func() {
		ctx := context.Background()
		fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		path := filepath.Join(t.TempDir(), "data", "wpr.db")
		clock := repository.WithClock(func() time.Time { return fixed })

		store, err := repository.OpenSQLiteStore(ctx, path, clock)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		So(store.Count(ctx), ShouldEqual, 0)

		Convey("When a profile is created and scored", func() {
			So(store.Create(ctx, model.NewProfile("a1", time.Time{})), ShouldBeNil)
			So(store.Create(ctx, model.NewProfile("a2", time.Time{})), ShouldBeNil)

			_, err := store.Update(ctx, "a1", func(p *model.Profile, snaps *model.Snapshots) error {
				p.OverallProgressScore = 0.4
				d := types.Flexibility
				p.CurrentBottleneck = &d
				snaps.Strength = &model.StrengthSnapshot{MeasuredAt: fixed}
				return nil
			})
			So(err, ShouldBeNil)

			Convey("Then reads decode the stored row", func() {
				got, err := store.Get(ctx, "a1")
				So(err, ShouldBeNil)
				So(got.OverallProgressScore, ShouldEqual, 0.4)
				So(*got.CurrentBottleneck, ShouldEqual, types.Flexibility)
				So(got.CreatedAt.Equal(fixed), ShouldBeTrue)
				So(got.Param(types.Efficiency).Coefficient, ShouldEqual, model.EvidenceCoefficients[types.Efficiency])

				snaps, err := store.Snapshots(ctx, "a1")
				So(err, ShouldBeNil)
				So(snaps.Strength, ShouldNotBeNil)
				So(snaps.Efficiency, ShouldBeNil)
			})

			Convey("Then the leaderboard reflects the score", func() {
				top, err := store.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].AthleteID, ShouldEqual, "a1")
				So(top[0].Bottleneck, ShouldEqual, "flexibility")
				So(store.IDs(ctx), ShouldResemble, []string{"a1", "a2"})
			})

			Convey("Then a failing update leaves the row untouched", func() {
				boom := errors.New("boom")
				_, err := store.Update(ctx, "a1", func(p *model.Profile, _ *model.Snapshots) error {
					p.OverallProgressScore = 0.9
					return boom
				})
				So(errors.Is(err, boom), ShouldBeTrue)

				got, _ := store.Get(ctx, "a1")
				So(got.OverallProgressScore, ShouldEqual, 0.4)
			})

			Convey("Then duplicates and unknown ids are rejected", func() {
				So(errors.Is(store.Create(ctx, model.NewProfile("a1", fixed)), repository.ErrAlreadyExists), ShouldBeTrue)

				_, err := store.Get(ctx, "nobody")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				_, err = store.Update(ctx, "nobody", func(*model.Profile, *model.Snapshots) error { return nil })
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				So(errors.Is(store.Delete(ctx, "nobody"), repository.ErrNotFound), ShouldBeTrue)

				_, err = store.TopN(ctx, 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("Then deleting removes it from the leaderboard", func() {
				So(store.Delete(ctx, "a1"), ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 1)

				_, err := store.Rank(ctx, "a1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then the data survives a reopen", func() {
				So(store.Close(), ShouldBeNil)

				reopened, err := repository.OpenSQLiteStore(ctx, path, clock)
				So(err, ShouldBeNil)
				defer func() { _ = reopened.Close() }()

				So(reopened.Count(ctx), ShouldEqual, 2)
				e, err := reopened.Rank(ctx, "a1")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 1)
				So(e.Score, ShouldEqual, 0.4)
			})
		})
	})

	Convey("Given an in-memory sqlite store", t, func() {
		ctx := context.Background()
		store, err := repository.OpenSQLiteStore(ctx, repository.InMemoryDSN)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		Convey("Then an invalid profile is rejected", func() {
			So(errors.Is(store.Create(ctx, nil), repository.ErrInvalidID), ShouldBeTrue)
			So(errors.Is(store.Create(ctx, &model.Profile{}), repository.ErrInvalidID), ShouldBeTrue)
		})
	})
}
