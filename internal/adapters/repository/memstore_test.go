package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/wpr/internal/adapters/repository"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

func TestMemoryStore(t *testing.T) {
	convey.Convey("Given an empty store", t, func() {
		ctx := context.Background()
		fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore(ctx, repository.WithClock(func() time.Time { return fixed }))
		defer store.Close()

		convey.So(store.Count(ctx), convey.ShouldEqual, 0)

		convey.Convey("When creating a profile", func() {
			p := model.NewProfile("a1", time.Time{})
			convey.So(store.Create(ctx, p), convey.ShouldBeNil)

			convey.Convey("Then it can be read back", func() {
				got, err := store.Get(ctx, "a1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.AthleteID, convey.ShouldEqual, "a1")
				convey.So(got.CreatedAt, convey.ShouldEqual, fixed)
				convey.So(store.Count(ctx), convey.ShouldEqual, 1)
				convey.So(store.IDs(ctx), convey.ShouldResemble, []string{"a1"})
			})

			convey.Convey("Then creating it again fails", func() {
				err := store.Create(ctx, model.NewProfile("a1", fixed))
				convey.So(errors.Is(err, repository.ErrAlreadyExists), convey.ShouldBeTrue)
			})

			convey.Convey("Then reads are isolated copies", func() {
				got, _ := store.Get(ctx, "a1")
				got.TargetWPR = 9
				got.SetCurrentValue(types.Strength, 123)

				again, _ := store.Get(ctx, "a1")
				convey.So(again.TargetWPR, convey.ShouldEqual, model.DefaultTargetWPR)
				convey.So(again.Param(types.Strength).Current, convey.ShouldNotEqual, 123)
			})

			convey.Convey("Then the caller's profile is not retained", func() {
				p.TargetWPR = 8
				got, _ := store.Get(ctx, "a1")
				convey.So(got.TargetWPR, convey.ShouldEqual, model.DefaultTargetWPR)
			})

			convey.Convey("And updating it", func() {
				out, err := store.Update(ctx, "a1", func(p *model.Profile, snaps *model.Snapshots) error {
					p.OverallProgressScore = 0.6
					d := types.Cardio
					p.CurrentBottleneck = &d
					snaps.Efficiency = &model.EfficiencySnapshot{NormalizedPower: 200, AverageHeartRate: 140}
					return nil
				})

				convey.Convey("Then the change is stored and indexed", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(out.OverallProgressScore, convey.ShouldEqual, 0.6)

					snaps, err := store.Snapshots(ctx, "a1")
					convey.So(err, convey.ShouldBeNil)
					convey.So(snaps.Efficiency.NormalizedPower, convey.ShouldEqual, 200)

					e, err := store.Rank(ctx, "a1")
					convey.So(err, convey.ShouldBeNil)
					convey.So(e.Rank, convey.ShouldEqual, 1)
					convey.So(e.Bottleneck, convey.ShouldEqual, "cardio")
				})
			})

			convey.Convey("And an update that fails", func() {
				boom := errors.New("boom")
				_, err := store.Update(ctx, "a1", func(p *model.Profile, _ *model.Snapshots) error {
					p.TargetWPR = 7
					return boom
				})

				convey.Convey("Then nothing is written", func() {
					convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
					got, _ := store.Get(ctx, "a1")
					convey.So(got.TargetWPR, convey.ShouldEqual, model.DefaultTargetWPR)
				})
			})

			convey.Convey("And deleting it", func() {
				convey.So(store.Delete(ctx, "a1"), convey.ShouldBeNil)

				convey.Convey("Then it is gone everywhere", func() {
					_, err := store.Get(ctx, "a1")
					convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
					_, err = store.Rank(ctx, "a1")
					convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
					convey.So(errors.Is(store.Delete(ctx, "a1"), repository.ErrNotFound), convey.ShouldBeTrue)
				})
			})
		})

		convey.Convey("When using invalid input", func() {
			convey.So(errors.Is(store.Create(ctx, nil), repository.ErrInvalidID), convey.ShouldBeTrue)
			convey.So(errors.Is(store.Create(ctx, model.NewProfile("", fixed)), repository.ErrInvalidID), convey.ShouldBeTrue)
			_, err := store.TopN(ctx, 0)
			convey.So(errors.Is(err, repository.ErrInvalidLimit), convey.ShouldBeTrue)
			_, err = store.Update(ctx, "nobody", func(*model.Profile, *model.Snapshots) error { return nil })
			convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("When several athletes have scores", func() {
			for i, score := range []float64{0.3, 0.9, 0.6} {
				id := fmt.Sprintf("a%d", i)
				p := model.NewProfile(id, fixed)
				p.OverallProgressScore = score
				convey.So(store.Create(ctx, p), convey.ShouldBeNil)
			}

			convey.Convey("Then TopN orders them by score", func() {
				top, err := store.TopN(ctx, 2)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(top), convey.ShouldEqual, 2)
				convey.So(top[0].AthleteID, convey.ShouldEqual, "a1")
				convey.So(top[1].AthleteID, convey.ShouldEqual, "a2")
			})
		})
	})
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	convey.Convey("Given one athlete updated from many goroutines", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()
		convey.So(store.Create(ctx, model.NewProfile("a1", time.Now())), convey.ShouldBeNil)

		const writers, perWriter = 8, 50
		var wg sync.WaitGroup
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perWriter {
					_, _ = store.Update(ctx, "a1", func(p *model.Profile, _ *model.Snapshots) error {
						p.RecordScore(time.Now(), p.OverallProgressScore)
						p.OverallProgressScore += 0.001
						return nil
					})
				}
			}()
		}
		wg.Wait()

		convey.Convey("Then no write is lost", func() {
			p, err := store.Get(ctx, "a1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.OverallProgressScore, convey.ShouldAlmostEqual, writers*perWriter*0.001, 1e-9)
		})
	})
}
