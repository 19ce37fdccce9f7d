package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dedupe "github.com/okian/wpr/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFreecacheDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a freecache deduper", t, func() {
		d := dedupe.NewFreecacheDeduper(0, dedupe.WithExpiration(time.Hour))
		So(d.Size(), ShouldEqual, 0)

		Convey("When an id is recorded twice", func() {
			So(d.SeenAndRecord(ctx, "m-1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "m-1"), ShouldBeTrue)

			Convey("Then it is remembered once", func() {
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then unrecording allows a retry", func() {
				d.Unrecord(ctx, "m-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "m-1"), ShouldBeFalse)
			})
		})

		Convey("When an id exceeds the entry limit", func() {
			huge := strings.Repeat("x", 70_000)

			Convey("Then it is never reported as seen", func() {
				So(d.SeenAndRecord(ctx, huge), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, huge), ShouldBeFalse)
			})
		})

		Convey("When writers race on the same ids", func() {
			var fresh atomic.Int64
			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range 100 {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("m-%d", i)) {
							fresh.Add(1)
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is new exactly once", func() {
				So(fresh.Load(), ShouldEqual, 100)
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
