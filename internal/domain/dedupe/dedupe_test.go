package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/yogascore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new ledger", t, func() {
		l := dedupe.NewLedger()

		Convey("Then it should start empty", func() {
			So(l.Size(), ShouldEqual, 0)
		})

		Convey("When a submission id is recorded the first time", func() {
			seen := l.SeenAndRecord(ctx, "sub-1")

			Convey("Then it should be reported as new", func() {
				So(seen, ShouldBeFalse)
				So(l.Size(), ShouldEqual, 1)
			})

			Convey("And a retry with the same id should be reported as seen", func() {
				So(l.SeenAndRecord(ctx, "sub-1"), ShouldBeTrue)
				So(l.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded id is unrecorded", func() {
			l.SeenAndRecord(ctx, "sub-1")
			l.Unrecord(ctx, "sub-1")

			Convey("Then it can be recorded again", func() {
				So(l.Size(), ShouldEqual, 0)
				So(l.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			l.Unrecord(ctx, "missing")

			Convey("Then nothing should change", func() {
				So(l.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a ledger bounded to three ids", t, func() {
		l := dedupe.NewLedger(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			l.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}

		Convey("Then the oldest id should have been evicted", func() {
			So(l.Size(), ShouldEqual, 3)
			So(l.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
			So(l.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded ledger", t, func() {
		l := dedupe.NewLedger(dedupe.WithMaxSize(0))
		for i := 0; i < 100; i++ {
			l.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}

		Convey("Then every id should be kept", func() {
			So(l.Size(), ShouldEqual, 100)
		})
	})

	Convey("Given concurrent submissions with one id", t, func() {
		l := dedupe.NewLedger()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !l.SeenAndRecord(ctx, "same") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one should be recorded as new", func() {
			So(fresh, ShouldEqual, 1)
		})
	})
}
