package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore(repository.WithSweepInterval(time.Hour))
		defer store.Close()

		Convey("Then an unknown entity reads as cold", func() {
			So(store.History(ctx, "ghost", time.Time{}), ShouldBeEmpty)
			stats := store.Stats(ctx, "ghost")
			So(stats.EntityID, ShouldEqual, "ghost")
			So(stats.TxnCount, ShouldEqual, 0)
			So(stats.AvgAmount(), ShouldEqual, 0)
			So(store.PairCount(ctx, "ghost", "anyone"), ShouldEqual, 0)
			So(store.Count(ctx), ShouldEqual, 0)
		})

		Convey("When summaries are recorded for one entity", func() {
			for i := 0; i < 5; i++ {
				store.Record(ctx, "user-1", repository.Summary{
					Timestamp:   base.Add(time.Duration(i) * time.Minute),
					Amount:      100,
					Counterpart: fmt.Sprintf("merchant-%d", i%2),
				})
			}

			Convey("Then history comes back in ascending order", func() {
				hist := store.History(ctx, "user-1", time.Time{})
				So(hist, ShouldHaveLength, 5)
				for i := 1; i < len(hist); i++ {
					So(hist[i].Timestamp.After(hist[i-1].Timestamp), ShouldBeTrue)
				}
			})

			Convey("Then since filters by timestamp", func() {
				hist := store.History(ctx, "user-1", base.Add(3*time.Minute))
				So(hist, ShouldHaveLength, 2)
				So(hist[0].Timestamp.Equal(base.Add(3*time.Minute)), ShouldBeTrue)
			})

			Convey("Then stats accumulate", func() {
				stats := store.Stats(ctx, "user-1")
				So(stats.TxnCount, ShouldEqual, 5)
				So(stats.TotalAmount, ShouldEqual, 500)
				So(stats.AvgAmount(), ShouldEqual, 100)
				So(stats.StdDevAmount(), ShouldEqual, 0)
				So(stats.FirstSeen.Equal(base), ShouldBeTrue)
				So(stats.LastSeen.Equal(base.Add(4*time.Minute)), ShouldBeTrue)
			})

			Convey("Then pair counts follow the counterpart", func() {
				So(store.PairCount(ctx, "user-1", "merchant-0"), ShouldEqual, 3)
				So(store.PairCount(ctx, "user-1", "merchant-1"), ShouldEqual, 2)
				So(store.PairCount(ctx, "user-1", "merchant-9"), ShouldEqual, 0)
			})

			Convey("Then other entities stay untouched", func() {
				So(store.History(ctx, "user-2", time.Time{}), ShouldBeEmpty)
				So(store.Count(ctx), ShouldEqual, 1)
				So(store.HistorySize(ctx), ShouldEqual, 5)
			})
		})

		Convey("When amounts vary", func() {
			for _, amt := range []float64{50, 150} {
				store.Record(ctx, "user-var", repository.Summary{Timestamp: base, Amount: amt})
			}

			Convey("Then the standard deviation is the population one", func() {
				stats := store.Stats(ctx, "user-var")
				So(stats.AvgAmount(), ShouldEqual, 100)
				So(stats.StdDevAmount(), ShouldAlmostEqual, 50, 1e-9)
			})
		})

		Convey("When a late event arrives out of order", func() {
			store.Record(ctx, "user-late", repository.Summary{Timestamp: base.Add(time.Hour), Amount: 10})
			store.Record(ctx, "user-late", repository.Summary{Timestamp: base, Amount: 20})

			Convey("Then history is still ascending", func() {
				hist := store.History(ctx, "user-late", time.Time{})
				So(hist, ShouldHaveLength, 2)
				So(hist[0].Timestamp.Equal(base), ShouldBeTrue)
				So(hist[1].Timestamp.Equal(base.Add(time.Hour)), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store with a short retention", t, func() {
		store := repository.NewMemStore(
			repository.WithRetention(time.Hour),
			repository.WithSweepInterval(time.Hour),
		)
		defer store.Close()

		Convey("When a new record moves the horizon past old entries", func() {
			store.Record(ctx, "user-1", repository.Summary{Timestamp: base, Amount: 10})
			store.Record(ctx, "user-1", repository.Summary{Timestamp: base.Add(30 * time.Minute), Amount: 20})
			store.Record(ctx, "user-1", repository.Summary{Timestamp: base.Add(2 * time.Hour), Amount: 30})

			Convey("Then aged summaries are pruned but counters survive", func() {
				hist := store.History(ctx, "user-1", time.Time{})
				So(hist, ShouldHaveLength, 1)
				So(hist[0].Amount, ShouldEqual, 30)
				So(store.Stats(ctx, "user-1").TxnCount, ShouldEqual, 3)
			})
		})
	})

	Convey("Given concurrent writers on distinct entities", t, func() {
		store := repository.NewMemStore(
			repository.WithShardCount(4),
			repository.WithSweepInterval(time.Hour),
		)
		defer store.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("user-%d", i)
				for j := 0; j < 50; j++ {
					store.Record(ctx, id, repository.Summary{
						Timestamp: base.Add(time.Duration(j) * time.Second),
						Amount:    1,
					})
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every record lands", func() {
			So(store.Count(ctx), ShouldEqual, 20)
			So(store.HistorySize(ctx), ShouldEqual, 1000)
			So(store.Stats(ctx, "user-7").TxnCount, ShouldEqual, 50)
		})
	})
}
