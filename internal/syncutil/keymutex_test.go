package syncutil_test

import (
	"sync"
	"testing"

	"github.com/okian/vigil/internal/syncutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyMutex(t *testing.T) {
	Convey("Given a key mutex", t, func() {
		var km syncutil.KeyMutex

		Convey("When many goroutines increment under the same key", func() {
			var counter int
			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock := km.Lock("user-1")
					counter++
					unlock()
				}()
			}
			wg.Wait()

			Convey("Then no increments should be lost", func() {
				So(counter, ShouldEqual, 100)
			})
		})

		Convey("When locking multiple keys at once", func() {
			unlock := km.LockAll("u/alice", "m/shop-1")
			So(unlock, ShouldNotBeNil)
			unlock()

			Convey("Then relocking the same keys should not deadlock", func() {
				done := make(chan struct{})
				go func() {
					u := km.LockAll("m/shop-1", "u/alice")
					u()
					close(done)
				}()
				<-done
				So(true, ShouldBeTrue)
			})
		})

		Convey("When locking duplicate keys in one call", func() {
			Convey("Then the shard is locked once and the call returns", func() {
				unlock := km.LockAll("u/alice", "u/alice")
				unlock()
				So(true, ShouldBeTrue)
			})
		})

		Convey("When two goroutines lock overlapping key sets", func() {
			var order []string
			var mu sync.Mutex
			var wg sync.WaitGroup
			for _, keys := range [][]string{{"a", "b"}, {"b", "a"}} {
				wg.Add(1)
				go func(keys []string) {
					defer wg.Done()
					unlock := km.LockAll(keys...)
					mu.Lock()
					order = append(order, keys[0])
					mu.Unlock()
					unlock()
				}(keys)
			}
			wg.Wait()

			Convey("Then both complete without deadlock", func() {
				So(len(order), ShouldEqual, 2)
			})
		})
	})
}
