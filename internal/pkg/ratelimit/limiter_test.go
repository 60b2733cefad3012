package ratelimit

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyedLimiter(t *testing.T) {
	Convey("KeyedLimiter", t, func() {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		l := NewKeyedLimiter(60, 2)
		l.now = func() time.Time { return now }

		Convey("桶容量用尽后拒绝，补充后放行", func() {
			So(l.Allow("u1"), ShouldBeTrue)
			So(l.Allow("u1"), ShouldBeTrue)
			So(l.Allow("u1"), ShouldBeFalse)

			now = now.Add(time.Second)
			So(l.Allow("u1"), ShouldBeTrue)
		})

		Convey("不同用户互不影响", func() {
			So(l.Allow("u1"), ShouldBeTrue)
			So(l.Allow("u1"), ShouldBeTrue)
			So(l.Allow("u1"), ShouldBeFalse)
			So(l.Allow("u2"), ShouldBeTrue)
		})

		Convey("长时间未访问的 key 被清理", func() {
			So(l.Allow("u1"), ShouldBeTrue)
			So(l.Allow("u2"), ShouldBeTrue)
			So(l.Len(), ShouldEqual, 2)

			now = now.Add(idleTTL + time.Minute)
			So(l.Allow("u3"), ShouldBeTrue)
			So(l.Len(), ShouldEqual, 1)
		})
	})
}
