package lock

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"parley/internal/config"
	"parley/internal/pkg/id"
)

func testLocker(t *testing.T, name string, locker Locker) {
	Convey(name, t, func() {
		ctx := context.Background()
		key := "conv-" + id.New()

		Convey("同一 key 只能被持有一次", func() {
			release, err := locker.Acquire(ctx, key)
			So(err, ShouldBeNil)

			_, err = locker.Acquire(ctx, key)
			So(err, ShouldEqual, ErrLocked)

			release()

			release2, err := locker.Acquire(ctx, key)
			So(err, ShouldBeNil)
			release2()
		})

		Convey("不同 key 互不影响", func() {
			r1, err := locker.Acquire(ctx, key+"-a")
			So(err, ShouldBeNil)
			r2, err := locker.Acquire(ctx, key+"-b")
			So(err, ShouldBeNil)
			r1()
			r2()
		})

		Convey("重复释放是安全的", func() {
			release, err := locker.Acquire(ctx, key+"-twice")
			So(err, ShouldBeNil)
			release()
			release()

			again, err := locker.Acquire(ctx, key+"-twice")
			So(err, ShouldBeNil)
			again()
		})
	})
}

func TestLocalLocker(t *testing.T) {
	testLocker(t, "LocalLocker", NewLocalLocker())

	Convey("LocalLocker 拒绝已取消的 context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewLocalLocker().Acquire(ctx, "k")
		So(err, ShouldEqual, context.Canceled)
	})
}

// 需要真实 Redis：REDIS_ADDR=localhost:6379 go test ./internal/pkg/lock
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis lock test")
	}

	client, err := NewRedisClient(&config.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer client.Close()

	testLocker(t, "RedisLocker", NewRedisLocker(client, 10*time.Second))
}
