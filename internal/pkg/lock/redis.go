package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"parley/internal/config"
	"parley/internal/pkg/id"
)

const keyPrefix = "parley:turn-lock:"

// 只删除自己持有的锁，避免误删过期后被他人重新获取的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式锁，多实例部署时使用
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient 创建 Redis 客户端并测试连接
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisLocker 创建分布式锁，ttl 需大于单轮对话的最长耗时
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := id.New()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求 context 可能已取消，释放使用独立 context
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to release turn lock, it will expire by ttl")
			}
		})
	}, nil
}
