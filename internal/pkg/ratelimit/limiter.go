package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL 超过该时长未访问的 key 会在下次清理时移除
const idleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter 按 key（用户）独立的令牌桶
type KeyedLimiter struct {
	mu        sync.Mutex
	entries   map[string]*entry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewKeyedLimiter perMinute 为每分钟补充的令牌数，burst 为桶容量
func NewKeyedLimiter(perMinute, burst int) *KeyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow 消耗 key 的一个令牌，返回是否放行
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleTTL {
		return
	}
	l.lastSweep = now
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(l.entries, key)
		}
	}
}

// Len 当前跟踪的 key 数量
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
