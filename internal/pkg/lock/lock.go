package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked 锁已被其他持有者占用
var ErrLocked = errors.New("lock already held")

// Locker 非阻塞互斥锁，按 key 区分
// Acquire 成功时返回释放函数；key 已被占用时返回 ErrLocked
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker 进程内实现，未配置 Redis 时使用
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
