package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrLockHeld = errors.New("lock is held by another owner")

// Locker 프로세스 내 키 단위 잠금 (TTL 경과 시 자동 해제)
type Locker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Lock 즉시 획득을 시도하고 실패하면 ErrLockHeld
func (l *Locker) Lock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, ErrLockHeld
	}
	expires := now.Add(ttl)
	l.held[key] = expires

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if l.held[key] == expires {
				delete(l.held, key)
			}
			l.mu.Unlock()
		})
	}, nil
}
