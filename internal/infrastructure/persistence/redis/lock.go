package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by TryLock when another holder owns the lock.
var ErrLockHeld = errors.New("cache: lock already held")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out SET NX locks so a job runs on one replica at a time.
type Locker struct {
	client *redis.Client
}

// NewLocker creates a Locker on top of the cache client.
func NewLocker(cache *Cache) *Locker {
	return &Locker{client: cache.client}
}

// TryLock acquires the lock for resource or returns ErrLockHeld.
// The returned release func is safe to call once the lock has expired.
func (l *Locker) TryLock(ctx context.Context, resource string, ttl time.Duration) (func(context.Context) error, error) {
	if resource == "" {
		return nil, ErrCacheKeyEmpty
	}
	if ttl <= 0 {
		ttl = TTLDistributedLock
	}

	key := LockKey(resource)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
