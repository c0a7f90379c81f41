package locks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an expired
// lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker locks across instances. Locks expire after TTL in case the holder dies.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(addr string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "dossier-lock:",
		ttl:    ttl,
	}
}

func (l *RedisLocker) key(k string) string { return l.prefix + k }

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(key), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// release must survive a cancelled request context
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, token).Err(); err != nil {
				slog.Warn("Failed to release redis lock.", "key", key, "error", err)
			}
		})
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
