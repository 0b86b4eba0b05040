package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseIfOwner deletes KEYS[1] only when it still holds the caller's token.
var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out short-lived named locks. Each acquisition gets its own
// token, and only that token can release the lock.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func lockKey(name string) string {
	return "lock:" + name
}

// Acquire tries to take the named lock for ttl. ok is false when another
// holder has it.
func (s *LockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()

	ok, err = s.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release drops the named lock if it is still held with token. A lock that
// expired and was taken by someone else is left alone.
func (s *LockStore) Release(ctx context.Context, name, token string) error {
	return releaseIfOwner.Run(ctx, s.client, []string{lockKey(name)}, token).Err()
}
