package redislock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"staybook/internal/app/policies"
)

const lockKeyPrefix = "staybook:submit-lock:"

// releaseScript deletes the key only when the stored token still matches, so
// an expired lock reacquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// PropertyLocker implements the advisory submit lock on a single redis key
// per property. The key self-expires, so a crashed holder never wedges the
// property.
type PropertyLocker struct {
	Client *redis.Client
}

func NewPropertyLocker(client *redis.Client) *PropertyLocker {
	return &PropertyLocker{Client: client}
}

func (l *PropertyLocker) Acquire(ctx context.Context, propertyID string, ttl time.Duration) (func(context.Context) error, error) {
	key := lockKeyPrefix + propertyID
	token := uuid.NewString()

	ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, policies.ErrLockHeld
	}

	var once sync.Once
	release := func(ctx context.Context) error {
		var rerr error
		once.Do(func() {
			rerr = releaseScript.Run(ctx, l.Client, []string{key}, token).Err()
		})
		return rerr
	}
	return release, nil
}

var _ policies.PropertyLocker = (*PropertyLocker)(nil)
