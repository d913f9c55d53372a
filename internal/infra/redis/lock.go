// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"errors"
	"time"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ adapter.Locker = (*RedisLocker)(nil)

const lockRetryInterval = 25 * time.Millisecond

// ErrLockNotHeld is returned by Unlock when the key is gone or owned by another token.
var ErrLockNotHeld = errors.New("redis lock not held by token")

// LockClient is the narrow surface the locker needs.
type LockClient interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// CompareAndDelete deletes key only while it still holds value.
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

var _ LockClient = (*Client)(nil)

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.cli.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	n, err := luaUnlock.Run(ctx, c.cli, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RedisLocker is a SET NX lock shared by every ledger process on the same Redis.
// Keys expire after ttl so a crashed holder cannot block a ticket forever.
type RedisLocker struct {
	cli    LockClient
	ttl    time.Duration
	prefix string
}

func NewLocker(c LockClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{cli: c, ttl: ttl, prefix: "ledger:lock:"}
}

// TryLock polls until wait elapses. Running out of wait, or out of the caller's deadline,
// is domain.ErrTicketBusy; cancellation is returned as ctx.Err().
func (l *RedisLocker) TryLock(ctx context.Context, key string, wait time.Duration) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.cli.SetNX(ctx, l.prefix+key, token, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return "", waitErr(ctx)
			}
			return "", err
		}
		if ok {
			return token, nil
		}
		if !time.Now().Before(deadline) {
			return "", domain.ErrTicketBusy
		}
		select {
		case <-ctx.Done():
			return "", waitErr(ctx)
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	ok, err := l.cli.CompareAndDelete(ctx, l.prefix+key, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotHeld
	}
	return nil
}

func waitErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrTicketBusy
	}
	return ctx.Err()
}
