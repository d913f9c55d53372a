package adapter

import (
	"context"
	"time"
)

// Locker grants exclusive, bounded-time ownership of a key.
// TryLock waits at most `wait` and returns ErrTicketBusy when the key stays held.
// The returned token must be passed to Unlock; a stale token never releases someone else's lock.
type Locker interface {
	TryLock(ctx context.Context, key string, wait time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
