// Package lock provides an in-process implementation of adapter.Locker,
// used when no Redis is configured.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.Locker = (*KeyedLocker)(nil)

var ErrNotHeld = errors.New("lock not held by token")

type slot struct {
	ch    chan struct{} // capacity 1; full while held
	token string
	refs  int
}

// KeyedLocker serializes holders of the same key within one process.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]*slot)}
}

func (l *KeyedLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *KeyedLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// TryLock waits up to wait for key. It returns domain.ErrTicketBusy on timeout or when the
// caller's deadline passes first, and ctx.Err() on cancellation.
func (l *KeyedLocker) TryLock(ctx context.Context, key string, wait time.Duration) (string, error) {
	s := l.acquireSlot(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		token := uuid.NewString()
		l.mu.Lock()
		s.token = token
		l.mu.Unlock()
		return token, nil
	case <-timer.C:
		l.releaseSlot(key, s)
		return "", domain.ErrTicketBusy
	case <-ctx.Done():
		l.releaseSlot(key, s)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.ErrTicketBusy
		}
		return "", ctx.Err()
	}
}

func (l *KeyedLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok || s.token != token || token == "" {
		l.mu.Unlock()
		return ErrNotHeld
	}
	s.token = ""
	l.mu.Unlock()

	<-s.ch
	l.releaseSlot(key, s)
	return nil
}
