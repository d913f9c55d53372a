//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/adapter"
	"event-ticket-ledger/internal/domain/ports/repository"
	"event-ticket-ledger/internal/infra/db/memory"
	"event-ticket-ledger/internal/infra/lock"
	"event-ticket-ledger/internal/infra/logging"
	"event-ticket-ledger/internal/usecase"

	"github.com/stretchr/testify/require"
)

const owner model.AccountID = "owner.near"

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func storeRepos(s *memory.Store) usecase.Repositories {
	return usecase.Repositories{
		Tickets:   s.Tickets(),
		Members:   s.Members(),
		Ownership: s.Ownership(),
		Admins:    s.Admins(),
		State:     s.LedgerState(),
		Purchases: s.Purchases(),
	}
}

type ledgerOpt func(*usecase.Repositories, *adapter.Locker, *usecase.LedgerOptions)

func withLocker(l adapter.Locker) ledgerOpt {
	return func(_ *usecase.Repositories, dst *adapter.Locker, _ *usecase.LedgerOptions) { *dst = l }
}

func withOwnership(wrap func(repository.OwnershipRepository) repository.OwnershipRepository) ledgerOpt {
	return func(r *usecase.Repositories, _ *adapter.Locker, _ *usecase.LedgerOptions) { r.Ownership = wrap(r.Ownership) }
}

func restrictIssue() ledgerOpt {
	return func(_ *usecase.Repositories, _ *adapter.Locker, o *usecase.LedgerOptions) { o.RestrictIssue = true }
}

// newLedger returns a bootstrapped ledger over a fresh in-memory store.
func newLedger(t *testing.T, opts ...ledgerOpt) (usecase.LedgerUseCase, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	repos := storeRepos(s)
	var locker adapter.Locker = lock.NewKeyedLocker()
	o := usecase.LedgerOptions{LockWait: time.Second, Now: func() time.Time { return fixedNow }}
	for _, fn := range opts {
		fn(&repos, &locker, &o)
	}
	uc := usecase.NewLedgerUseCase(repos, memory.NewTxManager(s), locker, o, logging.Nop())
	require.NoError(t, uc.Bootstrap(context.Background(), owner))
	return uc, s
}

// failingOwnership fails AddTicket after the ticket was already marked used in the same transaction.
type failingOwnership struct {
	repository.OwnershipRepository
	err error
}

func (f *failingOwnership) AddTicket(ctx context.Context, tx repository.Tx, account model.AccountID, code model.TicketCode) error {
	return f.err
}

// busyLocker never grants the lock.
type busyLocker struct{ err error }

func (b busyLocker) TryLock(ctx context.Context, key string, wait time.Duration) (string, error) {
	return "", b.err
}
func (b busyLocker) Unlock(ctx context.Context, key, token string) error { return nil }
