//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/infra/lock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyTicket_RequestDeadlineWhileWaitingIsBusy(t *testing.T) {
	locker := lock.NewKeyedLocker()
	uc, _ := newLedger(t, withLocker(locker))
	_, err := uc.IssueTicket(context.Background(), owner, 1)
	require.NoError(t, err)

	held, err := locker.TryLock(context.Background(), "ticket:1", time.Second)
	require.NoError(t, err)
	defer locker.Unlock(context.Background(), "ticket:1", held)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = uc.BuyTicket(ctx, "alice.near", 1, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrTicketBusy)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	tk, err := uc.GetInfoTicket(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, tk.IsUsed)
}
