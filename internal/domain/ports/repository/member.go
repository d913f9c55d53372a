package repository

import (
	"context"

	"event-ticket-ledger/internal/domain/model"
)

// MemberRepository stores one immutable record per account.
type MemberRepository interface {
	// Insert returns ErrAlreadyExists if the account already has a record; nothing is changed.
	Insert(ctx context.Context, tx Tx, m *model.Member) error
	FindByAccount(ctx context.Context, tx Tx, account model.AccountID) (*model.Member, error)
	Count(ctx context.Context, tx Tx) (uint64, error)
}
