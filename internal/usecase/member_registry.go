package usecase

import (
	"context"
	"errors"
	"time"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

// Compile-time check
var _ MemberRegistry = (*memberRegistry)(nil)

// MemberRegistry keeps at most one Member per account.
type MemberRegistry interface {
	// Register is idempotent: a second call reports "already registered" and changes nothing.
	// The error is reserved for store failures.
	Register(ctx context.Context, tx repository.Tx, account model.AccountID, email string, at time.Time) (model.RegisterResult, error)
	// Get returns (nil, nil) for an unknown account.
	Get(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error)
	Count(ctx context.Context, tx repository.Tx) (uint64, error)
}

type memberRegistry struct {
	members repository.MemberRepository
}

func NewMemberRegistry(members repository.MemberRepository) *memberRegistry {
	return &memberRegistry{members: members}
}

func (r *memberRegistry) Register(ctx context.Context, tx repository.Tx, account model.AccountID, email string, at time.Time) (model.RegisterResult, error) {
	existing, err := r.Get(ctx, tx, account)
	if err != nil {
		return model.RegisterResult{}, err
	}
	if existing != nil {
		return model.RegisterResult{Success: false, Message: model.RegisterAlready}, nil
	}
	err = r.members.Insert(ctx, tx, model.NewMember(account, email, at))
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		// lost a race with a concurrent registration of the same account
		return model.RegisterResult{Success: false, Message: model.RegisterAlready}, nil
	case err != nil:
		return model.RegisterResult{}, err
	}
	return model.RegisterResult{Success: true, Message: model.RegisterOK}, nil
}

func (r *memberRegistry) Get(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
	m, err := r.members.FindByAccount(ctx, tx, account)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

func (r *memberRegistry) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	return r.members.Count(ctx, tx)
}
