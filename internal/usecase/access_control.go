package usecase

import (
	"context"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

// Compile-time check
var _ AccessControl = (*accessControl)(nil)

// AccessControl answers who may run privileged operations: the owner and the admins.
type AccessControl interface {
	Owner(ctx context.Context, tx repository.Tx) (model.AccountID, error)
	IsPrivileged(ctx context.Context, tx repository.Tx, account model.AccountID) (bool, error)
	// AddAdmin is owner-only and idempotent.
	AddAdmin(ctx context.Context, tx repository.Tx, caller, account model.AccountID) error
	Admins(ctx context.Context, tx repository.Tx) ([]model.AccountID, error)
}

type accessControl struct {
	state  repository.LedgerStateRepository
	admins repository.AdminRepository
}

func NewAccessControl(state repository.LedgerStateRepository, admins repository.AdminRepository) *accessControl {
	return &accessControl{state: state, admins: admins}
}

func (a *accessControl) Owner(ctx context.Context, tx repository.Tx) (model.AccountID, error) {
	st, err := loadState(ctx, a.state, tx)
	if err != nil {
		return "", err
	}
	return st.Owner, nil
}

func (a *accessControl) IsPrivileged(ctx context.Context, tx repository.Tx, account model.AccountID) (bool, error) {
	if account == "" {
		return false, nil
	}
	owner, err := a.Owner(ctx, tx)
	if err != nil {
		return false, err
	}
	if account == owner {
		return true, nil
	}
	return a.admins.Contains(ctx, tx, account)
}

func (a *accessControl) AddAdmin(ctx context.Context, tx repository.Tx, caller, account model.AccountID) error {
	owner, err := a.Owner(ctx, tx)
	if err != nil {
		return err
	}
	if caller != owner {
		return domain.ErrNotOwner
	}
	return a.admins.Add(ctx, tx, account)
}

func (a *accessControl) Admins(ctx context.Context, tx repository.Tx) ([]model.AccountID, error) {
	list, err := a.admins.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.AccountID{}
	}
	return list, nil
}
