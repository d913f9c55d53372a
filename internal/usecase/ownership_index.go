package usecase

import (
	"context"
	"errors"
	"fmt"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

// Compile-time check
var _ OwnershipIndex = (*ownershipIndex)(nil)

// OwnershipIndex maps accounts to the ticket codes they bought.
type OwnershipIndex interface {
	// AddTicket must run in the same transaction that marked the ticket used.
	AddTicket(ctx context.Context, tx repository.Tx, account model.AccountID, code model.TicketCode) error
	// ListTickets returns ascending codes, never nil.
	ListTickets(ctx context.Context, tx repository.Tx, account model.AccountID) ([]model.TicketCode, error)
	Count(ctx context.Context, tx repository.Tx) (uint64, error)
}

type ownershipIndex struct {
	owners repository.OwnershipRepository
}

func NewOwnershipIndex(owners repository.OwnershipRepository) *ownershipIndex {
	return &ownershipIndex{owners: owners}
}

func (o *ownershipIndex) AddTicket(ctx context.Context, tx repository.Tx, account model.AccountID, code model.TicketCode) error {
	err := o.owners.AddTicket(ctx, tx, account, code)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("ticket %d already has an owner: %w", code, domain.ErrTicketAlreadyUsed)
	}
	return err
}

func (o *ownershipIndex) ListTickets(ctx context.Context, tx repository.Tx, account model.AccountID) ([]model.TicketCode, error) {
	codes, err := o.owners.ListTickets(ctx, tx, account)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []model.TicketCode{}
	}
	return codes, nil
}

func (o *ownershipIndex) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	return o.owners.Count(ctx, tx)
}
