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
var _ TicketRegistry = (*ticketRegistry)(nil)

// TicketRegistry owns sequential numbering and per-ticket state.
type TicketRegistry interface {
	// Issue appends count unused tickets after the last issued code.
	Issue(ctx context.Context, tx repository.Tx, count int, at time.Time) ([]*model.Ticket, error)
	// Get returns (nil, nil) for an unknown code.
	Get(ctx context.Context, tx repository.Tx, code model.TicketCode) (*model.Ticket, error)
	MarkUsed(ctx context.Context, tx repository.Tx, code model.TicketCode) error
	Totals(ctx context.Context, tx repository.Tx) (issued, used uint64, err error)
}

type ticketRegistry struct {
	tickets repository.TicketRepository
}

func NewTicketRegistry(tickets repository.TicketRepository) *ticketRegistry {
	return &ticketRegistry{tickets: tickets}
}

func (r *ticketRegistry) Issue(ctx context.Context, tx repository.Tx, count int, at time.Time) ([]*model.Ticket, error) {
	if err := model.ValidateIssueCount(count); err != nil {
		return nil, err
	}
	return r.tickets.Append(ctx, tx, count, at)
}

func (r *ticketRegistry) Get(ctx context.Context, tx repository.Tx, code model.TicketCode) (*model.Ticket, error) {
	t, err := r.tickets.FindByCode(ctx, tx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

func (r *ticketRegistry) MarkUsed(ctx context.Context, tx repository.Tx, code model.TicketCode) error {
	t, err := r.Get(ctx, tx, code)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrTicketNotFound
	}
	if t.IsUsed {
		return domain.ErrTicketAlreadyUsed
	}
	err = r.tickets.MarkUsed(ctx, tx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrTicketNotFound
	}
	return err
}

func (r *ticketRegistry) Totals(ctx context.Context, tx repository.Tx) (uint64, uint64, error) {
	issued, err := r.tickets.Count(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	used, err := r.tickets.CountUsed(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	return issued, used, nil
}
