package repository

import (
	"context"

	"event-ticket-ledger/internal/domain/model"
)

// OwnershipRepository maps accounts to the ticket codes they hold.
// A code belongs to at most one account; AddTicket returns ErrAlreadyExists otherwise.
type OwnershipRepository interface {
	AddTicket(ctx context.Context, tx Tx, account model.AccountID, code model.TicketCode) error
	ListTickets(ctx context.Context, tx Tx, account model.AccountID) ([]model.TicketCode, error)
	OwnerOf(ctx context.Context, tx Tx, code model.TicketCode) (model.AccountID, error)
	Count(ctx context.Context, tx Tx) (uint64, error)
}
