package repository

import (
	"context"
	"time"

	"event-ticket-ledger/internal/domain/model"
)

// TicketRepository persists issued tickets.
type TicketRepository interface {
	// Append allocates codes last+1..last+count from the ledger counter and stores unused
	// tickets created at `at`. Allocation and insert happen under the caller's tx.
	Append(ctx context.Context, tx Tx, count int, at time.Time) ([]*model.Ticket, error)
	// FindByCode returns ErrNotFound for unknown codes. Inside a tx the row is locked.
	FindByCode(ctx context.Context, tx Tx, code model.TicketCode) (*model.Ticket, error)
	// MarkUsed flips is_used only if it is still false; it returns ErrTicketAlreadyUsed
	// when the compare fails and ErrNotFound for unknown codes.
	MarkUsed(ctx context.Context, tx Tx, code model.TicketCode) error
	Count(ctx context.Context, tx Tx) (uint64, error)
	CountUsed(ctx context.Context, tx Tx) (uint64, error)
}
