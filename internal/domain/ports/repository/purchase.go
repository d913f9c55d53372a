package repository

import (
	"context"

	"event-ticket-ledger/internal/domain/model"
)

// PurchaseRepository is the append-only receipt log.
type PurchaseRepository interface {
	Append(ctx context.Context, tx Tx, p *model.Purchase) error
	ListByBuyer(ctx context.Context, tx Tx, buyer model.AccountID) ([]*model.Purchase, error)
}
