package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"event-ticket-ledger/internal/domain/model"
)

// AdminRepository holds the grow-only admin set.
type AdminRepository interface {
	// Add is idempotent.
	Add(ctx context.Context, tx Tx, account model.AccountID) error
	Contains(ctx context.Context, tx Tx, account model.AccountID) (bool, error)
	List(ctx context.Context, tx Tx) ([]model.AccountID, error)
}

// LedgerStateRepository holds the singleton scalars: owner, price, schema version.
type LedgerStateRepository interface {
	// Load returns ErrNotFound before Init.
	Load(ctx context.Context, tx Tx) (*model.LedgerState, error)
	// Init creates the singleton with owner and schemaVersion. ErrAlreadyExists if present.
	Init(ctx context.Context, tx Tx, owner model.AccountID, schemaVersion int) error
	SetPrice(ctx context.Context, tx Tx, price decimal.Decimal) error
}
