package usecase

import (
	"context"

	"event-ticket-ledger/internal/domain/model"
)

// StatsReader is the read-only slice of the ledger needed by background samplers.
type StatsReader interface {
	Stats(ctx context.Context) (*model.Stats, error)
}
