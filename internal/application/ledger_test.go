//go:build !integration

package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-ticket-ledger/internal/application"
	"event-ticket-ledger/internal/config"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/infra/logging"
)

func memoryConfig(owner string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Ledger:   config.LedgerConfig{OwnerAccount: owner},
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	ctx := context.Background()
	l, err := application.Build(ctx, memoryConfig("owner.near"), logging.Nop())
	require.NoError(t, err)
	defer l.Close()

	assert.Nil(t, l.Limiter)
	assert.Nil(t, l.Health)
	assert.Nil(t, l.PoolStats)

	owner, err := l.UseCase.GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AccountID("owner.near"), owner)

	admins, err := l.UseCase.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.AccountID{"owner.near"}, admins)
}

func TestBuild_RejectsBadOwner(t *testing.T) {
	_, err := application.Build(context.Background(), memoryConfig("Not An Account"), logging.Nop())
	assert.Error(t, err)

	cfg := memoryConfig("owner.near")
	cfg.Database.Driver = "sqlite"
	_, err = application.Build(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}
