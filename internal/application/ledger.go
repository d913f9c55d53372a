// Package application assembles a ready-to-serve ledger from configuration.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"event-ticket-ledger/internal/config"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/adapter"
	"event-ticket-ledger/internal/domain/ports/repository"
	"event-ticket-ledger/internal/infra/db/memory"
	pg "event-ticket-ledger/internal/infra/db/postgres"
	"event-ticket-ledger/internal/infra/lock"
	red "event-ticket-ledger/internal/infra/redis"
	"event-ticket-ledger/internal/infra/sched"
	"event-ticket-ledger/internal/infra/web"
	"event-ticket-ledger/internal/usecase"
)

// Ledger is the wired ledger plus the hooks the outer layers need.
type Ledger struct {
	UseCase   usecase.LedgerUseCase
	Limiter   web.Limiter         // nil without Redis
	Health    web.HealthFunc      // nil for the memory store
	PoolStats sched.PoolStatsFunc // nil for the memory store

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (l *Ledger) Close() {
	for i := len(l.closers) - 1; i >= 0; i-- {
		l.closers[i]()
	}
	l.closers = nil
}

// Build connects the configured store and Redis, migrates, and bootstraps the owner.
func Build(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*Ledger, error) {
	owner, err := model.ParseAccountID(cfg.Ledger.OwnerAccount)
	if err != nil {
		return nil, fmt.Errorf("ledger.owner_account: %w", err)
	}

	l := &Ledger{}
	var (
		repos usecase.Repositories
		tm    repository.TransactionManager
	)
	switch cfg.Database.Driver {
	case "memory":
		s := memory.NewStore()
		repos = usecase.Repositories{
			Tickets:   s.Tickets(),
			Members:   s.Members(),
			Ownership: s.Ownership(),
			Admins:    s.Admins(),
			State:     s.LedgerState(),
			Purchases: s.Purchases(),
		}
		tm = memory.NewTxManager(s)
		log.Warn().Msg("using in-memory store; state is lost on exit")
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		l.closers = append(l.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, log); err != nil {
			l.Close()
			return nil, err
		}
		repos = usecase.Repositories{
			Tickets:   pg.NewTicketRepo(pool),
			Members:   pg.NewMemberRepo(pool),
			Ownership: pg.NewOwnershipRepo(pool),
			Admins:    pg.NewAdminRepo(pool),
			State:     pg.NewLedgerStateRepo(pool),
			Purchases: pg.NewPurchaseRepo(pool),
		}
		tm = pg.NewTxManager(pool)
		l.Health = func(ctx context.Context) error { return pool.Ping(ctx) }
		l.PoolStats = func() (int32, int32, int32) {
			st := pool.Stat()
			return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	var locker adapter.Locker = lock.NewKeyedLocker()
	lockBackend := "local"
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		l.closers = append(l.closers, func() { _ = client.Close() })
		locker = red.NewLocker(client, cfg.Ledger.LockTTL)
		lockBackend = "redis"
		cacheMembers(&repos, cfg.Database.Driver, client, cfg.Redis.TTL)
		if cfg.RateLimit.Requests > 0 {
			l.Limiter = red.NewRateLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
		dbHealth := l.Health
		l.Health = func(ctx context.Context) error {
			if dbHealth != nil {
				if err := dbHealth(ctx); err != nil {
					return err
				}
			}
			return client.Ping(ctx)
		}
	}

	l.UseCase = usecase.NewLedgerUseCase(repos, tm, locker, usecase.LedgerOptions{
		LockWait:      cfg.Ledger.LockWait,
		RestrictIssue: cfg.Ledger.RestrictIssue,
		LockBackend:   lockBackend,
		Dev:           cfg.Runtime.Dev,
	}, log)

	if err := l.UseCase.Bootstrap(ctx, owner); err != nil {
		l.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return l, nil
}

// cacheMembers fronts durable stores with the Redis member cache. Cache entries outlive an
// in-memory store, so that store is never cached.
func cacheMembers(repos *usecase.Repositories, driver string, cache red.RedisClient, ttl time.Duration) {
	if driver != "postgres" {
		return
	}
	repos.Members = red.NewMemberCache(repos.Members, cache, ttl)
}
