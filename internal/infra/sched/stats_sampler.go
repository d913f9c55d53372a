package sched

import (
	"context"
	"time"

	ucport "event-ticket-ledger/internal/domain/ports/usecase"
	"event-ticket-ledger/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// PoolStatsFunc reports connection pool usage. Nil for stores without a pool.
type PoolStatsFunc func() (total, idle, inUse int32)

// StatsSampler periodically copies ledger totals and pool usage into gauges.
type StatsSampler struct {
	interval time.Duration
	src      ucport.StatsReader
	pool     PoolStatsFunc
	log      *zerolog.Logger
}

func NewStatsSampler(interval time.Duration, src ucport.StatsReader, pool PoolStatsFunc, logger *zerolog.Logger) *StatsSampler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "StatsSampler").Logger()
	return &StatsSampler{interval: interval, src: src, pool: pool, log: &l}
}

// Run samples once immediately, then every interval until ctx is done.
func (s *StatsSampler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("Starting stats sampler")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Stopping stats sampler")
			return ctx.Err()
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *StatsSampler) sample(ctx context.Context) {
	if s.pool != nil {
		metrics.SetDBPoolStats(s.pool())
	}
	st, err := s.src.Stats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("stats sample failed")
		}
		return
	}
	metrics.SetLedgerTickets(st.TicketsIssued, st.TicketsUsed)
	metrics.SetLedgerMembers(st.Members)
	if !st.Consistent {
		s.log.Error().Uint64("used", st.TicketsUsed).Uint64("owned", st.TicketsOwned).Msg("ledger totals disagree")
	}
}
