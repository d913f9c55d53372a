// File: internal/infra/redis/member_cache.go
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
	"event-ticket-ledger/internal/infra/metrics"
)

var _ repository.MemberRepository = (*memberCache)(nil)

// memberCache caches member lookups of a durable store. Members never change once written,
// so entries are only dropped by TTL. Reads inside a transaction bypass the cache.
type memberCache struct {
	inner repository.MemberRepository
	cache RedisClient
	ttl   time.Duration
}

func NewMemberCache(inner repository.MemberRepository, cache RedisClient, ttl time.Duration) repository.MemberRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memberCache{inner: inner, cache: cache, ttl: ttl}
}

func memberKey(account model.AccountID) string { return fmt.Sprintf("ledger:member:%s", account) }

func (d *memberCache) Insert(ctx context.Context, tx repository.Tx, m *model.Member) error {
	_ = d.cache.Del(ctx, memberKey(m.AccountID))
	return d.inner.Insert(ctx, tx, m)
}

func (d *memberCache) FindByAccount(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
	if tx != nil {
		return d.inner.FindByAccount(ctx, tx, account)
	}
	key := memberKey(account)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var m model.Member
		if json.Unmarshal([]byte(val), &m) == nil {
			metrics.IncCacheRequest("member", "hit")
			return &m, nil
		}
	}

	metrics.IncCacheRequest("member", "miss")
	m, err := d.inner.FindByAccount(ctx, tx, account)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(m); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return m, nil
}

func (d *memberCache) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	return d.inner.Count(ctx, tx)
}
