//go:build !integration

package redis_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
	"event-ticket-ledger/internal/infra/redis"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberCache(t *testing.T) {
	ctx := context.Background()
	member := &model.Member{AccountID: "alice.near", Email: "a@example.com", JoinAt: time.Unix(1700000000, 0).UTC()}

	t.Run("miss reads the store and fills the cache", func(t *testing.T) {
		innerCalls := 0
		var sets sync.Map
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", goredis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				sets.Store(key, expiration)
				return nil
			},
		}
		inner := &mockInnerMemberRepo{
			FindByAccountFunc: func(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
				innerCalls++
				return member, nil
			},
		}

		d := redis.NewMemberCache(inner, mockRedis, time.Minute)
		got, err := d.FindByAccount(ctx, repository.NoTX, "alice.near")
		require.NoError(t, err)
		assert.Equal(t, member.Email, got.Email)
		assert.Equal(t, 1, innerCalls)

		ttl, ok := sets.Load("ledger:member:alice.near")
		require.True(t, ok)
		assert.Equal(t, time.Minute, ttl)
	})

	t.Run("hit skips the store", func(t *testing.T) {
		payload, _ := json.Marshal(member)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return string(payload), nil },
		}
		inner := &mockInnerMemberRepo{
			FindByAccountFunc: func(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
				t.Fatal("inner repository must not be called on a hit")
				return nil, nil
			},
		}

		d := redis.NewMemberCache(inner, mockRedis, time.Minute)
		got, err := d.FindByAccount(ctx, repository.NoTX, "alice.near")
		require.NoError(t, err)
		assert.Equal(t, member.AccountID, got.AccountID)
		assert.True(t, member.JoinAt.Equal(got.JoinAt))
	})

	t.Run("not found is not cached", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", goredis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				t.Fatal("absent members must not be cached")
				return nil
			},
		}
		inner := &mockInnerMemberRepo{
			FindByAccountFunc: func(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
				return nil, domain.ErrNotFound
			},
		}

		d := redis.NewMemberCache(inner, mockRedis, time.Minute)
		_, err := d.FindByAccount(ctx, repository.NoTX, "bob.near")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("reads inside a transaction bypass the cache", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				t.Fatal("cache must not be consulted inside a transaction")
				return "", nil
			},
		}
		inner := &mockInnerMemberRepo{
			FindByAccountFunc: func(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
				return member, nil
			},
		}

		d := redis.NewMemberCache(inner, mockRedis, time.Minute)
		_, err := d.FindByAccount(ctx, struct{}{}, "alice.near")
		require.NoError(t, err)
	})

	t.Run("insert invalidates the key", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		inner := &mockInnerMemberRepo{
			InsertFunc: func(ctx context.Context, tx repository.Tx, m *model.Member) error { return nil },
		}

		d := redis.NewMemberCache(inner, mockRedis, time.Minute)
		require.NoError(t, d.Insert(ctx, repository.NoTX, member))
		assert.Equal(t, []string{"ledger:member:alice.near"}, deleted)
	})
}

// --- Mocks for member cache tests ---


// mockInnerMemberRepo mocks the database repository that the member decorator wraps.
type mockInnerMemberRepo struct {
	InsertFunc        func(ctx context.Context, tx repository.Tx, m *model.Member) error
	FindByAccountFunc func(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error)
	CountFunc         func(ctx context.Context, tx repository.Tx) (uint64, error)
}

func (m *mockInnerMemberRepo) Insert(ctx context.Context, tx repository.Tx, mem *model.Member) error {
	return m.InsertFunc(ctx, tx, mem)
}
func (m *mockInnerMemberRepo) FindByAccount(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
	return m.FindByAccountFunc(ctx, tx, account)
}
func (m *mockInnerMemberRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	return m.CountFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ redis.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
