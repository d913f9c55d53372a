package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*memberRepo)(nil)

type memberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *memberRepo {
	return &memberRepo{pool: pool}
}

func (r *memberRepo) Insert(ctx context.Context, tx repository.Tx, m *model.Member) error {
	const q = `
INSERT INTO members (account_id, email, join_at, is_active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (account_id) DO NOTHING`
	tag, err := execSQL(ctx, r.pool, tx, q, string(m.AccountID), m.Email, m.JoinAt, m.IsActive)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *memberRepo) FindByAccount(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
	const q = `SELECT account_id, email, join_at, is_active FROM members WHERE account_id = $1`
	var (
		m  model.Member
		id string
	)
	err := pickRow(ctx, r.pool, tx, q, string(account)).Scan(&id, &m.Email, &m.JoinAt, &m.IsActive)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	m.AccountID = model.AccountID(id)
	return &m, nil
}

func (r *memberRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	var n int64
	if err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, wrapErr(err)
	}
	return uint64(n), nil
}
