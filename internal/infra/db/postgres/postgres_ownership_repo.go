package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

var _ repository.OwnershipRepository = (*ownershipRepo)(nil)

type ownershipRepo struct {
	pool *pgxpool.Pool
}

func NewOwnershipRepo(pool *pgxpool.Pool) *ownershipRepo {
	return &ownershipRepo{pool: pool}
}

func (r *ownershipRepo) AddTicket(ctx context.Context, tx repository.Tx, account model.AccountID, code model.TicketCode) error {
	_, err := execSQL(ctx, r.pool, tx, `INSERT INTO ticket_owners (code, account_id) VALUES ($1, $2)`, int64(code), string(account))
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return wrapErr(err)
}

func (r *ownershipRepo) ListTickets(ctx context.Context, tx repository.Tx, account model.AccountID) ([]model.TicketCode, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT code FROM ticket_owners WHERE account_id = $1 ORDER BY code`, string(account))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := make([]model.TicketCode, 0)
	for rows.Next() {
		var c int64
		if err := rows.Scan(&c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, model.TicketCode(c))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *ownershipRepo) OwnerOf(ctx context.Context, tx repository.Tx, code model.TicketCode) (model.AccountID, error) {
	var acct string
	err := pickRow(ctx, r.pool, tx, `SELECT account_id FROM ticket_owners WHERE code = $1`, int64(code)).Scan(&acct)
	if err == pgx.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", wrapErr(err)
	}
	return model.AccountID(acct), nil
}

func (r *ownershipRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	var n int64
	if err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM ticket_owners`).Scan(&n); err != nil {
		return 0, wrapErr(err)
	}
	return uint64(n), nil
}
