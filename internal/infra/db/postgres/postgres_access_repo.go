package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

var (
	_ repository.AdminRepository       = (*adminRepo)(nil)
	_ repository.LedgerStateRepository = (*stateRepo)(nil)
)

type adminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *adminRepo {
	return &adminRepo{pool: pool}
}

func (r *adminRepo) Add(ctx context.Context, tx repository.Tx, account model.AccountID) error {
	_, err := execSQL(ctx, r.pool, tx, `INSERT INTO admin_accounts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`, string(account))
	return wrapErr(err)
}

func (r *adminRepo) Contains(ctx context.Context, tx repository.Tx, account model.AccountID) (bool, error) {
	var ok bool
	if err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM admin_accounts WHERE account_id = $1)`, string(account)).Scan(&ok); err != nil {
		return false, wrapErr(err)
	}
	return ok, nil
}

func (r *adminRepo) List(ctx context.Context, tx repository.Tx) ([]model.AccountID, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT account_id FROM admin_accounts ORDER BY account_id`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := make([]model.AccountID, 0)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, model.AccountID(a))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

type stateRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerStateRepo(pool *pgxpool.Pool) *stateRepo {
	return &stateRepo{pool: pool}
}

func (r *stateRepo) Load(ctx context.Context, tx repository.Tx) (*model.LedgerState, error) {
	// Plain read; every issuer holds the write lock on this row until commit.
	const q = `SELECT owner, price::text, ticket_count, schema_version FROM ledger_state WHERE id = 1`
	var (
		owner, price string
		count        int64
		st           model.LedgerState
	)
	err := pickRow(ctx, r.pool, tx, q).Scan(&owner, &price, &count, &st.SchemaVersion)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	if st.Price, err = decimal.NewFromString(price); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	st.Owner = model.AccountID(owner)
	st.TicketCount = model.TicketCode(count)
	return &st, nil
}

func (r *stateRepo) Init(ctx context.Context, tx repository.Tx, owner model.AccountID, schemaVersion int) error {
	const q = `
INSERT INTO ledger_state (id, owner, price, ticket_count, schema_version)
VALUES (1, $1, 0, 0, $2)
ON CONFLICT (id) DO NOTHING`
	tag, err := execSQL(ctx, r.pool, tx, q, string(owner), schemaVersion)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *stateRepo) SetPrice(ctx context.Context, tx repository.Tx, price decimal.Decimal) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE ledger_state SET price = $1::numeric WHERE id = 1`, price.String())
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
