package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

func (r *purchaseRepo) Append(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (id, buyer, ticket_code, paid, price, purchased_at)
VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6)`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, string(p.Buyer), int64(p.TicketCode), p.Paid.String(), p.Price.String(), p.PurchasedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return wrapErr(err)
}

func (r *purchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyer model.AccountID) ([]*model.Purchase, error) {
	const q = `
SELECT id, buyer, ticket_code, paid::text, price::text, purchased_at
  FROM purchases
 WHERE buyer = $1
 ORDER BY purchased_at, id`
	rows, err := queryRows(ctx, r.pool, tx, q, string(buyer))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := make([]*model.Purchase, 0)
	for rows.Next() {
		var (
			p              model.Purchase
			b, paid, price string
			code           int64
		)
		if err := rows.Scan(&p.ID, &b, &code, &paid, &price, &p.PurchasedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		p.Buyer = model.AccountID(b)
		p.TicketCode = model.TicketCode(code)
		if p.Paid, err = decimal.NewFromString(paid); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
